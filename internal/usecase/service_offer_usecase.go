package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type ServiceOfferUsecase struct {
	offers repo.ServiceOfferRepository
	clock  Clock
	v      Validator
}

func NewServiceOfferUsecase(offers repo.ServiceOfferRepository, clock Clock, v Validator) *ServiceOfferUsecase {
	return &ServiceOfferUsecase{offers: offers, clock: clock, v: v}
}

type CreateServiceOfferInput struct {
	Title        string             `json:"title" validate:"required,max=255"`
	Description  string             `json:"description" validate:"required,max=10000"`
	Location     string             `json:"location" validate:"max=255"`
	Requirements model.Requirements `json:"requirements"`
	WageInfo     model.WageInfo     `json:"wage_info"`
}

// 一覧・詳細の1行（レビュー待ちなら残り時間付き）
type ServiceOfferView struct {
	model.ServiceOffer
	ReviewTimer *model.ReviewTimer `json:"review_timer,omitempty"`
}

type ServiceOfferListOutput struct {
	Offers []ServiceOfferView `json:"offers"`
	Total  int64              `json:"total"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
}

// 認証済みのNGOだけ投稿できる。最初はpending
func (u *ServiceOfferUsecase) Create(ctx context.Context, actor model.Actor, in CreateServiceOfferInput) (ServiceOfferView, error) {
	if actor.UserID <= 0 {
		return ServiceOfferView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if actor.UserType != model.UserTypeNGO {
		return ServiceOfferView{}, NewHTTPError(http.StatusForbidden, "only NGOs can post service offers")
	}
	if !actor.IsVerified {
		return ServiceOfferView{}, verificationRequired()
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := u.v.Validate(&in); err != nil {
		return ServiceOfferView{}, wrapHTTPError(http.StatusBadRequest, "invalid input", err)
	}
	if err := u.v.Validate(&in.WageInfo); err != nil {
		return ServiceOfferView{}, wrapHTTPError(http.StatusBadRequest, "invalid wage_info", err)
	}
	if err := in.WageInfo.Validate(); err != nil {
		return ServiceOfferView{}, wrapHTTPError(http.StatusBadRequest, "invalid wage_info", err)
	}
	if err := u.v.Validate(&in.Requirements); err != nil {
		return ServiceOfferView{}, wrapHTTPError(http.StatusBadRequest, "invalid requirements", err)
	}

	now := u.clock.Now()
	o := model.ServiceOffer{
		NGOID:        actor.UserID,
		Title:        in.Title,
		Description:  in.Description,
		Location:     strings.TrimSpace(in.Location),
		Requirements: in.Requirements,
		WageInfo:     in.WageInfo,
		AdminStatus:  model.AdminStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.offers.Create(ctx, &o); err != nil {
		return ServiceOfferView{}, dbError(err)
	}
	return viewOf(o, now), nil
}

// 公開一覧は承認済みだけ
func (u *ServiceOfferUsecase) ListApproved(ctx context.Context, page, limit int) (ServiceOfferListOutput, error) {
	approved := model.AdminStatusApproved
	return u.list(ctx, repo.ServiceOfferFilter{AdminStatus: &approved, Page: page, Limit: limit})
}

func (u *ServiceOfferUsecase) ListMine(ctx context.Context, actor model.Actor, page, limit int) (ServiceOfferListOutput, error) {
	if actor.UserID <= 0 {
		return ServiceOfferListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.list(ctx, repo.ServiceOfferFilter{NGOID: int64Ptr(actor.UserID), Page: page, Limit: limit})
}

// 承認前のものは投稿したNGOと管理者にだけ見せる
func (u *ServiceOfferUsecase) Get(ctx context.Context, actor model.Actor, id int64) (ServiceOfferView, error) {
	if id <= 0 {
		return ServiceOfferView{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.offers.FindByID(ctx, id)
	if err != nil {
		return ServiceOfferView{}, repoError(err)
	}
	if o.AdminStatus != model.AdminStatusApproved && !actor.IsAdmin() && o.NGOID != actor.UserID {
		return ServiceOfferView{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return viewOf(o, u.clock.Now()), nil
}

func (u *ServiceOfferUsecase) list(ctx context.Context, f repo.ServiceOfferFilter) (ServiceOfferListOutput, error) {
	if f.Page < 1 {
		return ServiceOfferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return ServiceOfferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	rows, total, err := u.offers.List(ctx, f)
	if err != nil {
		return ServiceOfferListOutput{}, dbError(err)
	}

	now := u.clock.Now()
	views := make([]ServiceOfferView, 0, len(rows))
	for _, o := range rows {
		views = append(views, viewOf(o, now))
	}
	return ServiceOfferListOutput{Offers: views, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func viewOf(o model.ServiceOffer, now time.Time) ServiceOfferView {
	v := ServiceOfferView{ServiceOffer: o}
	if o.AdminStatus == model.AdminStatusPending {
		t := model.RemainingReviewTime(o.CreatedAt, now)
		v.ReviewTimer = &t
	}
	return v
}
