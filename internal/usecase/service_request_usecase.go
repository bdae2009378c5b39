package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type ServiceRequestUsecase struct {
	requests repo.ServiceRequestRepository
	clock    Clock
}

func NewServiceRequestUsecase(requests repo.ServiceRequestRepository, clock Clock) *ServiceRequestUsecase {
	return &ServiceRequestUsecase{requests: requests, clock: clock}
}

type CreateServiceRequestInput struct {
	Title            string     `json:"title" validate:"required,max=255"`
	Description      string     `json:"description" validate:"required,max=10000"`
	Location         string     `json:"location" validate:"max=255"`
	VolunteersNeeded int        `json:"volunteers_needed" validate:"required,gt=0,lte=10000"`
	Skills           []string   `json:"skills" validate:"max=30,dive,max=50"`
	StartsAt         *time.Time `json:"starts_at"`
}

type ListServiceRequestsInput struct {
	NGOID  *int64
	Status string
	Page   int
	Limit  int
}

type ServiceRequestListOutput struct {
	Requests []model.ServiceRequest `json:"requests"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	Limit    int                    `json:"limit"`
}

func (u *ServiceRequestUsecase) Create(ctx context.Context, actor model.Actor, in CreateServiceRequestInput) (model.ServiceRequest, error) {
	if actor.UserID <= 0 {
		return model.ServiceRequest{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if actor.UserType != model.UserTypeNGO {
		return model.ServiceRequest{}, NewHTTPError(http.StatusForbidden, "only NGOs can post service requests")
	}
	if !actor.IsVerified {
		return model.ServiceRequest{}, verificationRequired()
	}

	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" || len(title) > 255 {
		return model.ServiceRequest{}, NewHTTPError(http.StatusBadRequest, "invalid title")
	}
	if desc == "" {
		return model.ServiceRequest{}, NewHTTPError(http.StatusBadRequest, "description required")
	}
	if in.VolunteersNeeded < 1 {
		return model.ServiceRequest{}, NewHTTPError(http.StatusBadRequest, "volunteers_needed must be > 0")
	}

	now := u.clock.Now()
	if in.StartsAt != nil && in.StartsAt.Before(now) {
		return model.ServiceRequest{}, NewHTTPError(http.StatusBadRequest, "starts_at must be in the future")
	}

	skills := make([]string, 0, len(in.Skills))
	for _, s := range in.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}

	sr := model.ServiceRequest{
		NGOID:            actor.UserID,
		Title:            title,
		Description:      desc,
		Location:         strings.TrimSpace(in.Location),
		VolunteersNeeded: in.VolunteersNeeded,
		Skills:           skills,
		StartsAt:         in.StartsAt,
		Status:           model.ServiceRequestOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.requests.Create(ctx, &sr); err != nil {
		return model.ServiceRequest{}, dbError(err)
	}
	return sr, nil
}

// statusを指定しなければopenだけ
func (u *ServiceRequestUsecase) List(ctx context.Context, in ListServiceRequestsInput) (ServiceRequestListOutput, error) {
	if in.Page < 1 {
		return ServiceRequestListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ServiceRequestListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	status := model.ServiceRequestOpen
	switch strings.TrimSpace(in.Status) {
	case "", string(model.ServiceRequestOpen):
	case string(model.ServiceRequestClosed):
		status = model.ServiceRequestClosed
	default:
		return ServiceRequestListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	rows, total, err := u.requests.List(ctx, repo.ServiceRequestFilter{NGOID: in.NGOID, Status: &status, Page: in.Page, Limit: in.Limit})
	if err != nil {
		return ServiceRequestListOutput{}, dbError(err)
	}
	return ServiceRequestListOutput{Requests: rows, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ServiceRequestUsecase) Get(ctx context.Context, id int64) (model.ServiceRequest, error) {
	if id <= 0 {
		return model.ServiceRequest{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sr, err := u.requests.FindByID(ctx, id)
	if err != nil {
		return model.ServiceRequest{}, repoError(err)
	}
	return sr, nil
}

// 募集を締め切る（投稿したNGOだけ）
func (u *ServiceRequestUsecase) Close(ctx context.Context, actor model.Actor, id int64) (model.ServiceRequest, error) {
	if actor.UserID <= 0 {
		return model.ServiceRequest{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	sr, err := u.Get(ctx, id)
	if err != nil {
		return model.ServiceRequest{}, err
	}
	if sr.NGOID != actor.UserID {
		return model.ServiceRequest{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if sr.Status == model.ServiceRequestClosed {
		return model.ServiceRequest{}, NewHTTPError(http.StatusConflict, "already closed")
	}

	if err := u.requests.UpdateStatus(ctx, id, model.ServiceRequestClosed); err != nil {
		return model.ServiceRequest{}, repoError(err)
	}
	sr.Status = model.ServiceRequestClosed
	sr.UpdatedAt = u.clock.Now()
	return sr, nil
}
