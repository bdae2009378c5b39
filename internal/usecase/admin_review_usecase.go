package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 期限切れで自動却下したときのコメント
const AutoRejectComment = "Automatically rejected: not reviewed within 5 days"

type AdminReviewUsecase struct {
	tx        repo.TransactionManager
	clock     Clock
	ids       IDGenerator
	metrics   Metrics
	publisher event.Publisher
}

func NewAdminReviewUsecase(tx repo.TransactionManager, clock Clock, ids IDGenerator, metrics Metrics, publisher event.Publisher) *AdminReviewUsecase {
	return &AdminReviewUsecase{tx: tx, clock: clock, ids: ids, metrics: metrics, publisher: publisher}
}

type ReviewServiceOfferInput struct {
	Action   string `json:"action" validate:"required,oneof=approve reject"`
	Comments string `json:"comments" validate:"max=1000"`
}

type AutoRejectOutput struct {
	Count int     `json:"count"`
	IDs   []int64 `json:"ids"`
}

// レビュー待ちを期限が近い順に
func (u *AdminReviewUsecase) Queue(ctx context.Context, page, limit int) (ServiceOfferListOutput, error) {
	if page < 1 {
		return ServiceOfferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return ServiceOfferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	pending := model.AdminStatusPending
	var out ServiceOfferListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rows, total, err := r.ServiceOffers().List(ctx, repo.ServiceOfferFilter{AdminStatus: &pending, Page: page, Limit: limit})
		if err != nil {
			return dbError(err)
		}

		now := u.clock.Now()
		views := make([]ServiceOfferView, 0, len(rows))
		for _, o := range rows {
			views = append(views, viewOf(o, now))
		}
		out = ServiceOfferListOutput{Offers: views, Total: total, Page: page, Limit: limit}
		return nil
	})
	if err != nil {
		return ServiceOfferListOutput{}, err
	}
	return out, nil
}

// pendingのときだけ。期限切れでも手動レビューはできる
func (u *AdminReviewUsecase) Review(ctx context.Context, actor model.Actor, offerID int64, in ReviewServiceOfferInput) (model.ServiceOffer, error) {
	if actor.UserID <= 0 {
		return model.ServiceOffer{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return model.ServiceOffer{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if offerID <= 0 {
		return model.ServiceOffer{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var status model.AdminStatus
	switch strings.TrimSpace(in.Action) {
	case "approve":
		status = model.AdminStatusApproved
	case "reject":
		status = model.AdminStatusRejected
	default:
		return model.ServiceOffer{}, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	comments := strings.TrimSpace(in.Comments)
	if len(comments) > 1000 {
		return model.ServiceOffer{}, NewHTTPError(http.StatusBadRequest, "comments too long")
	}

	var out model.ServiceOffer
	var evt event.Event

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.ServiceOffers().FindByID(ctx, offerID)
		if err != nil {
			return repoError(err)
		}
		if o.AdminStatus != model.AdminStatusPending {
			return NewHTTPError(http.StatusConflict, "already reviewed")
		}

		now := u.clock.Now()
		if err := r.ServiceOffers().Review(ctx, offerID, status, actor.UserID, comments, now); err != nil {
			if err == repo.ErrConflict {
				return NewHTTPError(http.StatusConflict, "already reviewed")
			}
			return repoError(err)
		}

		//監査ログ
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  int64Ptr(actor.UserID),
			Action:       model.AuditActionReviewServiceOffer,
			ResourceType: model.AuditResourceServiceOffer,
			ResourceID:   offerID,
			BeforeJSON:   toJSON(map[string]string{"admin_status": string(o.AdminStatus)}),
			AfterJSON:    toJSON(map[string]string{"admin_status": string(status), "comments": comments}),
			CreatedAt:    now,
		}); err != nil {
			return dbError(err)
		}

		o.AdminStatus = status
		o.AdminReviewedAt = &now
		o.AdminReviewedBy = int64Ptr(actor.UserID)
		o.AdminComments = comments
		o.UpdatedAt = now

		out = o
		evt = u.reviewEvent(o, now)
		return nil
	})
	if err != nil {
		return model.ServiceOffer{}, err
	}

	publishAll(ctx, u.publisher, []event.Event{evt})
	return out, nil
}

// 5日を過ぎたpendingをまとめてrejectedにする（approved/rejectedは触らない）
// actorがnilならシステム実行（cmd/autoreject）
func (u *AdminReviewUsecase) AutoReject(ctx context.Context, actor *model.Actor) (AutoRejectOutput, error) {
	var actorID *int64
	if actor != nil {
		if !actor.IsAdmin() {
			return AutoRejectOutput{}, NewHTTPError(http.StatusForbidden, "admin only")
		}
		actorID = int64Ptr(actor.UserID)
	}

	out := AutoRejectOutput{IDs: []int64{}}
	var evts []event.Event

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.clock.Now()
		cutoff := now.Add(-model.ReviewSLA)

		rejected, err := r.ServiceOffers().RejectExpired(ctx, cutoff, AutoRejectComment, now)
		if err != nil {
			return dbError(err)
		}

		for _, o := range rejected {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actorID,
				Action:       model.AuditActionAutoRejectServiceOffer,
				ResourceType: model.AuditResourceServiceOffer,
				ResourceID:   o.ID,
				BeforeJSON:   toJSON(map[string]string{"admin_status": string(model.AdminStatusPending)}),
				AfterJSON: toJSON(map[string]string{
					"admin_status": string(model.AdminStatusRejected),
					"comments":     AutoRejectComment,
					"deadline":     o.ReviewDeadline().Format(time.RFC3339),
				}),
				CreatedAt: now,
			}); err != nil {
				return dbError(err)
			}

			o.AdminStatus = model.AdminStatusRejected
			o.AdminComments = AutoRejectComment
			evts = append(evts, u.reviewEvent(o, now))
			out.IDs = append(out.IDs, o.ID)
		}
		out.Count = len(out.IDs)
		return nil
	})
	if err != nil {
		return AutoRejectOutput{}, err
	}

	u.metrics.AutoRejected(out.Count)
	publishAll(ctx, u.publisher, evts)
	return out, nil
}

func (u *AdminReviewUsecase) reviewEvent(o model.ServiceOffer, now time.Time) event.Event {
	msg := fmt.Sprintf("Your service offer %q was %s.", o.Title, o.AdminStatus)
	if o.AdminComments != "" {
		msg += " " + o.AdminComments
	}
	return event.Event{
		ID:           u.ids.NewID(),
		Type:         event.ServiceOfferReviewed,
		ResourceType: string(model.AuditResourceServiceOffer),
		ResourceID:   o.ID,
		Recipients:   []int64{o.NGOID},
		Title:        "Service offer " + string(o.AdminStatus),
		Message:      msg,
		Attributes: map[string]string{
			"admin_status": string(o.AdminStatus),
			"offer_id":     strconv.FormatInt(o.ID, 10),
		},
		OccurredAt: now,
	}
}
