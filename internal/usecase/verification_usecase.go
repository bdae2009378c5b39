package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type VerificationUsecase struct {
	tx        repo.TransactionManager
	v         Validator
	clock     Clock
	ids       IDGenerator
	publisher event.Publisher
}

func NewVerificationUsecase(tx repo.TransactionManager, v Validator, clock Clock, ids IDGenerator, publisher event.Publisher) *VerificationUsecase {
	return &VerificationUsecase{tx: tx, v: v, clock: clock, ids: ids, publisher: publisher}
}

type ReviewVerificationInput struct {
	Action   string `json:"action" validate:"required,oneof=approve reject"`
	Comments string `json:"comments" validate:"max=1000"`
}

type ListVerificationsInput struct {
	UserType string
	Status   string
	Limit    int
}

// 本人のuser_typeの申請として読む
func (u *VerificationUsecase) Submit(ctx context.Context, actor model.Actor, raw json.RawMessage) (model.Verification, error) {
	if actor.UserID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	v, err := newVerificationFor(actor.UserType, actor.UserID, raw)
	if err != nil {
		return nil, wrapHTTPError(http.StatusBadRequest, "invalid verification", err)
	}
	if err := u.v.Validate(v); err != nil {
		return nil, wrapHTTPError(http.StatusBadRequest, "invalid verification", err)
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := r.Verifications().FindByUserID(ctx, actor.UserType, actor.UserID)
		if err != nil && err != repo.ErrNotFound {
			return dbError(err)
		}
		//承認済みは出し直せない
		if cur != nil && cur.ReviewState().Status == model.VerificationApproved {
			return NewHTTPError(http.StatusConflict, "already verified")
		}
		if err := r.Verifications().Submit(ctx, v); err != nil {
			return dbError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (u *VerificationUsecase) GetMine(ctx context.Context, actor model.Actor) (model.Verification, error) {
	if actor.UserID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var out model.Verification
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		v, err := r.Verifications().FindByUserID(ctx, actor.UserType, actor.UserID)
		if err != nil {
			return repoError(err)
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// 管理者用。statusを省略するとpending
func (u *VerificationUsecase) List(ctx context.Context, actor model.Actor, in ListVerificationsInput) ([]model.Verification, error) {
	if !actor.IsAdmin() {
		return nil, NewHTTPError(http.StatusForbidden, "admin only")
	}
	t := model.UserType(strings.TrimSpace(in.UserType))
	if !t.Valid() {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid user_type")
	}

	status := model.VerificationPending
	if s := strings.TrimSpace(in.Status); s != "" {
		status = model.VerificationStatus(s)
		switch status {
		case model.VerificationPending, model.VerificationApproved, model.VerificationRejected:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	var out []model.Verification
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rows, err := r.Verifications().ListByStatus(ctx, t, status, in.Limit)
		if err != nil {
			return dbError(err)
		}
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// approveでusers.is_verifiedを立て、rejectで下ろす
func (u *VerificationUsecase) Review(ctx context.Context, actor model.Actor, userID int64, in ReviewVerificationInput) (model.Verification, error) {
	if actor.UserID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return nil, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var status model.VerificationStatus
	switch strings.TrimSpace(in.Action) {
	case "approve":
		status = model.VerificationApproved
	case "reject":
		status = model.VerificationRejected
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	comments := strings.TrimSpace(in.Comments)

	var out model.Verification
	var evt event.Event

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return dbError(err)
		}
		if user == nil {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		cur, err := r.Verifications().FindByUserID(ctx, user.UserType, userID)
		if err != nil {
			return repoError(err)
		}
		before := cur.ReviewState().Status
		if before != model.VerificationPending {
			return NewHTTPError(http.StatusConflict, "already reviewed")
		}

		now := u.clock.Now()
		if err := r.Verifications().Review(ctx, user.UserType, userID, status, actor.UserID, comments, now); err != nil {
			return repoError(err)
		}
		if err := r.Users().SetVerified(ctx, userID, status == model.VerificationApproved); err != nil {
			return repoError(err)
		}

		//監査ログ
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  int64Ptr(actor.UserID),
			Action:       model.AuditActionReviewVerification,
			ResourceType: model.AuditResourceUser,
			ResourceID:   userID,
			BeforeJSON:   toJSON(map[string]interface{}{"status": before, "is_verified": user.IsVerified}),
			AfterJSON:    toJSON(map[string]interface{}{"status": status, "is_verified": status == model.VerificationApproved, "comments": comments}),
			CreatedAt:    now,
		}); err != nil {
			return dbError(err)
		}

		out, err = r.Verifications().FindByUserID(ctx, user.UserType, userID)
		if err != nil {
			return repoError(err)
		}
		evt = u.reviewEvent(user, status, comments, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, u.publisher, []event.Event{evt})
	return out, nil
}

func (u *VerificationUsecase) reviewEvent(user *model.User, status model.VerificationStatus, comments string, now time.Time) event.Event {
	msg := fmt.Sprintf("Your %s verification was %s.", user.UserType, status)
	if comments != "" {
		msg += " " + comments
	}
	return event.Event{
		ID:           u.ids.NewID(),
		Type:         event.VerificationReviewed,
		ResourceType: string(model.AuditResourceUser),
		ResourceID:   user.ID,
		Recipients:   []int64{user.ID},
		Title:        "Verification " + string(status),
		Message:      msg,
		Attributes: map[string]string{
			"status":    string(status),
			"user_type": string(user.UserType),
			"user_id":   strconv.FormatInt(user.ID, 10),
		},
		OccurredAt: now,
	}
}

// 申請本文をuser_typeの型に読む（user_idは本人で上書き）
func newVerificationFor(t model.UserType, userID int64, raw []byte) (model.Verification, error) {
	var v model.Verification
	switch t {
	case model.UserTypeIndividual:
		v = &model.IndividualVerification{}
	case model.UserTypeCompany:
		v = &model.CompanyVerification{}
	case model.UserTypeNGO:
		v = &model.NGOVerification{}
	default:
		return nil, fmt.Errorf("unknown user type %q", t)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, err
	}

	now := time.Time{}
	switch p := v.(type) {
	case *model.IndividualVerification:
		p.ID, p.UserID, p.Review = 0, userID, model.VerificationReview{Status: model.VerificationPending}
		p.CreatedAt, p.UpdatedAt = now, now
	case *model.CompanyVerification:
		p.ID, p.UserID, p.Review = 0, userID, model.VerificationReview{Status: model.VerificationPending}
		p.CreatedAt, p.UpdatedAt = now, now
	case *model.NGOVerification:
		p.ID, p.UserID, p.Review = 0, userID, model.VerificationReview{Status: model.VerificationPending}
		p.CreatedAt, p.UpdatedAt = now, now
	}
	return v, nil
}
