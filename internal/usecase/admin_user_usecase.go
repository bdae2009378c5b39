package usecase

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type AdminUserUsecase struct {
	tx    repo.TransactionManager
	audit repo.AuditLogRepository
	clock Clock
}

func NewAdminUserUsecase(tx repo.TransactionManager, audit repo.AuditLogRepository, clock Clock) *AdminUserUsecase {
	return &AdminUserUsecase{tx: tx, audit: audit, clock: clock}
}

type ForceLogoutOutput struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type ListAuditLogsInput struct {
	Action       string
	ResourceType string
	ResourceID   *int64
	// 管理者IDか "system"
	Actor  string
	From   string
	To     string
	Limit  int
	Offset int
}

type AuditLogListOutput struct {
	Logs   []model.AuditLog `json:"audit_logs"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// token_versionを進めて発行済みJWTを全部無効にする
func (u *AdminUserUsecase) ForceLogout(ctx context.Context, actor model.Actor, targetUserID int64) (ForceLogoutOutput, error) {
	if !actor.IsAdmin() {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if targetUserID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out ForceLogoutOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Users().FindByID(ctx, targetUserID)
		if err != nil {
			return dbError(err)
		}
		if before == nil {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if err := r.Users().IncrementTokenVersion(ctx, targetUserID); err != nil {
			return repoError(err)
		}

		//更新後を取得してnew_token_versionを返す
		after, err := r.Users().FindByID(ctx, targetUserID)
		if err != nil || after == nil {
			return dbError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  int64Ptr(actor.UserID),
			Action:       model.AuditActionForceLogout,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			BeforeJSON:   toJSON(map[string]int{"token_version": before.TokenVersion}),
			AfterJSON:    toJSON(map[string]int{"token_version": after.TokenVersion}),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}

		out = ForceLogoutOutput{UserID: after.ID, NewTokenVersion: after.TokenVersion}
		return nil
	})
	if err != nil {
		return ForceLogoutOutput{}, err
	}
	return out, nil
}

func (u *AdminUserUsecase) ListAuditLogs(ctx context.Context, actor model.Actor, in ListAuditLogsInput) (AuditLogListOutput, error) {
	if !actor.IsAdmin() {
		return AuditLogListOutput{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if in.Limit < 0 || in.Limit > 200 || in.Offset < 0 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}
	if in.Limit == 0 {
		in.Limit = 50
	}

	f := repo.AuditLogFilter{
		ResourceID: in.ResourceID,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	switch a := strings.TrimSpace(in.Actor); {
	case a == "":
	case strings.EqualFold(a, "system"):
		f.SystemOnly = true
	default:
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid actor")
		}
		f.ActorUserID = &id
	}
	if a := strings.TrimSpace(in.Action); a != "" {
		action, ok := model.ParseAuditAction(strings.ToUpper(a))
		if !ok {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &action
	}
	if rt := strings.TrimSpace(in.ResourceType); rt != "" {
		t, ok := model.ParseAuditResourceType(strings.ToLower(rt))
		if !ok {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &t
	}
	if f.ResourceID != nil && f.ResourceType == nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "resource_id needs resource_type")
	}

	if in.From != "" {
		t, ok := parseDateTimeRFC3339(in.From)
		if !ok {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		f.CreatedFrom = t
	}
	if in.To != "" {
		t, ok := parseDateTimeRFC3339(in.To)
		if !ok {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		f.CreatedTo = t
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && !f.CreatedFrom.Before(*f.CreatedTo) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	rows, total, err := u.audit.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, dbError(err)
	}
	return AuditLogListOutput{Logs: rows, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

// 注文・募集・ユーザー1件分の操作履歴を古い順に
func (u *AdminUserUsecase) ResourceTrail(ctx context.Context, actor model.Actor, resourceType string, resourceID int64) ([]model.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, NewHTTPError(http.StatusForbidden, "admin only")
	}
	t, ok := model.ParseAuditResourceType(strings.ToLower(strings.TrimSpace(resourceType)))
	if !ok {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
	}
	if resourceID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rows, err := u.audit.ListByResource(ctx, t, resourceID)
	if err != nil {
		return nil, dbError(err)
	}
	return rows, nil
}
