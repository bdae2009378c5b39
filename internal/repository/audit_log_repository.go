package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

type AuditLogFilter struct {
	ActorUserID *int64
	// 自動却下などactorなしの行だけ
	SystemOnly   bool
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// 管理者操作の記録。追記のみで更新・削除はしない
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	// 新しい順と総件数
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)

	// 1つの注文・募集・ユーザーに対する操作を古い順に
	ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64) ([]model.AuditLog, error)
}
