package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type NotificationRepository interface {
	CreateBulk(ctx context.Context, ns []model.Notification) error
	ListByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error)
	//本人の通知だけ既読にする
	MarkRead(ctx context.Context, id int64, userID int64) error
}
