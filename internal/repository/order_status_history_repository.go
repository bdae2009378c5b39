package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 履歴は追記と参照だけ（更新・削除の口は作らない）
type OrderStatusHistoryRepository interface {
	Append(ctx context.Context, h model.OrderStatusHistory) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error)
}
