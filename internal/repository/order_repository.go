package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

// 注文一覧の絞り込み（買い手/売り手/管理者で共通）
type OrderListFilter struct {
	Page     int
	Limit    int
	Status   string
	BuyerID  *int64
	SellerID *int64
	From     *time.Time
	To       *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)

	//statusがfromのときだけtoにする（違えばErrConflict）
	UpdateStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) error
}
