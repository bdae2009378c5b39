package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

type ShippingRepository interface {
	FindByOrderID(ctx context.Context, orderID int64) (model.ShippingDetail, error)

	//order_id単位で作成 or 更新
	Upsert(ctx context.Context, d *model.ShippingDetail) error

	//deliveredAtはactual_deliveryが空のときだけ入る
	UpdateTracking(ctx context.Context, orderID int64, status model.TrackingStatus, deliveredAt *time.Time) error
}
