package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShippingGormRepository struct {
	db *gorm.DB
}

func NewShippingGormRepository(db *gorm.DB) *ShippingGormRepository {
	return &ShippingGormRepository{db: db}
}

func (r *ShippingGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.ShippingDetail, error) {
	var d model.ShippingDetail
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ShippingDetail{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ShippingDetail{}, err
	}
	return d, nil
}

// tracking_status / actual_delivery は上書きしない
func (r *ShippingGormRepository) Upsert(ctx context.Context, d *model.ShippingDetail) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"waybill_id", "courier_partner", "expected_delivery", "updated_at"}),
		}).
		Create(d).Error
}

func (r *ShippingGormRepository) UpdateTracking(ctx context.Context, orderID int64, status model.TrackingStatus, deliveredAt *time.Time) error {
	updates := map[string]interface{}{
		"tracking_status": status,
	}
	if deliveredAt != nil {
		//一度入ったら変えない
		updates["actual_delivery"] = gorm.Expr("COALESCE(actual_delivery, ?)", *deliveredAt)
	}

	res := r.db.WithContext(ctx).Model(&model.ShippingDetail{}).
		Where("order_id = ?", orderID).
		Updates(updates)
	return rowsOrNotFound(res)
}
