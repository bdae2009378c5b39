package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *PaymentGormRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, error) {
	return r.findOne(ctx, "gateway_order_id = ?", gatewayOrderID)
}

func (r *PaymentGormRepository) findOne(ctx context.Context, cond string, arg any) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where(cond, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus, failureReason *string) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"status":         status,
			"failure_reason": failureReason,
		})
	return rowsOrNotFound(res)
}

// captured以外のときだけキャプチャ
func (r *PaymentGormRepository) MarkCaptured(ctx context.Context, paymentID int64, gatewayPaymentID string, signature string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status IN ?", paymentID, []model.PaymentStatus{
			model.PaymentStatusCreated,
			model.PaymentStatusAttempted,
			model.PaymentStatusFailed,
		}).
		Updates(map[string]interface{}{
			"status":             model.PaymentStatusCaptured,
			"gateway_payment_id": gatewayPaymentID,
			"gateway_signature":  signature,
			"failure_reason":     nil,
			"captured_at":        at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

// refund_amount <= amount はDB側でも条件にする
func (r *PaymentGormRepository) MarkRefunded(ctx context.Context, paymentID int64, amount decimal.Decimal, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ? AND amount >= ?", paymentID, model.PaymentStatusCaptured, amount).
		Updates(map[string]interface{}{
			"status":        model.PaymentStatusRefunded,
			"refund_amount": amount,
			"refunded_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

func rowsOrNotFound(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
