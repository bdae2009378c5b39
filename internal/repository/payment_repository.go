package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, error)

	UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus, failureReason *string) error
	MarkCaptured(ctx context.Context, paymentID int64, gatewayPaymentID string, signature string, at time.Time) error
	MarkRefunded(ctx context.Context, paymentID int64, amount decimal.Decimal, at time.Time) error
}
