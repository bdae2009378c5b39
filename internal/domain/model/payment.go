package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusAttempted PaymentStatus = "attempted"
	PaymentStatusCaptured  PaymentStatus = "captured"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// キャプチャ前（まだお金が動いていない）状態か
func (s PaymentStatus) Capturable() bool {
	switch s {
	case PaymentStatusCreated, PaymentStatusAttempted, PaymentStatusFailed:
		return true
	}
	return false
}

// 決済ゲートウェイの1トランザクション（注文と実質1:1）
type Payment struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64  `gorm:"not null;uniqueIndex" json:"order_id"`
	PaymentID string `gorm:"type:varchar(64);not null;uniqueIndex" json:"payment_id"`

	//ゲートウェイ側の相関ID
	GatewayOrderID   string  `gorm:"type:varchar(64);not null;uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID *string `gorm:"type:varchar(64)" json:"gateway_payment_id,omitempty"`
	GatewaySignature *string `gorm:"type:varchar(128)" json:"-"`

	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status        PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	FailureReason *string         `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	CapturedAt    *time.Time      `json:"captured_at,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	RefundAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"refund_amount"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
