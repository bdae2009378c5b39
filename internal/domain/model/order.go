package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaymentPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range AllOrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// 1注文 = 1買い手 × 1売り手
type Order struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string      `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	BuyerID     int64       `gorm:"not null;index" json:"buyer_id"`
	SellerID    int64       `gorm:"not null;index" json:"seller_id"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"final_amount"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`

	ShippingAddress Address  `gorm:"type:jsonb;serializer:json;not null" json:"shipping_address"`
	BillingAddress  *Address `gorm:"type:jsonb;serializer:json" json:"billing_address,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// final = total + shipping + tax - discount
func ComputeFinalAmount(total, shipping, tax, discount decimal.Decimal) decimal.Decimal {
	return total.Add(shipping).Add(tax).Sub(discount)
}

// 金額の整合チェック
func (o Order) AmountsConsistent() bool {
	return o.FinalAmount.Equal(ComputeFinalAmount(o.TotalAmount, o.ShippingAmount, o.TaxAmount, o.DiscountAmount))
}
