package usecase

import (
	"github.com/shopspring/decimal"

	"marketplace/internal/domain/model"
)

// 注文1件分の金額ルール
type PricingPolicy struct {
	Currency              string
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
	DiscountRate          decimal.Decimal
}

type Quote struct {
	Total    decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// 割引後の小計に課税。端数は小数2桁で丸める
func (p PricingPolicy) Quote(subtotal decimal.Decimal) Quote {
	shipping := p.ShippingFee
	if p.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	discount := subtotal.Mul(p.DiscountRate).Round(2)
	tax := subtotal.Sub(discount).Mul(p.TaxRate).Round(2)

	return Quote{
		Total:    subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Final:    model.ComputeFinalAmount(subtotal, shipping, tax, discount),
	}
}
