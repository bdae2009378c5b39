package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderItem struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64           `gorm:"not null;index" json:"order_id"`
	MarketplaceItemID int64           `gorm:"not null;index" json:"marketplace_item_id"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`

	//購入時点の出品のコピー（書いたら更新しない）
	ItemSnapshot datatypes.JSON `gorm:"type:jsonb;not null" json:"item_snapshot"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// item_snapshotの中身
type ItemSnapshot struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
}

func SnapshotOf(it MarketplaceItem) ItemSnapshot {
	return ItemSnapshot{
		ID:          it.ID,
		SellerID:    it.SellerID,
		Title:       it.Title,
		Description: it.Description,
		Category:    it.Category,
		Price:       it.Price,
	}
}

// total = unit × quantity
func LineTotal(unit decimal.Decimal, qty int64) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(qty))
}
