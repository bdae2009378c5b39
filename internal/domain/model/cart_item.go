package model

import "time"

// カートの明細（ユーザー×出品で1行）
type CartItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64     `gorm:"not null;uniqueIndex:uk_cart_user_item" json:"user_id"`
	MarketplaceItemID int64     `gorm:"not null;uniqueIndex:uk_cart_user_item" json:"marketplace_item_id"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart"
}
