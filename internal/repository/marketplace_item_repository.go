package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/model"
)

// 一覧検索
type ItemListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	SellerID *int64
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

// 出品の永続化（保存・取得）だけを約束。
type MarketplaceItemRepository interface {
	ListPublic(ctx context.Context, q ItemListQuery) ([]model.MarketplaceItem, int64, error)
	FindByID(ctx context.Context, id int64) (model.MarketplaceItem, error)

	Create(ctx context.Context, it model.MarketplaceItem) (model.MarketplaceItem, error)
	Update(ctx context.Context, it model.MarketplaceItem) error
	SoftDelete(ctx context.Context, id int64) error
}
