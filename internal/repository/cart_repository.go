package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一出品は数量を加算
	Upsert(ctx context.Context, userID int64, itemID int64, addQty int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	// 注文できた出品だけカートから消す
	DeleteByUserAndItems(ctx context.Context, userID int64, itemIDs []int64) error
}
