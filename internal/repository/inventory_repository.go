package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 出品の在庫数と調整履歴
type InventoryRepository interface {
	// 行をロックして在庫を上書きし、変更前の値を返す
	SetStock(ctx context.Context, itemID int64, newStock int64) (previous int64, err error)

	// 公開中の出品だけ、足りるときに減らす
	DecreaseStockIfEnough(ctx context.Context, itemID int64, qty int64) (bool, error)

	// キャンセル・返金で戻す。削除済みの出品にも戻す
	IncreaseStock(ctx context.Context, itemID int64, qty int64) error

	CreateAdjustment(ctx context.Context, adjustment model.StockAdjustment) error

	// 新しい順
	ListAdjustments(ctx context.Context, itemID int64, limit int) ([]model.StockAdjustment, error)
}
