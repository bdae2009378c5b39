package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// SELECT ... FOR UPDATE してから上書き。決済中の減算と差分がずれない
func (r *InventoryGormRepository) SetStock(ctx context.Context, itemID int64, newStock int64) (int64, error) {
	var row struct{ Stock int64 }
	err := r.db.WithContext(ctx).
		Model(&model.MarketplaceItem{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("stock").
		Where("id = ?", itemID).
		Take(&row).Error
	if isNotFound(err) {
		return 0, repo.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Model(&model.MarketplaceItem{}).
		Where("id = ?", itemID).
		Update("stock", newStock)
	if res.Error != nil {
		return 0, res.Error
	}
	return row.Stock, nil
}

func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, itemID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.MarketplaceItem{}).
		Where("id = ? AND is_active = ? AND stock >= ?", itemID, true, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, itemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.MarketplaceItem{}).
		Where("id = ?", itemID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

func (r *InventoryGormRepository) ListAdjustments(ctx context.Context, itemID int64, limit int) ([]model.StockAdjustment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []model.StockAdjustment
	err := r.db.WithContext(ctx).
		Where("marketplace_item_id = ?", itemID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
