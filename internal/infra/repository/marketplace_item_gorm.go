package repository

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type MarketplaceItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewMarketplaceItemGormRepository(db *gorm.DB) *MarketplaceItemGormRepository {
	return &MarketplaceItemGormRepository{db: db}
}

// 公開中の出品のみを、検索/カテゴリ/価格帯/ソート/ページング付きで返す。
func (r *MarketplaceItemGormRepository) ListPublic(ctx context.Context, q repo.ItemListQuery) ([]model.MarketplaceItem, int64, error) {
	var items []model.MarketplaceItem
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.MarketplaceItem{})

	// 公開（is_active=true）かつ、削除されていないものだけ
	tx = tx.Where("is_active = ?", true)

	// q title/descriptionを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.SellerID != nil {
		tx = tx.Where("seller_id = ?", *q.SellerID)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.MarketplaceItem{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&items).Error; err != nil {
		return []model.MarketplaceItem{}, 0, err
	}

	return items, total, nil
}

// IDで出品を取得
func (r *MarketplaceItemGormRepository) FindByID(ctx context.Context, id int64) (model.MarketplaceItem, error) {
	var it model.MarketplaceItem
	err := r.db.WithContext(ctx).First(&it, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MarketplaceItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.MarketplaceItem{}, err
	}
	return it, nil
}

func (r *MarketplaceItemGormRepository) Create(ctx context.Context, it model.MarketplaceItem) (model.MarketplaceItem, error) {
	if err := r.db.WithContext(ctx).Create(&it).Error; err != nil {
		return model.MarketplaceItem{}, err
	}
	return it, nil
}

// 在庫は専用のAPIで変える
func (r *MarketplaceItemGormRepository) Update(ctx context.Context, it model.MarketplaceItem) error {
	res := r.db.WithContext(ctx).Model(&model.MarketplaceItem{}).Where("id = ?", it.ID).Updates(map[string]interface{}{
		"title":       it.Title,
		"description": it.Description,
		"category":    it.Category,
		"price":       it.Price,
		"is_active":   it.IsActive,
	})
	return rowsOrNotFound(res)
}

func (r *MarketplaceItemGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.MarketplaceItem{}, id)
	return rowsOrNotFound(res)
}
