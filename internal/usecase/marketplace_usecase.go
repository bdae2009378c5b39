package usecase

import (
	"context"
	"net/http"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

type MarketplaceUsecase struct {
	itemRepo repo.MarketplaceItemRepository
	tx       repo.TransactionManager
	clock    Clock
}

// DI
func NewMarketplaceUsecase(itemRepo repo.MarketplaceItemRepository, tx repo.TransactionManager, clock Clock) *MarketplaceUsecase {
	return &MarketplaceUsecase{itemRepo: itemRepo, tx: tx, clock: clock}
}

// GET /marketplaceの入力DTO
type ListItemsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	SellerID *int64
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ItemListOutput struct {
	Items []model.MarketplaceItem `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type ItemInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	Category    string          `json:"category" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"is_active"`
}

type SetStockInput struct {
	Stock  int64  `json:"stock" validate:"gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

func (u *MarketplaceUsecase) List(ctx context.Context, in ListItemsInput) (ItemListOutput, error) {
	if in.Page < 1 {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.itemRepo.ListPublic(ctx, repo.ItemListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		SellerID: in.SellerID,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ItemListOutput{}, dbError(err)
	}

	return ItemListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 非公開は持ち主にだけ見せる
func (u *MarketplaceUsecase) Get(ctx context.Context, viewerID int64, itemID int64) (model.MarketplaceItem, error) {
	if itemID <= 0 {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	it, err := u.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return model.MarketplaceItem{}, repoError(err)
	}
	if !it.IsActive && it.SellerID != viewerID {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return it, nil
}

// 出品は認証済みユーザーだけ
func (u *MarketplaceUsecase) Create(ctx context.Context, actor model.Actor, in ItemInput) (model.MarketplaceItem, error) {
	if actor.UserID <= 0 {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsVerified {
		return model.MarketplaceItem{}, verificationRequired()
	}
	if err := validateItemInput(in); err != nil {
		return model.MarketplaceItem{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	now := u.clock.Now()
	it, err := u.itemRepo.Create(ctx, model.MarketplaceItem{
		SellerID:    actor.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.MarketplaceItem{}, dbError(err)
	}
	return it, nil
}

// 在庫はSetStockで変える
func (u *MarketplaceUsecase) Update(ctx context.Context, actor model.Actor, itemID int64, in ItemInput) (model.MarketplaceItem, error) {
	it, err := u.ownedItem(ctx, actor, itemID)
	if err != nil {
		return model.MarketplaceItem{}, err
	}
	if err := validateItemInput(in); err != nil {
		return model.MarketplaceItem{}, err
	}

	it.Title = strings.TrimSpace(in.Title)
	it.Description = in.Description
	it.Category = strings.TrimSpace(in.Category)
	it.Price = in.Price
	if in.IsActive != nil {
		it.IsActive = *in.IsActive
	}
	it.UpdatedAt = u.clock.Now()

	if err := u.itemRepo.Update(ctx, it); err != nil {
		return model.MarketplaceItem{}, repoError(err)
	}
	return it, nil
}

func (u *MarketplaceUsecase) Delete(ctx context.Context, actor model.Actor, itemID int64) error {
	if _, err := u.ownedItem(ctx, actor, itemID); err != nil {
		return err
	}
	if err := u.itemRepo.SoftDelete(ctx, itemID); err != nil {
		return repoError(err)
	}
	return nil
}

// 在庫を「現在値」に更新し、調整履歴も残す
func (u *MarketplaceUsecase) SetStock(ctx context.Context, actor model.Actor, itemID int64, in SetStockInput) (model.MarketplaceItem, error) {
	if in.Stock < 0 {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}
	if actor.UserID <= 0 {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out model.MarketplaceItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		it, err := r.Items().FindByID(ctx, itemID)
		if err != nil {
			return repoError(err)
		}
		if it.SellerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		//ロック中に読んだ値で差分を出す
		before, err := r.Inventory().SetStock(ctx, itemID, in.Stock)
		if err != nil {
			return repoError(err)
		}
		if before == in.Stock {
			it.Stock = before
			out = it
			return nil
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.StockAdjustment{
			MarketplaceItemID: itemID,
			ActorUserID:       actor.UserID,
			Delta:             in.Stock - before,
			Reason:            reason,
			CreatedAt:         u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}

		it.Stock = in.Stock
		out = it
		return nil
	})
	if err != nil {
		return model.MarketplaceItem{}, err
	}
	return out, nil
}

// 在庫調整の履歴。出品者本人だけ
func (u *MarketplaceUsecase) StockHistory(ctx context.Context, actor model.Actor, itemID int64, limit int) ([]model.StockAdjustment, error) {
	if limit < 0 || limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if _, err := u.ownedItem(ctx, actor, itemID); err != nil {
		return nil, err
	}

	var out []model.StockAdjustment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rows, err := r.Inventory().ListAdjustments(ctx, itemID, limit)
		if err != nil {
			return dbError(err)
		}
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *MarketplaceUsecase) ownedItem(ctx context.Context, actor model.Actor, itemID int64) (model.MarketplaceItem, error) {
	if actor.UserID <= 0 {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	it, err := u.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return model.MarketplaceItem{}, repoError(err)
	}
	if it.SellerID != actor.UserID {
		return model.MarketplaceItem{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return it, nil
}

func validateItemInput(in ItemInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return NewHTTPError(http.StatusBadRequest, "title required")
	}
	if !in.Price.IsPositive() {
		return NewHTTPError(http.StatusBadRequest, "price must be > 0")
	}
	//numeric(12,2)
	if !in.Price.Equal(in.Price.Round(2)) {
		return NewHTTPError(http.StatusBadRequest, "price has too many decimals")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}
