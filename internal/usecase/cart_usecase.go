package usecase

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	cartRepo repo.CartRepository
	itemRepo repo.MarketplaceItemRepository
}

func NewCartUsecase(cartRepo repo.CartRepository, itemRepo repo.MarketplaceItemRepository) *CartUsecase {
	return &CartUsecase{
		cartRepo: cartRepo,
		itemRepo: itemRepo,
	}
}

// price は今の出品価格（注文時に確定する）
type CartItemResponse struct {
	ID                int64           `json:"id"`
	MarketplaceItemID int64           `json:"marketplace_item_id"`
	SellerID          int64           `json:"seller_id"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int64           `json:"quantity"`
	Subtotal          decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	MarketplaceItemID int64 `json:"marketplace_item_id" validate:"required,gt=0"`
	Quantity          int64 `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemInput struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一出品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.MarketplaceItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid marketplace_item_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 出品チェック（公開のみ）
	it, err := u.itemRepo.FindByID(ctx, in.MarketplaceItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, dbError(err)
	}
	if !it.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if it.SellerID == userID {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "cannot buy own item")
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, dbError(err)
	}

	var existingQty int64 = 0
	for _, ci := range items {
		if ci.MarketplaceItemID == in.MarketplaceItemID {
			existingQty = ci.Quantity
			break
		}
	}
	if existingQty+in.Quantity > it.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartRepo.Upsert(ctx, userID, in.MarketplaceItemID, in.Quantity); err != nil {
		return CartResponse{}, dbError(err)
	}

	return u.buildCartResponse(ctx, userID)
}

// 数量変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	ci, err := u.ownedCartItem(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	//出品の在庫チェック
	it, err := u.itemRepo.FindByID(ctx, ci.MarketplaceItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, dbError(err)
	}
	if !it.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if in.Quantity > it.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		return CartResponse{}, repoError(err)
	}
	return u.buildCartResponse(ctx, userID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.ownedCartItem(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}
	if err := u.cartRepo.DeleteByID(ctx, cartItemID); err != nil {
		return CartResponse{}, repoError(err)
	}
	return u.buildCartResponse(ctx, userID)
}

// 他人の明細は「存在しない扱い」
func (u *CartUsecase) ownedCartItem(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error) {
	ci, err := u.cartRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, dbError(err)
	}
	if ci.UserID != userID {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return ci, nil
}

// 非公開・削除済みの出品は表示から外す
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, dbError(err)
	}

	respItems := make([]CartItemResponse, 0, len(items))
	total := decimal.Zero

	for _, ci := range items {
		it, err := u.itemRepo.FindByID(ctx, ci.MarketplaceItemID)
		if err != nil {
			continue
		}
		if !it.IsActive {
			continue
		}

		sub := model.LineTotal(it.Price, ci.Quantity)
		respItems = append(respItems, CartItemResponse{
			ID:                ci.ID,
			MarketplaceItemID: it.ID,
			SellerID:          it.SellerID,
			Title:             it.Title,
			Price:             it.Price,
			Quantity:          ci.Quantity,
			Subtotal:          sub,
		})
		total = total.Add(sub)
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
