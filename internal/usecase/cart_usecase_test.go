package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCart_AddToCartMergesQuantity(t *testing.T) {
	cart := &CartRepoMock{}
	items := &ItemRepoMock{}
	uc := usecase.NewCartUsecase(cart, items)

	items.On("FindByID", mock.Anything, int64(101)).Return(sellerItem(10), nil)
	cart.On("ListByUserID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, UserID: 10, MarketplaceItemID: 101, Quantity: 3},
	}, nil).Once()
	// 加算分だけ渡し、合計はリポジトリ側で足す
	cart.On("Upsert", mock.Anything, int64(10), int64(101), int64(4)).Return(nil).Once()
	cart.On("ListByUserID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, UserID: 10, MarketplaceItemID: 101, Quantity: 7},
	}, nil).Once()

	out, err := uc.AddToCart(context.Background(), 10, usecase.AddCartInput{MarketplaceItemID: 101, Quantity: 4})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(7), out.Items[0].Quantity)
	assert.True(t, dec("3500").Equal(out.Items[0].Subtotal), "subtotal=%s", out.Items[0].Subtotal)
	assert.True(t, dec("3500").Equal(out.Total), "total=%s", out.Total)
	cart.AssertExpectations(t)
}

func TestCart_AddToCartRejected(t *testing.T) {
	inactive := sellerItem(10)
	inactive.IsActive = false

	tests := []struct {
		name       string
		userID     int64
		item       model.MarketplaceItem
		itemErr    error
		inCart     int64
		qty        int64
		wantStatus int
		wantErr    string
	}{
		{"merged over stock", 10, sellerItem(10), nil, 8, 3, http.StatusBadRequest, "stock exceeded"},
		{"own item", 20, sellerItem(10), nil, 0, 1, http.StatusBadRequest, "cannot buy own item"},
		{"inactive", 10, inactive, nil, 0, 1, http.StatusBadRequest, "invalid"},
		{"missing item", 10, model.MarketplaceItem{}, repo.ErrNotFound, 0, 1, http.StatusBadRequest, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := &CartRepoMock{}
			items := &ItemRepoMock{}
			uc := usecase.NewCartUsecase(cart, items)

			items.On("FindByID", mock.Anything, int64(101)).Return(tt.item, tt.itemErr)
			var rows []model.CartItem
			if tt.inCart > 0 {
				rows = []model.CartItem{{ID: 1, UserID: tt.userID, MarketplaceItemID: 101, Quantity: tt.inCart}}
			}
			cart.On("ListByUserID", mock.Anything, tt.userID).Return(rows, nil)

			_, err := uc.AddToCart(context.Background(), tt.userID, usecase.AddCartInput{MarketplaceItemID: 101, Quantity: tt.qty})
			assertStatus(t, err, tt.wantStatus)
			assertErrContains(t, err, tt.wantErr)
			cart.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
