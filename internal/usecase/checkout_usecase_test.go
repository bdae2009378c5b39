package usecase_test

import (
	"context"
	"strings"
	"testing"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testPricing() usecase.PricingPolicy {
	return usecase.PricingPolicy{
		Currency:    "INR",
		ShippingFee: dec("50"),
		TaxRate:     dec("0.18"),
	}
}

func activeItem(id, sellerID int64, price string) model.MarketplaceItem {
	return model.MarketplaceItem{ID: id, SellerID: sellerID, Title: "item", Price: dec(price), Stock: 10, IsActive: true}
}

func testAddress() model.Address {
	return model.Address{Name: "Asha", Phone: "9876543210", Line1: "1 Main Road", City: "Pune", State: "MH", Pincode: "411001", Country: "IN"}
}

// 作成された注文にIDを振る
func assignOrderID(id int64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		args.Get(1).(*model.Order).ID = id
	}
}

func TestCheckout_PricesOrderAndStartsPending(t *testing.T) {
	r := newTxRepos()
	tx := newTx(r)
	m := &metricsSpy{}
	pub := &publisherSpy{}
	uc := usecase.NewCheckoutUsecase(tx, testPricing(), fixedClock{testNow}, &seqIDs{}, m, pub)

	r.items.On("FindByID", mock.Anything, int64(101)).Return(activeItem(101, 20, "500"), nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(101), int64(2)).Return(true, nil).Once()
	r.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Run(assignOrderID(500)).Return(nil).Once()
	r.orderItems.On("CreateBulk", mock.Anything, int64(500), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].TotalPrice.Equal(dec("1000")) && len(items[0].ItemSnapshot) > 0
	})).Return(nil).Once()
	r.history.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	r.payments.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).Return(nil).Once()
	r.cart.On("DeleteByUserAndItems", mock.Anything, int64(10), []int64{101}).Return(nil).Once()

	out, err := uc.Checkout(context.Background(), buyerActor(), usecase.CheckoutInput{
		Items: []usecase.CheckoutItemInput{
			{MarketplaceItemID: 101, Quantity: 1},
			{MarketplaceItemID: 101, Quantity: 1},
		},
		ShippingAddress: testAddress(),
		ClearCart:       true,
	})
	require.NoError(t, err)
	require.Len(t, out.Orders, 1)
	assert.Empty(t, out.Failures)

	o := out.Orders[0].Order
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(dec("1000")))
	assert.True(t, o.ShippingAmount.Equal(dec("50")))
	assert.True(t, o.TaxAmount.Equal(dec("180")))
	assert.True(t, o.DiscountAmount.IsZero())
	assert.True(t, o.FinalAmount.Equal(dec("1230")), "final=%s", o.FinalAmount)
	assert.True(t, o.AmountsConsistent())
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD20260310-"), o.OrderNumber)

	p := out.Orders[0].Payment
	assert.Equal(t, model.PaymentStatusCreated, p.Status)
	assert.True(t, p.Amount.Equal(o.FinalAmount))
	assert.True(t, strings.HasPrefix(p.PaymentID, "pay_"))
	assert.True(t, strings.HasPrefix(p.GatewayOrderID, "order_"))
	assert.NotEqual(t, p.PaymentID[4:], p.GatewayOrderID[6:])

	require.Len(t, r.history.rows, 1)
	assert.Equal(t, model.OrderStatus(""), r.history.rows[0].PreviousStatus)
	assert.Equal(t, model.OrderStatusPending, r.history.rows[0].NewStatus)

	assert.Equal(t, []string{"->pending"}, m.transitions)
	assert.Equal(t, []event.Type{event.OrderStatusChanged}, pub.types())

	r.inventory.AssertExpectations(t)
	r.cart.AssertExpectations(t)
	tx.AssertNumberOfCalls(t, "WithinTx", 2)
}

func TestCheckout_PartialFailureKeepsEarlierGroups(t *testing.T) {
	r := newTxRepos()
	tx := newTx(r)
	m := &metricsSpy{}
	uc := usecase.NewCheckoutUsecase(tx, testPricing(), fixedClock{testNow}, &seqIDs{}, m, event.NopPublisher{})

	r.items.On("FindByID", mock.Anything, int64(101)).Return(activeItem(101, 20, "100"), nil)
	r.items.On("FindByID", mock.Anything, int64(202)).Return(activeItem(202, 30, "70"), nil)
	r.items.On("FindByID", mock.Anything, int64(303)).Return(model.MarketplaceItem{}, repo.ErrNotFound)

	r.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(101), int64(1)).Return(true, nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(202), int64(3)).Return(false, nil)

	r.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Run(assignOrderID(1)).Return(nil).Once()
	r.orderItems.On("CreateBulk", mock.Anything, int64(1), mock.Anything).Return(nil).Once()
	r.history.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	r.payments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	out, err := uc.Checkout(context.Background(), buyerActor(), usecase.CheckoutInput{
		Items: []usecase.CheckoutItemInput{
			{MarketplaceItemID: 202, Quantity: 3},
			{MarketplaceItemID: 303, Quantity: 1},
			{MarketplaceItemID: 101, Quantity: 1},
		},
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	require.Len(t, out.Orders, 1)
	assert.Equal(t, int64(20), out.Orders[0].Order.SellerID)

	require.Len(t, out.Failures, 2)
	assert.Equal(t, []int64{303}, out.Failures[0].ItemIDs)
	assert.Equal(t, "item not found", out.Failures[0].Reason)
	assert.Equal(t, int64(30), out.Failures[1].SellerID)
	assert.Equal(t, []int64{202}, out.Failures[1].ItemIDs)
	assert.Equal(t, "out of stock", out.Failures[1].Reason)

	assert.ElementsMatch(t, []string{"item not found", "out of stock"}, m.failures)
	r.orders.AssertNumberOfCalls(t, "Create", 1)
}

func TestCheckout_RejectsOwnItem(t *testing.T) {
	r := newTxRepos()
	tx := newTx(r)
	uc := usecase.NewCheckoutUsecase(tx, testPricing(), fixedClock{testNow}, &seqIDs{}, usecase.NopMetrics{}, event.NopPublisher{})

	r.items.On("FindByID", mock.Anything, int64(101)).Return(activeItem(101, 10, "100"), nil)

	out, err := uc.Checkout(context.Background(), buyerActor(), usecase.CheckoutInput{
		Items:           []usecase.CheckoutItemInput{{MarketplaceItemID: 101, Quantity: 1}},
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)
	assert.Empty(t, out.Orders)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "cannot buy own item", out.Failures[0].Reason)
	r.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_InputErrors(t *testing.T) {
	uc := usecase.NewCheckoutUsecase(newTx(newTxRepos()), testPricing(), fixedClock{testNow}, &seqIDs{}, usecase.NopMetrics{}, event.NopPublisher{})

	tests := []struct {
		name  string
		actor model.Actor
		in    usecase.CheckoutInput
		want  string
	}{
		{"no actor", model.Actor{}, usecase.CheckoutInput{Items: []usecase.CheckoutItemInput{{MarketplaceItemID: 1, Quantity: 1}}}, "unauthorized"},
		{"no items", buyerActor(), usecase.CheckoutInput{}, "items required"},
		{"bad quantity", buyerActor(), usecase.CheckoutInput{Items: []usecase.CheckoutItemInput{{MarketplaceItemID: 1, Quantity: 0}}}, "invalid quantity"},
		{"bad item id", buyerActor(), usecase.CheckoutInput{Items: []usecase.CheckoutItemInput{{MarketplaceItemID: -1, Quantity: 1}}}, "invalid marketplace_item_id"},
		{"over line limit", buyerActor(), usecase.CheckoutInput{Items: []usecase.CheckoutItemInput{{MarketplaceItemID: 1, Quantity: 101}}}, "invalid quantity"},
		{"merged over line limit", buyerActor(), usecase.CheckoutInput{Items: []usecase.CheckoutItemInput{
			{MarketplaceItemID: 1, Quantity: 60},
			{MarketplaceItemID: 1, Quantity: 41},
		}}, "invalid quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Checkout(context.Background(), tt.actor, tt.in)
			assertErrContains(t, err, tt.want)
		})
	}
}
