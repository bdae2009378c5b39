package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// WithinTx の中で渡す repos を固定して回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders        *OrderRepoMock
	orderItems    *OrderItemRepoMock
	payments      *PaymentRepoMock
	shipments     *ShippingRepoMock
	history       *HistoryRepoMock
	items         *ItemRepoMock
	inventory     *InventoryRepoMock
	cart          *CartRepoMock
	serviceOffers *ServiceOfferRepoMock
	users         *UserRepoMock
	audit         *AuditRepoMock
	verifications *VerificationRepoMock
}

func newTxRepos() *TxReposMock {
	return &TxReposMock{
		orders:        &OrderRepoMock{},
		orderItems:    &OrderItemRepoMock{},
		payments:      &PaymentRepoMock{},
		shipments:     &ShippingRepoMock{},
		history:       &HistoryRepoMock{},
		items:         &ItemRepoMock{},
		inventory:     &InventoryRepoMock{},
		cart:          &CartRepoMock{},
		serviceOffers: &ServiceOfferRepoMock{},
		users:         &UserRepoMock{},
		audit:         &AuditRepoMock{},
		verifications: &VerificationRepoMock{},
	}
}

func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *TxReposMock) Payments() repo.PaymentRepository           { return r.payments }
func (r *TxReposMock) Shipments() repo.ShippingRepository         { return r.shipments }
func (r *TxReposMock) History() repo.OrderStatusHistoryRepository { return r.history }
func (r *TxReposMock) Items() repo.MarketplaceItemRepository      { return r.items }
func (r *TxReposMock) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *TxReposMock) Cart() repo.CartRepository                  { return r.cart }
func (r *TxReposMock) ServiceOffers() repo.ServiceOfferRepository { return r.serviceOffers }
func (r *TxReposMock) Verifications() repo.VerificationRepository { return r.verifications }
func (r *TxReposMock) Users() repo.UserRepository                 { return r.users }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository         { return r.audit }

func newTx(r *TxReposMock) *TxManagerMock {
	tx := &TxManagerMock{Repos: r}
	tx.On("WithinTx", mock.Anything).Return(nil)
	return tx
}

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	args := m.Called(ctx, orderNumber)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	panic("not used in usecase tests")
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, p *model.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PaymentRepoMock) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	args := m.Called(ctx, orderID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, error) {
	args := m.Called(ctx, gatewayOrderID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus, failureReason *string) error {
	args := m.Called(ctx, paymentID, status, failureReason)
	return args.Error(0)
}

func (m *PaymentRepoMock) MarkCaptured(ctx context.Context, paymentID int64, gatewayPaymentID string, signature string, at time.Time) error {
	args := m.Called(ctx, paymentID, gatewayPaymentID, signature, at)
	return args.Error(0)
}

func (m *PaymentRepoMock) MarkRefunded(ctx context.Context, paymentID int64, amount decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, paymentID, amount, at)
	return args.Error(0)
}

type ShippingRepoMock struct{ mock.Mock }

func (m *ShippingRepoMock) FindByOrderID(ctx context.Context, orderID int64) (model.ShippingDetail, error) {
	args := m.Called(ctx, orderID)
	d, _ := args.Get(0).(model.ShippingDetail)
	return d, args.Error(1)
}

func (m *ShippingRepoMock) Upsert(ctx context.Context, d *model.ShippingDetail) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *ShippingRepoMock) UpdateTracking(ctx context.Context, orderID int64, status model.TrackingStatus, deliveredAt *time.Time) error {
	args := m.Called(ctx, orderID, status, deliveredAt)
	return args.Error(0)
}

// 追記された履歴を覚えておく
type HistoryRepoMock struct {
	mock.Mock
	mu   sync.Mutex
	rows []model.OrderStatusHistory
}

func (m *HistoryRepoMock) Append(ctx context.Context, h model.OrderStatusHistory) error {
	args := m.Called(ctx, h)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.rows = append(m.rows, h)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *HistoryRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	args := m.Called(ctx, orderID)
	rows, _ := args.Get(0).([]model.OrderStatusHistory)
	return rows, args.Error(1)
}

type ItemRepoMock struct{ mock.Mock }

func (m *ItemRepoMock) ListPublic(ctx context.Context, q repo.ItemListQuery) ([]model.MarketplaceItem, int64, error) {
	panic("not used in usecase tests")
}

func (m *ItemRepoMock) FindByID(ctx context.Context, id int64) (model.MarketplaceItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(model.MarketplaceItem)
	return it, args.Error(1)
}

func (m *ItemRepoMock) Create(ctx context.Context, it model.MarketplaceItem) (model.MarketplaceItem, error) {
	panic("not used in usecase tests")
}

func (m *ItemRepoMock) Update(ctx context.Context, it model.MarketplaceItem) error {
	panic("not used in usecase tests")
}

func (m *ItemRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in usecase tests")
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, itemID int64, newStock int64) (int64, error) {
	args := m.Called(ctx, itemID, newStock)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, itemID int64, qty int64) (bool, error) {
	args := m.Called(ctx, itemID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, itemID int64, qty int64) error {
	args := m.Called(ctx, itemID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.StockAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

func (m *InventoryRepoMock) ListAdjustments(ctx context.Context, itemID int64, limit int) ([]model.StockAdjustment, error) {
	args := m.Called(ctx, itemID, limit)
	rows, _ := args.Get(0).([]model.StockAdjustment)
	return rows, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]model.CartItem)
	return rows, args.Error(1)
}

func (m *CartRepoMock) Upsert(ctx context.Context, userID int64, itemID int64, addQty int64) error {
	args := m.Called(ctx, userID, itemID, addQty)
	return args.Error(0)
}

func (m *CartRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	panic("not used in usecase tests")
}

func (m *CartRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	panic("not used in usecase tests")
}

func (m *CartRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	panic("not used in usecase tests")
}

func (m *CartRepoMock) DeleteByUserAndItems(ctx context.Context, userID int64, itemIDs []int64) error {
	args := m.Called(ctx, userID, itemIDs)
	return args.Error(0)
}

type ServiceOfferRepoMock struct{ mock.Mock }

func (m *ServiceOfferRepoMock) Create(ctx context.Context, o *model.ServiceOffer) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *ServiceOfferRepoMock) FindByID(ctx context.Context, id int64) (model.ServiceOffer, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(model.ServiceOffer)
	return o, args.Error(1)
}

func (m *ServiceOfferRepoMock) List(ctx context.Context, f repo.ServiceOfferFilter) ([]model.ServiceOffer, int64, error) {
	args := m.Called(ctx, f)
	rows, _ := args.Get(0).([]model.ServiceOffer)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *ServiceOfferRepoMock) Review(ctx context.Context, id int64, status model.AdminStatus, reviewerID int64, comments string, at time.Time) error {
	args := m.Called(ctx, id, status, reviewerID, comments, at)
	return args.Error(0)
}

func (m *ServiceOfferRepoMock) RejectExpired(ctx context.Context, cutoff time.Time, comment string, at time.Time) ([]model.ServiceOffer, error) {
	args := m.Called(ctx, cutoff, comment, at)
	rows, _ := args.Get(0).([]model.ServiceOffer)
	return rows, args.Error(1)
}

type ServiceRequestRepoMock struct{ mock.Mock }

func (m *ServiceRequestRepoMock) Create(ctx context.Context, r *model.ServiceRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *ServiceRequestRepoMock) FindByID(ctx context.Context, id int64) (model.ServiceRequest, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(model.ServiceRequest)
	return r, args.Error(1)
}

func (m *ServiceRequestRepoMock) List(ctx context.Context, f repo.ServiceRequestFilter) ([]model.ServiceRequest, int64, error) {
	panic("not used in usecase tests")
}

func (m *ServiceRequestRepoMock) UpdateStatus(ctx context.Context, id int64, status model.ServiceRequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in usecase tests")
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in usecase tests")
}

func (m *UserRepoMock) UpdateProfile(ctx context.Context, userID int64, name string, profile datatypes.JSON) error {
	args := m.Called(ctx, userID, name, profile)
	return args.Error(0)
}

func (m *UserRepoMock) SetVerified(ctx context.Context, userID int64, verified bool) error {
	args := m.Called(ctx, userID, verified)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type VerificationRepoMock struct{ mock.Mock }

func (m *VerificationRepoMock) Submit(ctx context.Context, v model.Verification) error {
	panic("not used in usecase tests")
}

func (m *VerificationRepoMock) FindByUserID(ctx context.Context, userType model.UserType, userID int64) (model.Verification, error) {
	args := m.Called(ctx, userType, userID)
	v, _ := args.Get(0).(model.Verification)
	return v, args.Error(1)
}

func (m *VerificationRepoMock) ListByStatus(ctx context.Context, userType model.UserType, status model.VerificationStatus, limit int) ([]model.Verification, error) {
	panic("not used in usecase tests")
}

func (m *VerificationRepoMock) Review(ctx context.Context, userType model.UserType, userID int64, status model.VerificationStatus, reviewerID int64, comments string, at time.Time) error {
	args := m.Called(ctx, userType, userID, status, reviewerID, comments, at)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]model.AuditLog)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *AuditRepoMock) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64) ([]model.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID)
	rows, _ := args.Get(0).([]model.AuditLog)
	return rows, args.Error(1)
}

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) CreateBulk(ctx context.Context, ns []model.Notification) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *NotificationRepoMock) ListByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	rows, _ := args.Get(0).([]model.Notification)
	return rows, args.Error(1)
}

func (m *NotificationRepoMock) MarkRead(ctx context.Context, id int64, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// =====================
// Clock / ID / Metrics / Publisher
// =====================

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// 連番のUUID風ID
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", g.n)
}

type metricsSpy struct {
	mu          sync.Mutex
	transitions []string
	verified    []bool
	failures    []string
	rejected    int
}

func (m *metricsSpy) OrderTransition(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *metricsSpy) PaymentVerification(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified = append(m.verified, ok)
}

func (m *metricsSpy) CheckoutFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, reason)
}

func (m *metricsSpy) AutoRejected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected += n
}

type publisherSpy struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *publisherSpy) Publish(ctx context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *publisherSpy) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// =====================
// Helper
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "err=%v is not HTTPError", err) {
		assert.Equal(t, want, he.Status)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buyerActor() model.Actor {
	return model.Actor{UserID: 10, Role: model.RoleUser, UserType: model.UserTypeIndividual, IsVerified: true}
}

func sellerActor() model.Actor {
	return model.Actor{UserID: 20, Role: model.RoleUser, UserType: model.UserTypeCompany, IsVerified: true}
}

func adminActor() model.Actor {
	return model.Actor{UserID: 1, Role: model.RoleAdmin, UserType: model.UserTypeIndividual, IsVerified: true}
}
