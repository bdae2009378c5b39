package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// AdminOrderUsecase
// =====================

func TestAdminOrder_UpdateStatus_WritesHistoryAndAudit(t *testing.T) {
	r := newTxRepos()
	m := &metricsSpy{}
	uc := usecase.NewAdminOrderUsecase(newTx(r), fixedClock{testNow}, &seqIDs{}, m, event.NopPublisher{})

	r.orders.On("FindByID", mock.Anything, int64(7)).Return(testOrder(model.OrderStatusConfirmed), nil)
	r.orders.On("UpdateStatus", mock.Anything, int64(7), model.OrderStatusConfirmed, model.OrderStatusProcessing).Return(nil).Once()
	r.history.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	r.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceType == model.AuditResourceOrder &&
			l.ResourceID == 7 &&
			l.BeforeJSON == `{"status":"confirmed"}`
	})).Return(nil).Once()

	o, err := uc.UpdateStatus(context.Background(), adminActor(), "7", usecase.AdminUpdateOrderStatusInput{Status: "processing"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)

	require.Len(t, r.history.rows, 1)
	assert.Equal(t, "updated by admin", r.history.rows[0].Reason)
	assert.Equal(t, []string{"confirmed->processing"}, m.transitions)
	r.audit.AssertExpectations(t)
}

func TestAdminOrder_UpdateStatus_RefundMarksPayment(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminOrderUsecase(newTx(r), fixedClock{testNow}, &seqIDs{}, usecase.NopMetrics{}, event.NopPublisher{})

	r.orders.On("FindByID", mock.Anything, int64(7)).Return(testOrder(model.OrderStatusShipped), nil)
	r.orders.On("UpdateStatus", mock.Anything, int64(7), model.OrderStatusShipped, model.OrderStatusRefunded).Return(nil).Once()
	r.history.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	r.payments.On("FindByOrderID", mock.Anything, int64(7)).Return(capturedPayment(), nil)
	r.payments.On("MarkRefunded", mock.Anything, int64(70), mock.Anything, testNow).Return(nil).Once()
	r.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := uc.UpdateStatus(context.Background(), adminActor(), "7", usecase.AdminUpdateOrderStatusInput{Status: "refunded", Reason: "chargeback"})
	require.NoError(t, err)
	r.payments.AssertExpectations(t)
	// 発送済みなので在庫は戻さない
	r.orderItems.AssertNotCalled(t, "ListByOrderID", mock.Anything, mock.Anything)
}

func TestAdminOrder_UpdateStatus_CancelRefundsCapturedPayment(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminOrderUsecase(newTx(r), fixedClock{testNow}, &seqIDs{}, usecase.NopMetrics{}, event.NopPublisher{})

	r.orders.On("FindByID", mock.Anything, int64(7)).Return(testOrder(model.OrderStatusConfirmed), nil)
	r.orders.On("UpdateStatus", mock.Anything, int64(7), model.OrderStatusConfirmed, model.OrderStatusCancelled).Return(nil).Once()
	r.history.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	r.orderItems.On("ListByOrderID", mock.Anything, int64(7)).Return([]model.OrderItem{{MarketplaceItemID: 101, Quantity: 1}}, nil).Once()
	r.inventory.On("IncreaseStock", mock.Anything, int64(101), int64(1)).Return(nil).Once()
	r.payments.On("FindByOrderID", mock.Anything, int64(7)).Return(capturedPayment(), nil)
	r.payments.On("MarkRefunded", mock.Anything, int64(70), mock.Anything, testNow).Return(nil).Once()
	r.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	o, err := uc.UpdateStatus(context.Background(), adminActor(), "7", usecase.AdminUpdateOrderStatusInput{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, o.Status)
	r.payments.AssertExpectations(t)
	r.inventory.AssertExpectations(t)
}

func TestAdminOrder_UpdateStatus_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		actor      model.Actor
		current    model.OrderStatus
		next       string
		wantStatus int
	}{
		{"not admin", sellerActor(), model.OrderStatusConfirmed, "processing", http.StatusForbidden},
		{"unknown status", adminActor(), model.OrderStatusConfirmed, "lost", http.StatusBadRequest},
		{"terminal", adminActor(), model.OrderStatusDelivered, "cancelled", http.StatusBadRequest},
		{"backwards", adminActor(), model.OrderStatusShipped, "processing", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTxRepos()
			uc := usecase.NewAdminOrderUsecase(newTx(r), fixedClock{testNow}, &seqIDs{}, usecase.NopMetrics{}, event.NopPublisher{})
			r.orders.On("FindByID", mock.Anything, int64(7)).Return(testOrder(tt.current), nil)

			_, err := uc.UpdateStatus(context.Background(), tt.actor, "7", usecase.AdminUpdateOrderStatusInput{Status: tt.next})
			assertStatus(t, err, tt.wantStatus)
			r.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			r.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminOrder_UpdateStatus_SameStatusIsNoop(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminOrderUsecase(newTx(r), fixedClock{testNow}, &seqIDs{}, usecase.NopMetrics{}, event.NopPublisher{})
	r.orders.On("FindByID", mock.Anything, int64(7)).Return(testOrder(model.OrderStatusShipped), nil)

	o, err := uc.UpdateStatus(context.Background(), adminActor(), "7", usecase.AdminUpdateOrderStatusInput{Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, o.Status)
	assert.Empty(t, r.history.rows)
}

func TestAdminOrder_DetailCarriesAuditTrail(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminOrderUsecase(newTx(r), fixedClock{testNow}, &seqIDs{}, usecase.NopMetrics{}, event.NopPublisher{})

	r.orders.On("FindByOrderNumber", mock.Anything, "ORD20260310-ABCDEF12").Return(testOrder(model.OrderStatusConfirmed), nil)
	r.orderItems.On("ListByOrderID", mock.Anything, int64(7)).Return([]model.OrderItem{{ID: 1}}, nil)
	r.history.On("ListByOrderID", mock.Anything, int64(7)).Return([]model.OrderStatusHistory{{NewStatus: model.OrderStatusPending}}, nil)
	r.payments.On("FindByOrderID", mock.Anything, int64(7)).Return(capturedPayment(), nil)
	r.shipments.On("FindByOrderID", mock.Anything, int64(7)).Return(model.ShippingDetail{}, repo.ErrNotFound)
	r.audit.On("ListByResource", mock.Anything, model.AuditResourceOrder, int64(7)).Return(nil, nil).Once()

	out, err := uc.Detail(context.Background(), "ORD20260310-ABCDEF12")
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Order.ID)
	require.NotNil(t, out.Payment)
	assert.Nil(t, out.Shipping)
	assert.NotNil(t, out.AuditTrail)
	assert.Empty(t, out.AuditTrail)
	r.audit.AssertExpectations(t)
}

// =====================
// AdminUserUsecase
// =====================

func TestAdminUser_ForceLogout(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminUserUsecase(newTx(r), r.audit, fixedClock{testNow})

	r.users.On("FindByID", mock.Anything, int64(10)).Return(&model.User{ID: 10, TokenVersion: 3}, nil).Once()
	r.users.On("IncrementTokenVersion", mock.Anything, int64(10)).Return(nil).Once()
	r.users.On("FindByID", mock.Anything, int64(10)).Return(&model.User{ID: 10, TokenVersion: 4}, nil).Once()
	r.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionForceLogout &&
			l.BeforeJSON == `{"token_version":3}` &&
			l.AfterJSON == `{"token_version":4}`
	})).Return(nil).Once()

	out, err := uc.ForceLogout(context.Background(), adminActor(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.UserID)
	assert.Equal(t, 4, out.NewTokenVersion)
	r.users.AssertExpectations(t)
	r.audit.AssertExpectations(t)
}

func TestAdminUser_ForceLogout_Errors(t *testing.T) {
	t.Run("not admin", func(t *testing.T) {
		r := newTxRepos()
		uc := usecase.NewAdminUserUsecase(newTx(r), r.audit, fixedClock{testNow})
		_, err := uc.ForceLogout(context.Background(), buyerActor(), 10)
		assertStatus(t, err, http.StatusForbidden)
	})

	t.Run("unknown user", func(t *testing.T) {
		r := newTxRepos()
		uc := usecase.NewAdminUserUsecase(newTx(r), r.audit, fixedClock{testNow})
		r.users.On("FindByID", mock.Anything, int64(99)).Return((*model.User)(nil), nil)

		_, err := uc.ForceLogout(context.Background(), adminActor(), 99)
		assertStatus(t, err, http.StatusNotFound)
		r.users.AssertNotCalled(t, "IncrementTokenVersion", mock.Anything, mock.Anything)
	})
}

func TestAdminUser_ListAuditLogsBuildsFilter(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminUserUsecase(newTx(r), r.audit, fixedClock{testNow})

	r.audit.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.Action != nil && *f.Action == model.AuditActionForceLogout &&
			f.ResourceType != nil && *f.ResourceType == model.AuditResourceUser &&
			f.ResourceID != nil && *f.ResourceID == 10 &&
			f.ActorUserID != nil && *f.ActorUserID == 1 && !f.SystemOnly &&
			f.CreatedFrom != nil && f.CreatedTo == nil &&
			f.Limit == 20
	})).Return([]model.AuditLog{{ID: 1}}, int64(31), nil).Once()

	id := int64(10)
	out, err := uc.ListAuditLogs(context.Background(), adminActor(), usecase.ListAuditLogsInput{
		Action:       "force_logout",
		ResourceType: "USER",
		ResourceID:   &id,
		Actor:        "1",
		From:         "2026-03-01T00:00:00Z",
		Limit:        20,
	})
	require.NoError(t, err)
	assert.Len(t, out.Logs, 1)
	assert.Equal(t, int64(31), out.Total)
	assert.Equal(t, 20, out.Limit)
}

// 自動却下はactorなしで記録される
func TestAdminUser_ListAuditLogsSystemActor(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminUserUsecase(newTx(r), r.audit, fixedClock{testNow})

	r.audit.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.SystemOnly && f.ActorUserID == nil && f.Limit == 50
	})).Return([]model.AuditLog{}, int64(0), nil).Once()

	out, err := uc.ListAuditLogs(context.Background(), adminActor(), usecase.ListAuditLogsInput{Actor: "system"})
	require.NoError(t, err)
	assert.Equal(t, 50, out.Limit)
	r.audit.AssertExpectations(t)
}

func TestAdminUser_ListAuditLogsInputErrors(t *testing.T) {
	id := int64(7)
	tests := []struct {
		name string
		in   usecase.ListAuditLogsInput
		want string
	}{
		{"unknown resource type", usecase.ListAuditLogsInput{ResourceType: "cart"}, "invalid resource_type"},
		{"unknown action", usecase.ListAuditLogsInput{Action: "delete_everything"}, "invalid action"},
		{"bad from", usecase.ListAuditLogsInput{From: "yesterday"}, "invalid from"},
		{"reversed range", usecase.ListAuditLogsInput{From: "2026-03-02T00:00:00Z", To: "2026-03-01T00:00:00Z"}, "from must be before to"},
		{"bad actor", usecase.ListAuditLogsInput{Actor: "bob"}, "invalid actor"},
		{"id without type", usecase.ListAuditLogsInput{ResourceID: &id}, "resource_id needs resource_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTxRepos()
			uc := usecase.NewAdminUserUsecase(newTx(r), r.audit, fixedClock{testNow})

			_, err := uc.ListAuditLogs(context.Background(), adminActor(), tt.in)
			assertErrContains(t, err, tt.want)
			assertStatus(t, err, http.StatusBadRequest)
			r.audit.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminUser_ResourceTrail(t *testing.T) {
	r := newTxRepos()
	uc := usecase.NewAdminUserUsecase(newTx(r), r.audit, fixedClock{testNow})

	r.audit.On("ListByResource", mock.Anything, model.AuditResourceServiceOffer, int64(5)).
		Return([]model.AuditLog{{ID: 1, Action: model.AuditActionAutoRejectServiceOffer}}, nil).Once()

	rows, err := uc.ResourceTrail(context.Background(), adminActor(), "service_offer", 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = uc.ResourceTrail(context.Background(), adminActor(), "cart", 5)
	assertErrContains(t, err, "invalid resource_type")

	_, err = uc.ResourceTrail(context.Background(), sellerActor(), "order", 5)
	assertStatus(t, err, http.StatusForbidden)
}
