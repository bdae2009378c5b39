package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	"marketplace/internal/domain/orderflow"
	repo "marketplace/internal/repository"
)

// 注文の状態を変える処理が共通で持つ部品
type orderFlow struct {
	clock     Clock
	ids       IDGenerator
	metrics   Metrics
	publisher event.Publisher
}

type statusChange struct {
	from model.OrderStatus
	to   model.OrderStatus
}

// トランザクション中に溜めて、コミット後に流す
type txEffects struct {
	events  []event.Event
	changes []statusChange
}

// 1遷移 = 条件付き更新 + 履歴1行
func (f orderFlow) transition(ctx context.Context, r repo.TxRepos, o *model.Order, to model.OrderStatus, changedBy *int64, reason string, fx *txEffects) error {
	from := o.Status
	if err := orderflow.Validate(from, to); err != nil {
		return repoError(err)
	}

	if err := r.Orders().UpdateStatus(ctx, o.ID, from, to); err != nil {
		return repoError(err)
	}

	now := f.clock.Now()
	if err := r.History().Append(ctx, model.OrderStatusHistory{
		OrderID:        o.ID,
		PreviousStatus: from,
		NewStatus:      to,
		ChangedBy:      changedBy,
		Reason:         reason,
		CreatedAt:      now,
	}); err != nil {
		return dbError(err)
	}

	o.Status = to
	o.UpdatedAt = now
	fx.changes = append(fx.changes, statusChange{from: from, to: to})
	fx.events = append(fx.events, f.orderEvent(*o, from, to, now))
	return nil
}

func (f orderFlow) orderEvent(o model.Order, from, to model.OrderStatus, now time.Time) event.Event {
	return event.Event{
		ID:           f.ids.NewID(),
		Type:         event.OrderStatusChanged,
		ResourceType: string(model.AuditResourceOrder),
		ResourceID:   o.ID,
		Recipients:   []int64{o.BuyerID, o.SellerID},
		Title:        fmt.Sprintf("Order %s is %s", o.OrderNumber, to),
		Message:      fmt.Sprintf("Order %s moved from %s to %s.", o.OrderNumber, statusLabel(from), to),
		Attributes: map[string]string{
			"order_number": o.OrderNumber,
			"from":         string(from),
			"to":           string(to),
		},
		OccurredAt: now,
	}
}

func (f orderFlow) flush(ctx context.Context, fx *txEffects) {
	for _, c := range fx.changes {
		f.metrics.OrderTransition(string(c.from), string(c.to))
	}
	publishAll(ctx, f.publisher, fx.events)
}

// 在庫戻し
func restock(ctx context.Context, r repo.TxRepos, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return dbError(err)
	}
	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.MarketplaceItemID, it.Quantity); err != nil {
			return repoError(err)
		}
	}
	return nil
}

// 注文キャンセル時の決済の後始末。未決済は取り消し、決済済みは全額返金
func settlePaymentOnCancel(ctx context.Context, r repo.TxRepos, orderID int64, now time.Time) error {
	p, err := r.Payments().FindByOrderID(ctx, orderID)
	if err == repo.ErrNotFound {
		return nil
	}
	if err != nil {
		return dbError(err)
	}
	switch {
	case p.Status == model.PaymentStatusCaptured:
		if err := r.Payments().MarkRefunded(ctx, p.ID, p.Amount, now); err != nil {
			return repoError(err)
		}
	case p.Status.Capturable():
		if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusCancelled, p.FailureReason); err != nil {
			return repoError(err)
		}
	}
	return nil
}

// 数字ならID、それ以外は注文番号として探す
func findOrderByRef(ctx context.Context, r repo.TxRepos, ref string) (model.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var (
		o   model.Order
		err error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		if id <= 0 {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		o, err = r.Orders().FindByID(ctx, id)
	} else {
		o, err = r.Orders().FindByOrderNumber(ctx, ref)
	}
	if err != nil {
		return model.Order{}, repoError(err)
	}
	return o, nil
}

func statusLabel(s model.OrderStatus) string {
	if s == "" {
		return "new"
	}
	return string(s)
}

func int64Ptr(v int64) *int64 {
	return &v
}
