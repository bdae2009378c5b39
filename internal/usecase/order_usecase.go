package usecase

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	"marketplace/internal/domain/orderflow"
	repo "marketplace/internal/repository"
)

type OrderUsecase struct {
	tx           repo.TransactionManager
	flow         orderFlow
	paymentKeyID string
}

func NewOrderUsecase(tx repo.TransactionManager, paymentKeyID string, clock Clock, ids IDGenerator, metrics Metrics, publisher event.Publisher) *OrderUsecase {
	return &OrderUsecase{
		tx:           tx,
		flow:         orderFlow{clock: clock, ids: ids, metrics: metrics, publisher: publisher},
		paymentKeyID: paymentKeyID,
	}
}

type ListOrdersInput struct {
	As     string // buyer / seller
	Status string
	Page   int
	Limit  int
}

type OrderListOutput struct {
	Orders []model.Order `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

type OrderDetailOutput struct {
	Order    model.Order                `json:"order"`
	Items    []model.OrderItem          `json:"items"`
	Payment  *model.Payment             `json:"payment,omitempty"`
	Shipping *model.ShippingDetail      `json:"shipping,omitempty"`
	History  []model.OrderStatusHistory `json:"history"`
	//今の状態から進める先
	NextStatuses []model.OrderStatus `json:"next_statuses"`
}

type CancelOrderInput struct {
	Reason string
}

type RefundOrderInput struct {
	Reason string
	//0なら全額
	Amount decimal.Decimal
}

type AdvanceOrderInput struct {
	Status string
	Reason string
}

// hosted checkoutに渡す値
type PaymentSessionOutput struct {
	KeyID          string          `json:"key_id"`
	OrderNumber    string          `json:"order_number"`
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
}

func (u *OrderUsecase) List(ctx context.Context, actor model.Actor, in ListOrdersInput) (OrderListOutput, error) {
	if actor.UserID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	f := repo.OrderListFilter{Page: in.Page, Limit: in.Limit}
	switch strings.TrimSpace(in.As) {
	case "", "buyer":
		f.BuyerID = int64Ptr(actor.UserID)
	case "seller":
		f.SellerID = int64Ptr(actor.UserID)
	default:
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid as")
	}
	if in.Status != "" {
		st, ok := model.ParseOrderStatus(in.Status)
		if !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = string(st)
	}

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().List(ctx, f)
		if err != nil {
			return dbError(err)
		}
		out = OrderListOutput{Orders: orders, Total: total, Page: in.Page, Limit: in.Limit}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 買い手・売り手・管理者だけ見える
func (u *OrderUsecase) Detail(ctx context.Context, actor model.Actor, ref string) (OrderDetailOutput, error) {
	if actor.UserID <= 0 {
		return OrderDetailOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out OrderDetailOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && o.BuyerID != actor.UserID && o.SellerID != actor.UserID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		d, err := loadOrderDetail(ctx, r, o)
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return OrderDetailOutput{}, err
	}
	return out, nil
}

// 支払い開始（pending -> payment_pending）。2回目以降は同じ値を返す
func (u *OrderUsecase) InitiatePayment(ctx context.Context, actor model.Actor, ref string) (PaymentSessionOutput, error) {
	if actor.UserID <= 0 {
		return PaymentSessionOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out PaymentSessionOutput
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		if o.BuyerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "unauthorized")
		}

		p, err := r.Payments().FindByOrderID(ctx, o.ID)
		if err != nil {
			return repoError(err)
		}

		if o.Status == model.OrderStatusPending {
			if err := u.flow.transition(ctx, r, &o, model.OrderStatusPaymentPending, int64Ptr(actor.UserID), "payment initiated", fx); err != nil {
				return err
			}
		} else if o.Status != model.OrderStatusPaymentPending {
			return repoError(&orderflow.TransitionError{From: o.Status, To: model.OrderStatusPaymentPending})
		}

		if p.Status == model.PaymentStatusCreated || p.Status == model.PaymentStatusFailed {
			if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusAttempted, nil); err != nil {
				return repoError(err)
			}
			p.Status = model.PaymentStatusAttempted
		}

		out = PaymentSessionOutput{
			KeyID:          u.paymentKeyID,
			OrderNumber:    o.OrderNumber,
			GatewayOrderID: p.GatewayOrderID,
			Amount:         p.Amount,
			Currency:       p.Currency,
			Status:         string(p.Status),
		}
		return nil
	})
	if err != nil {
		return PaymentSessionOutput{}, err
	}

	u.flow.flush(ctx, fx)
	return out, nil
}

// 買い手のキャンセル（pending / confirmed だけ）
func (u *OrderUsecase) Cancel(ctx context.Context, actor model.Actor, ref string, in CancelOrderInput) (model.Order, error) {
	if actor.UserID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	reason := strings.TrimSpace(in.Reason)
	if len(reason) > 500 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid reason")
	}
	if reason == "" {
		reason = "cancelled by buyer"
	}

	var out model.Order
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		if o.BuyerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "unauthorized")
		}
		if err := orderflow.CheckCancel(o.Status); err != nil {
			return repoError(err)
		}

		if err := u.flow.transition(ctx, r, &o, model.OrderStatusCancelled, int64Ptr(actor.UserID), reason, fx); err != nil {
			return err
		}

		//在庫戻し（キャンセル）
		if err := restock(ctx, r, o.ID); err != nil {
			return err
		}
		if err := settlePaymentOnCancel(ctx, r, o.ID, u.flow.clock.Now()); err != nil {
			return err
		}

		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	u.flow.flush(ctx, fx)
	return out, nil
}

// 売り手の返金（confirmed / processing / shipped）
func (u *OrderUsecase) Refund(ctx context.Context, actor model.Actor, ref string, in RefundOrderInput) (model.Order, model.Payment, error) {
	if actor.UserID <= 0 {
		return model.Order{}, model.Payment{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || len(reason) > 500 {
		return model.Order{}, model.Payment{}, NewHTTPError(http.StatusBadRequest, "invalid reason")
	}
	if in.Amount.IsNegative() {
		return model.Order{}, model.Payment{}, NewHTTPError(http.StatusBadRequest, "invalid refund amount")
	}

	var (
		outOrder   model.Order
		outPayment model.Payment
	)
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		if o.SellerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "unauthorized")
		}
		if err := orderflow.CheckRefund(o.Status); err != nil {
			return repoError(err)
		}

		p, err := r.Payments().FindByOrderID(ctx, o.ID)
		if err != nil {
			return repoError(err)
		}
		if p.Status != model.PaymentStatusCaptured {
			return NewHTTPError(http.StatusBadRequest, "payment not captured")
		}

		amount := in.Amount
		if amount.IsZero() {
			amount = p.Amount
		}
		if amount.GreaterThan(p.Amount) {
			return NewHTTPError(http.StatusBadRequest, "invalid refund amount")
		}

		//発送前なら在庫を戻す
		shipped := o.Status == model.OrderStatusShipped

		now := u.flow.clock.Now()
		if err := r.Payments().MarkRefunded(ctx, p.ID, amount, now); err != nil {
			return repoError(err)
		}
		if err := u.flow.transition(ctx, r, &o, model.OrderStatusRefunded, int64Ptr(actor.UserID), reason, fx); err != nil {
			return err
		}
		if !shipped {
			if err := restock(ctx, r, o.ID); err != nil {
				return err
			}
		}

		p.Status = model.PaymentStatusRefunded
		p.RefundAmount = amount
		p.RefundedAt = &now

		outOrder = o
		outPayment = p
		return nil
	})
	if err != nil {
		return model.Order{}, model.Payment{}, err
	}

	u.flow.flush(ctx, fx)
	return outOrder, outPayment, nil
}

// 売り手が1段ずつ進める（confirmed -> processing -> shipped -> delivered）
func (u *OrderUsecase) AdvanceStatus(ctx context.Context, actor model.Actor, ref string, in AdvanceOrderInput) (model.Order, error) {
	if actor.UserID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	reason := strings.TrimSpace(in.Reason)
	if len(reason) > 500 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid reason")
	}

	var out model.Order
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		if o.SellerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "unauthorized")
		}
		if err := orderflow.CheckSellerAdvance(o.Status, next); err != nil {
			return repoError(err)
		}

		switch next {
		case model.OrderStatusShipped:
			if _, err := r.Shipments().FindByOrderID(ctx, o.ID); err != nil {
				if err == repo.ErrNotFound {
					return NewHTTPError(http.StatusBadRequest, "shipping details required")
				}
				return dbError(err)
			}
		case model.OrderStatusDelivered:
			now := u.flow.clock.Now()
			err := r.Shipments().UpdateTracking(ctx, o.ID, model.TrackingDelivered, &now)
			if err != nil && err != repo.ErrNotFound {
				return dbError(err)
			}
		}

		if err := u.flow.transition(ctx, r, &o, next, int64Ptr(actor.UserID), reason, fx); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	u.flow.flush(ctx, fx)
	return out, nil
}

func loadOrderDetail(ctx context.Context, r repo.TxRepos, o model.Order) (OrderDetailOutput, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderDetailOutput{}, dbError(err)
	}
	history, err := r.History().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderDetailOutput{}, dbError(err)
	}

	out := OrderDetailOutput{
		Order:        o,
		Items:        items,
		History:      history,
		NextStatuses: orderflow.NextStatuses(o.Status),
	}

	p, err := r.Payments().FindByOrderID(ctx, o.ID)
	switch {
	case err == nil:
		out.Payment = &p
	case err != repo.ErrNotFound:
		return OrderDetailOutput{}, dbError(err)
	}

	s, err := r.Shipments().FindByOrderID(ctx, o.ID)
	switch {
	case err == nil:
		out.Shipping = &s
	case err != repo.ErrNotFound:
		return OrderDetailOutput{}, dbError(err)
	}

	return out, nil
}
