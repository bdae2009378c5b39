package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type AdminOrderUsecase struct {
	tx   repo.TransactionManager
	flow orderFlow
}

func NewAdminOrderUsecase(tx repo.TransactionManager, clock Clock, ids IDGenerator, metrics Metrics, publisher event.Publisher) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:   tx,
		flow: orderFlow{clock: clock, ids: ids, metrics: metrics, publisher: publisher},
	}
}

type AdminListOrdersInput struct {
	Page     int
	Limit    int
	Status   string
	BuyerID  *int64
	SellerID *int64
	From     string
	To       string
}

type AdminUpdateOrderStatusInput struct {
	Status string
	Reason string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminListOrdersInput) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if in.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	f := repo.OrderListFilter{Page: in.Page, Limit: in.Limit, BuyerID: in.BuyerID, SellerID: in.SellerID}
	if in.Status != "" {
		st, ok := model.ParseOrderStatus(in.Status)
		if !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = string(st)
	}
	if in.From != "" {
		t, ok := parseDateTimeRFC3339(in.From)
		if !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		f.From = t
	}
	if in.To != "" {
		t, ok := parseDateTimeRFC3339(in.To)
		if !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		f.To = t
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

// 管理者向けは監査ログも付ける
type AdminOrderDetailOutput struct {
	OrderDetailOutput
	AuditTrail []model.AuditLog `json:"audit_trail"`
}

func (u *AdminOrderUsecase) Detail(ctx context.Context, ref string) (AdminOrderDetailOutput, error) {
	var out AdminOrderDetailOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		d, err := loadOrderDetail(ctx, r, o)
		if err != nil {
			return err
		}
		trail, err := r.AuditLogs().ListByResource(ctx, model.AuditResourceOrder, o.ID)
		if err != nil {
			return dbError(err)
		}
		if trail == nil {
			trail = []model.AuditLog{}
		}
		out = AdminOrderDetailOutput{OrderDetailOutput: d, AuditTrail: trail}
		return nil
	})
	if err != nil {
		return AdminOrderDetailOutput{}, err
	}
	return out, nil
}

// 遷移表で許される変更なら何でも。履歴と監査ログを残す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor model.Actor, ref string, in AdminUpdateOrderStatusInput) (model.Order, error) {
	if actor.UserID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "admin only")
	}

	newStatus, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	reason := strings.TrimSpace(in.Reason)
	if len(reason) > 500 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid reason")
	}
	if reason == "" {
		reason = "updated by admin"
	}

	var out model.Order
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = o
			return nil
		}

		before := o.Status
		if err := u.flow.transition(ctx, r, &o, newStatus, int64Ptr(actor.UserID), reason, fx); err != nil {
			return err
		}

		now := u.flow.clock.Now()
		switch newStatus {
		case model.OrderStatusCancelled:
			if err := restock(ctx, r, o.ID); err != nil {
				return err
			}
			if err := settlePaymentOnCancel(ctx, r, o.ID, now); err != nil {
				return err
			}
		case model.OrderStatusRefunded:
			if before != model.OrderStatusShipped {
				if err := restock(ctx, r, o.ID); err != nil {
					return err
				}
			}
			p, err := r.Payments().FindByOrderID(ctx, o.ID)
			if err != nil && err != repo.ErrNotFound {
				return dbError(err)
			}
			if err == nil && p.Status == model.PaymentStatusCaptured {
				if err := r.Payments().MarkRefunded(ctx, p.ID, p.Amount, now); err != nil {
					return repoError(err)
				}
			}
		case model.OrderStatusDelivered:
			err := r.Shipments().UpdateTracking(ctx, o.ID, model.TrackingDelivered, &now)
			if err != nil && err != repo.ErrNotFound {
				return dbError(err)
			}
		}

		// ★監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  int64Ptr(actor.UserID),
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   toJSON(map[string]string{"status": string(before)}),
			AfterJSON:    toJSON(map[string]string{"status": string(newStatus), "reason": reason}),
			CreatedAt:    now,
		}); err != nil {
			return dbError(err)
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

// from/to はRFC3339
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// 監査ログ用
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
