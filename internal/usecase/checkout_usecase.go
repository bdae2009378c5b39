package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type CheckoutUsecase struct {
	tx      repo.TransactionManager
	pricing PricingPolicy
	flow    orderFlow
}

func NewCheckoutUsecase(tx repo.TransactionManager, pricing PricingPolicy, clock Clock, ids IDGenerator, metrics Metrics, publisher event.Publisher) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:      tx,
		pricing: pricing,
		flow:    orderFlow{clock: clock, ids: ids, metrics: metrics, publisher: publisher},
	}
}

type CheckoutItemInput struct {
	MarketplaceItemID int64 `json:"marketplace_item_id" validate:"required,gt=0"`
	Quantity          int64 `json:"quantity" validate:"required,gt=0,lte=100"`
}

type CheckoutInput struct {
	Items           []CheckoutItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	ShippingAddress model.Address       `json:"shipping_address" validate:"required"`
	BillingAddress  *model.Address      `json:"billing_address" validate:"omitempty"`
	ClearCart       bool                `json:"clear_cart"`
}

type CheckoutOrderOutput struct {
	OrderNumber    string        `json:"order_number"`
	Order          model.Order   `json:"order"`
	Payment        model.Payment `json:"payment"`
	ItemCount      int           `json:"item_count"`
	GatewayOrderID string        `json:"gateway_order_id"`
}

// 売り手ごとの失敗理由
type CheckoutFailure struct {
	SellerID int64   `json:"seller_id"`
	ItemIDs  []int64 `json:"item_ids"`
	Reason   string  `json:"reason"`
}

type CheckoutOutput struct {
	Orders   []CheckoutOrderOutput `json:"orders"`
	Failures []CheckoutFailure     `json:"failures"`
}

type sellerGroup struct {
	sellerID int64
	lines    []CheckoutItemInput
}

// 売り手ごとに1注文。グループごとに別トランザクションで順番に作る（前のグループは巻き戻さない）
func (u *CheckoutUsecase) Checkout(ctx context.Context, actor model.Actor, in CheckoutInput) (CheckoutOutput, error) {
	if actor.UserID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}

	lines, err := mergeLines(in.Items)
	if err != nil {
		return CheckoutOutput{}, err
	}

	out := CheckoutOutput{Orders: []CheckoutOrderOutput{}, Failures: []CheckoutFailure{}}

	groups, missing, err := u.groupBySeller(ctx, lines)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if len(missing) > 0 {
		out.Failures = append(out.Failures, CheckoutFailure{ItemIDs: missing, Reason: "item not found"})
		u.flow.metrics.CheckoutFailure("item not found")
	}

	for _, g := range groups {
		created, err := u.createGroupOrder(ctx, actor, g, in)
		if err != nil {
			out.Failures = append(out.Failures, CheckoutFailure{
				SellerID: g.sellerID,
				ItemIDs:  lineIDs(g.lines),
				Reason:   failureReason(err),
			})
			u.flow.metrics.CheckoutFailure(failureReason(err))
			continue
		}
		out.Orders = append(out.Orders, created)
	}

	return out, nil
}

func (u *CheckoutUsecase) groupBySeller(ctx context.Context, lines []CheckoutItemInput) ([]sellerGroup, []int64, error) {
	var groups []sellerGroup
	var missing []int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		index := map[int64]int{}
		for _, l := range lines {
			it, err := r.Items().FindByID(ctx, l.MarketplaceItemID)
			if errors.Is(err, repo.ErrNotFound) {
				missing = append(missing, l.MarketplaceItemID)
				continue
			}
			if err != nil {
				return dbError(err)
			}

			i, ok := index[it.SellerID]
			if !ok {
				i = len(groups)
				index[it.SellerID] = i
				groups = append(groups, sellerGroup{sellerID: it.SellerID})
			}
			groups[i].lines = append(groups[i].lines, l)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	//結果を安定させる
	sort.Slice(groups, func(a, b int) bool { return groups[a].sellerID < groups[b].sellerID })
	return groups, missing, nil
}

func (u *CheckoutUsecase) createGroupOrder(ctx context.Context, actor model.Actor, g sellerGroup, in CheckoutInput) (CheckoutOrderOutput, error) {
	var out CheckoutOrderOutput
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.flow.clock.Now()
		items := make([]model.OrderItem, 0, len(g.lines))
		subtotal := decimal.Zero

		for _, l := range g.lines {
			//確定時にもう一度読む
			it, err := r.Items().FindByID(ctx, l.MarketplaceItemID)
			if err != nil {
				return repoError(err)
			}
			if !it.IsActive {
				return NewHTTPError(http.StatusBadRequest, "item not available")
			}
			if it.SellerID == actor.UserID {
				return NewHTTPError(http.StatusBadRequest, "cannot buy own item")
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ID, l.Quantity)
			if err != nil {
				return dbError(err)
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, "out of stock")
			}

			snap, err := json.Marshal(model.SnapshotOf(it))
			if err != nil {
				return wrapHTTPError(http.StatusInternalServerError, "internal error", err)
			}

			line := model.LineTotal(it.Price, l.Quantity)
			items = append(items, model.OrderItem{
				MarketplaceItemID: it.ID,
				Quantity:          l.Quantity,
				UnitPrice:         it.Price,
				TotalPrice:        line,
				ItemSnapshot:      snap,
				CreatedAt:         now,
			})
			subtotal = subtotal.Add(line)
		}

		q := u.pricing.Quote(subtotal)
		order := model.Order{
			OrderNumber:     newOrderNumber(now, u.flow.ids.NewID()),
			BuyerID:         actor.UserID,
			SellerID:        g.sellerID,
			Status:          model.OrderStatusPending,
			TotalAmount:     q.Total,
			ShippingAmount:  q.Shipping,
			TaxAmount:       q.Tax,
			DiscountAmount:  q.Discount,
			FinalAmount:     q.Final,
			Currency:        u.pricing.Currency,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			return dbError(err)
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return dbError(err)
		}

		//作成も履歴に残す（previousは空）
		if err := r.History().Append(ctx, model.OrderStatusHistory{
			OrderID:   order.ID,
			NewStatus: model.OrderStatusPending,
			ChangedBy: int64Ptr(actor.UserID),
			Reason:    "order placed",
			CreatedAt: now,
		}); err != nil {
			return dbError(err)
		}

		payment := model.Payment{
			OrderID:        order.ID,
			PaymentID:      "pay_" + compactID(u.flow.ids.NewID(), 0),
			GatewayOrderID: "order_" + compactID(u.flow.ids.NewID(), 0),
			Amount:         order.FinalAmount,
			Currency:       order.Currency,
			Status:         model.PaymentStatusCreated,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Payments().Create(ctx, &payment); err != nil {
			return dbError(err)
		}

		if in.ClearCart {
			if err := r.Cart().DeleteByUserAndItems(ctx, actor.UserID, lineIDs(g.lines)); err != nil {
				return dbError(err)
			}
		}

		fx.changes = append(fx.changes, statusChange{to: model.OrderStatusPending})
		fx.events = append(fx.events, u.flow.orderEvent(order, "", model.OrderStatusPending, now))

		out = CheckoutOrderOutput{
			OrderNumber:    order.OrderNumber,
			Order:          order,
			Payment:        payment,
			ItemCount:      len(items),
			GatewayOrderID: payment.GatewayOrderID,
		}
		return nil
	})
	if err != nil {
		return CheckoutOrderOutput{}, err
	}

	u.flow.flush(ctx, fx)
	return out, nil
}

const maxLineQuantity = 100

// 同じ出品が複数回来たら数量をまとめる
func mergeLines(in []CheckoutItemInput) ([]CheckoutItemInput, error) {
	out := make([]CheckoutItemInput, 0, len(in))
	index := map[int64]int{}
	for _, l := range in {
		if l.MarketplaceItemID <= 0 {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid marketplace_item_id")
		}
		if l.Quantity < 1 || l.Quantity > maxLineQuantity {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		if i, ok := index[l.MarketplaceItemID]; ok {
			out[i].Quantity += l.Quantity
			//まとめた後も1行の上限を超えない
			if out[i].Quantity > maxLineQuantity {
				return nil, NewHTTPError(http.StatusBadRequest, "invalid quantity")
			}
			continue
		}
		index[l.MarketplaceItemID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// ORD + 日付 + ランダム8桁
func newOrderNumber(now time.Time, id string) string {
	return "ORD" + now.Format("20060102") + "-" + compactID(id, 8)
}

func lineIDs(lines []CheckoutItemInput) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MarketplaceItemID)
	}
	return ids
}

func failureReason(err error) string {
	if he, ok := AsHTTPError(err); ok && he.Status < http.StatusInternalServerError {
		return he.Message
	}
	return "internal error"
}
