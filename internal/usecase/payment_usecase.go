package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 署名検証（実装はinternal/payment）
type PaymentVerifier interface {
	VerifyCheckout(gatewayOrderID string, gatewayPaymentID string, signature string) error
	VerifyWebhook(body []byte, signature string) error
}

type PaymentUsecase struct {
	tx       repo.TransactionManager
	verifier PaymentVerifier
	flow     orderFlow
}

func NewPaymentUsecase(tx repo.TransactionManager, verifier PaymentVerifier, clock Clock, ids IDGenerator, metrics Metrics, publisher event.Publisher) *PaymentUsecase {
	return &PaymentUsecase{
		tx:       tx,
		verifier: verifier,
		flow:     orderFlow{clock: clock, ids: ids, metrics: metrics, publisher: publisher},
	}
}

type VerifyPaymentInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required,max=64"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required,max=64"`
	Signature        string `json:"signature" validate:"required,max=128"`
}

type VerifyPaymentOutput struct {
	Order   model.Order   `json:"order"`
	Payment model.Payment `json:"payment"`
}

const (
	WebhookPaymentCaptured  = "payment.captured"
	WebhookPaymentFailed    = "payment.failed"
	WebhookPaymentCancelled = "payment.cancelled"
)

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		GatewayOrderID   string `json:"gateway_order_id"`
		GatewayPaymentID string `json:"gateway_payment_id"`
		Reason           string `json:"reason"`
	} `json:"payload"`
}

type WebhookOutput struct {
	Event   string `json:"event"`
	Handled bool   `json:"handled"`
}

// 署名一致でcaptured + confirmed。不一致はfailedを記録してからエラーを返す
func (u *PaymentUsecase) Verify(ctx context.Context, actor model.Actor, in VerifyPaymentInput) (VerifyPaymentOutput, error) {
	if actor.UserID <= 0 {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in.GatewayOrderID = strings.TrimSpace(in.GatewayOrderID)
	in.GatewayPaymentID = strings.TrimSpace(in.GatewayPaymentID)
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || strings.TrimSpace(in.Signature) == "" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "missing payment fields")
	}

	var out VerifyPaymentOutput
	var mismatch error
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByGatewayOrderID(ctx, in.GatewayOrderID)
		if err != nil {
			return repoError(err)
		}
		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return repoError(err)
		}
		if o.BuyerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "unauthorized")
		}

		//キャプチャ済みなら何もしない
		if p.Status == model.PaymentStatusCaptured {
			out = VerifyPaymentOutput{Order: o, Payment: p}
			return nil
		}
		if !p.Status.Capturable() {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("payment is %s", p.Status))
		}

		if err := u.verifier.VerifyCheckout(in.GatewayOrderID, in.GatewayPaymentID, in.Signature); err != nil {
			reason := "signature mismatch"
			if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusFailed, &reason); err != nil {
				return repoError(err)
			}
			mismatch = err
			p.Status = model.PaymentStatusFailed
			p.FailureReason = &reason
			out = VerifyPaymentOutput{Order: o, Payment: p}
			return nil
		}

		now := u.flow.clock.Now()
		if err := r.Payments().MarkCaptured(ctx, p.ID, in.GatewayPaymentID, in.Signature, now); err != nil {
			return repoError(err)
		}
		if err := u.confirmOrder(ctx, r, &o, int64Ptr(actor.UserID), fx); err != nil {
			return err
		}

		p.Status = model.PaymentStatusCaptured
		p.GatewayPaymentID = &in.GatewayPaymentID
		p.CapturedAt = &now
		p.FailureReason = nil
		fx.events = append(fx.events, u.paymentEvent(event.PaymentCaptured, o, now))

		out = VerifyPaymentOutput{Order: o, Payment: p}
		return nil
	})
	if err != nil {
		return VerifyPaymentOutput{}, err
	}

	if mismatch != nil {
		u.flow.metrics.PaymentVerification(false)
		publishAll(ctx, u.flow.publisher, []event.Event{u.paymentEvent(event.PaymentFailed, out.Order, u.flow.clock.Now())})
		return out, wrapHTTPError(http.StatusBadRequest, ErrPaymentVerificationFailed.Error(), fmt.Errorf("%w: %w", ErrPaymentVerificationFailed, mismatch))
	}

	u.flow.metrics.PaymentVerification(true)
	u.flow.flush(ctx, fx)
	return out, nil
}

// 支払い開始を経ずに決済された場合は2段進める
func (u *PaymentUsecase) confirmOrder(ctx context.Context, r repo.TxRepos, o *model.Order, changedBy *int64, fx *txEffects) error {
	if o.Status == model.OrderStatusPending {
		if err := u.flow.transition(ctx, r, o, model.OrderStatusPaymentPending, changedBy, "payment started at gateway", fx); err != nil {
			return err
		}
	}
	return u.flow.transition(ctx, r, o, model.OrderStatusConfirmed, changedBy, "payment captured", fx)
}

// ゲートウェイからの通知。知らないイベントは無視して200
func (u *PaymentUsecase) HandleWebhook(ctx context.Context, body []byte, signature string) (WebhookOutput, error) {
	if err := u.verifier.VerifyWebhook(body, signature); err != nil {
		u.flow.metrics.PaymentVerification(false)
		return WebhookOutput{}, wrapHTTPError(http.StatusUnauthorized, "invalid signature", err)
	}

	var wp webhookPayload
	if err := json.Unmarshal(body, &wp); err != nil {
		return WebhookOutput{}, wrapHTTPError(http.StatusBadRequest, "invalid json", err)
	}
	if strings.TrimSpace(wp.Payload.GatewayOrderID) == "" {
		return WebhookOutput{}, NewHTTPError(http.StatusBadRequest, "gateway_order_id required")
	}

	switch wp.Event {
	case WebhookPaymentCaptured, WebhookPaymentFailed, WebhookPaymentCancelled:
	default:
		return WebhookOutput{Event: wp.Event, Handled: false}, nil
	}

	fx := &txEffects{}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByGatewayOrderID(ctx, wp.Payload.GatewayOrderID)
		if err != nil {
			return repoError(err)
		}
		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return repoError(err)
		}

		now := u.flow.clock.Now()
		switch wp.Event {
		case WebhookPaymentCaptured:
			if p.Status == model.PaymentStatusCaptured {
				return nil
			}
			if !p.Status.Capturable() {
				return NewHTTPError(http.StatusConflict, fmt.Sprintf("payment is %s", p.Status))
			}
			if err := r.Payments().MarkCaptured(ctx, p.ID, wp.Payload.GatewayPaymentID, signature, now); err != nil {
				return repoError(err)
			}
			if err := u.confirmOrder(ctx, r, &o, nil, fx); err != nil {
				return err
			}
			fx.events = append(fx.events, u.paymentEvent(event.PaymentCaptured, o, now))

		case WebhookPaymentFailed:
			if !p.Status.Capturable() {
				return nil
			}
			reason := strings.TrimSpace(wp.Payload.Reason)
			if reason == "" {
				reason = "payment failed at gateway"
			}
			if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusFailed, &reason); err != nil {
				return repoError(err)
			}
			fx.events = append(fx.events, u.paymentEvent(event.PaymentFailed, o, now))

		case WebhookPaymentCancelled:
			if !p.Status.Capturable() {
				return nil
			}
			if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusCancelled, p.FailureReason); err != nil {
				return repoError(err)
			}
			if o.Status == model.OrderStatusPending || o.Status == model.OrderStatusPaymentPending {
				if err := u.flow.transition(ctx, r, &o, model.OrderStatusCancelled, nil, "payment cancelled at gateway", fx); err != nil {
					return err
				}
				if err := restock(ctx, r, o.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return WebhookOutput{}, err
	}

	u.flow.flush(ctx, fx)
	return WebhookOutput{Event: wp.Event, Handled: true}, nil
}

func (u *PaymentUsecase) paymentEvent(t event.Type, o model.Order, now time.Time) event.Event {
	title := "Payment received"
	msg := fmt.Sprintf("Payment for order %s was captured.", o.OrderNumber)
	if t == event.PaymentFailed {
		title = "Payment failed"
		msg = fmt.Sprintf("Payment for order %s could not be verified.", o.OrderNumber)
	}
	return event.Event{
		ID:           u.flow.ids.NewID(),
		Type:         t,
		ResourceType: string(model.AuditResourceOrder),
		ResourceID:   o.ID,
		Recipients:   []int64{o.BuyerID, o.SellerID},
		Title:        title,
		Message:      msg,
		Attributes:   map[string]string{"order_number": o.OrderNumber},
		OccurredAt:   now,
	}
}
