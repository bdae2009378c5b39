// Package event defines the domain events emitted after a state change commits.
package event

import (
	"context"
	"time"
)

type Type string

const (
	OrderStatusChanged   Type = "order.status_changed"
	PaymentCaptured      Type = "payment.captured"
	PaymentFailed        Type = "payment.failed"
	ServiceOfferReviewed Type = "service_offer.reviewed"
	VerificationReviewed Type = "verification.reviewed"
)

type Event struct {
	ID           string            `json:"id"`
	Type         Type              `json:"type"`
	ResourceType string            `json:"resource_type"`
	ResourceID   int64             `json:"resource_id"`
	Recipients   []int64           `json:"recipients"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// コミット後に呼ばれる。失敗しても元の操作は取り消さない
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// ブローカー無しで同じプロセスのHandlerに直接渡す
type HandlerPublisher struct {
	h Handler
}

func NewHandlerPublisher(h Handler) *HandlerPublisher {
	return &HandlerPublisher{h: h}
}

func (p *HandlerPublisher) Publish(ctx context.Context, e Event) error {
	return p.h.Handle(ctx, e)
}

// テストや無効化用
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, e Event) error { return nil }
