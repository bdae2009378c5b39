package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"marketplace/internal/domain/event"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 業務メトリクス（prometheus実装はinfra/metrics）
type Metrics interface {
	OrderTransition(from, to string)
	PaymentVerification(ok bool)
	CheckoutFailure(reason string)
	AutoRejected(n int)
}

type NopMetrics struct{}

func (NopMetrics) OrderTransition(from, to string) {}
func (NopMetrics) PaymentVerification(ok bool)     {}
func (NopMetrics) CheckoutFailure(reason string)   {}
func (NopMetrics) AutoRejected(n int)              {}

// go-playground/validatorの薄いラッパー（echoのValidatorと同じ形）
type Validator interface {
	Validate(i interface{}) error
}

// コミット後に流す。失敗はログだけ
func publishAll(ctx context.Context, p event.Publisher, evts []event.Event) {
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil {
			log.Printf("publish %s %s/%d failed: %v", e.Type, e.ResourceType, e.ResourceID, err)
		}
	}
}

// ハイフン抜きの大文字ID
func compactID(id string, n int) string {
	s := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
