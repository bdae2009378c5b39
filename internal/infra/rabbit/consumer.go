package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"marketplace/internal/domain/event"

	"github.com/rabbitmq/amqp091-go"
)

const notificationQueue = "marketplace_notifications"

// デコードできないメッセージ。再送しても直らない
var ErrInvalidEvent = errors.New("invalid event")

// 受信したイベントをHandlerに渡す
type EventConsumer struct {
	handler event.Handler
}

func NewEventConsumer(h event.Handler) *EventConsumer {
	return &EventConsumer{handler: h}
}

func (c *EventConsumer) Handle(ctx context.Context, body []byte) error {
	var e event.Event
	if err := json.Unmarshal(body, &e); err != nil {
		log.Println("[rabbit] invalid event:", err)
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := c.handler.Handle(ctx, e); err != nil {
		log.Printf("[rabbit] handle %s failed: %v", e.Type, err)
		return err
	}
	return nil
}

// queueを宣言してexchangeにbindし、受信を始める
func SetupConsumer(ctx context.Context, ch *amqp091.Channel, exchange string, h event.Handler) error {
	consumer := NewEventConsumer(h)

	q, err := ch.QueueDeclare(
		notificationQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(
		q.Name,
		"", // fanoutはrouting keyを見ない
		exchange,
		false,
		nil,
	); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for m := range msgs {
			settle(m, consumer.Handle(ctx, m.Body))
		}
		log.Println("[rabbit] consumer stopped")
	}()

	log.Printf("[rabbit] subscribed to %s (fanout)", exchange)
	return nil
}

// 壊れたメッセージは捨てる。処理失敗は1回だけ戻し、再配送でも失敗したら捨てる
func settle(m amqp091.Delivery, err error) {
	switch {
	case err == nil:
		_ = m.Ack(false)
	case errors.Is(err, ErrInvalidEvent):
		_ = m.Nack(false, false)
	default:
		_ = m.Nack(false, !m.Redelivered)
	}
}
