// Package orderflow holds the order status transition table. Every handler that
// changes an order's status checks the move here first.
package orderflow

import (
	"errors"
	"fmt"

	"marketplace/internal/domain/model"
)

var ErrInvalidTransition = errors.New("invalid transition")

// 許可された遷移（ここに無いものは全部不可）
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:        {model.OrderStatusPaymentPending, model.OrderStatusCancelled},
	model.OrderStatusPaymentPending: {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:      {model.OrderStatusProcessing, model.OrderStatusCancelled, model.OrderStatusRefunded},
	model.OrderStatusProcessing:     {model.OrderStatusShipped, model.OrderStatusRefunded},
	model.OrderStatusShipped:        {model.OrderStatusDelivered, model.OrderStatusRefunded},
}

// 買い手がキャンセルできる状態
var buyerCancellable = map[model.OrderStatus]bool{
	model.OrderStatusPending:   true,
	model.OrderStatusConfirmed: true,
}

// 売り手が返金できる状態
var refundable = map[model.OrderStatus]bool{
	model.OrderStatusConfirmed:  true,
	model.OrderStatusProcessing: true,
	model.OrderStatusShipped:    true,
}

// 売り手が手動で進められる遷移
var sellerAdvance = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusConfirmed:  model.OrderStatusProcessing,
	model.OrderStatusProcessing: model.OrderStatusShipped,
	model.OrderStatusShipped:    model.OrderStatusDelivered,
}

type TransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *TransitionError) Error() string {
	// 包む側が "invalid transition" を付ける
	return fmt.Sprintf("%s -> %s is not allowed", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func CanTransition(from, to model.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusDelivered, model.OrderStatusCancelled, model.OrderStatusRefunded:
		return true
	}
	return false
}

// 次に進める状態の一覧
func NextStatuses(from model.OrderStatus) []model.OrderStatus {
	out := make([]model.OrderStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

func Validate(from, to model.OrderStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

func CheckCancel(current model.OrderStatus) error {
	if !buyerCancellable[current] {
		return &TransitionError{From: current, To: model.OrderStatusCancelled}
	}
	return Validate(current, model.OrderStatusCancelled)
}

func CheckRefund(current model.OrderStatus) error {
	if !refundable[current] {
		return &TransitionError{From: current, To: model.OrderStatusRefunded}
	}
	return Validate(current, model.OrderStatusRefunded)
}

// 売り手は1段ずつしか進められない（飛ばし・逆戻りは不可）
func CheckSellerAdvance(current, next model.OrderStatus) error {
	if sellerAdvance[current] != next {
		return &TransitionError{From: current, To: next}
	}
	return Validate(current, next)
}
