package usecase

import (
	"context"
	"net/http"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type NotificationUsecase struct {
	notifications repo.NotificationRepository
	clock         Clock
}

func NewNotificationUsecase(notifications repo.NotificationRepository, clock Clock) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications, clock: clock}
}

func (u *NotificationUsecase) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if limit < 0 || limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if limit == 0 {
		limit = 50
	}
	rows, err := u.notifications.ListByUserID(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, dbError(err)
	}
	return rows, nil
}

// 他人の通知は「存在しない扱い」にする
func (u *NotificationUsecase) MarkRead(ctx context.Context, userID, id int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := u.notifications.MarkRead(ctx, id, userID); err != nil {
		return repoError(err)
	}
	return nil
}

// イベントを受信者ごとの通知にする（rabbitのconsumerか同一プロセスから呼ばれる）
func (u *NotificationUsecase) Handle(ctx context.Context, e event.Event) error {
	if len(e.Recipients) == 0 {
		return nil
	}
	at := e.OccurredAt
	if at.IsZero() {
		at = u.clock.Now()
	}

	seen := map[int64]bool{}
	ns := make([]model.Notification, 0, len(e.Recipients))
	for _, uid := range e.Recipients {
		if uid <= 0 || seen[uid] {
			continue
		}
		seen[uid] = true
		ns = append(ns, model.Notification{
			UserID:       uid,
			Type:         string(e.Type),
			Title:        e.Title,
			Message:      e.Message,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			CreatedAt:    at,
		})
	}
	if len(ns) == 0 {
		return nil
	}
	return u.notifications.CreateBulk(ctx, ns)
}
