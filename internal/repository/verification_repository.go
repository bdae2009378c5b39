package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

// user_typeでテーブルを切り替える
type VerificationRepository interface {
	//既存があれば内容を差し替えてpendingに戻す
	Submit(ctx context.Context, v model.Verification) error
	FindByUserID(ctx context.Context, userType model.UserType, userID int64) (model.Verification, error)
	ListByStatus(ctx context.Context, userType model.UserType, status model.VerificationStatus, limit int) ([]model.Verification, error)
	Review(ctx context.Context, userType model.UserType, userID int64, status model.VerificationStatus, reviewerID int64, comments string, at time.Time) error
}
