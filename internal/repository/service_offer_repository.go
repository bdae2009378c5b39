package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

type ServiceOfferFilter struct {
	NGOID       *int64
	AdminStatus *model.AdminStatus
	Page        int
	Limit       int
}

type ServiceOfferRepository interface {
	Create(ctx context.Context, o *model.ServiceOffer) error
	FindByID(ctx context.Context, id int64) (model.ServiceOffer, error)
	List(ctx context.Context, f ServiceOfferFilter) ([]model.ServiceOffer, int64, error)

	//pendingのときだけ更新（違えばErrConflict）
	Review(ctx context.Context, id int64, status model.AdminStatus, reviewerID int64, comments string, at time.Time) error

	//pendingかつcreated_at < cutoff のものをまとめてrejectedにし、更新した行を返す
	RejectExpired(ctx context.Context, cutoff time.Time, comment string, at time.Time) ([]model.ServiceOffer, error)
}
