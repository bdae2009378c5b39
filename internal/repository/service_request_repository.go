package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type ServiceRequestFilter struct {
	NGOID  *int64
	Status *model.ServiceRequestStatus
	Page   int
	Limit  int
}

type ServiceRequestRepository interface {
	Create(ctx context.Context, r *model.ServiceRequest) error
	FindByID(ctx context.Context, id int64) (model.ServiceRequest, error)
	List(ctx context.Context, f ServiceRequestFilter) ([]model.ServiceRequest, int64, error)
	UpdateStatus(ctx context.Context, id int64, status model.ServiceRequestStatus) error
}
