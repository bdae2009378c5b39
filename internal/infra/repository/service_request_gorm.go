package repository

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type ServiceRequestGormRepository struct {
	db *gorm.DB
}

func NewServiceRequestGormRepository(db *gorm.DB) *ServiceRequestGormRepository {
	return &ServiceRequestGormRepository{db: db}
}

func (r *ServiceRequestGormRepository) Create(ctx context.Context, sr *model.ServiceRequest) error {
	return r.db.WithContext(ctx).Create(sr).Error
}

func (r *ServiceRequestGormRepository) FindByID(ctx context.Context, id int64) (model.ServiceRequest, error) {
	var sr model.ServiceRequest
	err := r.db.WithContext(ctx).First(&sr, id).Error
	if isNotFound(err) {
		return model.ServiceRequest{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ServiceRequest{}, err
	}
	return sr, nil
}

func (r *ServiceRequestGormRepository) List(ctx context.Context, f repo.ServiceRequestFilter) ([]model.ServiceRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ServiceRequest{})
	if f.NGOID != nil {
		q = q.Where("ngo_id = ?", *f.NGOID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.ServiceRequest{}, 0, err
	}

	var rows []model.ServiceRequest
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Offset(offset).Limit(f.Limit).Find(&rows).Error; err != nil {
		return []model.ServiceRequest{}, 0, err
	}
	return rows, total, nil
}

func (r *ServiceRequestGormRepository) UpdateStatus(ctx context.Context, id int64, status model.ServiceRequestStatus) error {
	res := r.db.WithContext(ctx).Model(&model.ServiceRequest{}).
		Where("id = ?", id).
		Update("status", status)
	return rowsOrNotFound(res)
}
