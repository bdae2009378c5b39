package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceOfferGormRepository struct {
	db *gorm.DB
}

func NewServiceOfferGormRepository(db *gorm.DB) *ServiceOfferGormRepository {
	return &ServiceOfferGormRepository{db: db}
}

func (r *ServiceOfferGormRepository) Create(ctx context.Context, o *model.ServiceOffer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *ServiceOfferGormRepository) FindByID(ctx context.Context, id int64) (model.ServiceOffer, error) {
	var o model.ServiceOffer
	err := r.db.WithContext(ctx).First(&o, id).Error
	if isNotFound(err) {
		return model.ServiceOffer{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ServiceOffer{}, err
	}
	return o, nil
}

// レビュー待ちは古い順（期限が近い順）、それ以外は新しい順
func (r *ServiceOfferGormRepository) List(ctx context.Context, f repo.ServiceOfferFilter) ([]model.ServiceOffer, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ServiceOffer{})
	if f.NGOID != nil {
		q = q.Where("ngo_id = ?", *f.NGOID)
	}
	if f.AdminStatus != nil {
		q = q.Where("admin_status = ?", *f.AdminStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.ServiceOffer{}, 0, err
	}

	if f.AdminStatus != nil && *f.AdminStatus == model.AdminStatusPending {
		q = q.Order("created_at asc").Order("id asc")
	} else {
		q = q.Order("created_at desc").Order("id desc")
	}

	var rows []model.ServiceOffer
	offset := (f.Page - 1) * f.Limit
	if err := q.Offset(offset).Limit(f.Limit).Find(&rows).Error; err != nil {
		return []model.ServiceOffer{}, 0, err
	}
	return rows, total, nil
}

func (r *ServiceOfferGormRepository) Review(ctx context.Context, id int64, status model.AdminStatus, reviewerID int64, comments string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.ServiceOffer{}).
		Where("id = ? AND admin_status = ?", id, model.AdminStatusPending).
		Updates(map[string]interface{}{
			"admin_status":      status,
			"admin_reviewed_at": at,
			"admin_reviewed_by": reviewerID,
			"admin_comments":    comments,
			"updated_at":        at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

// 1文で更新するので、一覧取得と更新の間に承認されたものは触らない
func (r *ServiceOfferGormRepository) RejectExpired(ctx context.Context, cutoff time.Time, comment string, at time.Time) ([]model.ServiceOffer, error) {
	var rows []model.ServiceOffer
	res := r.db.WithContext(ctx).Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "ngo_id"}, {Name: "title"}, {Name: "created_at"}}}).
		Where("admin_status = ? AND created_at < ?", model.AdminStatusPending, cutoff).
		Updates(map[string]interface{}{
			"admin_status":      model.AdminStatusRejected,
			"admin_reviewed_at": at,
			"admin_reviewed_by": nil,
			"admin_comments":    comment,
			"updated_at":        at,
		})
	if res.Error != nil {
		return []model.ServiceOffer{}, res.Error
	}
	return rows, nil
}
