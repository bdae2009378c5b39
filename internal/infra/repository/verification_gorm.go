package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationGormRepository struct {
	db *gorm.DB
}

func NewVerificationGormRepository(db *gorm.DB) *VerificationGormRepository {
	return &VerificationGormRepository{db: db}
}

// user_typeごとのテーブルと、申請内容として上書きする列
func verificationTable(t model.UserType) (any, []string, error) {
	switch t {
	case model.UserTypeIndividual:
		return &model.IndividualVerification{}, []string{"id_type", "id_number"}, nil
	case model.UserTypeCompany:
		return &model.CompanyVerification{}, []string{"registration_number", "tax_id"}, nil
	case model.UserTypeNGO:
		return &model.NGOVerification{}, []string{"registration_number", "darpan_id"}, nil
	}
	return nil, nil, fmt.Errorf("unknown user type %q", t)
}

// 再申請は内容を差し替えてレビューをやり直す（vはポインタで渡す）
func (r *VerificationGormRepository) Submit(ctx context.Context, v model.Verification) error {
	_, cols, err := verificationTable(v.VerificationUserType())
	if err != nil {
		return err
	}

	assign := clause.AssignmentColumns(append(cols, "updated_at"))
	assign = append(assign,
		clause.Assignment{Column: clause.Column{Name: "status"}, Value: model.VerificationPending},
		clause.Assignment{Column: clause.Column{Name: "reviewed_by"}, Value: nil},
		clause.Assignment{Column: clause.Column{Name: "reviewed_at"}, Value: nil},
		clause.Assignment{Column: clause.Column{Name: "comments"}, Value: ""},
	)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: assign,
		}).
		Create(v).Error
}

func (r *VerificationGormRepository) FindByUserID(ctx context.Context, userType model.UserType, userID int64) (model.Verification, error) {
	dst, _, err := verificationTable(userType)
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Where("user_id = ?", userID).First(dst).Error
	if isNotFound(err) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return derefVerification(dst), nil
}

func (r *VerificationGormRepository) ListByStatus(ctx context.Context, userType model.UserType, status model.VerificationStatus, limit int) ([]model.Verification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("status = ?", status).Order("id asc").Limit(limit)

	out := []model.Verification{}
	switch userType {
	case model.UserTypeIndividual:
		var rows []model.IndividualVerification
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, v := range rows {
			out = append(out, v)
		}
	case model.UserTypeCompany:
		var rows []model.CompanyVerification
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, v := range rows {
			out = append(out, v)
		}
	case model.UserTypeNGO:
		var rows []model.NGOVerification
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, v := range rows {
			out = append(out, v)
		}
	default:
		return nil, fmt.Errorf("unknown user type %q", userType)
	}
	return out, nil
}

func (r *VerificationGormRepository) Review(ctx context.Context, userType model.UserType, userID int64, status model.VerificationStatus, reviewerID int64, comments string, at time.Time) error {
	table, _, err := verificationTable(userType)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(table).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": at,
			"comments":    comments,
		})
	return rowsOrNotFound(res)
}

func derefVerification(v any) model.Verification {
	switch t := v.(type) {
	case *model.IndividualVerification:
		return *t
	case *model.CompanyVerification:
		return *t
	case *model.NGOVerification:
		return *t
	}
	return nil
}
