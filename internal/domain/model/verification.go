package model

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// 3テーブル共通のレビュー欄
type VerificationReview struct {
	Status     VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy *int64             `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time         `json:"reviewed_at,omitempty"`
	Comments   string             `gorm:"type:text" json:"comments"`
}

// user_typeごとの認証申請
type Verification interface {
	VerificationUserType() UserType
	OwnerID() int64
	ReviewState() VerificationReview
}

type IndividualVerification struct {
	ID        int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64              `gorm:"not null;uniqueIndex" json:"user_id"`
	IDType    string             `gorm:"type:varchar(30);not null" json:"id_type" validate:"required,oneof=aadhaar pan passport voter_id"`
	IDNumber  string             `gorm:"type:varchar(30);not null" json:"id_number" validate:"required,alphanum,max=30"`
	Review    VerificationReview `gorm:"embedded" json:"review"`
	CreatedAt time.Time          `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time          `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (IndividualVerification) VerificationUserType() UserType    { return UserTypeIndividual }
func (v IndividualVerification) OwnerID() int64                  { return v.UserID }
func (v IndividualVerification) ReviewState() VerificationReview { return v.Review }

type CompanyVerification struct {
	ID                 int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             int64              `gorm:"not null;uniqueIndex" json:"user_id"`
	RegistrationNumber string             `gorm:"type:varchar(50);not null" json:"registration_number" validate:"required,max=50"`
	TaxID              string             `gorm:"type:varchar(30)" json:"tax_id" validate:"omitempty,alphanum,max=30"`
	Review             VerificationReview `gorm:"embedded" json:"review"`
	CreatedAt          time.Time          `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CompanyVerification) VerificationUserType() UserType    { return UserTypeCompany }
func (v CompanyVerification) OwnerID() int64                  { return v.UserID }
func (v CompanyVerification) ReviewState() VerificationReview { return v.Review }

type NGOVerification struct {
	ID                 int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             int64              `gorm:"not null;uniqueIndex" json:"user_id"`
	RegistrationNumber string             `gorm:"type:varchar(50);not null" json:"registration_number" validate:"required,max=50"`
	DarpanID           string             `gorm:"type:varchar(30)" json:"darpan_id" validate:"omitempty,max=30"`
	Review             VerificationReview `gorm:"embedded" json:"review"`
	CreatedAt          time.Time          `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (NGOVerification) TableName() string {
	return "ngo_verifications"
}

func (NGOVerification) VerificationUserType() UserType    { return UserTypeNGO }
func (v NGOVerification) OwnerID() int64                  { return v.UserID }
func (v NGOVerification) ReviewState() VerificationReview { return v.Review }
