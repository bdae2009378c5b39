package model

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// アカウント種別
type UserType string

const (
	UserTypeIndividual UserType = "individual"
	UserTypeCompany    UserType = "company"
	UserTypeNGO        UserType = "ngo"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeIndividual, UserTypeCompany, UserTypeNGO:
		return true
	}
	return false
}

type User struct {
	ID           int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"column:password_hash;not null" json:"-"`
	Name         string   `gorm:"type:varchar(255);not null" json:"name"`
	Role         Role     `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	UserType     UserType `gorm:"type:varchar(20);not null;index" json:"user_type"`

	//user_typeごとのプロフィール（ProfileDataで型付けして読む）
	ProfileData datatypes.JSON `gorm:"type:jsonb" json:"-"`

	//認証済みバッジ
	IsVerified   bool      `gorm:"not null;default:false" json:"is_verified"`
	TokenVersion int       `gorm:"not null;default:0" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// リクエスト単位の操作者（middlewareが作ってhandler経由でusecaseに渡す）
type Actor struct {
	UserID     int64
	Role       Role
	UserType   UserType
	IsVerified bool
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
