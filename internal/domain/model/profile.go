package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

var ErrProfileTypeMismatch = errors.New("profile type mismatch")

// user_typeごとのプロフィール。実体はIndividualProfile / CompanyProfile / NGOProfileのどれか
type ProfileData interface {
	ProfileType() UserType
}

type IndividualProfile struct {
	FullName string   `json:"full_name" validate:"required,max=255"`
	Phone    string   `json:"phone" validate:"omitempty,numeric,len=10"`
	City     string   `json:"city" validate:"omitempty,max=100"`
	Skills   []string `json:"skills" validate:"max=30,dive,max=50"`
	Bio      string   `json:"bio" validate:"max=2000"`
}

func (IndividualProfile) ProfileType() UserType { return UserTypeIndividual }

type CompanyProfile struct {
	CompanyName        string `json:"company_name" validate:"required,max=255"`
	RegistrationNumber string `json:"registration_number" validate:"omitempty,max=50"`
	Industry           string `json:"industry" validate:"omitempty,max=100"`
	Website            string `json:"website" validate:"omitempty,url"`
	ContactPhone       string `json:"contact_phone" validate:"omitempty,numeric,len=10"`
	EmployeeCount      int    `json:"employee_count" validate:"gte=0"`
}

func (CompanyProfile) ProfileType() UserType { return UserTypeCompany }

type NGOProfile struct {
	OrganizationName   string   `json:"organization_name" validate:"required,max=255"`
	RegistrationNumber string   `json:"registration_number" validate:"omitempty,max=50"`
	FocusAreas         []string `json:"focus_areas" validate:"max=20,dive,max=50"`
	Website            string   `json:"website" validate:"omitempty,url"`
	ContactPhone       string   `json:"contact_phone" validate:"omitempty,numeric,len=10"`
	FoundedYear        int      `json:"founded_year" validate:"omitempty,gte=1800,lte=2100"`
}

func (NGOProfile) ProfileType() UserType { return UserTypeNGO }

// 空のプロフィールをuser_typeから作る
func NewProfileFor(t UserType) (ProfileData, error) {
	switch t {
	case UserTypeIndividual:
		return &IndividualProfile{}, nil
	case UserTypeCompany:
		return &CompanyProfile{}, nil
	case UserTypeNGO:
		return &NGOProfile{}, nil
	default:
		return nil, fmt.Errorf("unknown user type %q", t)
	}
}

// JSONをuser_typeの型に読み込む。空なら空のプロフィールを返す
func DecodeProfile(t UserType, raw []byte) (ProfileData, error) {
	p, err := NewProfileFor(t)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decode %s profile: %w", t, err)
	}
	return p, nil
}

// user_typeと型が一致するときだけJSONにする
func EncodeProfile(t UserType, p ProfileData) (datatypes.JSON, error) {
	if p == nil || p.ProfileType() != t {
		return nil, ErrProfileTypeMismatch
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
