package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// 管理者レビューの期限（投稿から5日）
const ReviewSLA = 5 * 24 * time.Hour

// 残り24時間を切ったら警告表示
const ReviewWarningWindow = 24 * time.Hour

type AdminStatus string

const (
	AdminStatusPending  AdminStatus = "pending"
	AdminStatusApproved AdminStatus = "approved"
	AdminStatusRejected AdminStatus = "rejected"
)

type WageKind string

const (
	WageHourly  WageKind = "hourly"
	WageFixed   WageKind = "fixed"
	WageStipend WageKind = "stipend"
	WageUnpaid  WageKind = "unpaid"
)

// 報酬（kindで中身が決まる。unpaidならAmountは0）
type WageInfo struct {
	Kind     WageKind        `json:"kind" validate:"required,oneof=hourly fixed stipend unpaid"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty" validate:"omitempty,len=3"`
}

func (w WageInfo) Validate() error {
	if w.Kind == WageUnpaid {
		if !w.Amount.IsZero() {
			return fmt.Errorf("unpaid offer must not carry an amount")
		}
		return nil
	}
	if !w.Amount.IsPositive() {
		return fmt.Errorf("%s wage needs a positive amount", w.Kind)
	}
	return nil
}

type Requirements struct {
	Skills          []string `json:"skills" validate:"max=30,dive,max=50"`
	ExperienceYears int      `json:"experience_years" validate:"gte=0,lte=60"`
	Languages       []string `json:"languages" validate:"max=10,dive,max=30"`
	Remote          bool     `json:"remote"`
}

// NGOが出す仕事の募集。admin_statusがpendingを抜けたら終端
type ServiceOffer struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	NGOID        int64        `gorm:"column:ngo_id;not null;index" json:"ngo_id"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	Location     string       `gorm:"type:varchar(255)" json:"location"`
	Requirements Requirements `gorm:"type:jsonb;serializer:json" json:"requirements"`
	WageInfo     WageInfo     `gorm:"type:jsonb;serializer:json" json:"wage_info"`

	AdminStatus     AdminStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"admin_status"`
	AdminReviewedAt *time.Time  `json:"admin_reviewed_at,omitempty"`
	AdminReviewedBy *int64      `json:"admin_reviewed_by,omitempty"`
	AdminComments   string      `gorm:"type:text" json:"admin_comments"`

	//投稿時刻（期限の起点）
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (o ServiceOffer) ReviewDeadline() time.Time {
	return o.CreatedAt.Add(ReviewSLA)
}

type TimerState string

const (
	TimerNormal  TimerState = "normal"
	TimerWarning TimerState = "warning"
	TimerExpired TimerState = "expired"
)

// 画面表示用の残り時間
type ReviewTimer struct {
	Deadline         time.Time  `json:"deadline"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	State            TimerState `json:"state"`
	Label            string     `json:"label"`
}

// 状態は変えない。表示のためだけに計算する
func RemainingReviewTime(createdAt time.Time, now time.Time) ReviewTimer {
	deadline := createdAt.Add(ReviewSLA)
	left := deadline.Sub(now)

	if left <= 0 {
		return ReviewTimer{Deadline: deadline, RemainingSeconds: 0, State: TimerExpired, Label: "expired"}
	}

	state := TimerNormal
	if left <= ReviewWarningWindow {
		state = TimerWarning
	}

	days := int64(left / (24 * time.Hour))
	hours := int64((left % (24 * time.Hour)) / time.Hour)
	minutes := int64((left % time.Hour) / time.Minute)

	var label string
	switch {
	case days > 0:
		label = fmt.Sprintf("%dd %dh left", days, hours)
	case hours > 0:
		label = fmt.Sprintf("%dh %dm left", hours, minutes)
	default:
		label = fmt.Sprintf("%dm left", minutes)
	}

	return ReviewTimer{
		Deadline:         deadline,
		RemainingSeconds: int64(left / time.Second),
		State:            state,
		Label:            label,
	}
}
