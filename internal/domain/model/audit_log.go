package model

import "time"

// 管理者操作の種類
type AuditAction string

const (
	//注文ステータスを管理者が変更した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//サービス募集の承認/却下。
	AuditActionReviewServiceOffer AuditAction = "REVIEW_SERVICE_OFFER"
	//期限切れの自動却下。
	AuditActionAutoRejectServiceOffer AuditAction = "AUTO_REJECT_SERVICE_OFFER"
	//認証申請の承認/却下。
	AuditActionReviewVerification AuditAction = "REVIEW_VERIFICATION"
	//強制ログアウト。
	AuditActionForceLogout AuditAction = "FORCE_LOGOUT"
)

func ParseAuditAction(s string) (AuditAction, bool) {
	switch a := AuditAction(s); a {
	case AuditActionUpdateOrderStatus, AuditActionReviewServiceOffer, AuditActionAutoRejectServiceOffer,
		AuditActionReviewVerification, AuditActionForceLogout:
		return a, true
	}
	return "", false
}

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder        AuditResourceType = "order"
	AuditResourceServiceOffer AuditResourceType = "service_offer"
	AuditResourceUser         AuditResourceType = "user"
)

func ParseAuditResourceType(s string) (AuditResourceType, bool) {
	switch t := AuditResourceType(s); t {
	case AuditResourceOrder, AuditResourceServiceOffer, AuditResourceUser:
		return t, true
	}
	return "", false
}

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。nilはシステム（自動却下など）。
	ActorUserID *int64 `gorm:"index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
