package model

import "time"

// 注文ステータス遷移の履歴（追記のみ）
type OrderStatusHistory struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	//作成時は空
	PreviousStatus OrderStatus `gorm:"type:varchar(20);not null;default:''" json:"previous_status"`
	NewStatus      OrderStatus `gorm:"type:varchar(20);not null" json:"new_status"`

	//nilはシステム
	ChangedBy *int64    `gorm:"index" json:"changed_by"`
	Reason    string    `gorm:"type:varchar(500)" json:"reason"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
