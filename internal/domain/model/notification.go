package model

import "time"

type Notification struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	Type         string    `gorm:"type:varchar(50);not null" json:"type"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Message      string    `gorm:"type:text" json:"message"`
	ResourceType string    `gorm:"type:varchar(50)" json:"resource_type"`
	ResourceID   int64     `json:"resource_id"`
	IsRead       bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}
