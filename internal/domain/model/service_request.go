package model

import "time"

type ServiceRequestStatus string

const (
	ServiceRequestOpen   ServiceRequestStatus = "open"
	ServiceRequestClosed ServiceRequestStatus = "closed"
)

// NGOのボランティア募集
type ServiceRequest struct {
	ID               int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	NGOID            int64                `gorm:"column:ngo_id;not null;index" json:"ngo_id"`
	Title            string               `gorm:"type:varchar(255);not null" json:"title"`
	Description      string               `gorm:"type:text;not null" json:"description"`
	Location         string               `gorm:"type:varchar(255)" json:"location"`
	VolunteersNeeded int                  `gorm:"not null" json:"volunteers_needed"`
	Skills           []string             `gorm:"type:jsonb;serializer:json" json:"skills"`
	StartsAt         *time.Time           `json:"starts_at,omitempty"`
	Status           ServiceRequestStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt        time.Time            `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time            `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
