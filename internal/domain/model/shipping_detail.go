package model

import "time"

type TrackingStatus string

const (
	TrackingPending        TrackingStatus = "pending"
	TrackingPickedUp       TrackingStatus = "picked_up"
	TrackingInTransit      TrackingStatus = "in_transit"
	TrackingOutForDelivery TrackingStatus = "out_for_delivery"
	TrackingDelivered      TrackingStatus = "delivered"
	TrackingReturned       TrackingStatus = "returned"
)

func ParseTrackingStatus(s string) (TrackingStatus, bool) {
	switch TrackingStatus(s) {
	case TrackingPending, TrackingPickedUp, TrackingInTransit, TrackingOutForDelivery, TrackingDelivered, TrackingReturned:
		return TrackingStatus(s), true
	}
	return "", false
}

// 1注文につき1件の配送情報
type ShippingDetail struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID          int64          `gorm:"not null;uniqueIndex" json:"order_id"`
	WaybillID        string         `gorm:"type:varchar(64);not null" json:"waybill_id"`
	CourierPartner   string         `gorm:"type:varchar(100);not null" json:"courier_partner"`
	TrackingStatus   TrackingStatus `gorm:"type:varchar(20);not null" json:"tracking_status"`
	ExpectedDelivery *time.Time     `json:"expected_delivery,omitempty"`

	//deliveredになった最初の1回だけ入る
	ActualDelivery *time.Time `json:"actual_delivery,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
