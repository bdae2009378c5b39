package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type ShippingUsecase struct {
	tx   repo.TransactionManager
	flow orderFlow
}

func NewShippingUsecase(tx repo.TransactionManager, clock Clock, ids IDGenerator, metrics Metrics, publisher event.Publisher) *ShippingUsecase {
	return &ShippingUsecase{
		tx:   tx,
		flow: orderFlow{clock: clock, ids: ids, metrics: metrics, publisher: publisher},
	}
}

type UpsertShippingInput struct {
	WaybillID        string     `json:"waybill_id" validate:"required,max=64"`
	CourierPartner   string     `json:"courier_partner" validate:"required,max=100"`
	ExpectedDelivery *time.Time `json:"expected_delivery"`
}

type UpdateTrackingInput struct {
	TrackingStatus string `json:"tracking_status" validate:"required"`
}

type TrackingOutput struct {
	Order    model.Order          `json:"order"`
	Shipping model.ShippingDetail `json:"shipping"`
}

// 配送情報を登録できる状態
var shippingEditable = map[model.OrderStatus]bool{
	model.OrderStatusConfirmed:  true,
	model.OrderStatusProcessing: true,
	model.OrderStatusShipped:    true,
}

func (u *ShippingUsecase) Upsert(ctx context.Context, actor model.Actor, ref string, in UpsertShippingInput) (model.ShippingDetail, error) {
	if actor.UserID <= 0 {
		return model.ShippingDetail{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in.WaybillID = strings.TrimSpace(in.WaybillID)
	in.CourierPartner = strings.TrimSpace(in.CourierPartner)
	if in.WaybillID == "" || len(in.WaybillID) > 64 {
		return model.ShippingDetail{}, NewHTTPError(http.StatusBadRequest, "invalid waybill_id")
	}
	if in.CourierPartner == "" || len(in.CourierPartner) > 100 {
		return model.ShippingDetail{}, NewHTTPError(http.StatusBadRequest, "invalid courier_partner")
	}

	var out model.ShippingDetail
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		if o.SellerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "unauthorized")
		}
		if !shippingEditable[o.Status] {
			return NewHTTPError(http.StatusConflict, "order is not awaiting shipment")
		}

		now := u.flow.clock.Now()
		d := model.ShippingDetail{
			OrderID:          o.ID,
			WaybillID:        in.WaybillID,
			CourierPartner:   in.CourierPartner,
			TrackingStatus:   model.TrackingPending,
			ExpectedDelivery: in.ExpectedDelivery,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := r.Shipments().Upsert(ctx, &d); err != nil {
			return dbError(err)
		}

		//既存行の追跡状態はそのまま
		saved, err := r.Shipments().FindByOrderID(ctx, o.ID)
		if err != nil {
			return repoError(err)
		}
		out = saved
		return nil
	})
	if err != nil {
		return model.ShippingDetail{}, err
	}
	return out, nil
}

// deliveredで到着日時を1回だけ入れて、注文もdeliveredへ
func (u *ShippingUsecase) UpdateTracking(ctx context.Context, actor model.Actor, ref string, in UpdateTrackingInput) (TrackingOutput, error) {
	if actor.UserID <= 0 {
		return TrackingOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	status, ok := model.ParseTrackingStatus(strings.TrimSpace(in.TrackingStatus))
	if !ok {
		return TrackingOutput{}, NewHTTPError(http.StatusBadRequest, "invalid tracking_status")
	}

	var out TrackingOutput
	fx := &txEffects{}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r, ref)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && o.SellerID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "unauthorized")
		}

		d, err := r.Shipments().FindByOrderID(ctx, o.ID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "shipping details not found")
		}
		if err != nil {
			return dbError(err)
		}
		if d.TrackingStatus == model.TrackingDelivered {
			return NewHTTPError(http.StatusConflict, "tracking is frozen after delivery")
		}

		var deliveredAt *time.Time
		if status == model.TrackingDelivered {
			now := u.flow.clock.Now()
			deliveredAt = &now

			if o.Status != model.OrderStatusDelivered {
				if err := u.flow.transition(ctx, r, &o, model.OrderStatusDelivered, int64Ptr(actor.UserID), "delivered by courier", fx); err != nil {
					return err
				}
			}
		}

		if err := r.Shipments().UpdateTracking(ctx, o.ID, status, deliveredAt); err != nil {
			return repoError(err)
		}

		saved, err := r.Shipments().FindByOrderID(ctx, o.ID)
		if err != nil {
			return repoError(err)
		}
		out = TrackingOutput{Order: o, Shipping: saved}
		return nil
	})
	if err != nil {
		return TrackingOutput{}, err
	}

	u.flow.flush(ctx, fx)
	return out, nil
}
