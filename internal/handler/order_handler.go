package handler

import (
	"io"
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// webhookの署名ヘッダ
const webhookSignatureHeader = "X-Gateway-Signature"

type OrderHandler struct {
	checkout *usecase.CheckoutUsecase
	orders   *usecase.OrderUsecase
	payments *usecase.PaymentUsecase
	shipping *usecase.ShippingUsecase
}

func NewOrderHandler(checkout *usecase.CheckoutUsecase, orders *usecase.OrderUsecase, payments *usecase.PaymentUsecase, shipping *usecase.ShippingUsecase) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, payments: payments, shipping: shipping}
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type RefundRequest struct {
	Reason string          `json:"reason" validate:"required,max=500"`
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

// order/items/payment/shipping/history を平らに返す
type orderDetailResponse struct {
	Success bool `json:"success"`
	usecase.OrderDetailOutput
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, guard Guard) {
	//ゲートウェイから直接来るので認証なし（署名で確認）
	api.POST("/payments/webhook", h.webhook)

	g := api.Group("/orders", guard.Authed()...)

	g.POST("/create-new", h.create)
	g.POST("/verify-payment-new", h.verifyPayment)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("/:id/pay", h.pay)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/:id/refund", h.refund)
	g.PUT("/:id/status", h.advance)
	g.PUT("/:id/shipping", h.upsertShipping)
	g.PUT("/:id/tracking", h.updateTracking)
}

func (h *OrderHandler) create(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.CheckoutInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.checkout.Checkout(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}

	//1件も作れなかったら失敗理由だけ返す
	if len(out.Orders) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":  false,
			"error":    "no order could be created",
			"failures": out.Failures,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"orders":   out.Orders,
		"failures": out.Failures,
	})
}

func (h *OrderHandler) verifyPayment(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.VerifyPaymentInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.payments.Verify(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": out.Order, "payment": out.Payment})
}

func (h *OrderHandler) webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
	}

	out, err := h.payments.HandleWebhook(c.Request().Context(), body, c.Request().Header.Get(webhookSignatureHeader))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "event": out.Event, "handled": out.Handled})
}

func (h *OrderHandler) list(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	page, limit, ok := paging(c, 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	out, err := h.orders.List(c.Request().Context(), actor, usecase.ListOrdersInput{
		As:     c.QueryParam("as"),
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orders": out.Orders, "total": out.Total, "page": out.Page, "limit": out.Limit})
}

// :id は数値IDか注文番号
func (h *OrderHandler) detail(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.orders.Detail(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderDetailResponse{Success: true, OrderDetailOutput: out})
}

func (h *OrderHandler) pay(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.orders.InitiatePayment(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "payment", out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req ReasonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.orders.Cancel(c.Request().Context(), actor, c.Param("id"), usecase.CancelOrderInput{Reason: req.Reason})
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "order", out)
}

func (h *OrderHandler) refund(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req RefundRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	o, p, err := h.orders.Refund(c.Request().Context(), actor, c.Param("id"), usecase.RefundOrderInput{Reason: req.Reason, Amount: req.Amount})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": o, "payment": p})
}

func (h *OrderHandler) advance(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.orders.AdvanceStatus(c.Request().Context(), actor, c.Param("id"), usecase.AdvanceOrderInput{Status: req.Status, Reason: req.Reason})
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "order", out)
}

func (h *OrderHandler) upsertShipping(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.UpsertShippingInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.shipping.Upsert(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "shipping", out)
}

func (h *OrderHandler) updateTracking(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.UpdateTrackingInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.shipping.UpdateTracking(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "tracking", out)
}
