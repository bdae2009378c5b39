package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

// adminはAdmin()のguard付きグループ
func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/orders", h.list)
	admin.GET("/orders/:id", h.detail)
	admin.PUT("/orders/:id/status", h.updateStatus)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, ok := paging(c, 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}
	buyerID, ok := queryInt64(c, "buyer_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid buyer_id"))
	}
	sellerID, ok := queryInt64(c, "seller_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid seller_id"))
	}

	out, err := h.uc.List(c.Request().Context(), usecase.AdminListOrdersInput{
		Page:     page,
		Limit:    limit,
		Status:   c.QueryParam("status"),
		BuyerID:  buyerID,
		SellerID: sellerID,
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orders": out.Orders, "total": out.Total, "page": out.Page, "limit": out.Limit})
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	out, err := h.uc.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, adminOrderDetailResponse{Success: true, AdminOrderDetailOutput: out})
}

type adminOrderDetailResponse struct {
	Success bool `json:"success"`
	usecase.AdminOrderDetailOutput
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	//操作した管理者（監査ログ用）
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actor, c.Param("id"), usecase.AdminUpdateOrderStatusInput{
		Status: req.Status,
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "order", out)
}
