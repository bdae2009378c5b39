package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /api/marketplace の出品API
type MarketplaceHandler struct {
	uc *usecase.MarketplaceUsecase
}

// DI
func NewMarketplaceHandler(uc *usecase.MarketplaceUsecase) *MarketplaceHandler {
	return &MarketplaceHandler{uc: uc}
}

func (h *MarketplaceHandler) RegisterRoutes(api *echo.Group, guard Guard) {
	//公開
	api.GET("/marketplace", h.list)
	api.GET("/marketplace/:id", h.detail)

	authed := guard.Authed()
	api.POST("/marketplace", h.create, authed...)
	api.PUT("/marketplace/:id", h.update, authed...)
	api.DELETE("/marketplace/:id", h.delete, authed...)
	api.PUT("/marketplace/:id/stock", h.setStock, authed...)
	api.GET("/marketplace/:id/stock/history", h.stockHistory, authed...)
}

func (h *MarketplaceHandler) list(c echo.Context) error {
	page, limit, ok := paging(c, 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}
	sellerID, ok := queryInt64(c, "seller_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid seller_id"))
	}
	minPrice, ok := queryDecimal(c, "min_price")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid min_price"))
	}
	maxPrice, ok := queryDecimal(c, "max_price")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid max_price"))
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListItemsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		SellerID: sellerID,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "items": out.Items, "total": out.Total, "page": out.Page, "limit": out.Limit})
}

func (h *MarketplaceHandler) detail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	out, err := h.uc.Get(c.Request().Context(), 0, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "item", out)
}

func (h *MarketplaceHandler) create(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.ItemInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Create(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, "item", out)
}

func (h *MarketplaceHandler) update(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	var req usecase.ItemInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Update(c.Request().Context(), actor, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "item", out)
}

func (h *MarketplaceHandler) delete(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	if err := h.uc.Delete(c.Request().Context(), actor, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "deleted"})
}

func (h *MarketplaceHandler) setStock(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	var req usecase.SetStockInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.SetStock(c.Request().Context(), actor, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "item", out)
}

func (h *MarketplaceHandler) stockHistory(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}
	_, limit, ok := paging(c, 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	out, err := h.uc.StockHistory(c.Request().Context(), actor, id, limit)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "adjustments", out)
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, false
	}
	return &d, true
}
