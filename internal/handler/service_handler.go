package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// NGOの仕事募集（offers）とボランティア募集（requests）
type ServiceHandler struct {
	offers   *usecase.ServiceOfferUsecase
	requests *usecase.ServiceRequestUsecase
}

func NewServiceHandler(offers *usecase.ServiceOfferUsecase, requests *usecase.ServiceRequestUsecase) *ServiceHandler {
	return &ServiceHandler{offers: offers, requests: requests}
}

func (h *ServiceHandler) RegisterRoutes(api *echo.Group, guard Guard) {
	authed := guard.Authed()

	api.GET("/service-offers", h.listOffers)
	api.POST("/service-offers", h.createOffer, authed...)
	api.GET("/service-offers/mine", h.myOffers, authed...)
	api.GET("/service-offers/:id", h.offerDetail, authed...)

	api.GET("/service-requests", h.listRequests)
	api.POST("/service-requests", h.createRequest, authed...)
	api.GET("/service-requests/:id", h.requestDetail)
	api.PUT("/service-requests/:id/close", h.closeRequest, authed...)
}

func (h *ServiceHandler) listOffers(c echo.Context) error {
	page, limit, ok := paging(c, 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	out, err := h.offers.ListApproved(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "offers": out.Offers, "total": out.Total, "page": out.Page, "limit": out.Limit})
}

func (h *ServiceHandler) createOffer(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.CreateServiceOfferInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.offers.Create(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, "offer", out)
}

// 自分の募集（レビュー待ちは残り時間つき）
func (h *ServiceHandler) myOffers(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	page, limit, ok := paging(c, 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	out, err := h.offers.ListMine(c.Request().Context(), actor, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "offers": out.Offers, "total": out.Total, "page": out.Page, "limit": out.Limit})
}

func (h *ServiceHandler) offerDetail(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	out, err := h.offers.Get(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "offer", out)
}

func (h *ServiceHandler) listRequests(c echo.Context) error {
	page, limit, ok := paging(c, 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}
	ngoID, ok := queryInt64(c, "ngo_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid ngo_id"))
	}

	out, err := h.requests.List(c.Request().Context(), usecase.ListServiceRequestsInput{
		NGOID:  ngoID,
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "requests": out.Requests, "total": out.Total, "page": out.Page, "limit": out.Limit})
}

func (h *ServiceHandler) createRequest(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.CreateServiceRequestInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.requests.Create(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, "request", out)
}

func (h *ServiceHandler) requestDetail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	out, err := h.requests.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "request", out)
}

func (h *ServiceHandler) closeRequest(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	out, err := h.requests.Close(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "request", out)
}
