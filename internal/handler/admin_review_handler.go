package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 募集レビューと認証申請レビュー
type AdminReviewHandler struct {
	offers        *usecase.AdminReviewUsecase
	verifications *usecase.VerificationUsecase
}

func NewAdminReviewHandler(offers *usecase.AdminReviewUsecase, verifications *usecase.VerificationUsecase) *AdminReviewHandler {
	return &AdminReviewHandler{offers: offers, verifications: verifications}
}

func (h *AdminReviewHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/service-offers", h.queue)
	admin.PUT("/service-offers/:id/review", h.review)
	admin.POST("/service-offers/auto-reject", h.autoReject)

	admin.GET("/verifications", h.listVerifications)
	admin.PUT("/verifications/:userId/review", h.reviewVerification)
}

// レビュー待ち（残り時間つき）
func (h *AdminReviewHandler) queue(c echo.Context) error {
	page, limit, ok := paging(c, 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	out, err := h.offers.Queue(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "offers": out.Offers, "total": out.Total, "page": out.Page, "limit": out.Limit})
}

func (h *AdminReviewHandler) review(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	var req usecase.ReviewServiceOfferInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.offers.Review(c.Request().Context(), actor, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "offer", out)
}

func (h *AdminReviewHandler) autoReject(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.offers.AutoReject(c.Request().Context(), &actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": out.Count, "ids": out.IDs})
}

func (h *AdminReviewHandler) listVerifications(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	_, limit, ok := paging(c, 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	out, err := h.verifications.List(c.Request().Context(), actor, usecase.ListVerificationsInput{
		UserType: c.QueryParam("user_type"),
		Status:   c.QueryParam("status"),
		Limit:    limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "verifications", out)
}

func (h *AdminReviewHandler) reviewVerification(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid user_id"))
	}

	var req usecase.ReviewVerificationInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.verifications.Review(c.Request().Context(), actor, userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "verification", out)
}
