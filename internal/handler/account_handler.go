package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 本人向け：プロフィール・認証申請・通知
type AccountHandler struct {
	profile       *usecase.ProfileUsecase
	verification  *usecase.VerificationUsecase
	notifications *usecase.NotificationUsecase
}

func NewAccountHandler(profile *usecase.ProfileUsecase, verification *usecase.VerificationUsecase, notifications *usecase.NotificationUsecase) *AccountHandler {
	return &AccountHandler{profile: profile, verification: verification, notifications: notifications}
}

func (h *AccountHandler) RegisterRoutes(api *echo.Group, guard Guard) {
	authed := guard.Authed()

	api.GET("/profile", h.getProfile, authed...)
	api.PUT("/profile", h.updateProfile, authed...)

	api.POST("/verification", h.submitVerification, authed...)
	api.GET("/verification", h.getVerification, authed...)

	api.GET("/notifications", h.listNotifications, authed...)
	api.PUT("/notifications/:id/read", h.markRead, authed...)
}

func (h *AccountHandler) getProfile(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.profile.Get(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": out.User, "profile": out.Profile})
}

func (h *AccountHandler) updateProfile(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.UpdateProfileInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.profile.Update(c.Request().Context(), actor.UserID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": out.User, "profile": out.Profile})
}

// 本文の形はuser_typeで決まるのでそのまま渡す
func (h *AccountHandler) submitVerification(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 64<<10))
	if err != nil || !json.Valid(body) {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
	}

	out, err := h.verification.Submit(c.Request().Context(), actor, body)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, "verification", out)
}

func (h *AccountHandler) getVerification(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.verification.GetMine(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "verification": out, "is_verified": actor.IsVerified})
}

func (h *AccountHandler) listNotifications(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorJSON("invalid limit"))
		}
		limit = l
	}
	unread := c.QueryParam("unread") == "true"

	out, err := h.notifications.List(c.Request().Context(), actor.UserID, unread, limit)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "notifications", out)
}

func (h *AccountHandler) markRead(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	if err := h.notifications.MarkRead(c.Request().Context(), actor.UserID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "marked as read"})
}
