package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *usecase.AdminUserUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/users/:id/force-logout", h.ForceLogout)
	admin.GET("/audit-logs", h.AuditLogs)
	admin.GET("/audit-logs/:resourceType/:id", h.ResourceTrail)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid user_id"))
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), actor, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user_id": res.UserID, "new_token_version": res.NewTokenVersion})
}

func (h *AdminUserHandler) AuditLogs(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	_, limit, ok := paging(c, 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}
	offset, ok := queryInt64(c, "offset")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid offset"))
	}
	resourceID, ok := queryInt64(c, "resource_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid resource_id"))
	}

	in := usecase.ListAuditLogsInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		Actor:        c.QueryParam("actor"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
		Limit:        limit,
	}
	if offset != nil {
		in.Offset = int(*offset)
	}

	out, err := h.uc.ListAuditLogs(c.Request().Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"audit_logs": out.Logs,
		"total":      out.Total,
		"limit":      out.Limit,
		"offset":     out.Offset,
	})
}

func (h *AdminUserHandler) ResourceTrail(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	rows, err := h.uc.ResourceTrail(c.Request().Context(), actor, c.Param("resourceType"), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok200(c, "audit_logs", rows)
}
