package handler

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Success              bool              `json:"success"`
	Error                string            `json:"error"`
	RequiresVerification bool              `json:"requiresVerification,omitempty"`
	Fields               map[string]string `json:"fields,omitempty"`
}

func errorJSON(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}

// {success:true, key: v}
func ok200(c echo.Context, key string, v interface{}) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, key: v})
}

func created(c echo.Context, key string, v interface{}) error {
	return c.JSON(http.StatusCreated, echo.Map{"success": true, key: v})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: validator.Fields(ve)})
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			c.Logger().Error(he)
		}
		resp := ErrorResponse{Error: he.Message, RequiresVerification: he.RequiresVerification}
		var inner validatorv10.ValidationErrors
		if errors.As(he.Err, &inner) {
			resp.Fields = validator.Fields(inner)
		}
		return c.JSON(he.Status, resp)
	}

	//500
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
}

// bodyを読んでタグ検証まで（エラーはwriteErrorに渡す）
func bindAndValidate(c echo.Context, out interface{}) error {
	if err := c.Bind(out); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(out)
}

// JWT必須 + token_version一致
type Guard struct {
	Tokens      middleware.TokenParser
	AdminCookie string
	Users       repository.UserRepository
}

func (g Guard) Authed() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.AuthJWT(g.Tokens, g.AdminCookie),
		middleware.TokenVersionGuard(g.Users),
	}
}

// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
func (g Guard) Admin() []echo.MiddlewareFunc {
	return append(g.Authed(), middleware.AdminRoleGuard())
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// page（default 1）, limit（default def）
func paging(c echo.Context, def int) (int, int, bool) {
	page, limit := 1, def
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		page = p
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		limit = l
	}
	return page, limit, true
}

func queryInt64(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}
