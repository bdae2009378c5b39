package middleware

import (
	"net/http"
	"strings"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
	CtxActorKey        = "actor"         // model.Actor
)

type TokenParser interface {
	Parse(raw string) (auth.Claims, error)
}

// Bearerか管理画面のセッションCookieのJWTを検証する
func AuthJWT(tokens TokenParser, adminCookie string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := tokenFrom(c, adminCookie)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := tokens.Parse(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, string(claims.Role))
			c.Set(CtxTokenVersionKey, claims.TokenVersion)

			return next(c)
		}
	}
}

// Authorizationヘッダを優先
func tokenFrom(c echo.Context, adminCookie string) (string, bool) {
	if authz := c.Request().Header.Get("Authorization"); authz != "" {
		//Bearer形式か確認してtokenを抜く
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		raw := strings.TrimSpace(parts[1])
		return raw, raw != ""
	}

	if adminCookie == "" {
		return "", false
	}
	ck, err := c.Cookie(adminCookie)
	if err != nil || strings.TrimSpace(ck.Value) == "" {
		return "", false
	}
	return strings.TrimSpace(ck.Value), true
}

// handlerから操作者を取り出す
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(CtxActorKey).(model.Actor)
	return a, ok && a.UserID > 0
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Error: msg}
}
