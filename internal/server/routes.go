package server

import (
	"marketplace/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Guard        handler.Guard
	Orders       *handler.OrderHandler
	Cart         *handler.CartHandler
	Marketplace  *handler.MarketplaceHandler
	Services     *handler.ServiceHandler
	Account      *handler.AccountHandler
	AdminOrders  *handler.AdminOrderHandler
	AdminReviews *handler.AdminReviewHandler
	AdminUsers   *handler.AdminUserHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	api := e.Group("/api")

	h.Orders.RegisterRoutes(api, h.Guard)
	h.Cart.RegisterRoutes(api, h.Guard)
	h.Marketplace.RegisterRoutes(api, h.Guard)
	h.Services.RegisterRoutes(api, h.Guard)
	h.Account.RegisterRoutes(api, h.Guard)

	admin := api.Group("/admin", h.Guard.Admin()...)
	h.AdminOrders.RegisterRoutes(admin)
	h.AdminReviews.RegisterRoutes(admin)
	h.AdminUsers.RegisterRoutes(admin)
}
