package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Svamsi2006/balaveerulu/internal/config"
	"github.com/Svamsi2006/balaveerulu/internal/handler"
)

// Handlers はルート登録に必要なハンドラ一式
type Handlers struct {
	Product    *handler.ProductHandler
	Cart       *handler.CartHandler
	Wizard     *handler.WizardHandler
	Order      *handler.OrderHandler
	Session    *handler.SessionHandler
	Contact    *handler.ContactHandler
	AdminOrder *handler.AdminOrderHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	// 公開
	h.Product.RegisterRoutes(e)
	h.Contact.RegisterRoutes(e)

	// サインイン必須
	h.Session.RegisterRoutes(e, cfg)
	h.Cart.RegisterRoutes(e, cfg)
	h.Wizard.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)

	// 管理者
	h.AdminOrder.RegisterRoutes(e, cfg)
}
