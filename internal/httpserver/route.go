package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/kolshi/internal/session"
)

type Deps struct {
	Handler  *StorefrontHTTP
	Sessions *session.Manager
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/v1")
	api.POST("/login", d.Handler.Login)
	api.GET("/products", d.Handler.ListProducts)
	api.GET("/products/:id", d.Handler.GetProduct)
	api.GET("/arrivals", d.Handler.NewArrivals)
	api.GET("/deals", d.Handler.Deals)
	api.GET("/search", d.Handler.Search)
	api.POST("/feedback", d.Handler.SubmitFeedback)

	cart := api.Group("/cart")
	cart.Use(RequireSession(d.Sessions))
	cart.GET("", d.Handler.GetCart)
	cart.POST("", d.Handler.AddToCart)
	cart.POST("/checkout", d.Handler.Checkout)
}
