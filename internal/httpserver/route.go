package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/db"
	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/metrics"
	"github.com/Skotchmaster/online_cinema/internal/middleware/auth"
	"github.com/Skotchmaster/online_cinema/internal/middleware/csrf"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type Deps struct {
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
	MovieHandler   *MovieHTTP
	AdminHandler   *AdminHTTP
	JWTSecret      []byte
	CSRF           csrf.Config
	DB             *gorm.DB
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Ping(ctx, d.DB); err != nil {
			logging.FromContext(ctx).Warn("ready_error", "status", http.StatusServiceUnavailable, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	authMW := auth.NewTokenService(d.JWTSecret)

	api := e.Group("/api/v1")

	// Signed by the provider, not by a user token.
	api.POST("/payments/webhook", d.PaymentHandler.Webhook)

	user := api.Group("", authMW.RequireAuth, csrf.Middleware(d.CSRF))

	cart := user.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.DELETE("/items/:movie_id", d.CartHandler.RemoveItem)

	orders := user.Group("/orders")
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)
	orders.GET("/:id/payment-status", d.OrderHandler.PaymentStatus)

	payments := user.Group("/payments")
	payments.POST("/intent", d.PaymentHandler.CreateIntent)
	payments.GET("", d.PaymentHandler.ListPayments)
	payments.GET("/:id", d.PaymentHandler.GetPayment)

	movies := user.Group("/movies/:id")
	movies.POST("/like", d.MovieHandler.Like())
	movies.POST("/dislike", d.MovieHandler.Dislike())
	movies.DELETE("/reaction", d.MovieHandler.RemoveReaction())
	movies.POST("/favorite", d.MovieHandler.AddFavorite())
	movies.DELETE("/favorite", d.MovieHandler.RemoveFavorite())
	movies.POST("/rating", d.MovieHandler.RateMovie)
	movies.DELETE("/rating", d.MovieHandler.DeleteRating)
	movies.POST("/comments", d.MovieHandler.AddComment)
	movies.DELETE("/comments/:comment_id", d.MovieHandler.DeleteComment)

	admin := user.Group("/admin", authMW.RequireAdmin)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.GET("/payments", d.AdminHandler.ListPayments)
	admin.POST("/payments/:id/refund", d.AdminHandler.RefundPayment)
	admin.POST("/payments/:id/cancel", d.AdminHandler.CancelPayment)
	admin.POST("/counters/recount", d.AdminHandler.Recount)
}
