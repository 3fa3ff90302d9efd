package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/transport"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	uid, err := userID(c, l, "get_cart")
	if err != nil {
		return err
	}

	view, err := h.Svc.GetCart(ctx, uid)
	if err != nil {
		return fail(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(view))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	uid, err := userID(c, l, "add_item")
	if err != nil {
		return err
	}
	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item", "invalid body", err)
	}

	item, err := h.Svc.AddItem(ctx, uid, req.MovieID)
	if err != nil {
		return fail(l, "add_item", err)
	}

	l.Info("add_item_success", "movie_id", item.MovieID)
	return c.JSON(http.StatusCreated, map[string]any{"movie_id": item.MovieID, "added_at": item.AddedAt})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	uid, err := userID(c, l, "remove_item")
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "movie_id")
	if err != nil {
		return badRequest(l, "remove_item", "invalid movie_id", err)
	}

	if err := h.Svc.RemoveItem(ctx, uid, movieID); err != nil {
		return fail(l, "remove_item", err)
	}
	l.Info("remove_item_success", "movie_id", movieID)
	return c.NoContent(http.StatusNoContent)
}
