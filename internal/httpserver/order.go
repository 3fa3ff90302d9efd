package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/transport"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	uid, err := userID(c, l, "place_order")
	if err != nil {
		return err
	}

	order, err := h.Svc.PlaceOrder(ctx, uid)
	if err != nil {
		return fail(l, "place_order", err)
	}

	l.Info("place_order_success", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2))
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	uid, err := userID(c, l, "list_orders")
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListOrders(ctx, uid)
	if err != nil {
		return fail(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	uid, err := userID(c, l, "get_order")
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_order", "invalid id", err)
	}

	order, err := h.Svc.GetOrder(ctx, uid, id)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	uid, err := userID(c, l, "cancel_order")
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order", "invalid id", err)
	}

	order, err := h.Svc.CancelOrder(ctx, uid, id)
	if err != nil {
		return fail(l, "cancel_order", err)
	}
	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) PaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.payment_status")

	uid, err := userID(c, l, "payment_status")
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "payment_status", "invalid id", err)
	}

	st, err := h.Svc.GetPaymentStatus(ctx, uid, id)
	if err != nil {
		return fail(l, "payment_status", err)
	}
	return c.JSON(http.StatusOK, transport.PaymentStatusResponse{OrderID: st.OrderID, OrderStatus: st.OrderStatus, Status: st.Status})
}
