package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/transport"
	"github.com/labstack/echo/v4"
)

type AdminHTTP struct {
	Orders   *service.OrderService
	Payments *service.PaymentService
	Counters *service.CounterService
}

func listQuery(c echo.Context) service.ListQuery {
	return service.ListQuery{
		UserID:   c.QueryParam("user_id"),
		Status:   c.QueryParam("status"),
		DateFrom: c.QueryParam("date_from"),
		DateTo:   c.QueryParam("date_to"),
		Limit:    c.QueryParam("limit"),
		Offset:   c.QueryParam("offset"),
	}
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	orders, err := h.Orders.AdminListOrders(ctx, listQuery(c))
	if err != nil {
		return fail(l, "admin_list_orders", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *AdminHTTP) ListPayments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_payments")

	ps, err := h.Payments.AdminListPayments(ctx, listQuery(c))
	if err != nil {
		return fail(l, "admin_list_payments", err)
	}
	return c.JSON(http.StatusOK, transport.NewPaymentList(ps))
}

func (h *AdminHTTP) RefundPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.refund_payment")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "refund_payment", "invalid id", err)
	}

	res, err := h.Payments.RefundPayment(ctx, id)
	if err != nil {
		return fail(l, "refund_payment", err)
	}
	l.Info("refund_payment_success", "payment_id", id, "provider_refund_id", res.ProviderRefundID)
	return c.JSON(http.StatusOK, transport.RefundResponse{
		PaymentID:        res.PaymentID,
		Status:           res.Status,
		ProviderRefundID: res.ProviderRefundID,
	})
}

func (h *AdminHTTP) CancelPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.cancel_payment")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_payment", "invalid id", err)
	}

	p, err := h.Payments.CancelPayment(ctx, id)
	if err != nil {
		return fail(l, "cancel_payment", err)
	}
	l.Info("cancel_payment_success", "payment_id", id)
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}

func (h *AdminHTTP) Recount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.recount")

	n, err := h.Counters.BackfillAllCounters(ctx)
	if err != nil {
		return fail(l, "recount", err)
	}
	l.Info("recount_success", "movies", n)
	return c.JSON(http.StatusOK, transport.RecountResponse{Movies: n})
}
