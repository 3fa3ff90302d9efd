package httpserver

import (
	"io"
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/transport"
	"github.com/labstack/echo/v4"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = 1 << 16
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreateIntent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_intent")

	uid, err := userID(c, l, "create_intent")
	if err != nil {
		return err
	}
	var req transport.CreateIntentRequest
	if err := c.Bind(&req); err != nil || req.OrderID == 0 {
		return badRequest(l, "create_intent", "invalid body", err)
	}

	res, err := h.Svc.CreatePaymentIntent(ctx, uid, req.OrderID)
	if err != nil {
		return fail(l, "create_intent", err)
	}

	l.Info("create_intent_success", "order_id", req.OrderID, "intent_id", res.PaymentIntentID)
	return c.JSON(http.StatusOK, transport.IntentResponse{ClientSecret: res.ClientSecret, PaymentIntentID: res.PaymentIntentID})
}

// Webhook reads the raw body; the signature covers the exact bytes.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(l, "webhook", "unreadable body", err)
	}

	res, err := h.Svc.HandleWebhookEvent(ctx, payload, c.Request().Header.Get(signatureHeader))
	if err != nil {
		return fail(l, "webhook", err)
	}

	l.Info("webhook_success", "result", string(res))
	return c.JSON(http.StatusOK, transport.WebhookResponse{Status: res})
}

func (h *PaymentHTTP) ListPayments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.list_payments")

	uid, err := userID(c, l, "list_payments")
	if err != nil {
		return err
	}
	ps, err := h.Svc.ListPayments(ctx, uid)
	if err != nil {
		return fail(l, "list_payments", err)
	}
	return c.JSON(http.StatusOK, transport.NewPaymentList(ps))
}

func (h *PaymentHTTP) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get_payment")

	uid, err := userID(c, l, "get_payment")
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_payment", "invalid id", err)
	}

	p, err := h.Svc.GetPayment(ctx, uid, id)
	if err != nil {
		return fail(l, "get_payment", err)
	}
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}
