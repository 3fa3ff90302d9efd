package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/notify"
	"github.com/Skotchmaster/online_cinema/internal/payments"
	"github.com/Skotchmaster/online_cinema/internal/repo"
)

type WebhookResult string

const (
	WebhookOK               WebhookResult = "ok"
	WebhookAlreadyProcessed WebhookResult = "already_processed"
	WebhookIgnored          WebhookResult = "ignored"
)

// HandleWebhookEvent verifies and applies one provider delivery. Deliveries
// are at-least-once; a repeated success event reports already_processed.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	evt, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		observeWebhook("unknown", "rejected")
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ctx, _ = logging.With(ctx, "event_id", evt.ID, "event_type", evt.Type, "intent_id", evt.IntentID)

	switch evt.Kind {
	case payments.EventSucceeded:
		res, err := s.handleSucceeded(ctx, evt)
		if err != nil {
			observeWebhook(evt.Kind, "error")
			return "", err
		}
		observeWebhook(evt.Kind, string(res))
		return res, nil
	case payments.EventFailed:
		s.handleFailed(ctx, evt)
		observeWebhook(evt.Kind, string(WebhookOK))
		return WebhookOK, nil
	default:
		observeWebhook(evt.Kind, string(WebhookIgnored))
		return WebhookIgnored, nil
	}
}

func (s *PaymentService) handleSucceeded(ctx context.Context, evt payments.Event) (WebhookResult, error) {
	l := logging.FromContext(ctx)

	if strings.TrimSpace(evt.IntentID) == "" {
		return "", fmt.Errorf("%w: event has no payment intent id", ErrValidation)
	}
	orderID, userID, err := metadataIDs(evt.Metadata)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.GetPaymentByExternalID(ctx, evt.IntentID); err == nil {
		l.Info("webhook_already_processed")
		return WebhookAlreadyProcessed, nil
	} else if !repo.IsNotFound(err) {
		return "", err
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return "", notFoundOr(err, fmt.Sprintf("order %d not found", orderID))
	}
	if order.UserID != userID {
		return "", fmt.Errorf("%w: order %d does not belong to user %d", ErrValidation, orderID, userID)
	}

	payment, err := s.repo.ConfirmPayment(ctx, order, evt.IntentID)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		l.Info("webhook_already_processed", "race", true)
		return WebhookAlreadyProcessed, nil
	case errors.Is(err, repo.ErrStale):
		return "", fmt.Errorf("%w: order %d is no longer pending", ErrInvalidState, orderID)
	case err != nil:
		return "", notFoundOr(err, fmt.Sprintf("order %d not found", orderID))
	}

	l.Info("payment_confirmed", "payment_id", payment.ID, "order_id", order.ID)
	order.Status = models.OrderStatusPaid
	s.events.emit(ctx, OrderPaid, order, order.Status)

	s.notifyUser(ctx, userID, notify.SubjectPaymentSuccess, func() (string, error) {
		return notify.RenderPaymentSuccess(notify.PaymentSuccess{
			OrderID:  order.ID,
			Amount:   payment.Amount.StringFixed(2),
			Currency: strings.ToUpper(s.currency),
			Movies:   s.movieNames(ctx, order),
		})
	})
	return WebhookOK, nil
}

func (s *PaymentService) handleFailed(ctx context.Context, evt payments.Event) {
	l := logging.FromContext(ctx)

	orderID, userID, err := metadataIDs(evt.Metadata)
	if err != nil {
		l.Warn("webhook_failed_event_without_metadata", "error", err)
		return
	}
	l.Info("payment_failed", "order_id", orderID, "reason", evt.FailureReason)

	s.notifyUser(ctx, userID, notify.SubjectPaymentFailure, func() (string, error) {
		return notify.RenderPaymentFailure(notify.PaymentFailure{OrderID: orderID, Reason: evt.FailureReason})
	})
}

func (s *PaymentService) movieNames(ctx context.Context, o *models.Order) []string {
	ids := make([]uint, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.MovieID)
	}
	movies, err := s.repo.MoviesByIDs(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Warn("notify_movie_lookup_error", "error", err)
		return nil
	}
	names := make([]string, len(movies))
	for i, m := range movies {
		names[i] = m.Name
	}
	return names
}

func metadataIDs(md map[string]string) (orderID, userID uint, err error) {
	orderID, err = parseID(md[payments.MetadataOrderID])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: metadata %s: %v", ErrValidation, payments.MetadataOrderID, err)
	}
	userID, err = parseID(md[payments.MetadataUserID])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: metadata %s: %v", ErrValidation, payments.MetadataUserID, err)
	}
	return orderID, userID, nil
}

func parseID(v string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("must be positive")
	}
	return uint(n), nil
}
