package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/metrics"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/payments"
	"github.com/Skotchmaster/online_cinema/internal/repo"
)

type RefundResult struct {
	PaymentID        uint
	Status           models.PaymentStatus
	ProviderRefundID string
}

func refundIdempotencyKey(paymentID uint) string {
	return fmt.Sprintf("refund-payment-%d", paymentID)
}

// RefundPayment refunds a successful payment at the provider first and only
// then marks the payment and its order refunded. A provider failure leaves
// local state untouched.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID uint) (*RefundResult, error) {
	l := logging.FromContext(ctx).With("payment_id", paymentID)

	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, notFoundOr(err, "payment not found")
	}
	switch p.Status {
	case models.PaymentStatusRefunded:
		metrics.ObserveRefund("rejected")
		return nil, fmt.Errorf("%w: payment %d already refunded", ErrConflict, p.ID)
	case models.PaymentStatusSuccessful:
	default:
		metrics.ObserveRefund("rejected")
		return nil, fmt.Errorf("%w: payment %d is %s, only successful payments can be refunded", ErrConflict, p.ID, p.Status)
	}

	refundID, err := s.provider.Refund(ctx, payments.RefundRequest{
		IntentID:       p.ExternalPaymentID,
		IdempotencyKey: refundIdempotencyKey(p.ID),
	})
	if err != nil {
		metrics.ObserveRefund("provider_error")
		l.Error("refund_provider_error", "error", err)
		return nil, fmt.Errorf("%w: refund: %v", ErrExternalService, err)
	}

	if err := s.repo.MarkRefunded(ctx, p.ID, p.OrderID); err != nil {
		metrics.ObserveRefund("error")
		// the provider refund stands; a retry reuses the idempotency key
		l.Error("refund_persist_error", "provider_refund_id", refundID, "error", err)
		if errors.Is(err, repo.ErrStale) {
			return nil, fmt.Errorf("%w: payment %d changed status concurrently", ErrConflict, p.ID)
		}
		return nil, err
	}
	metrics.ObserveRefund("ok")
	l.Info("payment_refunded", "provider_refund_id", refundID)

	if o, err := s.repo.GetOrder(ctx, p.OrderID); err == nil {
		s.events.emit(ctx, OrderRefunded, o, o.Status)
	}

	return &RefundResult{PaymentID: p.ID, Status: models.PaymentStatusRefunded, ProviderRefundID: refundID}, nil
}
