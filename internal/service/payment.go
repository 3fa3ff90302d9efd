package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/metrics"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/notify"
	"github.com/Skotchmaster/online_cinema/internal/payments"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/shopspring/decimal"
)

type PaymentService struct {
	repo     *repo.GormRepo
	provider payments.Provider
	sender   notify.Sender
	currency string
	events   orderEvents
}

type PaymentServiceConfig struct {
	Repo     *repo.GormRepo
	Provider payments.Provider
	Sender   notify.Sender
	Currency string

	Events      EventPublisher
	EventsTopic string
}

func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	sender := cfg.Sender
	if sender == nil {
		sender = notify.LogSender{}
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		repo:     cfg.Repo,
		provider: cfg.Provider,
		sender:   sender,
		currency: currency,
		events:   orderEvents{pub: cfg.Events, topic: cfg.EventsTopic},
	}
}

type IntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

// CreatePaymentIntent asks the provider for an intent covering a pending
// order. The item sum is recomputed and must match the stored total. No
// payment row is written until the provider confirms.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID, orderID uint) (*IntentResult, error) {
	o, err := s.repo.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	if o.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: no pending order %d", ErrNotFound, o.ID)
	}

	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.PriceAtOrder)
	}
	if !sum.Equal(o.TotalAmount) {
		return nil, fmt.Errorf("%w: Order total mismatch", ErrValidation)
	}

	intent, err := s.provider.CreateIntent(ctx, payments.IntentRequest{
		Amount:   o.TotalAmount,
		Currency: s.currency,
		Metadata: map[string]string{
			payments.MetadataOrderID: strconv.FormatUint(uint64(o.ID), 10),
			payments.MetadataUserID:  strconv.FormatUint(uint64(o.UserID), 10),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", ErrExternalService, err)
	}
	return &IntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, userID uint) ([]models.Payment, error) {
	return s.repo.ListUserPayments(ctx, userID)
}

func (s *PaymentService) GetPayment(ctx context.Context, userID, paymentID uint) (*models.Payment, error) {
	p, err := s.repo.GetUserPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, notFoundOr(err, "payment not found")
	}
	return p, nil
}

func (s *PaymentService) AdminListPayments(ctx context.Context, q ListQuery) ([]models.Payment, error) {
	f, err := parseListQuery(q, func(v string) bool { return models.PaymentStatus(v).Valid() })
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, f)
}

// CancelPayment cancels a payment that has not settled. Settled payments
// (successful or refunded) are rejected; an already canceled payment is
// returned unchanged.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID uint) (*models.Payment, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, notFoundOr(err, "payment not found")
	}

	switch p.Status {
	case models.PaymentStatusSuccessful, models.PaymentStatusRefunded:
		return nil, fmt.Errorf("%w: only pending payments can be canceled", ErrConflict)
	case models.PaymentStatusCanceled:
		return p, nil
	}

	if p.ExternalPaymentID != "" {
		if err := s.provider.CancelIntent(ctx, p.ExternalPaymentID); err != nil {
			return nil, fmt.Errorf("%w: cancel payment intent: %v", ErrExternalService, err)
		}
	}
	if err := s.repo.CompareAndSetPaymentStatus(ctx, p.ID, p.Status, models.PaymentStatusCanceled); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return nil, fmt.Errorf("%w: payment %d changed status concurrently", ErrInvalidState, p.ID)
		}
		return nil, err
	}
	p.Status = models.PaymentStatusCanceled
	return p, nil
}

// notifyUser renders and sends one e-mail. Failures are logged only.
func (s *PaymentService) notifyUser(ctx context.Context, userID uint, subject string, render func() (string, error)) {
	l := logging.FromContext(ctx).With("user_id", userID, "subject", subject)

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		l.Warn("notify_user_lookup_error", "error", err)
		return
	}
	body, err := render()
	if err != nil {
		l.Warn("notify_render_error", "error", err)
		return
	}
	if err := s.sender.Send(ctx, u.Email, subject, body); err != nil {
		l.Warn("notify_send_error", "error", err)
		return
	}
	l.Info("notify_sent")
}

func observeWebhook(kind payments.EventKind, outcome string) {
	metrics.ObserveWebhook(string(kind), outcome)
}
