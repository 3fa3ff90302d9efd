// Package payments abstracts the external payment provider.
package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// EventKind classifies a verified provider event.
type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventOther     EventKind = "other"
)

const (
	MetadataOrderID = "order_id"
	MetadataUserID  = "user_id"
)

// ErrInvalidSignature is returned by VerifyWebhook when the payload cannot be
// authenticated with the shared secret.
var ErrInvalidSignature = errors.New("payments: invalid webhook signature")

// Provider is the contract the storefront needs from a payment provider.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
	Refund(ctx context.Context, req RefundRequest) (string, error)
	VerifyWebhook(payload []byte, signature string) (Event, error)
}

type IntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type RefundRequest struct {
	IntentID       string
	IdempotencyKey string
}

// Event is the provider-neutral view of a webhook delivery.
type Event struct {
	ID            string
	Type          string
	Kind          EventKind
	IntentID      string
	Metadata      map[string]string
	FailureReason string
}

// MinorUnits converts a decimal amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
