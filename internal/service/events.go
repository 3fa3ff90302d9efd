package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/google/uuid"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type OrderEventType string

const (
	OrderCreated  OrderEventType = "order.created"
	OrderCanceled OrderEventType = "order.canceled"
	OrderPaid     OrderEventType = "order.paid"
	OrderRefunded OrderEventType = "order.refunded"
)

type OrderEvent struct {
	ID         string             `json:"id"`
	Type       OrderEventType     `json:"type"`
	OrderID    uint               `json:"order_id"`
	UserID     uint               `json:"user_id"`
	Status     models.OrderStatus `json:"status"`
	Amount     string             `json:"amount"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// orderEvents publishes order lifecycle events. A nil publisher disables it;
// publish failures are logged because the database is the source of truth.
type orderEvents struct {
	pub   EventPublisher
	topic string
}

func (e orderEvents) emit(ctx context.Context, typ OrderEventType, o *models.Order, status models.OrderStatus) {
	if e.pub == nil || o == nil {
		return
	}
	ev := OrderEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     status,
		Amount:     o.TotalAmount.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
	if err := e.pub.PublishEvent(ctx, e.topic, strconv.FormatUint(uint64(o.ID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("order_event_publish_error", "type", string(typ), "order_id", o.ID, "error", err)
	}
}
