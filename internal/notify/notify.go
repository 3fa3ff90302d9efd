// Package notify composes user-facing e-mails and hands them to a Sender.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sender delivers one HTML e-mail. Delivery mechanics belong to the
// implementation; callers treat it as fire-and-forget.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// EmailJob is the message consumed by the mailer.
type EmailJob struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaSender enqueues e-mail jobs on a topic keyed by recipient.
type KafkaSender struct {
	pub   Publisher
	topic string
}

func NewKafkaSender(pub Publisher, topic string) *KafkaSender {
	return &KafkaSender{pub: pub, topic: topic}
}

func (s *KafkaSender) Send(ctx context.Context, to, subject, html string) error {
	if to == "" {
		return fmt.Errorf("notify: empty recipient")
	}
	job := EmailJob{
		ID:        uuid.NewString(),
		To:        to,
		Subject:   subject,
		HTML:      html,
		CreatedAt: time.Now().UTC(),
	}
	return s.pub.PublishEvent(ctx, s.topic, to, job)
}

// LogSender only logs; used when no broker is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, _ string) error {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("email_skipped", "to", to, "subject", subject)
	return nil
}
