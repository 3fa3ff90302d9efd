package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/payments"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const badSignature = "bad-signature"

// fakeProvider decodes the webhook payload as a JSON payments.Event.
type fakeProvider struct {
	mu sync.Mutex

	intents   []payments.IntentRequest
	canceled  []string
	refunds   []payments.RefundRequest
	intentErr error
	refundErr error
}

func (p *fakeProvider) CreateIntent(_ context.Context, req payments.IntentRequest) (payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.intentErr != nil {
		return payments.Intent{}, p.intentErr
	}
	p.intents = append(p.intents, req)
	return payments.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (p *fakeProvider) CancelIntent(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = append(p.canceled, id)
	return nil
}

func (p *fakeProvider) Refund(_ context.Context, req payments.RefundRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return "", p.refundErr
	}
	p.refunds = append(p.refunds, req)
	return "re_" + req.IntentID, nil
}

func (p *fakeProvider) VerifyWebhook(payload []byte, signature string) (payments.Event, error) {
	if signature == badSignature {
		return payments.Event{}, payments.ErrInvalidSignature
	}
	var evt payments.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return payments.Event{}, err
	}
	return evt, nil
}

type sentMail struct {
	To, Subject, HTML string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *recordingSender) Send(_ context.Context, to, subject, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

func (s *recordingSender) mails() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail(nil), s.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(OrderEvent); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) types() []OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]OrderEventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type recordingSink struct {
	batches [][]models.MovieStats
	err     error
}

func (s *recordingSink) IndexMovieStats(_ context.Context, stats []models.MovieStats) error {
	s.batches = append(s.batches, stats)
	return s.err
}

type testEnv struct {
	db       *gorm.DB
	repo     *repo.GormRepo
	provider *fakeProvider
	sender   *recordingSender
	events   *recordingPublisher
	sink     *recordingSink

	carts    *CartService
	orders   *OrderService
	payments *PaymentService
	counters *CounterService
	movies   *MovieService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	r := repo.New(db)
	env := &testEnv{
		db:       db,
		repo:     r,
		provider: &fakeProvider{},
		sender:   &recordingSender{},
		events:   &recordingPublisher{},
		sink:     &recordingSink{},
	}
	env.carts = NewCartService(r)
	env.orders = NewOrderService(r, env.events, "order_events")
	env.payments = NewPaymentService(PaymentServiceConfig{
		Repo:        r,
		Provider:    env.provider,
		Sender:      env.sender,
		Currency:    "usd",
		Events:      env.events,
		EventsTopic: "order_events",
	})
	env.counters = NewCounterService(r, env.sink)
	env.movies = NewMovieService(r)
	return env
}

func (e *testEnv) addToCart(t *testing.T, userID uint, movies ...models.Movie) {
	t.Helper()
	for _, m := range movies {
		_, err := e.carts.AddItem(context.Background(), userID, m.ID)
		require.NoError(t, err)
	}
}

func (e *testEnv) placeOrder(t *testing.T, userID uint, movies ...models.Movie) *models.Order {
	t.Helper()
	e.addToCart(t, userID, movies...)
	o, err := e.orders.PlaceOrder(context.Background(), userID)
	require.NoError(t, err)
	return o
}

func successPayload(t *testing.T, intentID string, orderID, userID uint) []byte {
	t.Helper()
	return eventPayload(t, payments.Event{
		ID:       "evt_" + intentID,
		Type:     "payment_intent.succeeded",
		Kind:     payments.EventSucceeded,
		IntentID: intentID,
		Metadata: map[string]string{
			payments.MetadataOrderID: strconv.FormatUint(uint64(orderID), 10),
			payments.MetadataUserID:  strconv.FormatUint(uint64(userID), 10),
		},
	})
}

func eventPayload(t *testing.T, evt payments.Event) []byte {
	t.Helper()
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return b
}

// payOrder confirms the order through the webhook and returns the payment.
func (e *testEnv) payOrder(t *testing.T, o *models.Order, intentID string) *models.Payment {
	t.Helper()
	res, err := e.payments.HandleWebhookEvent(context.Background(), successPayload(t, intentID, o.ID, o.UserID), "sig")
	require.NoError(t, err)
	require.Equal(t, WebhookOK, res)
	p, err := e.repo.GetPaymentByExternalID(context.Background(), intentID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) orderStatus(t *testing.T, id uint) models.OrderStatus {
	t.Helper()
	var o models.Order
	require.NoError(t, e.db.First(&o, id).Error)
	return o.Status
}

func (e *testEnv) movie(t *testing.T, id uint) models.Movie {
	t.Helper()
	var m models.Movie
	require.NoError(t, e.db.First(&m, id).Error)
	return m
}

var errBoom = errors.New("boom")
