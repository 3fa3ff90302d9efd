package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/metrics"
	loggingmw "github.com/Skotchmaster/online_cinema/internal/middleware/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/notify"
	"github.com/Skotchmaster/online_cinema/internal/payments"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/testutil"
	"github.com/Skotchmaster/online_cinema/internal/tokens"
	"github.com/Skotchmaster/online_cinema/internal/transport"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("test-secret")

type stubProvider struct {
	intentErr error
}

func (p *stubProvider) CreateIntent(_ context.Context, req payments.IntentRequest) (payments.Intent, error) {
	if p.intentErr != nil {
		return payments.Intent{}, p.intentErr
	}
	id := "pi_" + req.Metadata[payments.MetadataOrderID]
	return payments.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (p *stubProvider) CancelIntent(context.Context, string) error { return nil }

func (p *stubProvider) Refund(_ context.Context, req payments.RefundRequest) (string, error) {
	return "re_" + req.IntentID, nil
}

func (p *stubProvider) VerifyWebhook(payload []byte, signature string) (payments.Event, error) {
	if signature != "valid" {
		return payments.Event{}, payments.ErrInvalidSignature
	}
	var evt payments.Event
	err := json.Unmarshal(payload, &evt)
	return evt, err
}

type testEnv struct {
	e        *echo.Echo
	db       *gorm.DB
	provider *stubProvider
	user     models.User
	admin    models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	provider := &stubProvider{}
	logger := logging.NewWithWriter(io.Discard, "debug")

	orders := service.NewOrderService(r, nil, "")
	paymentSvc := service.NewPaymentService(service.PaymentServiceConfig{
		Repo:     r,
		Provider: provider,
		Sender:   notify.LogSender{Logger: logger},
	})

	e := echo.New()
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(metrics.Middleware())
	Register(e, &Deps{
		CartHandler:    &CartHTTP{Svc: service.NewCartService(r)},
		OrderHandler:   &OrderHTTP{Svc: orders},
		PaymentHandler: &PaymentHTTP{Svc: paymentSvc},
		MovieHandler:   &MovieHTTP{Svc: service.NewMovieService(r)},
		AdminHandler:   &AdminHTTP{Orders: orders, Payments: paymentSvc, Counters: service.NewCounterService(r, nil)},
		JWTSecret:      testSecret,
		DB:             gdb,
	})

	admin := models.User{Email: "admin@example.com", Role: "admin"}
	require.NoError(t, gdb.Create(&admin).Error)

	return &testEnv{
		e:        e,
		db:       gdb,
		provider: provider,
		user:     testutil.SeedUser(t, gdb, "viewer@example.com"),
		admin:    admin,
	}
}

func bearer(t *testing.T, u models.User) string {
	t.Helper()
	tok, err := tokens.CreateAccessToken(testSecret, strconv.FormatUint(uint64(u.ID), 10), u.Role, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return "Bearer " + tok
}

func (env *testEnv) do(t *testing.T, method, path string, body any, as *models.User, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != nil {
		req.Header.Set(echo.HeaderAuthorization, bearer(t, *as))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (env *testEnv) webhook(t *testing.T, evt payments.Event, signature string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return env.do(t, http.MethodPost, "/api/v1/payments/webhook", raw, nil, signatureHeader, signature)
}

// buy takes a movie through cart, order, intent and a successful webhook.
func (env *testEnv) buy(t *testing.T, movieID uint) (transport.OrderResponse, string) {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MovieID: movieID}, &env.user)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/orders", nil, &env.user)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[transport.OrderResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/payments/intent", transport.CreateIntentRequest{OrderID: order.ID}, &env.user)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	intent := decode[transport.IntentResponse](t, rec)

	rec = env.webhook(t, successEvent(intent.PaymentIntentID, order.ID, env.user.ID), "valid")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return order, intent.PaymentIntentID
}

func successEvent(intentID string, orderID, userID uint) payments.Event {
	return payments.Event{
		ID:       "evt_" + intentID,
		Type:     "payment_intent.succeeded",
		Kind:     payments.EventSucceeded,
		IntentID: intentID,
		Metadata: map[string]string{
			payments.MetadataOrderID: strconv.FormatUint(uint64(orderID), 10),
			payments.MetadataUserID:  strconv.FormatUint(uint64(userID), 10),
		},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil, nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil, nil).Code)

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/payments"},
		{http.MethodPost, "/api/v1/movies/1/like"},
		{http.MethodGet, "/api/v1/admin/orders"},
	} {
		rec := env.do(t, tc.method, tc.path, nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/admin/orders", nil, &env.user)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCartEndpoints(t *testing.T) {
	env := newTestEnv(t)
	m := testutil.SeedMovie(t, env.db, "Heat", "9.99")

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MovieID: m.ID}, &env.user)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MovieID: m.ID}, &env.user)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MovieID: 9999}, &env.user)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/cart", nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[transport.CartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	require.Equal(t, "9.99", cart.Total)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/"+strconv.Itoa(int(m.ID)), nil, &env.user)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/"+strconv.Itoa(int(m.ID)), nil, &env.user)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/abc", nil, &env.user)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseFlow(t *testing.T) {
	env := newTestEnv(t)
	m := testutil.SeedMovie(t, env.db, "Alien", "4.50")

	rec := env.do(t, http.MethodPost, "/api/v1/orders", nil, &env.user)
	require.Equal(t, http.StatusConflict, rec.Code, "empty cart")

	order, intentID := env.buy(t, m.ID)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, "4.50", order.TotalAmount)

	rec = env.webhook(t, successEvent(intentID, order.ID, env.user.ID), "valid")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, service.WebhookAlreadyProcessed, decode[transport.WebhookResponse](t, rec).Status)

	rec = env.do(t, http.MethodGet, "/api/v1/orders/"+strconv.Itoa(int(order.ID))+"/payment-status", nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[transport.PaymentStatusResponse](t, rec)
	require.Equal(t, models.OrderStatusPaid, st.OrderStatus)
	require.Equal(t, "success", st.Status)

	rec = env.do(t, http.MethodGet, "/api/v1/payments", nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	ps := decode[[]transport.PaymentResponse](t, rec)
	require.Len(t, ps, 1)
	require.Equal(t, intentID, ps[0].ExternalPaymentID)
	require.Equal(t, "4.50", ps[0].Amount)

	rec = env.do(t, http.MethodGet, "/api/v1/payments/"+strconv.Itoa(int(ps[0].ID)), nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/cart", nil, &env.user)
	require.Empty(t, decode[transport.CartResponse](t, rec).Items)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MovieID: m.ID}, &env.user)
	require.Equal(t, http.StatusConflict, rec.Code, "already purchased")

	rec = env.do(t, http.MethodPost, "/api/v1/orders/"+strconv.Itoa(int(order.ID))+"/cancel", nil, &env.user)
	require.Equal(t, http.StatusConflict, rec.Code, "paid order cannot be canceled")
}

func TestCancelOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	m := testutil.SeedMovie(t, env.db, "Ran", "3.00")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MovieID: m.ID}, &env.user).Code)
	rec := env.do(t, http.MethodPost, "/api/v1/orders", nil, &env.user)
	order := decode[transport.OrderResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/orders/"+strconv.Itoa(int(order.ID))+"/cancel", nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.OrderStatusCanceled, decode[transport.OrderResponse](t, rec).Status)

	rec = env.do(t, http.MethodPost, "/api/v1/orders/"+strconv.Itoa(int(order.ID))+"/cancel", nil, &env.admin)
	require.Equal(t, http.StatusNotFound, rec.Code, "another user's order")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)

	rec := env.webhook(t, successEvent("pi_x", 1, env.user.ID), "forged")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateIntentProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	m := testutil.SeedMovie(t, env.db, "Up", "2.00")
	env.provider.intentErr = errors.New("stripe down")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MovieID: m.ID}, &env.user).Code)
	order := decode[transport.OrderResponse](t, env.do(t, http.MethodPost, "/api/v1/orders", nil, &env.user))

	rec := env.do(t, http.MethodPost, "/api/v1/payments/intent", transport.CreateIntentRequest{OrderID: order.ID}, &env.user)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/payments/intent", map[string]any{}, &env.user)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	m := testutil.SeedMovie(t, env.db, "Jaws", "5.00")
	order, intentID := env.buy(t, m.ID)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/orders?status=paid", nil, &env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[[]transport.OrderResponse](t, rec)
	require.Len(t, orders, 1)
	require.Equal(t, order.ID, orders[0].ID)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/orders?status=bogus", nil, &env.admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/payments?user_id="+strconv.Itoa(int(env.user.ID)), nil, &env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	ps := decode[[]transport.PaymentResponse](t, rec)
	require.Len(t, ps, 1)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/payments/"+strconv.Itoa(int(ps[0].ID))+"/refund", nil, &env.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refund := decode[transport.RefundResponse](t, rec)
	require.Equal(t, models.PaymentStatusRefunded, refund.Status)
	require.Equal(t, "re_"+intentID, refund.ProviderRefundID)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/payments/"+strconv.Itoa(int(ps[0].ID))+"/refund", nil, &env.admin)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/payments/"+strconv.Itoa(int(ps[0].ID))+"/cancel", nil, &env.admin)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/counters/recount", nil, &env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode[transport.RecountResponse](t, rec).Movies)
}

func TestMovieEndpoints(t *testing.T) {
	env := newTestEnv(t)
	m := testutil.SeedMovie(t, env.db, "Solaris", "7.00")
	base := "/api/v1/movies/" + strconv.Itoa(int(m.ID))

	rec := env.do(t, http.MethodPost, base+"/like", nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode[models.MovieStats](t, rec).LikeCount)

	rec = env.do(t, http.MethodPost, base+"/dislike", nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, decode[models.MovieStats](t, rec).LikeCount)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, base+"/reaction", nil, &env.user).Code)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, base+"/reaction", nil, &env.user).Code)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, base+"/favorite", nil, &env.user).Code)
	require.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, base+"/favorite", nil, &env.user).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, base+"/favorite", nil, &env.user).Code)

	rec = env.do(t, http.MethodPost, base+"/rating", transport.RateMovieRequest{Rating: 11}, &env.user)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/rating", transport.RateMovieRequest{Rating: 8}, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	rating := decode[transport.RatingResponse](t, rec)
	require.EqualValues(t, 1, rating.RatingCount)
	require.InDelta(t, 8.0, rating.RatingAverage, 1e-9)

	rec = env.do(t, http.MethodDelete, base+"/rating", nil, &env.user)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, decode[transport.RatingResponse](t, rec).RatingCount)

	rec = env.do(t, http.MethodPost, base+"/comments", transport.CommentRequest{Content: "   "}, &env.user)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/comments", transport.CommentRequest{Content: "great"}, &env.user)
	require.Equal(t, http.StatusCreated, rec.Code)
	cm := decode[models.MovieComment](t, rec)

	rec = env.do(t, http.MethodDelete, base+"/comments/"+strconv.Itoa(int(cm.ID)), nil, &env.user)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/v1/movies/9999/like", nil, &env.user).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/v1/movies/x/like", nil, &env.user).Code)
}
