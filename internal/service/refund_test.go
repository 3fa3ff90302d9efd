package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundPayment(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.db, "u@example.com")
	a := testutil.SeedMovie(t, env.db, "A", "5.00")
	o := env.placeOrder(t, u.ID, a)
	p := env.payOrder(t, o, "pi_1")

	res, err := env.payments.RefundPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, &RefundResult{PaymentID: p.ID, Status: models.PaymentStatusRefunded, ProviderRefundID: "re_pi_1"}, res)

	got, err := env.repo.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, got.Status)
	assert.Equal(t, models.OrderStatusRefunded, env.orderStatus(t, o.ID))

	require.Len(t, env.provider.refunds, 1)
	assert.Equal(t, "pi_1", env.provider.refunds[0].IntentID)
	assert.Equal(t, "refund-payment-1", env.provider.refunds[0].IdempotencyKey)

	_, err = env.payments.RefundPayment(ctx, p.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, env.provider.refunds, 1, "a refunded payment must not reach the provider again")

	assert.Contains(t, env.events.types(), OrderRefunded)
}

func TestRefundPayment_ProviderFailureKeepsState(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.db, "u@example.com")
	a := testutil.SeedMovie(t, env.db, "A", "5.00")
	o := env.placeOrder(t, u.ID, a)
	p := env.payOrder(t, o, "pi_1")

	env.provider.refundErr = errBoom
	_, err := env.payments.RefundPayment(ctx, p.ID)
	require.ErrorIs(t, err, ErrExternalService)

	got, err := env.repo.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccessful, got.Status)
	assert.Equal(t, models.OrderStatusPaid, env.orderStatus(t, o.ID))

	env.provider.refundErr = nil
	_, err = env.payments.RefundPayment(ctx, p.ID)
	require.NoError(t, err)
}

func TestRefundPayment_Preconditions(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.db, "u@example.com")
	a := testutil.SeedMovie(t, env.db, "A", "5.00")
	p := env.payOrder(t, env.placeOrder(t, u.ID, a), "pi_1")

	_, err := env.payments.RefundPayment(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.db.Model(&models.Payment{}).Where("id = ?", p.ID).Update("status", models.PaymentStatusCanceled).Error)
	_, err = env.payments.RefundPayment(ctx, p.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, env.provider.refunds)
}
