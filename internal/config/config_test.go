package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/cinema")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg := Load()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "order_events", cfg.OrderEventsTopic)
	assert.Equal(t, []byte("secret"), cfg.JWTSecret)
	require.NoError(t, cfg.Validate())
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	cfg := &Config{ServerPort: 8080}

	err := cfg.Validate()
	require.Error(t, err)
	for _, name := range []string{"DATABASE_URL", "JWT_SECRET", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestEnvIntDefault(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "unset", value: "", want: 42},
		{name: "valid", value: "7", want: 7},
		{name: "garbage", value: "seven", want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CINEMA_TEST_INT", tt.value)
			assert.Equal(t, tt.want, EnvIntDefault("CINEMA_TEST_INT", 42))
		})
	}
}
