package es

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Skotchmaster/online_cinema/internal/config"
	"github.com/elastic/go-elasticsearch/v9"
)

// NewClient returns nil, nil when no ES_URL is configured; search projection
// is optional for the service.
func NewClient(ctx context.Context, cfg *config.Config, l *slog.Logger) (*elasticsearch.Client, error) {
	if cfg.ESURL == "" {
		l.Info("elasticsearch_disabled")
		return nil, nil
	}
	l.Info("elasticsearch_connecting", "url", cfg.ESURL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}

	l.Info("elasticsearch_connected")
	return client, nil
}
