package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/online_cinema/internal/config"
	"github.com/Skotchmaster/online_cinema/internal/db"
	"github.com/Skotchmaster/online_cinema/internal/es"
	"github.com/Skotchmaster/online_cinema/internal/httpserver"
	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/metrics"
	"github.com/Skotchmaster/online_cinema/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/online_cinema/internal/middleware/logging"
	"github.com/Skotchmaster/online_cinema/internal/mykafka"
	"github.com/Skotchmaster/online_cinema/internal/notify"
	"github.com/Skotchmaster/online_cinema/internal/payments"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/search"
	"github.com/Skotchmaster/online_cinema/internal/service"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	provider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey:        cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
	})
	if err != nil {
		log.Fatalf("payment provider: %v", err)
	}

	var (
		events service.EventPublisher
		sender notify.Sender = notify.LogSender{Logger: logger}
		prod   *mykafka.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = prod
		sender = notify.NewKafkaSender(prod, cfg.NotificationsTopic)
	} else {
		logger.Info("kafka_disabled")
	}

	var sink service.StatsSink
	esCtx, esCancel := context.WithTimeout(context.Background(), 5*time.Second)
	esClient, err := es.NewClient(esCtx, cfg, logger)
	esCancel()
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}
	if esClient != nil {
		sink = search.NewStatsIndexer(esClient, cfg.ESIndex)
	}

	r := repo.New(gdb)
	orders := service.NewOrderService(r, events, cfg.OrderEventsTopic)
	paymentSvc := service.NewPaymentService(service.PaymentServiceConfig{
		Repo:        r,
		Provider:    provider,
		Sender:      sender,
		Currency:    cfg.Currency,
		Events:      events,
		EventsTopic: cfg.OrderEventsTopic,
	})
	countersSvc := service.NewCounterService(r, sink)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(metrics.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:    &httpserver.CartHTTP{Svc: service.NewCartService(r)},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orders},
		PaymentHandler: &httpserver.PaymentHTTP{Svc: paymentSvc},
		MovieHandler:   &httpserver.MovieHTTP{Svc: service.NewMovieService(r)},
		AdminHandler:   &httpserver.AdminHTTP{Orders: orders, Payments: paymentSvc, Counters: countersSvc},
		JWTSecret:      cfg.JWTSecret,
		CSRF:           csrf.Config{Secure: cfg.CookieSecure},
		DB:             gdb,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
