package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	wm "github.com/ThreeDotsLabs/watermill"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/cache"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/config"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/delivery/consumer"
	httpdelivery "github.com/egannguyen/go-kafka-ecommerce/order-service/internal/delivery/http"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/logging"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging"
	kafkabroker "github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging/kafka"
	wmbroker "github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging/watermill"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/metrics"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository/memory"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository/postgres"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/service"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the payment status consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cfg)
		},
	}
}

// loadConfig reads the config and installs the process-wide logger.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format, cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cfg, nil
}

// closers runs cleanup funcs in reverse order and collects their errors.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) close() error {
	var result *multierror.Error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func runServe(ctx context.Context, cfg *config.Config) (err error) {
	var cleanup closers
	defer func() {
		if closeErr := cleanup.close(); closeErr != nil {
			slog.Error("Shutdown cleanup failed", "err", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()

	// --- Store ---
	store, err := openStore(ctx, cfg, &cleanup)
	if err != nil {
		return err
	}

	// --- Cache ---
	orderCache := cache.Cache(cache.Nop{})
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		cleanup.add(client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable, order reads will hit the store", "addr", cfg.Redis.Addr, "err", err)
		}
		orderCache = cache.NewRedisCacheFromClient(client, cfg.ServiceName)
		slog.Info("Order cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Messaging ---
	publisher, subscriber, err := openBroker(cfg, &cleanup)
	if err != nil {
		return err
	}

	svc := service.NewOrderService(store, publisher,
		service.WithRetryPolicy(service.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, Delay: cfg.Retry.Delay}),
		service.WithCache(orderCache, cfg.Redis.TTL),
		service.WithMetrics(m),
	)

	// --- HTTP API ---
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpdelivery.NewRouter(httpdelivery.NewHandler(svc), m, metrics.Handler(reg)),
	}

	// --- Start everything ---
	// The consumer is stopped and drained before the deferred cleanup closes
	// the store and the broker.
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	var consumerDone <-chan struct{}
	if subscriber != nil {
		consumerDone = consumer.NewPaymentStatusHandler(svc).Start(consumerCtx, subscriber, cfg.Messaging.ConsumerGroup)
	} else {
		stopped := make(chan struct{})
		close(stopped)
		consumerDone = stopped
	}
	defer func() {
		stopConsumer()
		select {
		case <-consumerDone:
		case <-time.After(cfg.HTTP.ShutdownTimeout):
			slog.Warn("Payment status consumer did not stop in time", "timeout", cfg.HTTP.ShutdownTimeout)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, cleanup *closers) (repository.Store, error) {
	if cfg.Store == "memory" {
		store := memory.NewStore()
		addressID, err := store.Seed(repository.DefaultDemoData())
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		slog.Info("Using in-memory store", "demo_address_id", addressID)
		return store, nil
	}

	db, err := postgres.InitDB(ctx, cfg.Database.Driver, cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	cleanup.add(db.Close)

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	if cfg.Database.Seed {
		if err := postgres.Seed(ctx, db, repository.DefaultDemoData()); err != nil {
			return nil, err
		}
	}
	return postgres.NewStore(db, cfg.Database.LockTimeout), nil
}

// openBroker returns the event publisher and, unless messaging is
// disabled, the subscriber for payment callbacks.
func openBroker(cfg *config.Config, cleanup *closers) (messaging.Publisher, messaging.Subscriber, error) {
	logger := wm.NewSlogLogger(slog.Default())

	var (
		pub messaging.Publisher
		sub messaging.Subscriber
	)
	switch cfg.Messaging.Backend {
	case "none":
		slog.Info("Messaging disabled")
		return messaging.NopPublisher{}, nil, nil
	case "memory":
		broker := wmbroker.NewGoChannel(logger)
		cleanup.add(broker.Close)
		pub, sub = broker, broker
	case "kafka":
		broker := kafkabroker.NewKafkaBroker(cfg.Messaging.Brokers)
		cleanup.add(broker.Close)
		pub, sub = broker, broker
	case "watermill-kafka":
		broker, err := wmbroker.NewKafka(cfg.Messaging.Brokers, cfg.Messaging.ConsumerGroup, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup.add(broker.Close)
		pub, sub = broker, broker
	default:
		return nil, nil, fmt.Errorf("unknown messaging backend %q", cfg.Messaging.Backend)
	}

	slog.Info("Messaging enabled", "backend", cfg.Messaging.Backend, "brokers", cfg.Messaging.Brokers)
	return messaging.NewBreakerPublisher(pub, messaging.BreakerSettings{
		ConsecutiveFailures: cfg.Messaging.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Messaging.Breaker.OpenTimeout,
	}), sub, nil
}
