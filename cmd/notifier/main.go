// cmd/notifier/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/getreference/notification-engine/internal/api"
	commonaws "github.com/getreference/notification-engine/internal/common/aws"
	"github.com/getreference/notification-engine/internal/common/config"
	"github.com/getreference/notification-engine/internal/common/database"
	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/common/observability"
	"github.com/getreference/notification-engine/internal/notify/dispatch"
	"github.com/getreference/notification-engine/internal/notify/inapp"
	"github.com/getreference/notification-engine/internal/notify/preferences"
	"github.com/getreference/notification-engine/internal/notify/template"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification engine...")

	obs := observability.New("notification-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rds *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rds, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rds.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rds.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init delivery log (optional) ---
	var recorder dispatch.DeliveryRecorder
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		recorder = dispatch.NewElasticsearchRecorder(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init provider clients ---
	sesClient, err := commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("SES client init failed", zap.Error(err))
	}
	snsClient, err := commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("SNS client init failed", zap.Error(err))
	}

	// --- Assemble the engine ---
	catalog, err := template.NewCatalog()
	if err != nil {
		zapLog.Fatal("template catalog invalid", zap.Error(err))
	}

	resolver := preferences.NewResolver(pg.DB, log)
	store := inapp.NewStore(pg.DB, rds.Client,
		time.Duration(cfg.Notifications.UnreadCacheTTL)*time.Second, log)

	dispatcher := dispatch.NewDispatcher(
		catalog, resolver, store, sesClient, snsClient, recorder,
		cfg.Notifications, log,
	)

	handler := api.NewHandler(dispatcher, store, resolver, log)
	app := api.NewApp(handler, cfg.Server)

	// --- Metrics & pprof server ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// --- API server ---
	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := app.Listen(cfg.Server.Address); err != nil {
			zapLog.Fatal("api server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zapLog.Error("api shutdown failed", zap.Error(err))
	}
	zapLog.Info("Notification engine stopped")
}
