// Command monitor runs the full disaster monitoring service: the article
// ingestion pipeline, the alert notifier, and the HTTP API in one process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	httpadapter "github.com/couchcryptid/disaster-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/mongodb"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/newsapi"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/nominatim"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/smtp"
	"github.com/couchcryptid/disaster-monitor/internal/config"
	"github.com/couchcryptid/disaster-monitor/internal/extract"
	"github.com/couchcryptid/disaster-monitor/internal/notifier"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
	"github.com/couchcryptid/disaster-monitor/internal/pipeline"
	"github.com/couchcryptid/disaster-monitor/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("mongodb connect failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect error", "error", err)
		}
	}()

	db := client.Database(cfg.DBName)
	records := mongodb.NewRecordStore(db, cfg.ArticleCollection, logger)
	subs := mongodb.NewSubscriptionStore(db, cfg.SubscriptionCollection, clock, logger)
	ledger := mongodb.NewDeliveryLedger(db, cfg.DeliveryCollection, clock, logger)

	for _, idx := range []interface {
		EnsureIndexes(ctx context.Context) error
	}{records, subs, ledger} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			logger.Error("index creation failed", "error", err)
			os.Exit(1)
		}
	}

	geocoder := nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg, logger, metrics),
		cfg.GeocodeCacheSize,
		rate.Every(cfg.GeocodeInterval),
		metrics,
	)

	// The Kafka feed is optional; without brokers the pipeline skips
	// publishing entirely.
	var feed pipeline.FeedPublisher
	var writer *kafkaadapter.Writer
	if cfg.FeedEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		feed = writer
		logger.Info("record feed enabled", "topic", cfg.KafkaSinkTopic)
	}

	fetcher := newsapi.NewClient(cfg, logger, metrics)
	extractor := extract.New(logger)
	p := pipeline.New(fetcher, extractor, geocoder, records, feed, logger, metrics, cfg.FetchInterval)

	mailer, err := smtp.NewMailer(cfg, logger)
	if err != nil {
		logger.Error("mailer setup failed", "error", err)
		os.Exit(1)
	}

	n := notifier.New(records, subs, ledger, mailer,
		cfg.AlertWindow, cfg.AlertInterval, clock, logger, metrics)

	loader := query.NewLoader(records, cfg.QueryCacheTTL, clock, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, loader, subs, mailer, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Start(ctx); err != nil {
			logger.Error("ingestion pipeline error", "error", err)
		}
	}()

	go func() {
		if err := n.Start(ctx); err != nil {
			logger.Error("notifier error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
