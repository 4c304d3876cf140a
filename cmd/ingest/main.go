// Command ingest runs a single article ingestion cycle and exits. Useful
// for cron-style scheduling and for smoke-testing credentials.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	kafkaadapter "github.com/couchcryptid/disaster-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/mongodb"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/newsapi"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/nominatim"
	"github.com/couchcryptid/disaster-monitor/internal/config"
	"github.com/couchcryptid/disaster-monitor/internal/extract"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
	"github.com/couchcryptid/disaster-monitor/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("mongodb connect failed", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background()) //nolint:errcheck

	db := client.Database(cfg.DBName)
	records := mongodb.NewRecordStore(db, cfg.ArticleCollection, logger)
	if err := records.EnsureIndexes(ctx); err != nil {
		logger.Error("index creation failed", "error", err)
		os.Exit(1)
	}

	geocoder := nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg, logger, metrics),
		cfg.GeocodeCacheSize,
		rate.Every(cfg.GeocodeInterval),
		metrics,
	)

	var feed pipeline.FeedPublisher
	if cfg.FeedEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer writer.Close() //nolint:errcheck
		feed = writer
	}

	p := pipeline.New(
		newsapi.NewClient(cfg, logger, metrics),
		extract.New(logger),
		geocoder,
		records,
		feed,
		logger,
		metrics,
		cfg.FetchInterval,
	)

	stored, err := p.RunCycle(ctx)
	if err != nil {
		logger.Error("ingestion cycle failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion cycle complete", "stored", stored)
}
