// Command notify runs a single alert cycle and exits: recent records are
// matched against every subscription and outstanding alerts are emailed.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-monitor/internal/adapter/mongodb"
	"github.com/couchcryptid/disaster-monitor/internal/adapter/smtp"
	"github.com/couchcryptid/disaster-monitor/internal/config"
	"github.com/couchcryptid/disaster-monitor/internal/notifier"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
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
	defer client.Disconnect(context.Background()) //nolint:errcheck

	db := client.Database(cfg.DBName)
	records := mongodb.NewRecordStore(db, cfg.ArticleCollection, logger)
	subs := mongodb.NewSubscriptionStore(db, cfg.SubscriptionCollection, clock, logger)
	ledger := mongodb.NewDeliveryLedger(db, cfg.DeliveryCollection, clock, logger)
	if err := ledger.EnsureIndexes(ctx); err != nil {
		logger.Error("index creation failed", "error", err)
		os.Exit(1)
	}

	mailer, err := smtp.NewMailer(cfg, logger)
	if err != nil {
		logger.Error("mailer setup failed", "error", err)
		os.Exit(1)
	}

	n := notifier.New(records, subs, ledger, mailer,
		cfg.AlertWindow, cfg.AlertInterval, clock, logger, metrics)

	sent, err := n.RunCycle(ctx)
	if err != nil {
		logger.Error("alert cycle failed", "error", err)
		os.Exit(1)
	}
	logger.Info("alert cycle complete", "sent", sent)
}
