// Package notifier scans recent records against the subscription set and
// delivers alert emails, at most once per (record, subscriber) pair.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
)

// RecordSource returns raw records published at or after since.
type RecordSource interface {
	Recent(ctx context.Context, since time.Time) ([]domain.ArticleRecord, error)
}

// SubscriptionSource returns every subscription.
type SubscriptionSource interface {
	All(ctx context.Context) ([]domain.Subscription, error)
}

// DeliveryLedger tracks which (record, subscriber) pairs were alerted.
type DeliveryLedger interface {
	Delivered(ctx context.Context, url, email string) (bool, error)
	MarkDelivered(ctx context.Context, url, email string) error
}

// AlertSender delivers one alert to one recipient.
type AlertSender interface {
	SendAlert(ctx context.Context, recipient string, record domain.ArticleRecord) error
}

// Notifier runs the alert cycle. The lookback window bounds how many
// records each cycle considers; the ledger, not the window, provides the
// once-per-pair guarantee. A crash between a send and its ledger write can
// re-deliver that one alert on the next cycle; that is the accepted bound.
type Notifier struct {
	records  RecordSource
	subs     SubscriptionSource
	ledger   DeliveryLedger
	sender   AlertSender
	window   time.Duration
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Notifier.
func New(
	records RecordSource,
	subs SubscriptionSource,
	ledger DeliveryLedger,
	sender AlertSender,
	window time.Duration,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Notifier {
	return &Notifier{
		records:  records,
		subs:     subs,
		ledger:   ledger,
		sender:   sender,
		window:   window,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start runs alert cycles on a fixed interval until the context is
// cancelled. The first cycle runs immediately. Cycle errors are logged and
// do not stop the loop.
func (n *Notifier) Start(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		if _, err := n.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			n.logger.Error("alert cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle executes one alert cycle and returns the number of alerts sent.
// Store errors abort the cycle; a send failure is logged and scoped to that
// one recipient.
func (n *Notifier) RunCycle(ctx context.Context) (int, error) {
	since := n.clock.Now().Add(-n.window)

	recent, err := n.records.Recent(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("fetch recent records: %w", err)
	}
	if len(recent) == 0 {
		n.logger.Debug("no recent records, ending alert cycle")
		return 0, nil
	}

	subs, err := n.subs.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch subscriptions: %w", err)
	}
	if len(subs) == 0 {
		n.logger.Debug("no subscriptions, ending alert cycle")
		return 0, nil
	}

	sent := 0
	for _, record := range recent {
		for _, sub := range subs {
			if !sub.Matches(record) {
				continue
			}
			n.metrics.AlertsMatched.Inc()

			if n.deliver(ctx, record, sub.Email) {
				sent++
			}
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
		}
	}

	n.logger.Info("alert cycle complete", "recent", len(recent), "subscribers", len(subs), "sent", sent)
	return sent, nil
}

// deliver sends one matched alert unless the ledger says the pair was
// already alerted. Returns true when a message went out.
func (n *Notifier) deliver(ctx context.Context, record domain.ArticleRecord, email string) bool {
	done, err := n.ledger.Delivered(ctx, record.URL, email)
	if err != nil {
		n.logger.Warn("ledger check failed, skipping to avoid duplicate alert",
			"url", record.URL, "email", email, "error", err)
		return false
	}
	if done {
		n.metrics.AlertsSuppressed.Inc()
		return false
	}

	if err := n.sender.SendAlert(ctx, email, record); err != nil {
		n.logger.Warn("alert delivery failed",
			"url", record.URL, "email", email, "error", err)
		n.metrics.DeliveryErrors.Inc()
		return false
	}
	n.metrics.AlertsSent.Inc()

	if err := n.ledger.MarkDelivered(ctx, record.URL, email); err != nil {
		// The alert went out; a failed ledger write means only that the
		// next cycle may send it again.
		n.logger.Warn("ledger write failed after send",
			"url", record.URL, "email", email, "error", err)
	}
	return true
}
