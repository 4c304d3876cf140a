package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

// DeliveryLedger records which (record, subscriber) pairs have already been
// alerted. The unique (url, email) index makes MarkDelivered idempotent and
// lets the notifier guarantee at most one alert per pair even when polling
// windows overlap across cycles.
type DeliveryLedger struct {
	coll   *mongo.Collection
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewDeliveryLedger wraps the named collection.
func NewDeliveryLedger(db *mongo.Database, collection string, clock clockwork.Clock, logger *slog.Logger) *DeliveryLedger {
	return &DeliveryLedger{coll: db.Collection(collection), clock: clock, logger: logger}
}

// EnsureIndexes creates the unique (url, email) index.
func (l *DeliveryLedger) EnsureIndexes(ctx context.Context) error {
	_, err := l.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create ledger indexes: %w", err)
	}
	return nil
}

// Delivered reports whether an alert for the record at url was already sent
// to email.
func (l *DeliveryLedger) Delivered(ctx context.Context, url, email string) (bool, error) {
	err := l.coll.FindOne(ctx, bson.M{"url": url, "email": email}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check delivery %s/%s: %w", url, email, err)
	}
	return true, nil
}

// MarkDelivered records a sent alert. A duplicate insert (another cycle won
// the race) is not an error.
func (l *DeliveryLedger) MarkDelivered(ctx context.Context, url, email string) error {
	_, err := l.coll.InsertOne(ctx, domain.Delivery{
		URL:    url,
		Email:  email,
		SentAt: l.clock.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("record delivery %s/%s: %w", url, email, err)
	}
	return nil
}
