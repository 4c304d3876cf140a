// Package mongodb persists article records, subscriptions, and the alert
// delivery ledger in three named collections. Every write is an upsert
// keyed by a unique field (url for records, email for subscriptions), so
// concurrent or repeated runs are duplicate-safe without explicit locking.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

// Connect opens a client for the configured URI and verifies the connection
// with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return client, nil
}

// RecordStore is the article record collection, keyed by URL.
type RecordStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewRecordStore wraps the named collection.
func NewRecordStore(db *mongo.Database, collection string, logger *slog.Logger) *RecordStore {
	return &RecordStore{coll: db.Collection(collection), logger: logger}
}

// EnsureIndexes creates the unique URL index backing upsert idempotence.
func (s *RecordStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create record indexes: %w", err)
	}
	return nil
}

// Upsert inserts the record or fully replaces the existing document with
// the same URL. Re-running the pipeline over the same articles therefore
// refreshes fields without ever duplicating a row.
func (s *RecordStore) Upsert(ctx context.Context, record domain.ArticleRecord) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"url": record.URL},
		bson.M{"$set": record},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", record.URL, err)
	}
	return nil
}

// QueryFilter narrows a record query. Zero values mean "no constraint".
type QueryFilter struct {
	From      time.Time
	To        time.Time
	Events    []string
	Locations []string
}

// Query returns raw records matching the filter, unsorted and uncleaned.
// Consumers other than the notifier go through the cleaning layer instead
// of calling this directly.
func (s *RecordStore) Query(ctx context.Context, f QueryFilter) ([]domain.ArticleRecord, error) {
	filter := bson.M{}
	ts := bson.M{}
	if !f.From.IsZero() {
		ts["$gte"] = f.From
	}
	if !f.To.IsZero() {
		ts["$lte"] = f.To
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}
	if len(f.Events) > 0 {
		filter["disaster_event"] = bson.M{"$in": f.Events}
	}
	if len(f.Locations) > 0 {
		filter["location"] = bson.M{"$in": f.Locations}
	}

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	var records []domain.ArticleRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// All returns every raw record. The cleaning layer applies the read-time
// rules on top.
func (s *RecordStore) All(ctx context.Context) ([]domain.ArticleRecord, error) {
	return s.Query(ctx, QueryFilter{})
}

// Recent returns raw records published at or after since. The notifier uses
// this window scan only to bound volume; the delivery ledger provides the
// at-most-once guarantee.
func (s *RecordStore) Recent(ctx context.Context, since time.Time) ([]domain.ArticleRecord, error) {
	return s.Query(ctx, QueryFilter{From: since})
}
