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

// ErrNotFound is returned by Get when no subscription exists for the email.
var ErrNotFound = errors.New("subscription not found")

// SubscriptionStore is the subscription collection, keyed by email.
type SubscriptionStore struct {
	coll   *mongo.Collection
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewSubscriptionStore wraps the named collection. The clock stamps
// subscribed_at on writes.
func NewSubscriptionStore(db *mongo.Database, collection string, clock clockwork.Clock, logger *slog.Logger) *SubscriptionStore {
	return &SubscriptionStore{coll: db.Collection(collection), clock: clock, logger: logger}
}

// EnsureIndexes creates the unique email index.
func (s *SubscriptionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create subscription indexes: %w", err)
	}
	return nil
}

// Get returns the subscription for email, or ErrNotFound.
func (s *SubscriptionStore) Get(ctx context.Context, email string) (domain.Subscription, error) {
	var sub domain.Subscription
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Subscription{}, ErrNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("get subscription %s: %w", email, err)
	}
	return sub, nil
}

// Put fully overwrites the stored interest sets for email and refreshes
// subscribed_at. Selections absent from this call are dropped; there is no
// merge.
func (s *SubscriptionStore) Put(ctx context.Context, email string, events, locations []string) error {
	if events == nil {
		events = []string{}
	}
	if locations == nil {
		locations = []string{}
	}
	sub := domain.Subscription{
		Email:             email,
		SelectedEvents:    events,
		SelectedLocations: locations,
		SubscribedAt:      s.clock.Now().UTC(),
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": sub},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save subscription %s: %w", email, err)
	}
	return nil
}

// All returns every subscription, read by the notifier each alert cycle.
func (s *SubscriptionStore) All(ctx context.Context) ([]domain.Subscription, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	var subs []domain.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}
	return subs, nil
}
