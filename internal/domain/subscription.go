package domain

import (
	"time"

	"github.com/samber/lo"
)

// Subscription is a user's standing interest filter over event types and
// locations. Email is the persistence key; saves are full replacements of
// both sets, never incremental merges.
type Subscription struct {
	Email             string    `bson:"email" json:"email"`
	SelectedEvents    []string  `bson:"selected_events" json:"selected_events"`
	SelectedLocations []string  `bson:"selected_locations" json:"selected_locations"`
	SubscribedAt      time.Time `bson:"subscribed_at" json:"subscribed_at"`
}

// Matches reports whether the record satisfies this subscription. The match
// is a strict conjunction: the record's event must be among the selected
// events AND its location among the selected locations. A subscription with
// either set empty therefore matches nothing.
func (s Subscription) Matches(r ArticleRecord) bool {
	return lo.Contains(s.SelectedEvents, r.DisasterEvent) && lo.Contains(s.SelectedLocations, r.Location)
}

// Delivery is a ledger row recording that an alert for the record at URL
// was sent to Email. The ledger carries a unique (url, email) index so each
// subscriber is alerted at most once per record, regardless of how alert
// windows overlap across cycles.
type Delivery struct {
	URL    string    `bson:"url" json:"url"`
	Email  string    `bson:"email" json:"email"`
	SentAt time.Time `bson:"sent_at" json:"sent_at"`
}
