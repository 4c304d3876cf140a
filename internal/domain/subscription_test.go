package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesRequiresEventAndLocation(t *testing.T) {
	sub := Subscription{
		Email:             "user@example.com",
		SelectedEvents:    []string{"Flood", "Earthquake"},
		SelectedLocations: []string{"Miami", "Tokyo"},
	}

	assert.True(t, sub.Matches(ArticleRecord{DisasterEvent: "Flood", Location: "Miami"}))
	assert.True(t, sub.Matches(ArticleRecord{DisasterEvent: "Earthquake", Location: "Tokyo"}))

	// Matching one dimension is not enough.
	assert.False(t, sub.Matches(ArticleRecord{DisasterEvent: "Flood", Location: "Houston"}))
	assert.False(t, sub.Matches(ArticleRecord{DisasterEvent: "Tornado", Location: "Miami"}))
}

func TestMatchesEmptySelections(t *testing.T) {
	noEvents := Subscription{SelectedLocations: []string{"Miami"}}
	assert.False(t, noEvents.Matches(ArticleRecord{DisasterEvent: "Flood", Location: "Miami"}))

	noLocations := Subscription{SelectedEvents: []string{"Flood"}}
	assert.False(t, noLocations.Matches(ArticleRecord{DisasterEvent: "Flood", Location: "Miami"}))
}

func TestMatchesIsCaseSensitive(t *testing.T) {
	sub := Subscription{
		SelectedEvents:    []string{"Flood"},
		SelectedLocations: []string{"Miami"},
	}
	assert.False(t, sub.Matches(ArticleRecord{DisasterEvent: "flood", Location: "Miami"}))
}
