package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestEventName(t *testing.T) {
	assert.Equal(t, "Wildfire", EventName("wildfire"))
	assert.Equal(t, "Earthquake", EventName("earthquake"))
	assert.Equal(t, "", EventName(""))
}

func TestEventNameCoversAllKeywords(t *testing.T) {
	for _, kw := range Keywords {
		name := EventName(kw)
		assert.NotEmpty(t, name)
		assert.NotEqual(t, kw, name, "event name should differ from keyword %q", kw)
	}
}

func TestCandidateComplete(t *testing.T) {
	full := Candidate{
		Title:     "Flood hits coastal town",
		URL:       "http://example.com/a",
		Timestamp: time.Now(),
	}
	assert.True(t, full.Complete())

	assert.False(t, Candidate{URL: "http://x", Timestamp: time.Now()}.Complete())
	assert.False(t, Candidate{Title: "t", Timestamp: time.Now()}.Complete())
	assert.False(t, Candidate{Title: "t", URL: "http://x"}.Complete())
}

func TestHasCoordinates(t *testing.T) {
	assert.True(t, ArticleRecord{Latitude: 35.6, Longitude: 139.7}.HasCoordinates())
	assert.True(t, ArticleRecord{Latitude: 51.5}.HasCoordinates())
	assert.False(t, ArticleRecord{}.HasCoordinates())
}

func TestNewArticleRecordStampsIngestionTime(t *testing.T) {
	at := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })

	c := Candidate{
		Title:         "Volcano erupts near Catania",
		Source:        "example",
		URL:           "http://example.com/volcano",
		Timestamp:     at.Add(-time.Hour),
		DisasterEvent: "Volcano",
	}

	r := NewArticleRecord(c, "Catania", 37.5, 15.1)

	assert.Equal(t, c.Title, r.Title)
	assert.Equal(t, c.URL, r.URL)
	assert.Equal(t, "Volcano", r.DisasterEvent)
	assert.Equal(t, "Catania", r.Location)
	assert.Equal(t, 37.5, r.Latitude)
	assert.Equal(t, 15.1, r.Longitude)
	assert.Equal(t, at, r.IngestedAt)
}
