package domain

import (
	"strings"
	"time"
)

// Keywords is the fixed disaster vocabulary queried against the article
// search API. One search request is issued per keyword; the stored event
// label is derived via EventName.
var Keywords = []string{
	"earthquake", "flood", "tsunami", "hurricane", "wildfire",
	"forestfire", "tornado", "cyclone", "volcano", "drought",
	"landslide", "storm", "blizzard", "avalanche", "heatwave",
}

// EventName converts a search keyword to its stored event label,
// e.g. "wildfire" -> "Wildfire".
func EventName(keyword string) string {
	if keyword == "" {
		return ""
	}
	return strings.ToUpper(keyword[:1]) + keyword[1:]
}

// Candidate is an article hit as returned by the search API, before
// location extraction and geocoding.
type Candidate struct {
	Title         string
	Source        string
	URL           string
	Timestamp     time.Time
	DisasterEvent string
}

// Complete reports whether the candidate carries the fields required to
// become a stored record. Incomplete candidates are dropped before
// extraction.
func (c Candidate) Complete() bool {
	return c.Title != "" && c.URL != "" && !c.Timestamp.IsZero()
}

// ArticleRecord is a single geocoded disaster-related article, the unit of
// storage. URL is the persistence key: writes are replace-by-URL upserts,
// so reprocessing the same article never duplicates a row.
type ArticleRecord struct {
	Title         string    `bson:"title" json:"title"`
	Source        string    `bson:"source,omitempty" json:"source,omitempty"`
	URL           string    `bson:"url" json:"url"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
	DisasterEvent string    `bson:"disaster_event" json:"disaster_event"`
	Location      string    `bson:"location" json:"location"`
	Latitude      float64   `bson:"latitude" json:"latitude"`
	Longitude     float64   `bson:"longitude" json:"longitude"`
	IngestedAt    time.Time `bson:"ingested_at" json:"ingested_at"`
}

// HasCoordinates reports whether the record carries a resolved position.
// Records without coordinates are never stored and are excluded from all
// reads.
func (r ArticleRecord) HasCoordinates() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

// NewArticleRecord builds a storable record from a located candidate and
// resolved coordinates, stamping the ingestion time from the package clock.
func NewArticleRecord(c Candidate, location string, lat, lon float64) ArticleRecord {
	return ArticleRecord{
		Title:         c.Title,
		Source:        c.Source,
		URL:           c.URL,
		Timestamp:     c.Timestamp,
		DisasterEvent: c.DisasterEvent,
		Location:      location,
		Latitude:      lat,
		Longitude:     lon,
		IngestedAt:    clock.Now().UTC(),
	}
}
