package extract

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

func testExtractor() *Extractor {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func candidate(title, url string) domain.Candidate {
	return domain.Candidate{
		Title:         title,
		URL:           url,
		Timestamp:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		DisasterEvent: "Flood",
	}
}

func TestScreen_DropsIncomplete(t *testing.T) {
	batch := []domain.Candidate{
		candidate("Flood hits Jakarta", "https://example.com/1"),
		{Title: "", URL: "https://example.com/2", Timestamp: time.Now()},
		{Title: "No URL", Timestamp: time.Now()},
		{Title: "No timestamp", URL: "https://example.com/3"},
	}

	kept, incomplete, duplicates := Screen(batch)
	assert.Len(t, kept, 1)
	assert.Equal(t, 3, incomplete)
	assert.Zero(t, duplicates)
}

func TestScreen_DeduplicatesByTitleFirstSeenWins(t *testing.T) {
	batch := []domain.Candidate{
		candidate("Flood hits Jakarta", "https://example.com/first"),
		candidate("Flood hits Jakarta", "https://example.com/second"),
	}

	kept, _, duplicates := Screen(batch)
	require.Len(t, kept, 1)
	assert.Equal(t, "https://example.com/first", kept[0].URL)
	assert.Equal(t, 1, duplicates)
}

func TestLocations_RecognizesPlace(t *testing.T) {
	e := testExtractor()

	places, err := e.Locations("Massive earthquake strikes Japan near Tokyo")
	require.NoError(t, err)
	require.NotEmpty(t, places)
	assert.Equal(t, "Japan", places[0])
}

func TestLocate_FirstPlaceWins(t *testing.T) {
	e := testExtractor()

	loc, ok, err := e.Locate(candidate("Hurricane moves from Florida toward Georgia", "https://example.com/1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Florida", loc)
}

func TestLocate_NoPlace(t *testing.T) {
	e := testExtractor()

	_, ok, err := e.Locate(candidate("Ten safety tips during a severe thunderstorm", "https://example.com/1"))
	require.NoError(t, err)
	assert.False(t, ok)
}
