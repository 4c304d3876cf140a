package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Exclusion lists applied by Clean. Locations are non-specific or agency
// names that NER tags as places; the URL and title keywords mark off-topic
// sections and low-signal headlines.
var (
	excludedLocations  = []string{"world", "global", "international", "reuters", "associated press"}
	excludedURLWords   = []string{"politics", "yahoo", "sports", "entertainment"}
	excludedTitleWords = []string{"tool", "angry", "market"}
)

// Clean applies the read-time filtering and deduplication rules that turn
// raw stored records into the canonical table all consumers use. It never
// mutates the store; the same rules run on every read.
//
// In order: rows with a zero timestamp or missing coordinates are dropped,
// rows with an excluded location (case-insensitive) are dropped, rows whose
// URL or title contains an excluded keyword are dropped, then rows are
// deduplicated by title and finally by (date, event, location) so repeated
// headlines about the same event, day, and place count once.
func Clean(records []ArticleRecord) []ArticleRecord {
	kept := lo.Filter(records, func(r ArticleRecord, _ int) bool {
		return !r.Timestamp.IsZero() &&
			r.HasCoordinates() &&
			!lo.Contains(excludedLocations, strings.ToLower(r.Location)) &&
			!containsAny(strings.ToLower(r.URL), excludedURLWords) &&
			!containsAny(strings.ToLower(r.Title), excludedTitleWords)
	})

	kept = lo.UniqBy(kept, func(r ArticleRecord) string { return r.Title })

	return lo.UniqBy(kept, func(r ArticleRecord) string {
		return fmt.Sprintf("%s|%s|%s", r.Timestamp.UTC().Format("2006-01-02"), r.DisasterEvent, r.Location)
	})
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
