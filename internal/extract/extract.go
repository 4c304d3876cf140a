// Package extract screens candidate articles and extracts their location
// via named-entity recognition over the title.
package extract

import (
	"fmt"
	"log/slog"

	prose "github.com/jdkato/prose/v2"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

// Extractor runs NER over article titles and keeps geopolitical-place
// entities.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Screen drops candidates missing a title, URL, or timestamp and
// deduplicates the batch by title, first seen wins. Returned counts report
// how many were dropped for each reason.
func Screen(candidates []domain.Candidate) (kept []domain.Candidate, incomplete, duplicates int) {
	seen := make(map[string]struct{}, len(candidates))
	kept = make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Complete() {
			incomplete++
			continue
		}
		if _, ok := seen[c.Title]; ok {
			duplicates++
			continue
		}
		seen[c.Title] = struct{}{}
		kept = append(kept, c)
	}
	return kept, incomplete, duplicates
}

// Locations returns the place entities recognized in the title, in
// recognition order. An empty slice means the article cannot be mapped.
func (e *Extractor) Locations(title string) ([]string, error) {
	doc, err := prose.NewDocument(title, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("analyze title: %w", err)
	}

	var places []string
	for _, ent := range doc.Entities() {
		if ent.Label == "GPE" {
			places = append(places, ent.Text)
		}
	}
	return places, nil
}

// Locate picks the candidate's location: the first recognized place entity,
// with no further disambiguation. ok is false when the title names no
// place.
func (e *Extractor) Locate(c domain.Candidate) (location string, ok bool, err error) {
	places, err := e.Locations(c.Title)
	if err != nil {
		return "", false, err
	}
	if len(places) == 0 {
		return "", false, nil
	}
	return places[0], true, nil
}
