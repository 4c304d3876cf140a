// Package pipeline orchestrates one ingestion cycle:
// fetch → screen → extract locations → geocode → store → publish feed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
	"github.com/couchcryptid/disaster-monitor/internal/extract"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
)

// Fetcher aggregates article hits across the keyword vocabulary. Keyword
// failures are isolated inside the fetcher; the error is non-nil only when
// the context ends the run.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.Candidate, error)
}

// LocationExtractor picks a single location for a candidate, reporting
// ok=false when the title names no place.
type LocationExtractor interface {
	Locate(c domain.Candidate) (location string, ok bool, err error)
}

// RecordStore persists records by URL.
type RecordStore interface {
	Upsert(ctx context.Context, record domain.ArticleRecord) error
}

// FeedPublisher pushes newly stored records to downstream consumers.
type FeedPublisher interface {
	PublishBatch(ctx context.Context, records []domain.ArticleRecord) error
}

// Pipeline runs the sequential ingestion cycle. A nil feed disables
// publishing.
type Pipeline struct {
	fetcher   Fetcher
	extractor LocationExtractor
	geocoder  domain.Geocoder
	store     RecordStore
	feed      FeedPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	ready     atomic.Bool
}

// New creates a Pipeline. interval is the spacing between cycles when
// running under Start.
func New(
	fetcher Fetcher,
	extractor LocationExtractor,
	geocoder domain.Geocoder,
	store RecordStore,
	feed FeedPublisher,
	logger *slog.Logger,
	metrics *observability.Metrics,
	interval time.Duration,
) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		geocoder:  geocoder,
		store:     store,
		feed:      feed,
		logger:    logger,
		metrics:   metrics,
		interval:  interval,
	}
}

// CheckReadiness returns nil once at least one ingestion cycle has
// completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no ingestion cycle has completed yet")
	}
	return nil
}

// Start runs ingestion cycles on a fixed interval until the context is
// cancelled. The first cycle runs immediately. Cycle errors are logged and
// do not stop the loop; upserts are idempotent, so the next cycle safely
// re-covers the same articles.
func (p *Pipeline) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("ingestion cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle executes one complete ingestion cycle and returns the number of
// records stored. Persistence failures abort the cycle; everything else is
// isolated to the record or keyword it concerns.
func (p *Pipeline) RunCycle(ctx context.Context) (int, error) {
	start := time.Now()
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	candidates, err := p.fetcher.FetchAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch articles: %w", err)
	}
	if len(candidates) == 0 {
		p.logger.Info("no articles fetched, ending cycle")
		return 0, nil
	}

	screened, incomplete, duplicates := extract.Screen(candidates)
	p.metrics.CandidatesDropped.WithLabelValues("incomplete").Add(float64(incomplete))
	p.metrics.CandidatesDropped.WithLabelValues("duplicate_title").Add(float64(duplicates))

	located := p.locate(screened)
	if len(located) == 0 {
		p.logger.Info("no candidates with a recognizable place, ending cycle")
		return 0, nil
	}

	coords, err := p.resolveLocations(ctx, located)
	if err != nil {
		return 0, err
	}

	stored := make([]domain.ArticleRecord, 0, len(located))
	for _, lc := range located {
		result := coords[lc.location]
		if !result.Found {
			p.metrics.CandidatesDropped.WithLabelValues("unresolved").Inc()
			continue
		}

		record := domain.NewArticleRecord(lc.candidate, lc.location, result.Lat, result.Lon)
		if err := p.store.Upsert(ctx, record); err != nil {
			return len(stored), fmt.Errorf("store record: %w", err)
		}
		p.metrics.RecordsStored.Inc()
		stored = append(stored, record)
	}

	p.publishFeed(ctx, stored)

	p.metrics.IngestCycleDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("ingestion cycle complete",
		"fetched", len(candidates),
		"screened", len(screened),
		"located", len(located),
		"stored", len(stored),
		"duration", time.Since(start),
	)
	return len(stored), nil
}

// locatedCandidate pairs a screened candidate with its extracted location.
type locatedCandidate struct {
	candidate domain.Candidate
	location  string
}

// locate extracts one location per candidate, dropping articles with no
// recognizable place. Extraction errors drop only the affected record.
func (p *Pipeline) locate(candidates []domain.Candidate) []locatedCandidate {
	located := make([]locatedCandidate, 0, len(candidates))
	for _, c := range candidates {
		location, ok, err := p.extractor.Locate(c)
		if err != nil {
			p.logger.Warn("location extraction failed, dropping record",
				"title", c.Title,
				"error", err,
			)
			p.metrics.CandidatesDropped.WithLabelValues("no_location").Inc()
			continue
		}
		if !ok {
			p.metrics.CandidatesDropped.WithLabelValues("no_location").Inc()
			continue
		}
		located = append(located, locatedCandidate{candidate: c, location: location})
	}
	return located
}

// resolveLocations geocodes each distinct location name once and returns
// the name → result map. One name's failure is recorded as unresolved and
// never affects the others; only context cancellation aborts the batch.
func (p *Pipeline) resolveLocations(ctx context.Context, located []locatedCandidate) (map[string]domain.GeocodeResult, error) {
	coords := make(map[string]domain.GeocodeResult)
	for _, lc := range located {
		if _, done := coords[lc.location]; done {
			continue
		}

		result, err := p.geocoder.Geocode(ctx, lc.location)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("geocoding failed, marking unresolved",
				"location", lc.location,
				"error", err,
			)
			result = domain.GeocodeResult{}
		}
		coords[lc.location] = result
	}
	return coords, nil
}

// publishFeed best-effort publishes the cycle's stored records. A feed
// failure never fails the cycle.
func (p *Pipeline) publishFeed(ctx context.Context, records []domain.ArticleRecord) {
	if p.feed == nil || len(records) == 0 {
		return
	}
	if err := p.feed.PublishBatch(ctx, records); err != nil {
		p.logger.Error("feed publish failed", "error", err, "records", len(records))
		p.metrics.FeedErrors.Inc()
		return
	}
	p.metrics.FeedPublished.Add(float64(len(records)))
}
