// Package query exposes the canonical read path: raw records from the
// store, cleaned by the domain rules, cached with a fixed time-to-live.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

// RecordSource reads every raw record from the store.
type RecordSource interface {
	All(ctx context.Context) ([]domain.ArticleRecord, error)
}

// Loader serves the cleaned, deduplicated, coordinate-complete table that
// every consumer uses. The whole table is cached with an explicit expiry
// timestamp; on expiry it is recomputed from the store on the next read.
type Loader struct {
	source RecordSource
	ttl    time.Duration
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	cached  []domain.ArticleRecord
	expires time.Time
}

// NewLoader creates a Loader caching cleaned reads for ttl.
func NewLoader(source RecordSource, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger) *Loader {
	return &Loader{
		source: source,
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
}

// LoadData returns the cleaned table, reading through to the store only
// when the cached copy has expired.
func (l *Loader) LoadData(ctx context.Context) ([]domain.ArticleRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if l.cached != nil && now.Before(l.expires) {
		return l.cached, nil
	}

	raw, err := l.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	cleaned := domain.Clean(raw)
	l.cached = cleaned
	l.expires = now.Add(l.ttl)
	l.logger.Debug("query cache refreshed", "raw", len(raw), "cleaned", len(cleaned))
	return cleaned, nil
}

// Invalidate drops the cached table so the next read recomputes it.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.expires = time.Time{}
}
