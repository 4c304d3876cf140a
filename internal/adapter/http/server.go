package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"

	"github.com/couchcryptid/disaster-monitor/internal/adapter/mongodb"
	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RecordLoader serves the cleaned record table.
type RecordLoader interface {
	LoadData(ctx context.Context) ([]domain.ArticleRecord, error)
}

// SubscriptionStore reads and replaces subscriptions by email.
type SubscriptionStore interface {
	Get(ctx context.Context, email string) (domain.Subscription, error)
	Put(ctx context.Context, email string, events, locations []string) error
}

// ConfirmationSender emails a subscriber after their preferences change.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, recipient string) error
}

// Server exposes health, readiness, metrics, record, and subscription
// HTTP endpoints.
type Server struct {
	httpServer *http.Server
	loader     RecordLoader
	subs       SubscriptionStore
	confirmer  ConfirmationSender
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes. confirmer may
// be nil, in which case subscription updates skip the confirmation email.
func NewServer(
	addr string,
	ready ReadinessChecker,
	loader RecordLoader,
	subs SubscriptionStore,
	confirmer ConfirmationSender,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		loader:    loader,
		subs:      subs,
		confirmer: confirmer,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/subscriptions/{email}", s.handleGetSubscription)
	mux.HandleFunc("PUT /api/subscriptions/{email}", s.handlePutSubscription)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleRecords serves the cleaned record table, optionally narrowed by
// event, location, from, and to query parameters. Filters apply to the
// cached snapshot so repeated dashboard queries stay off the database.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.loader.LoadData(r.Context())
	if err != nil {
		s.logger.Error("record load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "record load failed"})
		return
	}

	q := r.URL.Query()
	events := q["event"]
	locations := q["location"]

	from, ok := parseTimeParam(w, q.Get("from"), "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, q.Get("to"), "to")
	if !ok {
		return
	}

	filtered := lo.Filter(records, func(rec domain.ArticleRecord, _ int) bool {
		if len(events) > 0 && !lo.Contains(events, rec.DisasterEvent) {
			return false
		}
		if len(locations) > 0 && !lo.Contains(locations, rec.Location) {
			return false
		}
		if !from.IsZero() && rec.Timestamp.Before(from) {
			return false
		}
		if !to.IsZero() && rec.Timestamp.After(to) {
			return false
		}
		return true
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(filtered),
		"records": filtered,
	})
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	sub, err := s.subs.Get(r.Context(), email)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no subscription for " + email})
			return
		}
		s.logger.Error("subscription lookup failed", "email", email, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "subscription lookup failed"})
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

type subscriptionRequest struct {
	Events    []string `json:"events"`
	Locations []string `json:"locations"`
}

// handlePutSubscription replaces the full preference set for an email. An
// omitted list clears that dimension, which stops the subscriber's alerts
// until both lists are non-empty again.
func (s *Server) handlePutSubscription(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PathValue("email"))
	if _, err := mail.ParseAddress(email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Normalize events to the stored form so matching against record
	// DisasterEvent values is exact.
	events := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		keyword := strings.ToLower(event)
		if !lo.Contains(domain.Keywords, keyword) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown event: " + event})
			return
		}
		events = append(events, domain.EventName(keyword))
	}

	if err := s.subs.Put(r.Context(), email, events, req.Locations); err != nil {
		s.logger.Error("subscription update failed", "email", email, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "subscription update failed"})
		return
	}

	if s.confirmer != nil {
		if err := s.confirmer.SendConfirmation(r.Context(), email); err != nil {
			// The subscription is already saved; the email is a courtesy.
			s.logger.Warn("confirmation email failed", "email", email, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed", "email": email})
}

func parseTimeParam(w http.ResponseWriter, raw, name string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name + " timestamp, want RFC3339"})
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
