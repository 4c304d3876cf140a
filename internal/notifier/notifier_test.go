package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
)

type mockRecords struct {
	records   []domain.ArticleRecord
	err       error
	lastSince time.Time
}

func (m *mockRecords) Recent(_ context.Context, since time.Time) ([]domain.ArticleRecord, error) {
	m.lastSince = since
	return m.records, m.err
}

type mockSubs struct {
	subs []domain.Subscription
	err  error
}

func (m *mockSubs) All(_ context.Context) ([]domain.Subscription, error) {
	return m.subs, m.err
}

type mockLedger struct {
	delivered map[string]bool
	checkErr  error
	markErr   error
}

func newMockLedger() *mockLedger {
	return &mockLedger{delivered: make(map[string]bool)}
}

func (m *mockLedger) key(url, email string) string { return url + "|" + email }

func (m *mockLedger) Delivered(_ context.Context, url, email string) (bool, error) {
	if m.checkErr != nil {
		return false, m.checkErr
	}
	return m.delivered[m.key(url, email)], nil
}

func (m *mockLedger) MarkDelivered(_ context.Context, url, email string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.delivered[m.key(url, email)] = true
	return nil
}

type mockSender struct {
	sent    []string
	failFor string
}

func (m *mockSender) SendAlert(_ context.Context, recipient string, record domain.ArticleRecord) error {
	if recipient == m.failFor {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, fmt.Sprintf("%s->%s", record.URL, recipient))
	return nil
}

func record(url, event, location string) domain.ArticleRecord {
	return domain.ArticleRecord{
		Title:         "title for " + url,
		URL:           url,
		Timestamp:     time.Now().UTC(),
		DisasterEvent: event,
		Location:      location,
		Latitude:      1,
		Longitude:     2,
	}
}

func subscription(email string, events, locations []string) domain.Subscription {
	return domain.Subscription{Email: email, SelectedEvents: events, SelectedLocations: locations}
}

func newTestNotifier(records RecordSource, subs SubscriptionSource, ledger DeliveryLedger, sender AlertSender) *Notifier {
	return New(
		records, subs, ledger, sender,
		30*time.Minute, time.Minute,
		clockwork.NewFakeClock(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)
}

func TestRunCycle_SendsMatchedAlerts(t *testing.T) {
	records := &mockRecords{records: []domain.ArticleRecord{
		record("http://a", "Flood", "Miami"),
		record("http://b", "Wildfire", "Athens"),
	}}
	subs := &mockSubs{subs: []domain.Subscription{
		subscription("flood@example.com", []string{"Flood"}, []string{"Miami"}),
		subscription("fire@example.com", []string{"Wildfire"}, []string{"Athens"}),
	}}
	ledger := newMockLedger()
	sender := &mockSender{}

	n := newTestNotifier(records, subs, ledger, sender)
	sent, err := n.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{"http://a->flood@example.com", "http://b->fire@example.com"}, sender.sent)
	assert.True(t, ledger.delivered["http://a|flood@example.com"])
	assert.True(t, ledger.delivered["http://b|fire@example.com"])
}

func TestRunCycle_ConjunctionRequiresBothFields(t *testing.T) {
	records := &mockRecords{records: []domain.ArticleRecord{
		record("http://a", "Flood", "Miami"),
	}}
	subs := &mockSubs{subs: []domain.Subscription{
		subscription("houston@example.com", []string{"Flood"}, []string{"Houston"}),
		subscription("quake@example.com", []string{"Earthquake"}, []string{"Miami"}),
	}}
	sender := &mockSender{}

	n := newTestNotifier(records, subs, newMockLedger(), sender)
	sent, err := n.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sender.sent)
}

func TestRunCycle_LedgerSuppressesRepeatDelivery(t *testing.T) {
	records := &mockRecords{records: []domain.ArticleRecord{
		record("http://a", "Flood", "Miami"),
	}}
	subs := &mockSubs{subs: []domain.Subscription{
		subscription("flood@example.com", []string{"Flood"}, []string{"Miami"}),
	}}
	ledger := newMockLedger()
	sender := &mockSender{}

	n := newTestNotifier(records, subs, ledger, sender)

	sent, err := n.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = n.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, sender.sent, 1)
}

func TestRunCycle_SendFailureScopedToRecipient(t *testing.T) {
	records := &mockRecords{records: []domain.ArticleRecord{
		record("http://a", "Flood", "Miami"),
	}}
	subs := &mockSubs{subs: []domain.Subscription{
		subscription("broken@example.com", []string{"Flood"}, []string{"Miami"}),
		subscription("ok@example.com", []string{"Flood"}, []string{"Miami"}),
	}}
	ledger := newMockLedger()
	sender := &mockSender{failFor: "broken@example.com"}

	n := newTestNotifier(records, subs, ledger, sender)
	sent, err := n.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"http://a->ok@example.com"}, sender.sent)
	assert.False(t, ledger.delivered["http://a|broken@example.com"])
}

func TestRunCycle_LedgerCheckErrorSkipsSend(t *testing.T) {
	records := &mockRecords{records: []domain.ArticleRecord{
		record("http://a", "Flood", "Miami"),
	}}
	subs := &mockSubs{subs: []domain.Subscription{
		subscription("flood@example.com", []string{"Flood"}, []string{"Miami"}),
	}}
	ledger := newMockLedger()
	ledger.checkErr = errors.New("mongo down")
	sender := &mockSender{}

	n := newTestNotifier(records, subs, ledger, sender)
	sent, err := n.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sender.sent)
}

func TestRunCycle_RecordStoreErrorAborts(t *testing.T) {
	records := &mockRecords{err: errors.New("cursor failed")}
	subs := &mockSubs{}

	n := newTestNotifier(records, subs, newMockLedger(), &mockSender{})
	_, err := n.RunCycle(context.Background())

	require.ErrorContains(t, err, "fetch recent records")
}

func TestRunCycle_UsesLookbackWindow(t *testing.T) {
	records := &mockRecords{}
	subs := &mockSubs{}
	clock := clockwork.NewFakeClock()

	n := New(
		records, subs, newMockLedger(), &mockSender{},
		30*time.Minute, time.Minute,
		clock,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)

	_, err := n.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(-30*time.Minute), records.lastSince)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	records := &mockRecords{}
	subs := &mockSubs{}

	n := newTestNotifier(records, subs, newMockLedger(), &mockSender{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- n.Start(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
