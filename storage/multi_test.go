package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"goldrate-scraper/models"
)

type memorySink struct {
	name      string
	failWrite bool
	docs      map[string]models.PriceRecord
	summaries map[string]*models.ScrapeSummary
	closed    bool
}

func newMemorySink(name string) *memorySink {
	return &memorySink{name: name, docs: map[string]models.PriceRecord{}, summaries: map[string]*models.ScrapeSummary{}}
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) UpsertBatch(_ context.Context, records []models.PriceRecord, _ string) error {
	if m.failWrite {
		return errors.New("unavailable")
	}
	for _, r := range records {
		m.docs[r.DocumentKey()] = r
	}
	return nil
}

func (m *memorySink) UpsertSummary(_ context.Context, s *models.ScrapeSummary, _ string) error {
	if m.failWrite {
		return errors.New("unavailable")
	}
	m.summaries[s.RunDate()] = s
	return nil
}

func (m *memorySink) QueryLatest(context.Context, string, int) ([]map[string]any, error) {
	return []map[string]any{{"sink": m.name}}, nil
}

func (m *memorySink) ExistsForDate(_ context.Context, date, _ string) (bool, error) {
	for _, r := range m.docs {
		if r.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestMultiSinkFansOutWrites(t *testing.T) {
	a, b := newMemorySink("a"), newMemorySink("b")
	m := NewMultiSink(a, nil, b)
	require.Equal(t, 2, m.Len())
	require.Equal(t, "a+b", m.Name())

	records := makeRecords(3)
	require.NoError(t, m.UpsertBatch(context.Background(), records, "gold_prices"))
	require.Len(t, a.docs, 3)
	require.Len(t, b.docs, 3)

	// Upserting again is idempotent.
	require.NoError(t, m.UpsertBatch(context.Background(), records, "gold_prices"))
	require.Len(t, a.docs, 3)
}

func TestMultiSinkIsolatesFailures(t *testing.T) {
	bad, good := newMemorySink("bad"), newMemorySink("good")
	bad.failWrite = true
	m := NewMultiSink(bad, good)

	err := m.UpsertBatch(context.Background(), makeRecords(2), "gold_prices")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad")
	require.Len(t, good.docs, 2)
}

func TestMultiSinkReadsFromFirst(t *testing.T) {
	a, b := newMemorySink("a"), newMemorySink("b")
	m := NewMultiSink(a, b)

	rows, err := m.QueryLatest(context.Background(), "gold_prices", 5)
	require.NoError(t, err)
	require.Equal(t, "a", rows[0]["sink"])

	require.NoError(t, m.UpsertBatch(context.Background(), makeRecords(1), "gold_prices"))
	ok, err := m.ExistsForDate(context.Background(), "2020-01-01", "gold_prices")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Close())
	require.True(t, a.closed && b.closed)
}

func TestMultiSinkEmpty(t *testing.T) {
	m := NewMultiSink()
	require.NoError(t, m.UpsertBatch(context.Background(), makeRecords(1), "gold_prices"))

	_, err := m.QueryLatest(context.Background(), "gold_prices", 1)
	require.ErrorIs(t, err, ErrNoSink)
	_, err = m.ExistsForDate(context.Background(), "2020-01-01", "gold_prices")
	require.ErrorIs(t, err, ErrNoSink)
}

var (
	_ Sink = (*MultiSink)(nil)
	_ Sink = (*FirestoreStore)(nil)
	_ Sink = (*PostgresStore)(nil)
	_ RecordWriter = (*CSVWriter)(nil)
)
