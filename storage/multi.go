package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"goldrate-scraper/models"
)

// ErrNoSink is returned by reads on a MultiSink with nothing configured.
var ErrNoSink = errors.New("no persistence sink configured")

// MultiSink fans writes out to every sink and serves reads from the first.
// A failing sink does not stop the others.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Add appends a sink.
func (m *MultiSink) Add(s Sink) {
	if s != nil {
		m.sinks = append(m.sinks, s)
	}
}

func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Name() string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

func (m *MultiSink) UpsertBatch(ctx context.Context, records []models.PriceRecord, collection string) error {
	return m.each(func(s Sink) error { return s.UpsertBatch(ctx, records, collection) })
}

func (m *MultiSink) UpsertSummary(ctx context.Context, summary *models.ScrapeSummary, collection string) error {
	return m.each(func(s Sink) error { return s.UpsertSummary(ctx, summary, collection) })
}

func (m *MultiSink) QueryLatest(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	if len(m.sinks) == 0 {
		return nil, ErrNoSink
	}
	return m.sinks[0].QueryLatest(ctx, collection, limit)
}

func (m *MultiSink) ExistsForDate(ctx context.Context, date, collection string) (bool, error) {
	if len(m.sinks) == 0 {
		return false, ErrNoSink
	}
	return m.sinks[0].ExistsForDate(ctx, date, collection)
}

func (m *MultiSink) Close() error {
	return m.each(func(s Sink) error { return s.Close() })
}

func (m *MultiSink) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
