package storage

import (
	"context"

	"goldrate-scraper/models"
)

// Sink is a document store that price records and run summaries are
// persisted to. Every method reports failure through its error; callers
// log and carry on.
type Sink interface {
	Name() string
	// UpsertBatch writes records keyed by DocumentKey, merging fields into
	// existing documents. Writes are grouped into batches of MaxBatchOps.
	UpsertBatch(ctx context.Context, records []models.PriceRecord, collection string) error
	// UpsertSummary writes one document keyed by the summary's run date.
	UpsertSummary(ctx context.Context, summary *models.ScrapeSummary, collection string) error
	// QueryLatest returns up to limit documents ordered by date, newest first.
	QueryLatest(ctx context.Context, collection string, limit int) ([]map[string]any, error)
	ExistsForDate(ctx context.Context, date, collection string) (bool, error)
	Close() error
}

// RecordWriter is the interface for file exports of validated records.
type RecordWriter interface {
	Write(records []models.PriceRecord) error
	Close() error
}
