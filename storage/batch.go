package storage

import (
	"context"
	"fmt"
	"time"

	"goldrate-scraper/models"
)

// MaxBatchOps is the most writes committed in one underlying batch.
const MaxBatchOps = 500

// sourceTag marks every document this program writes.
const sourceTag = "goldrate_scraper"

// batch accumulates record writes until committed.
type batch interface {
	Set(rec models.PriceRecord)
	Len() int
	Commit(ctx context.Context) error
}

// commitInBatches feeds records into batches of at most max writes,
// committing each one as it fills and starting a fresh batch. It returns
// the number of successful commits. Batches committed before a failure are
// not undone.
func commitInBatches(ctx context.Context, records []models.PriceRecord, max int, newBatch func() batch) (int, error) {
	if max <= 0 {
		max = MaxBatchOps
	}

	commits := 0
	b := newBatch()
	for _, r := range records {
		b.Set(r)
		if b.Len() < max {
			continue
		}
		if err := b.Commit(ctx); err != nil {
			return commits, fmt.Errorf("commit batch %d: %w", commits+1, err)
		}
		commits++
		b = newBatch()
	}

	if b.Len() > 0 {
		if err := b.Commit(ctx); err != nil {
			return commits, fmt.Errorf("commit batch %d: %w", commits+1, err)
		}
		commits++
	}
	return commits, nil
}

// priceFields is the stored document for rec, stamped with the write
// metadata shared by all sinks.
func priceFields(rec models.PriceRecord, now time.Time) map[string]any {
	doc := rec.Document()
	fields := map[string]any{
		"retailer":            doc.Retailer,
		"city":                doc.City,
		"karat":               doc.Karat,
		"price":               doc.Price,
		"date":                doc.Date,
		"source_url":          nil,
		"extraction_metadata": doc.ExtractionMetadata,
		"captured_at":         doc.CapturedAt,
		"source":              sourceTag,
		"updated_at":          now.Format(time.RFC3339),
	}
	if doc.SourceURL != nil {
		fields["source_url"] = *doc.SourceURL
	}
	return fields
}
