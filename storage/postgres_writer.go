package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"goldrate-scraper/models"
	"goldrate-scraper/utils"
)

const priceColumns = 11

// PostgresStore mirrors records and summaries into PostgreSQL. A
// collection name becomes a column value rather than a table.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS gold_prices (
			collection  TEXT          NOT NULL,
			doc_key     TEXT          NOT NULL,
			retailer    TEXT          NOT NULL,
			city        TEXT          NOT NULL,
			karat       VARCHAR(3)    NOT NULL,
			price       NUMERIC(12,2) NOT NULL,
			date        TEXT          NOT NULL,
			source_url  TEXT,
			metadata    JSONB         NOT NULL DEFAULT '{}',
			captured_at TIMESTAMPTZ   NOT NULL,
			source      TEXT          NOT NULL,
			updated_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, doc_key)
		);

		CREATE INDEX IF NOT EXISTS idx_gold_prices_date ON gold_prices(collection, date DESC);

		CREATE TABLE IF NOT EXISTS gold_price_summaries (
			collection TEXT        NOT NULL,
			run_date   TEXT        NOT NULL,
			payload    JSONB       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, run_date)
		);
	`)
	return err
}

func (ps *PostgresStore) Name() string { return "postgres" }

// UpsertBatch inserts records in batches of MaxBatchOps, updating rows whose
// key already exists.
func (ps *PostgresStore) UpsertBatch(ctx context.Context, records []models.PriceRecord, collection string) error {
	commits, err := commitInBatches(ctx, records, MaxBatchOps, func() batch {
		return &pgBatch{db: ps.db, collection: collection}
	})
	if err != nil {
		return fmt.Errorf("postgres: upsert %s: %w", collection, err)
	}
	ps.logger.Info("[postgres] Upserted %d rows into %s in %d batches", len(records), collection, commits)
	return nil
}

func (ps *PostgresStore) UpsertSummary(ctx context.Context, summary *models.ScrapeSummary, collection string) error {
	fields, err := summaryFields(summary, time.Now())
	if err != nil {
		return fmt.Errorf("postgres: encode summary: %w", err)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("postgres: encode summary: %w", err)
	}

	_, err = ps.db.ExecContext(ctx, `
		INSERT INTO gold_price_summaries (collection, run_date, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, run_date) DO UPDATE
		SET payload = gold_price_summaries.payload || EXCLUDED.payload,
		    updated_at = NOW()
	`, collection, summary.RunDate(), string(payload))
	if err != nil {
		return fmt.Errorf("postgres: upsert summary: %w", err)
	}
	return nil
}

func (ps *PostgresStore) QueryLatest(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT retailer, city, karat, price::float8, date, source_url, metadata, captured_at, source
		FROM gold_prices
		WHERE collection = $1
		ORDER BY date DESC
		LIMIT $2
	`, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: latest: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			retailer, city, karat, date, source string
			price                               float64
			sourceURL                           sql.NullString
			metadata                            []byte
			capturedAt                          time.Time
		)
		if err := rows.Scan(&retailer, &city, &karat, &price, &date, &sourceURL, &metadata, &capturedAt, &source); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		meta := map[string]string{}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &meta); err != nil {
				return nil, fmt.Errorf("postgres: decode metadata: %w", err)
			}
		}
		row := map[string]any{
			"retailer":            retailer,
			"city":                city,
			"karat":               karat,
			"price":               price,
			"date":                date,
			"source_url":          nil,
			"extraction_metadata": meta,
			"captured_at":         capturedAt.Format(time.RFC3339),
			"source":              source,
		}
		if sourceURL.Valid {
			row["source_url"] = sourceURL.String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) ExistsForDate(ctx context.Context, date, collection string) (bool, error) {
	var exists bool
	err := ps.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM gold_prices WHERE collection = $1 AND date = $2)`,
		collection, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: exists: %w", err)
	}
	return exists, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

type pgBatch struct {
	db         *sql.DB
	collection string
	records    []models.PriceRecord
	index      map[string]int
}

// Set replaces an earlier record with the same key; a single INSERT may
// not touch the same conflict row twice.
func (b *pgBatch) Set(rec models.PriceRecord) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	key := rec.DocumentKey()
	if i, ok := b.index[key]; ok {
		b.records[i] = rec
		return
	}
	b.index[key] = len(b.records)
	b.records = append(b.records, rec)
}

func (b *pgBatch) Len() int { return len(b.records) }

func (b *pgBatch) Commit(ctx context.Context) error {
	query, args, err := buildPriceUpsert(b.collection, b.records)
	if err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// buildPriceUpsert renders one multi-row INSERT ... ON CONFLICT statement.
func buildPriceUpsert(collection string, records []models.PriceRecord) (string, []any, error) {
	valueStrings := make([]string, 0, len(records))
	valueArgs := make([]any, 0, len(records)*priceColumns)

	for idx, r := range records {
		metadata, err := json.Marshal(r.Document().ExtractionMetadata)
		if err != nil {
			return "", nil, fmt.Errorf("encode metadata: %w", err)
		}
		sourceURL := sql.NullString{String: r.SourceURL, Valid: r.SourceURL != ""}

		base := idx * priceColumns
		placeholders := make([]string, priceColumns)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			collection, r.DocumentKey(), r.Retailer, r.City, string(r.Karat),
			r.Price, r.Date, sourceURL, string(metadata), r.CapturedAt, sourceTag)
	}

	query := fmt.Sprintf(`
		INSERT INTO gold_prices
			(collection, doc_key, retailer, city, karat, price, date, source_url, metadata, captured_at, source)
		VALUES %s
		ON CONFLICT (collection, doc_key) DO UPDATE SET
			retailer    = EXCLUDED.retailer,
			city        = EXCLUDED.city,
			karat       = EXCLUDED.karat,
			price       = EXCLUDED.price,
			date        = EXCLUDED.date,
			source_url  = EXCLUDED.source_url,
			metadata    = gold_prices.metadata || EXCLUDED.metadata,
			captured_at = EXCLUDED.captured_at,
			source      = EXCLUDED.source,
			updated_at  = NOW()
	`, strings.Join(valueStrings, ","))

	return query, valueArgs, nil
}
