package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"goldrate-scraper/models"
	"goldrate-scraper/utils"
)

// FirestoreStore persists records and summaries to Cloud Firestore through
// the Firebase Admin SDK.
type FirestoreStore struct {
	client *firestore.Client
	logger *utils.Logger
	now    func() time.Time
}

// NewFirestoreStore initialises a Firebase app from a service account file
// (or application default credentials when credentialsFile is empty).
func NewFirestoreStore(ctx context.Context, credentialsFile, projectID string, logger *utils.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: init app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: client: %w", err)
	}

	if credentialsFile != "" {
		logger.Info("[firestore] Initialized with service account: %s", credentialsFile)
	} else {
		logger.Info("[firestore] Initialized with default credentials")
	}
	return &FirestoreStore{client: client, logger: logger, now: time.Now}, nil
}

func (s *FirestoreStore) Name() string { return "firestore" }

func (s *FirestoreStore) UpsertBatch(ctx context.Context, records []models.PriceRecord, collection string) error {
	coll := s.client.Collection(collection)
	now := s.now()

	commits, err := commitInBatches(ctx, records, MaxBatchOps, func() batch {
		return &firestoreBatch{wb: s.client.Batch(), coll: coll, now: now}
	})
	if err != nil {
		return fmt.Errorf("firestore: upsert %s: %w", collection, err)
	}

	s.logger.Info("[firestore] Pushed %d entries to %s in %d batches", len(records), collection, commits)
	return nil
}

func (s *FirestoreStore) UpsertSummary(ctx context.Context, summary *models.ScrapeSummary, collection string) error {
	fields, err := summaryFields(summary, s.now())
	if err != nil {
		return fmt.Errorf("firestore: encode summary: %w", err)
	}
	fields["timestamp"] = firestore.ServerTimestamp

	docID := summary.RunDate()
	if _, err := s.client.Collection(collection).Doc(docID).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore: upsert summary %s: %w", docID, err)
	}

	s.logger.Info("[firestore] Pushed summary document %s/%s", collection, docID)
	return nil
}

func (s *FirestoreStore) QueryLatest(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	docs, err := s.client.Collection(collection).
		OrderBy("date", firestore.Desc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore: latest %s: %w", collection, err)
	}

	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Data())
	}
	s.logger.Debug("[firestore] Retrieved %d latest documents from %s", len(out), collection)
	return out, nil
}

func (s *FirestoreStore) ExistsForDate(ctx context.Context, date, collection string) (bool, error) {
	docs, err := s.client.Collection(collection).
		Where("date", "==", date).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return false, fmt.Errorf("firestore: exists %s: %w", date, err)
	}
	return len(docs) > 0, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type firestoreBatch struct {
	wb   *firestore.WriteBatch
	coll *firestore.CollectionRef
	now  time.Time
	n    int
}

func (b *firestoreBatch) Set(rec models.PriceRecord) {
	fields := priceFields(rec, b.now)
	fields["timestamp"] = firestore.ServerTimestamp
	b.wb.Set(b.coll.Doc(rec.DocumentKey()), fields, firestore.MergeAll)
	b.n++
}

func (b *firestoreBatch) Len() int { return b.n }

func (b *firestoreBatch) Commit(ctx context.Context) error {
	_, err := b.wb.Commit(ctx)
	return err
}

// summaryFields flattens the summary into a map, as MergeAll requires.
func summaryFields(summary *models.ScrapeSummary, now time.Time) (map[string]any, error) {
	b, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	fields["source"] = sourceTag
	fields["created_at"] = now.Format(time.RFC3339)
	return fields, nil
}
