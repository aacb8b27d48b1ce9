package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Karat is the purity grade of a gold price observation.
type Karat string

const (
	Karat18 Karat = "18K"
	Karat22 Karat = "22K"
	Karat24 Karat = "24K"
)

// Karats lists the recognised grades in ascending purity.
var Karats = []Karat{Karat18, Karat22, Karat24}

// Valid reports whether k is one of the recognised grades.
func (k Karat) Valid() bool {
	for _, known := range Karats {
		if k == known {
			return true
		}
	}
	return false
}

// PriceRecord is one (retailer, city, karat, date) price observation.
// Records are built once by an adapter and never mutated afterwards.
type PriceRecord struct {
	Retailer           string
	City               string
	Karat              Karat
	Price              decimal.Decimal
	Date               string
	SourceURL          string
	ExtractionMetadata map[string]string
	CapturedAt         time.Time
}

// DocumentKey derives the idempotent upsert key,
// e.g. "tanishq_mumbai_18k_2025-07-21".
func (r PriceRecord) DocumentKey() string {
	key := r.Retailer + "_" + r.City + "_" + string(r.Karat) + "_" + r.Date
	return strings.ReplaceAll(strings.ToLower(key), " ", "_")
}

// RateKey identifies the retailer/city/karat series a record belongs to.
func (r PriceRecord) RateKey() string {
	return r.Retailer + "_" + r.City + "_" + string(r.Karat)
}

// Document returns the flat, serialisable shape written to files and sinks.
func (r PriceRecord) Document() PriceDocument {
	doc := PriceDocument{
		Retailer:           r.Retailer,
		City:               r.City,
		Karat:              string(r.Karat),
		Price:              r.Price.InexactFloat64(),
		Date:               r.Date,
		ExtractionMetadata: r.ExtractionMetadata,
		CapturedAt:         r.CapturedAt.Format(time.RFC3339),
	}
	if r.SourceURL != "" {
		u := r.SourceURL
		doc.SourceURL = &u
	}
	if doc.ExtractionMetadata == nil {
		doc.ExtractionMetadata = map[string]string{}
	}
	return doc
}

// PriceDocument is the persisted form of a PriceRecord.
type PriceDocument struct {
	Retailer           string            `json:"retailer"`
	City               string            `json:"city"`
	Karat              string            `json:"karat"`
	Price              float64           `json:"price"`
	Date               string            `json:"date"`
	SourceURL          *string           `json:"source_url"`
	ExtractionMetadata map[string]string `json:"extraction_metadata"`
	CapturedAt         string            `json:"captured_at"`
}

// DateRange bounds the dates covered by a run. Both ends are nil when the
// run produced no records.
type DateRange struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

// ScrapeSummary aggregates one run's records.
type ScrapeSummary struct {
	RunID           string                   `json:"run_id"`
	Summary         string                   `json:"summary"`
	TotalEntries    int                      `json:"total_entries"`
	Retailers       []string                 `json:"retailers"`
	Cities          []string                 `json:"cities"`
	Dates           []string                 `json:"dates"`
	DateRange       DateRange                `json:"date_range"`
	LatestRates     map[string]PriceDocument `json:"latest_rates"`
	ScrapeTimestamp time.Time                `json:"scrape_timestamp"`
	DataStructure   map[string]string        `json:"data_structure"`
}

// RunDate is the calendar date of the run, used as the summary document key.
func (s *ScrapeSummary) RunDate() string {
	return s.ScrapeTimestamp.Format(time.DateOnly)
}
