package scraper

import (
	"context"

	"goldrate-scraper/models"
)

// Adapter scrapes one retailer's rate page.
type Adapter interface {
	// ID is the registry key used on the command line, e.g. "tanishq".
	ID() string
	// Name is the retailer name stamped on records.
	Name() string
	SourceURL(city string) string
	SupportedCities() []string
	// FetchPrices never returns an error directly; failures are reported
	// through the Result status alongside whatever records were built.
	FetchPrices(ctx context.Context, city string, days int) Result
}

// Status classifies how a fetch ended.
type Status int

const (
	StatusComplete Status = iota
	StatusPartial
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single-city fetch.
type Result struct {
	Records []models.PriceRecord
	Status  Status
	Err     error
}

// Complete wraps records from a fetch that hit no errors.
func Complete(records []models.PriceRecord) Result {
	return Result{Records: records, Status: StatusComplete}
}

// Partial wraps records built before err interrupted part of the fetch.
func Partial(records []models.PriceRecord, err error) Result {
	return Result{Records: records, Status: StatusPartial, Err: err}
}

// Failed reports a fetch that produced nothing.
func Failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// Retailer carries the static description shared by every adapter.
type Retailer struct {
	id      string
	name    string
	baseURL string
	cities  []string
}

// NewRetailer describes a retailer.
func NewRetailer(id, name, baseURL string, cities []string) Retailer {
	return Retailer{id: id, name: name, baseURL: baseURL, cities: cities}
}

func (r Retailer) ID() string      { return r.id }
func (r Retailer) Name() string    { return r.name }
func (r Retailer) BaseURL() string { return r.baseURL }

// SupportedCities returns a copy of the city list.
func (r Retailer) SupportedCities() []string {
	out := make([]string, len(r.cities))
	copy(out, r.cities)
	return out
}

// Supports reports whether city is in the supported set (exact match).
func (r Retailer) Supports(city string) bool {
	return Supports(r.cities, city)
}

// Supports reports whether city appears in cities.
func Supports(cities []string, city string) bool {
	for _, c := range cities {
		if c == city {
			return true
		}
	}
	return false
}
