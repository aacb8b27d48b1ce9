package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"goldrate-scraper/models"
	"goldrate-scraper/utils"
)

type SummaryService struct {
	logger *utils.Logger
	now    func() time.Time
	newID  func() string
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Summarize aggregates one run. It performs no I/O.
func (s *SummaryService) Summarize(byRetailer map[string][]models.PriceRecord) *models.ScrapeSummary {
	retailers := utils.NewKeySet()
	cities := utils.NewKeySet()
	dates := utils.NewKeySet()

	total := 0
	for _, records := range byRetailer {
		total += len(records)
		for _, r := range records {
			retailers.Add(r.Retailer)
			cities.Add(r.City)
			dates.Add(r.Date)
		}
	}

	summary := &models.ScrapeSummary{
		RunID:           s.newID(),
		TotalEntries:    total,
		Retailers:       retailers.Sorted(),
		Cities:          cities.Sorted(),
		Dates:           dates.Sorted(),
		LatestRates:     make(map[string]models.PriceDocument),
		ScrapeTimestamp: s.now(),
		DataStructure: map[string]string{
			"retailer": "string",
			"city":     "string",
			"karat":    "string (18K, 22K, 24K)",
			"price":    "float (INR per gram)",
			"date":     "string (YYYY-MM-DD)",
		},
	}
	summary.Summary = fmt.Sprintf("Gold prices from %d retailers across %d cities",
		len(summary.Retailers), len(summary.Cities))

	if len(summary.Dates) == 0 {
		return summary
	}

	from := summary.Dates[0]
	to := summary.Dates[len(summary.Dates)-1]
	summary.DateRange = models.DateRange{From: &from, To: &to}

	// Iterate retailers in a fixed order so duplicate rate keys resolve deterministically.
	ids := make([]string, 0, len(byRetailer))
	for id := range byRetailer {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, r := range byRetailer[id] {
			if r.Date == to {
				summary.LatestRates[r.RateKey()] = r.Document()
			}
		}
	}

	return summary
}

// Print renders the summary and a sample record to stdout.
func (s *SummaryService) Print(summary *models.ScrapeSummary, sample []models.PriceRecord) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 GOLD RATE SCRAPE RESULTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total entries : \033[1m%d\033[0m\n", summary.TotalEntries)
	fmt.Printf("  Retailers     : %s\n", orNone(summary.Retailers))
	fmt.Printf("  Cities        : %s\n", orNone(summary.Cities))
	if summary.DateRange.From != nil {
		fmt.Printf("  Date range    : %s to %s\n", *summary.DateRange.From, *summary.DateRange.To)
	} else {
		fmt.Printf("  Date range    : none\n")
	}
	fmt.Println()

	if len(summary.LatestRates) > 0 {
		fmt.Printf("\033[1;33m  Latest Rates (%s)\033[0m\n", *summary.DateRange.To)
		fmt.Printf("  %s\n", thin)
		keys := make([]string, 0, len(summary.LatestRates))
		for k := range summary.LatestRates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			doc := summary.LatestRates[k]
			fmt.Printf("  %-36s \033[1;32m₹%.2f/g\033[0m\n", truncate(k, 34), doc.Price)
		}
		fmt.Println()
	}

	if len(sample) > 0 {
		fmt.Printf("\033[1;33m  Sample Record\033[0m\n")
		fmt.Printf("  %s\n", thin)
		b, err := json.MarshalIndent(sample[0].Document(), "  ", "  ")
		if err == nil {
			fmt.Printf("  %s\n", b)
		}
		fmt.Printf("  Document ID   : %s\n", sample[0].DocumentKey())
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
