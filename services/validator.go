package services

import (
	"github.com/shopspring/decimal"

	"goldrate-scraper/models"
	"goldrate-scraper/scraper"
	"goldrate-scraper/scraper/extract"
	"goldrate-scraper/utils"
)

var (
	// Plausible per-gram bounds in INR, both exclusive.
	minPrice = decimal.NewFromInt(1000)
	maxPrice = decimal.NewFromInt(20000)
)

// Validate drops records whose price is outside (1000, 20000), whose karat
// is unknown, whose city is not supported by the retailer or whose date is
// not YYYY-MM-DD. Repeated document keys keep only the first record.
func (c *Coordinator) Validate(records []models.PriceRecord) []models.PriceRecord {
	seen := utils.NewKeySet()
	valid := make([]models.PriceRecord, 0, len(records))

	for _, r := range records {
		if reason := c.rejectReason(r); reason != "" {
			c.logger.Warn("[validator] Invalid data filtered (%s): %s %s %s %s %s",
				reason, r.Retailer, r.City, r.Karat, r.Date, r.Price.String())
			continue
		}
		if !seen.Add(r.DocumentKey()) {
			c.logger.Debug("[validator] Duplicate key skipped: %s", r.DocumentKey())
			continue
		}
		valid = append(valid, r)
	}

	c.logger.Info("[validator] Validated %d → %d records (dropped %d)",
		len(records), len(valid), len(records)-len(valid))
	return valid
}

func (c *Coordinator) rejectReason(r models.PriceRecord) string {
	if !r.Price.GreaterThan(minPrice) || !r.Price.LessThan(maxPrice) {
		return "price out of range"
	}
	if !r.Karat.Valid() {
		return "unknown karat"
	}
	cities, ok := c.supportedCities(r.Retailer)
	if !ok {
		return "unknown retailer"
	}
	if !scraper.Supports(cities, r.City) {
		return "unsupported city"
	}
	if !extract.IsISODate(r.Date) {
		return "malformed date"
	}
	return ""
}
