package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"goldrate-scraper/models"
	"goldrate-scraper/scraper"
	"goldrate-scraper/utils"
)

// ErrUnsupportedRetailer is returned for retailer ids with no registered adapter.
var ErrUnsupportedRetailer = errors.New("unsupported retailer")

// Coordinator runs registered adapters one retailer and one city at a time.
type Coordinator struct {
	logger        *utils.Logger
	adapters      map[string]scraper.Adapter
	order         []string
	cityDelay     time.Duration
	retailerDelay time.Duration
}

// NewCoordinator registers adapters in the given order. Delays are the
// fixed pauses between consecutive cities and consecutive retailers.
func NewCoordinator(logger *utils.Logger, cityDelay, retailerDelay time.Duration, adapters ...scraper.Adapter) *Coordinator {
	c := &Coordinator{
		logger:        logger,
		adapters:      make(map[string]scraper.Adapter, len(adapters)),
		cityDelay:     cityDelay,
		retailerDelay: retailerDelay,
	}
	for _, a := range adapters {
		if _, dup := c.adapters[a.ID()]; dup {
			continue
		}
		c.adapters[a.ID()] = a
		c.order = append(c.order, a.ID())
	}
	return c
}

// Retailers lists registered retailer ids in registration order.
func (c *Coordinator) Retailers() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Adapter returns the adapter registered under id.
func (c *Coordinator) Adapter(id string) (scraper.Adapter, error) {
	a, ok := c.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRetailer, id)
	}
	return a, nil
}

// CheckRetailers fails on the first id that has no adapter.
func (c *Coordinator) CheckRetailers(ids []string) error {
	for _, id := range ids {
		if _, err := c.Adapter(id); err != nil {
			return err
		}
	}
	return nil
}

// ScrapeOne fetches every requested city (all supported cities when cities
// is empty) for one retailer. Unsupported cities are skipped with a warning.
// The only error is ErrUnsupportedRetailer; fetch failures are logged and
// whatever records they produced are kept.
func (c *Coordinator) ScrapeOne(ctx context.Context, retailerID string, cities []string, days int) ([]models.PriceRecord, error) {
	adapter, err := c.Adapter(retailerID)
	if err != nil {
		return nil, err
	}

	if len(cities) == 0 {
		cities = adapter.SupportedCities()
	}
	supported := adapter.SupportedCities()

	pause := utils.NewThrottle(c.cityDelay)
	var all []models.PriceRecord
	for _, city := range cities {
		if !scraper.Supports(supported, city) {
			c.logger.Warn("[coordinator] %s not supported by %s", city, retailerID)
			continue
		}
		if err := pause.Wait(ctx); err != nil {
			c.logger.Warn("[coordinator] %s stopped before %s: %v", retailerID, city, err)
			break
		}

		c.logger.Info("[coordinator] Scraping %s prices for %s", adapter.Name(), city)
		res := adapter.FetchPrices(ctx, city, days)
		switch res.Status {
		case scraper.StatusFailed:
			c.logger.Error("[coordinator] Failed to scrape %s for %s: %v", city, retailerID, res.Err)
		case scraper.StatusPartial:
			c.logger.Warn("[coordinator] Partial data for %s/%s (%d records): %v",
				retailerID, city, len(res.Records), res.Err)
		}
		all = append(all, res.Records...)
	}
	return all, nil
}

// ScrapeSelected runs ScrapeOne for each id, isolating failures per
// retailer. Every requested id gets a key in the result.
func (c *Coordinator) ScrapeSelected(ctx context.Context, ids []string, cities []string, days int) map[string][]models.PriceRecord {
	results := make(map[string][]models.PriceRecord, len(ids))
	pause := utils.NewThrottle(c.retailerDelay)

	for _, id := range ids {
		if err := pause.Wait(ctx); err != nil {
			c.logger.Warn("[coordinator] Scrape interrupted before %s: %v", id, err)
			results[id] = []models.PriceRecord{}
			continue
		}

		c.logger.Info("[coordinator] Scraping %s", id)
		records, err := c.ScrapeOne(ctx, id, cities, days)
		if err != nil {
			c.logger.Error("[coordinator] Failed to scrape %s: %v", id, err)
			records = []models.PriceRecord{}
		}
		if records == nil {
			records = []models.PriceRecord{}
		}
		results[id] = records
	}
	return results
}

// ScrapeAll runs every registered adapter.
func (c *Coordinator) ScrapeAll(ctx context.Context, cities []string, days int) map[string][]models.PriceRecord {
	return c.ScrapeSelected(ctx, c.order, cities, days)
}

// supportedCities resolves the city list for a record's retailer name.
func (c *Coordinator) supportedCities(retailer string) ([]string, bool) {
	for _, id := range c.order {
		a := c.adapters[id]
		if strings.EqualFold(a.Name(), retailer) || strings.EqualFold(id, retailer) {
			return a.SupportedCities(), true
		}
	}
	return nil, false
}
