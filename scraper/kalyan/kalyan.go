package kalyan

import (
	"context"

	"goldrate-scraper/scraper"
	"goldrate-scraper/utils"
)

const baseURL = "https://www.kalyanjewellers.net"

var cities = []string{
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata",
	"Hyderabad", "Pune", "Kochi", "Thrissur", "Coimbatore",
}

// Scraper is registered so Kalyan Jewellers can be selected, but the rate
// page is not parsed yet: every fetch succeeds with no records.
type Scraper struct {
	scraper.Retailer

	logger *utils.Logger
}

func New(logger *utils.Logger) *Scraper {
	return &Scraper{
		Retailer: scraper.NewRetailer("kalyan", "Kalyan Jewellers", baseURL, cities),
		logger:   logger,
	}
}

func (s *Scraper) SourceURL(string) string {
	return baseURL + "/gold-rate"
}

func (s *Scraper) FetchPrices(_ context.Context, city string, _ int) scraper.Result {
	s.logger.Info("[kalyan] Scraper not implemented yet for %s", city)
	return scraper.Complete(nil)
}
