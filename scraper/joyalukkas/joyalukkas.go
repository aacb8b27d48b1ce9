package joyalukkas

import (
	"context"

	"goldrate-scraper/scraper"
	"goldrate-scraper/utils"
)

const baseURL = "https://www.joyalukkas.com"

// Joyalukkas also publishes Gulf rates.
var cities = []string{
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata",
	"Hyderabad", "Dubai", "Kuwait", "Qatar",
}

// Scraper is a placeholder adapter: every fetch succeeds with no records.
type Scraper struct {
	scraper.Retailer

	logger *utils.Logger
}

func New(logger *utils.Logger) *Scraper {
	return &Scraper{
		Retailer: scraper.NewRetailer("joyalukkas", "Joyalukkas", baseURL, cities),
		logger:   logger,
	}
}

func (s *Scraper) SourceURL(string) string {
	return baseURL + "/gold-rate"
}

func (s *Scraper) FetchPrices(_ context.Context, city string, _ int) scraper.Result {
	s.logger.Info("[joyalukkas] Scraper not implemented yet for %s", city)
	return scraper.Complete(nil)
}
