package tanishq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"goldrate-scraper/models"
	"goldrate-scraper/scraper"
	"goldrate-scraper/scraper/extract"
	"goldrate-scraper/utils"
)

const (
	id      = "tanishq"
	name    = "Tanishq"
	baseURL = "https://www.tanishq.co.in/gold-rate.html"

	readySelector = ".goldpurity-rate"
	datesFieldID  = "goldRateDates"
)

var cities = []string{
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata",
	"Hyderabad", "Pune", "Ahmedabad", "Jaipur", "Lucknow",
}

// karatFields maps each grade to the hidden input holding its price array.
var karatFields = map[models.Karat]string{
	models.Karat18: "goldRate18KT",
	models.Karat22: "goldRate22KT",
	models.Karat24: "goldRate24KT",
}

// popupSelectors are overlays that can cover the rate widget.
var popupSelectors = []string{
	".gdex-popup-overlay",
	".popup-close",
	".close",
	"[aria-label='Close']",
	".modal-close",
	".overlay-close",
}

// Scraper reads Tanishq's historical rates from the hidden inputs on its
// gold rate page. Tanishq publishes national rates, so every city gets the
// same series.
type Scraper struct {
	scraper.Retailer

	browser scraper.BrowserOptions
	logger  *utils.Logger
	now     func() time.Time
}

// New creates a ready-to-use Tanishq Scraper.
func New(browser scraper.BrowserOptions, logger *utils.Logger) *Scraper {
	return &Scraper{
		Retailer: scraper.NewRetailer(id, name, baseURL, cities),
		browser:  browser,
		logger:   logger,
		now:      time.Now,
	}
}

// SourceURL ignores the city; the page is national.
func (s *Scraper) SourceURL(string) string {
	return baseURL + "?lang=en_IN"
}

// FetchPrices loads the rate page in a fresh browser session and extracts
// up to days entries per karat for city.
func (s *Scraper) FetchPrices(ctx context.Context, city string, days int) scraper.Result {
	s.logger.Info("[tanishq] Starting scrape for %s (%d days)", city, days)

	session, err := scraper.NewSession(ctx, s.browser)
	if err != nil {
		s.logger.Warn("[tanishq] Browser setup failed: %v", err)
		return scraper.Failed(err)
	}
	defer session.Release()

	url := s.SourceURL(city)
	html, err := s.loadPage(session.Context(), url)
	if err != nil {
		s.logger.Warn("[tanishq] Page load failed for %s: %v", url, err)
		return scraper.Failed(err)
	}

	res := s.recordsFromPage(html, city, days)
	s.logger.Info("[tanishq] %s done — %d entries (%s)", city, len(res.Records), res.Status)
	return res
}

// loadPage navigates to url, lets the page settle, clears overlays and
// returns the page HTML with hidden input values synced to attributes.
func (s *Scraper) loadPage(ctx context.Context, url string) (string, error) {
	s.logger.Debug("[tanishq] Navigating to %s", url)
	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.browser.SettleDelay),
	); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	s.closePopups(ctx)
	s.waitForRates(ctx)

	var html string
	err := chromedp.Run(ctx,
		// Live .value properties are not reflected in outerHTML otherwise.
		chromedp.Evaluate(`
			(function() {
				var inputs = document.querySelectorAll('input');
				for (var i = 0; i < inputs.length; i++) {
					inputs[i].setAttribute('value', inputs[i].value);
				}
				return inputs.length;
			})()
		`, nil),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("capture html: %w", err)
	}
	return html, nil
}

// closePopups clicks every visible element matching a known overlay
// selector. Failures are ignored.
func (s *Scraper) closePopups(ctx context.Context) {
	for _, sel := range popupSelectors {
		quoted, _ := json.Marshal(sel)

		var clicked int
		err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`
			(function(sel) {
				var n = 0;
				var els = document.querySelectorAll(sel);
				for (var i = 0; i < els.length; i++) {
					var el = els[i];
					if (el.offsetParent === null && el.getClientRects().length === 0) continue;
					try { el.click(); n++; } catch (e) {}
				}
				return n;
			})(%s)
		`, quoted), &clicked))
		if err != nil || clicked == 0 {
			continue
		}

		s.logger.Debug("[tanishq] Closed popup: %s", sel)
		_ = chromedp.Run(ctx, chromedp.Sleep(time.Second))
	}
}

// waitForRates waits up to the configured timeout for the rate widget. A
// timeout is logged and extraction still proceeds.
func (s *Scraper) waitForRates(ctx context.Context) {
	if s.browser.WaitTimeout <= 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.browser.WaitTimeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(readySelector, chromedp.ByQuery)); err != nil {
		s.logger.Warn("[tanishq] Rate elements not found, continuing: %v", err)
		return
	}
	s.logger.Debug("[tanishq] Rate elements found")
}

// recordsFromPage parses the hidden inputs out of html. A missing dates
// field fails the whole page; a bad karat field only drops that karat.
func (s *Scraper) recordsFromPage(html, city string, days int) scraper.Result {
	ids := []string{datesFieldID}
	for _, k := range models.Karats {
		ids = append(ids, karatFields[k])
	}

	fields, err := extract.HiddenFields(html, ids...)
	if err != nil {
		s.logger.Warn("[tanishq] %v", err)
		return scraper.Failed(err)
	}

	rawDates, err := extract.Field(fields, datesFieldID)
	if err != nil {
		s.logger.Warn("[tanishq] Dates field missing: %v", err)
		return scraper.Failed(err)
	}
	dates := extract.ParseDates(rawDates)
	s.logger.Debug("[tanishq] Parsed %d dates", len(dates))

	capturedAt := s.now()
	url := s.SourceURL(city)

	var records []models.PriceRecord
	var firstErr error
	for _, karat := range models.Karats {
		points, err := s.karatSeries(fields, karat, dates, days)
		if err != nil {
			s.logger.Warn("[tanishq] Skipping %s: %v", karat, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", karat, err)
			}
			continue
		}

		for _, p := range points {
			records = append(records, models.PriceRecord{
				Retailer:           name,
				City:               city,
				Karat:              karat,
				Price:              p.Price,
				Date:               p.Date,
				SourceURL:          url,
				ExtractionMetadata: metadata(),
				CapturedAt:         capturedAt,
			})
		}
		s.logger.Debug("[tanishq] Extracted %d days of %s", len(points), karat)
	}

	if firstErr != nil {
		return scraper.Partial(records, firstErr)
	}
	return scraper.Complete(records)
}

func (s *Scraper) karatSeries(fields map[string]string, karat models.Karat, dates []string, days int) ([]extract.Point, error) {
	raw, err := extract.Field(fields, karatFields[karat])
	if err != nil {
		return nil, err
	}
	prices, err := extract.ParsePrices(raw)
	if err != nil {
		return nil, err
	}
	if len(prices) != len(dates) {
		s.logger.Warn("[tanishq] %s has %d prices for %d dates", karat, len(prices), len(dates))
	}
	return extract.Zip(dates, prices, days), nil
}

func metadata() map[string]string {
	return map[string]string{
		"extraction_method": "optimized_hidden_inputs",
		"currency":          "INR",
		"unit":              "per_gram",
	}
}
