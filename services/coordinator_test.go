package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"goldrate-scraper/models"
	"goldrate-scraper/scraper"
	"goldrate-scraper/utils"
)

type fakeAdapter struct {
	scraper.Retailer
	results map[string]scraper.Result
	calls   []string
}

func newFake(id, name string, cities ...string) *fakeAdapter {
	return &fakeAdapter{
		Retailer: scraper.NewRetailer(id, name, "https://"+id+".example", cities),
		results:  map[string]scraper.Result{},
	}
}

func (f *fakeAdapter) SourceURL(string) string { return f.BaseURL() }

func (f *fakeAdapter) FetchPrices(_ context.Context, city string, _ int) scraper.Result {
	f.calls = append(f.calls, city)
	if res, ok := f.results[city]; ok {
		return res
	}
	return scraper.Complete(nil)
}

func rec(retailer, city string, karat models.Karat, price int64, date string) models.PriceRecord {
	return models.PriceRecord{
		Retailer: retailer,
		City:     city,
		Karat:    karat,
		Price:    decimal.NewFromInt(price),
		Date:     date,
	}
}

func newTestCoordinator(adapters ...scraper.Adapter) *Coordinator {
	return NewCoordinator(utils.NewDiscardLogger(), 0, 0, adapters...)
}

func TestScrapeOneUnsupportedRetailer(t *testing.T) {
	fake := newFake("tanishq", "Tanishq", "Mumbai")
	c := newTestCoordinator(fake)

	records, err := c.ScrapeOne(context.Background(), "goldmart", nil, 30)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedRetailer))
	require.Contains(t, err.Error(), "goldmart")
	require.Nil(t, records)
	require.Empty(t, fake.calls)
}

func TestScrapeOneDefaultsToAllCities(t *testing.T) {
	fake := newFake("tanishq", "Tanishq", "Mumbai", "Delhi", "Pune")
	c := newTestCoordinator(fake)

	_, err := c.ScrapeOne(context.Background(), "tanishq", nil, 30)
	require.NoError(t, err)
	require.Equal(t, []string{"Mumbai", "Delhi", "Pune"}, fake.calls)
}

func TestScrapeOneSkipsUnsupportedCities(t *testing.T) {
	fake := newFake("tanishq", "Tanishq", "Mumbai", "Delhi")
	fake.results["Delhi"] = scraper.Complete([]models.PriceRecord{rec("Tanishq", "Delhi", models.Karat22, 9000, "2025-07-21")})
	c := newTestCoordinator(fake)

	records, err := c.ScrapeOne(context.Background(), "tanishq", []string{"Dubai", "Delhi"}, 30)
	require.NoError(t, err)
	require.Equal(t, []string{"Delhi"}, fake.calls)
	require.Len(t, records, 1)
}

func TestScrapeOneKeepsPartialAndSkipsFailed(t *testing.T) {
	fake := newFake("tanishq", "Tanishq", "Mumbai", "Delhi", "Pune")
	fake.results["Mumbai"] = scraper.Failed(errors.New("browser crashed"))
	fake.results["Delhi"] = scraper.Partial([]models.PriceRecord{
		rec("Tanishq", "Delhi", models.Karat22, 9000, "2025-07-21"),
	}, errors.New("18K missing"))
	fake.results["Pune"] = scraper.Complete([]models.PriceRecord{
		rec("Tanishq", "Pune", models.Karat22, 9000, "2025-07-21"),
		rec("Tanishq", "Pune", models.Karat24, 9800, "2025-07-21"),
	})
	c := newTestCoordinator(fake)

	records, err := c.ScrapeOne(context.Background(), "tanishq", nil, 30)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Len(t, fake.calls, 3)
}

func TestScrapeAllIsolatesRetailers(t *testing.T) {
	tanishq := newFake("tanishq", "Tanishq", "Mumbai")
	tanishq.results["Mumbai"] = scraper.Failed(errors.New("timeout"))
	kalyan := newFake("kalyan", "Kalyan Jewellers", "Kochi")
	kalyan.results["Kochi"] = scraper.Complete([]models.PriceRecord{
		rec("Kalyan Jewellers", "Kochi", models.Karat22, 9000, "2025-07-21"),
	})
	c := newTestCoordinator(tanishq, kalyan)

	results := c.ScrapeAll(context.Background(), nil, 30)
	require.Len(t, results, 2)
	require.NotNil(t, results["tanishq"])
	require.Empty(t, results["tanishq"])
	require.Len(t, results["kalyan"], 1)
}

func TestScrapeSelectedUnknownIDYieldsEmpty(t *testing.T) {
	fake := newFake("tanishq", "Tanishq", "Mumbai")
	c := newTestCoordinator(fake)

	results := c.ScrapeSelected(context.Background(), []string{"nope", "tanishq"}, nil, 30)
	require.Contains(t, results, "nope")
	require.Empty(t, results["nope"])
	require.Equal(t, []string{"Mumbai"}, fake.calls)
}

func TestScrapeSelectedStopsOnCancel(t *testing.T) {
	a := newFake("a", "A", "X")
	b := newFake("b", "B", "Y")
	c := NewCoordinator(utils.NewDiscardLogger(), 0, time.Hour, a, b)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results := c.ScrapeAll(ctx, nil, 30)
	require.Equal(t, []string{"X"}, a.calls)
	require.Empty(t, b.calls)
	require.Empty(t, results["b"])
}

func TestCityPauseBetweenFetches(t *testing.T) {
	fake := newFake("tanishq", "Tanishq", "Mumbai", "Delhi", "Pune")
	delay := 50 * time.Millisecond
	c := NewCoordinator(utils.NewDiscardLogger(), delay, 0, fake)

	start := time.Now()
	_, err := c.ScrapeOne(context.Background(), "tanishq", nil, 30)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestRetailersAndCheck(t *testing.T) {
	c := newTestCoordinator(newFake("tanishq", "Tanishq"), newFake("kalyan", "Kalyan Jewellers"), newFake("tanishq", "Dup"))
	require.Equal(t, []string{"tanishq", "kalyan"}, c.Retailers())
	require.NoError(t, c.CheckRetailers([]string{"kalyan", "tanishq"}))
	require.ErrorIs(t, c.CheckRetailers([]string{"tanishq", "bogus"}), ErrUnsupportedRetailer)
}
