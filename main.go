package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"goldrate-scraper/config"
	"goldrate-scraper/models"
	"goldrate-scraper/scraper"
	"goldrate-scraper/scraper/joyalukkas"
	"goldrate-scraper/scraper/kalyan"
	"goldrate-scraper/scraper/tanishq"
	"goldrate-scraper/services"
	"goldrate-scraper/storage"
	"goldrate-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithOptions(os.Stdout, utils.ParseLevel(cfg.LogLevel), false)

	if err := newApp(cfg, logger).Run(os.Args); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, logger *utils.Logger) *cli.App {
	return &cli.App{
		Name:  "goldrate-scraper",
		Usage: "Scrape historical gold rates from jeweller websites",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "retailers",
				Aliases: []string{"r"},
				Value:   cli.NewStringSlice("tanishq"),
				Usage:   "Retailers to scrape (tanishq, kalyan, joyalukkas)",
			},
			&cli.StringSliceFlag{
				Name:    "cities",
				Aliases: []string{"c"},
				Usage:   "Cities to scrape (default: every city the retailer supports)",
			},
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"d"},
				Value:   cfg.Days,
				Usage:   "Number of most recent days to keep per series",
			},
			&cli.StringFlag{
				Name:  "collection",
				Value: cfg.PricesCollection,
				Usage: "Collection receiving price documents",
			},
			&cli.StringFlag{
				Name:  "summary-collection",
				Value: cfg.SummaryCollection,
				Usage: "Collection receiving the run summary",
			},
			&cli.StringFlag{
				Name:  "firebase-key",
				Value: cfg.FirebaseCredentials,
				Usage: "Path to the Firebase service account key",
			},
			&cli.BoolFlag{
				Name:  "no-firebase",
				Usage: "Do not write to Firestore",
			},
			&cli.BoolFlag{
				Name:  "postgres",
				Value: cfg.PostgresEnabled,
				Usage: "Mirror documents into PostgreSQL",
			},
			&cli.StringFlag{
				Name:    "output-file",
				Aliases: []string{"o"},
				Value:   cfg.OutputPath,
				Usage:   "Write {data, summary} JSON to this path",
			},
			&cli.StringFlag{
				Name:  "csv-file",
				Value: cfg.CSVOutputPath,
				Usage: "Write validated records as CSV to this path",
			},
			&cli.BoolFlag{
				Name:  "skip-existing",
				Usage: "Skip the run when today's prices are already stored",
			},
		},
		Action: func(c *cli.Context) error {
			return runScrape(c, cfg, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "latest",
				Usage: "Print the most recent stored prices",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Rows to show"},
				},
				Action: func(c *cli.Context) error {
					return runLatest(c, cfg, logger)
				},
			},
			{
				Name:  "exists",
				Usage: "Report whether prices are stored for a date",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Value: time.Now().Format(time.DateOnly), Usage: "Date as YYYY-MM-DD"},
				},
				Action: func(c *cli.Context) error {
					return runExists(c, cfg, logger)
				},
			},
		},
	}
}

func newCoordinator(cfg *config.Config, logger *utils.Logger) *services.Coordinator {
	browser := scraper.DefaultBrowserOptions()
	browser.ChromeBin = cfg.ChromeBin
	browser.SettleDelay = cfg.SettleDelay()
	browser.WaitTimeout = cfg.WaitTimeout()
	browser.PageTimeout = cfg.PageTimeout()
	return services.NewCoordinator(logger, cfg.CityDelay(), cfg.RetailerDelay(),
		tanishq.New(browser, logger),
		kalyan.New(logger),
		joyalukkas.New(logger),
	)
}

// openSinks connects every enabled store. A store that fails to initialise
// is left out and the run continues without it.
func openSinks(ctx context.Context, c *cli.Context, cfg *config.Config, logger *utils.Logger) *storage.MultiSink {
	sinks := storage.NewMultiSink()

	if !c.Bool("no-firebase") {
		fs, err := storage.NewFirestoreStore(ctx, c.String("firebase-key"), cfg.FirebaseProjectID, logger)
		if err != nil {
			logger.Warn("Firestore disabled: %v", err)
		} else {
			sinks.Add(fs)
		}
	}

	if c.Bool("postgres") {
		pg, err := storage.NewPostgresStore(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Warn("PostgreSQL disabled: %v", err)
			logger.Warn("Make sure Docker is running: docker compose up -d")
		} else {
			sinks.Add(pg)
		}
	}

	return sinks
}

func runScrape(c *cli.Context, cfg *config.Config, logger *utils.Logger) error {
	ctx := c.Context
	retailers := dedupe(c.StringSlice("retailers"))
	cities := c.StringSlice("cities")
	days := c.Int("days")
	collection := c.String("collection")

	if days <= 0 {
		return fmt.Errorf("--days must be positive, got %d", days)
	}

	coord := newCoordinator(cfg, logger)
	if err := coord.CheckRetailers(retailers); err != nil {
		return err
	}

	logger.Info("=== Gold Rate Scraper starting ===")
	logger.Info("Config | retailers: %v | cities: %v | days: %d | city pause: %s | retailer pause: %s",
		retailers, cities, days, cfg.CityDelay(), cfg.RetailerDelay())

	sinks := openSinks(ctx, c, cfg, logger)
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("Closing sinks: %v", err)
		}
	}()

	if c.Bool("skip-existing") && sinks.Len() > 0 {
		today := time.Now().Format(time.DateOnly)
		exists, err := sinks.ExistsForDate(ctx, today, collection)
		switch {
		case err != nil:
			logger.Warn("Could not check existing data for %s: %v", today, err)
		case exists:
			logger.Info("Prices for %s already stored in %s, skipping", today, collection)
			return nil
		}
	}

	scraped := coord.ScrapeSelected(ctx, retailers, cities, days)

	byRetailer := make(map[string][]models.PriceRecord, len(scraped))
	var all []models.PriceRecord
	for _, id := range retailers {
		valid := coord.Validate(scraped[id])
		byRetailer[id] = valid
		all = append(all, valid...)
	}

	summarySvc := services.NewSummaryService(logger)
	summary := summarySvc.Summarize(byRetailer)
	summarySvc.Print(summary, all)

	if len(all) == 0 {
		logger.Warn("No valid records were scraped")
	}

	if path := c.String("output-file"); path != "" {
		if err := storage.WriteJSON(path, all, summary); err != nil {
			logger.Error("JSON write failed: %v", err)
		} else {
			logger.Info("Results saved to %s", path)
		}
	}

	if path := c.String("csv-file"); path != "" {
		writeCSV(path, all, logger)
	}

	if sinks.Len() == 0 {
		logger.Warn("No persistence configured, results were not stored")
		return nil
	}

	if err := sinks.UpsertBatch(ctx, all, collection); err != nil {
		logger.Error("Storing prices failed: %v", err)
	} else {
		logger.Info("Stored %d records in %s (%s)", len(all), collection, sinks.Name())
	}
	if err := sinks.UpsertSummary(ctx, summary, c.String("summary-collection")); err != nil {
		logger.Error("Storing summary failed: %v", err)
	}

	fmt.Printf("  Collection structure: %s/{retailer}_{city}_{karat}_{date}\n", collection)
	fmt.Printf("  Example document    : tanishq_mumbai_18k_2025-07-21\n\n")
	return nil
}

func writeCSV(path string, records []models.PriceRecord, logger *utils.Logger) {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		return
	}
	defer w.Close()

	if err := w.Write(records); err != nil {
		logger.Error("CSV write failed: %v", err)
		return
	}
	logger.Info("Records saved to %s", path)
}

func runLatest(c *cli.Context, cfg *config.Config, logger *utils.Logger) error {
	sinks := openSinks(c.Context, c, cfg, logger)
	defer sinks.Close()

	rows, err := sinks.QueryLatest(c.Context, c.String("collection"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("query latest: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Date", "Retailer", "City", "Karat", "Price (INR/g)"})
	for _, r := range rows {
		t.AppendRow(table.Row{r["date"], r["retailer"], r["city"], r["karat"], r["price"]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func runExists(c *cli.Context, cfg *config.Config, logger *utils.Logger) error {
	date := c.String("date")
	sinks := openSinks(c.Context, c, cfg, logger)
	defer sinks.Close()

	ok, err := sinks.ExistsForDate(c.Context, date, c.String("collection"))
	if err != nil {
		return fmt.Errorf("check %s: %w", date, err)
	}
	if ok {
		fmt.Printf("Prices stored for %s\n", date)
	} else {
		fmt.Printf("No prices stored for %s\n", date)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := utils.NewKeySet()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen.Add(id) {
			out = append(out, id)
		}
	}
	return out
}
