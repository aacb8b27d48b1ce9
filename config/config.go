package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	FirebaseCredentials string
	FirebaseProjectID   string
	PricesCollection    string
	SummaryCollection   string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	Days            int
	CityDelayMs     int
	RetailerDelayMs int
	SettleDelayMs   int
	WaitTimeoutMs   int
	PageTimeoutMs   int

	OutputPath    string
	CSVOutputPath string
	ChromeBin     string
	LogLevel      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		PricesCollection:    getEnv("PRICES_COLLECTION", "gold_prices"),
		SummaryCollection:   getEnv("SUMMARY_COLLECTION", "gold_prices_summary"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "gold_rates"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		Days:            getEnvInt("SCRAPE_DAYS", 30),
		CityDelayMs:     getEnvInt("CITY_DELAY_MS", 2000),
		RetailerDelayMs: getEnvInt("RETAILER_DELAY_MS", 5000),
		SettleDelayMs:   getEnvInt("SETTLE_DELAY_MS", 15000),
		WaitTimeoutMs:   getEnvInt("WAIT_TIMEOUT_MS", 30000),
		PageTimeoutMs:   getEnvInt("PAGE_TIMEOUT_MS", 120000),

		OutputPath:    getEnv("OUTPUT_PATH", ""),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", ""),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func (c *Config) CityDelay() time.Duration     { return ms(c.CityDelayMs) }
func (c *Config) RetailerDelay() time.Duration { return ms(c.RetailerDelayMs) }
func (c *Config) SettleDelay() time.Duration   { return ms(c.SettleDelayMs) }
func (c *Config) WaitTimeout() time.Duration   { return ms(c.WaitTimeoutMs) }
func (c *Config) PageTimeout() time.Duration   { return ms(c.PageTimeoutMs) }

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
