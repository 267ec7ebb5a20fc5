package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default city list: UEMOA capitals and major cities tracked when
// WEATHER_CITIES is not set.
var defaultCities = []string{
	"Porto-Novo", "Cotonou", "Parakou",
	"Ouagadougou", "Bobo-Dioulasso",
	"Abidjan", "Yamoussoukro", "Bouake",
	"Bissau", "Bafata",
	"Bamako", "Sikasso", "Segou",
	"Niamey", "Zinder", "Maradi",
	"Dakar", "Thies", "Saint-Louis", "Kaolack",
	"Lome", "Sokode", "Kara",
}

// AppConfig is the explicit configuration object passed into the pipeline at
// construction. There is no hidden process-wide state.
type AppConfig struct {
	// WeatherAPI.com access.
	WeatherAPIKey string
	WeatherAPIURL string

	// Cities to track, passed as the `q` parameter to the upstream API.
	Cities []string

	// HistoryDays controls how many past days of hourly history are fetched
	// per city in addition to current conditions (0 = current only).
	HistoryDays int

	// FetchInterval controls how often the ETL run executes.
	FetchInterval time.Duration

	// Staging (intermediate) store.
	StagingDriver string
	StagingDSN    string
	// ResetStagingOnRun drops and recreates the staging schema at the start
	// of every run, mirroring the hourly full-refresh cadence of the feed.
	ResetStagingOnRun bool

	// Warehouse store.
	WarehouseDriver string
	WarehouseDSN    string

	// Outbound HTTP client timeout.
	HTTPTimeout time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// Missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.WeatherAPIURL = getenvDefault("WEATHERAPI_BASE_URL", "https://api.weatherapi.com/v1")

	cfg.Cities = splitList(os.Getenv("WEATHER_CITIES"))
	if len(cfg.Cities) == 0 {
		cfg.Cities = append(cfg.Cities, defaultCities...)
	}

	cfg.HistoryDays = getenvInt("WEATHER_HISTORY_DAYS", 0)
	if cfg.HistoryDays < 0 {
		return nil, fmt.Errorf("WEATHER_HISTORY_DAYS must not be negative")
	}

	intervalStr := getenvDefault("FETCH_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	if interval < time.Minute {
		return nil, fmt.Errorf("FETCH_INTERVAL must be at least 1m, got %s", interval)
	}
	cfg.FetchInterval = interval

	cfg.StagingDriver = getenvDefault("STAGING_DB_DRIVER", "sqlite")
	cfg.StagingDSN = getenvDefault("STAGING_DB_DSN", "staging.db")
	cfg.ResetStagingOnRun = getenvBool("STAGING_RESET_ON_RUN", true)

	cfg.WarehouseDriver = getenvDefault("WAREHOUSE_DB_DRIVER", "sqlite")
	cfg.WarehouseDSN = getenvDefault("WAREHOUSE_DB_DSN", "warehouse.db")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
