package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port           string
	RequestTimeout time.Duration

	// Storage
	DBPath       string
	LogRetention int

	// Input relations (CSV), imported on start when set
	StoreStatusCSV string
	MenuHoursCSV   string
	TimezonesCSV   string
	ImportOnStart  bool

	// Reporting
	DefaultTimezone string

	// API protection
	APIKeyHash      []byte
	RateLimitPerMin int
}

// Load reads configuration from environment variables, after loading a
// .env file when present
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getenv("PORT", "4555"),
		RequestTimeout:  envDurSecs("REQUEST_TIMEOUT_SECONDS", 30),
		DBPath:          getenv("DB_PATH", "./store_monitor.db"),
		LogRetention:    envInt("LOG_RETENTION", 10000),
		StoreStatusCSV:  getenv("STORE_STATUS_CSV", ""),
		MenuHoursCSV:    getenv("MENU_HOURS_CSV", ""),
		TimezonesCSV:    getenv("TIMEZONES_CSV", ""),
		ImportOnStart:   envBool("IMPORT_ON_START", true),
		DefaultTimezone: getenv("DEFAULT_TIMEZONE", "America/Chicago"),
		RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
	}

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, errors.New("DEFAULT_TIMEZONE is not a valid IANA timezone: " + cfg.DefaultTimezone)
	}

	// API key: a precomputed bcrypt hash wins over a plain key
	if h := getenv("REPORT_API_KEY_BCRYPT", ""); h != "" {
		cfg.APIKeyHash = []byte(h)
	} else if key := getenv("REPORT_API_KEY", ""); key != "" {
		if len(key) < 16 {
			return nil, errors.New("REPORT_API_KEY must be at least 16 characters")
		}
		h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		cfg.APIKeyHash = h
	}

	return cfg, nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}
