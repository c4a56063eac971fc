package config

import (
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func setEnvs(t *testing.T, m map[string]string) {
	t.Helper()
	for k, v := range m {
		t.Setenv(k, v)
	}
}

// --- env helpers ---

func TestGetenv(t *testing.T) {
	t.Setenv("SM_GETENV_SET", "hello")
	t.Setenv("SM_GETENV_EMPTY", "")
	os.Unsetenv("SM_GETENV_MISSING")

	tests := []struct {
		key, def, want string
	}{
		{"SM_GETENV_SET", "fallback", "hello"},
		{"SM_GETENV_MISSING", "fallback", "fallback"},
		{"SM_GETENV_EMPTY", "default", "default"},
	}
	for _, tt := range tests {
		if got := getenv(tt.key, tt.def); got != tt.want {
			t.Errorf("getenv(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{"valid", "42", 0, 42},
		{"negative", "-5", 0, -5},
		{"zero", "0", 99, 0},
		{"invalid", "not_a_number", 99, 99},
		{"float", "3.14", 10, 10},
		{"unset", "", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SM_INT", tt.value)
			if got := envInt("SM_INT", tt.def); got != tt.want {
				t.Errorf("envInt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEnvBool(t *testing.T) {
	for _, val := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		t.Setenv("SM_BOOL", val)
		if !envBool("SM_BOOL", false) {
			t.Errorf("envBool(%q) = false, want true", val)
		}
	}
	for _, val := range []string{"0", "false", "no", "random"} {
		t.Setenv("SM_BOOL", val)
		if envBool("SM_BOOL", true) {
			t.Errorf("envBool(%q) = true, want false", val)
		}
	}

	t.Setenv("SM_BOOL", "")
	if !envBool("SM_BOOL", true) {
		t.Error("envBool should return the default for an empty value")
	}
}

func TestEnvDurSecs(t *testing.T) {
	t.Setenv("SM_DUR", "30")
	if got := envDurSecs("SM_DUR", 60); got != 30*time.Second {
		t.Errorf("envDurSecs = %v, want 30s", got)
	}
	os.Unsetenv("SM_DUR_MISSING")
	if got := envDurSecs("SM_DUR_MISSING", 120); got != 2*time.Minute {
		t.Errorf("envDurSecs = %v, want 2m", got)
	}
}

// --- Load ---

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_PATH", "REQUEST_TIMEOUT_SECONDS", "LOG_RETENTION",
		"STORE_STATUS_CSV", "MENU_HOURS_CSV", "TIMEZONES_CSV", "IMPORT_ON_START",
		"DEFAULT_TIMEZONE", "REPORT_API_KEY", "REPORT_API_KEY_BCRYPT", "RATE_LIMIT_PER_MIN",
	} {
		// t.Setenv restores the previous value after the test
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "4555" {
		t.Errorf("Port = %q, want 4555", cfg.Port)
	}
	if cfg.DBPath != "./store_monitor.db" {
		t.Errorf("DBPath = %q, want ./store_monitor.db", cfg.DBPath)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.DefaultTimezone != "America/Chicago" {
		t.Errorf("DefaultTimezone = %q, want America/Chicago", cfg.DefaultTimezone)
	}
	if !cfg.ImportOnStart {
		t.Error("ImportOnStart should default to true")
	}
	if cfg.StoreStatusCSV != "" || cfg.MenuHoursCSV != "" || cfg.TimezonesCSV != "" {
		t.Error("CSV paths should default to empty")
	}
	if cfg.APIKeyHash != nil {
		t.Error("APIKeyHash should be nil without a configured key")
	}
	if cfg.RateLimitPerMin != 60 {
		t.Errorf("RateLimitPerMin = %d, want 60", cfg.RateLimitPerMin)
	}
	if cfg.LogRetention != 10000 {
		t.Errorf("LogRetention = %d, want 10000", cfg.LogRetention)
	}
}

func TestLoad_CSVPaths(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"STORE_STATUS_CSV": "data/store_status.csv",
		"MENU_HOURS_CSV":   "data/menu_hours.csv",
		"TIMEZONES_CSV":    "data/timezones.csv",
		"IMPORT_ON_START":  "no",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StoreStatusCSV != "data/store_status.csv" || cfg.MenuHoursCSV != "data/menu_hours.csv" || cfg.TimezonesCSV != "data/timezones.csv" {
		t.Errorf("CSV paths = %q, %q, %q", cfg.StoreStatusCSV, cfg.MenuHoursCSV, cfg.TimezonesCSV)
	}
	if cfg.ImportOnStart {
		t.Error("ImportOnStart should be false when set to 'no'")
	}
}

func TestLoad_InvalidDefaultTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_TIMEZONE", "Nowhere/Special")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid DEFAULT_TIMEZONE")
	}
}

func TestLoad_APIKeyHashed(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_API_KEY", "a-sufficiently-long-api-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(cfg.APIKeyHash, []byte("a-sufficiently-long-api-key")); err != nil {
		t.Errorf("APIKeyHash does not match key: %v", err)
	}
}

func TestLoad_APIKeyTooShort(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_API_KEY", "short")

	if _, err := Load(); err == nil {
		t.Error("expected error for short REPORT_API_KEY")
	}
}

func TestLoad_APIKeyBcryptPreferred(t *testing.T) {
	clearEnv(t)
	hash := "$2a$10$xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	setEnvs(t, map[string]string{
		"REPORT_API_KEY_BCRYPT": hash,
		"REPORT_API_KEY":        "ignored-because-hash-is-set",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(cfg.APIKeyHash) != hash {
		t.Errorf("APIKeyHash = %q, want %q", string(cfg.APIKeyHash), hash)
	}
}

func TestLoad_CustomPortAndTimeout(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"PORT":                    "8080",
		"REQUEST_TIMEOUT_SECONDS": "5",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
}
