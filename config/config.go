package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultFinanceAccount   = "Primary Portfolio"
	UnknownFinanceSourceRef = "finance:unknown"
	DefaultDisplayTimeZone  = "America/New_York"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	DatabaseURL     string
	Port            string
	AdminToken      string
	LogLevel        string
	DisplayTZ       string
	StalenessConfig string
	HealthCacheTTL  time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is read first; variables already set in the shell win.
func Load() (*Config, error) {
	loadDotEnv()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	displayTZ := os.Getenv("DISPLAY_TZ")
	if displayTZ == "" {
		displayTZ = DefaultDisplayTimeZone
	}

	// Off by default: ingestions run from dashctl cannot invalidate a server's cache.
	var healthCacheTTL time.Duration
	if v := os.Getenv("HEALTH_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HEALTH_CACHE_TTL %q: %w", v, err)
		}
		healthCacheTTL = d
	}

	return &Config{
		DatabaseURL:     databaseURL,
		Port:            port,
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		LogLevel:        logLevel,
		DisplayTZ:       displayTZ,
		StalenessConfig: os.Getenv("STALENESS_CONFIG"),
		HealthCacheTTL:  healthCacheTTL,
	}, nil
}

// FinanceIngest holds the inputs of one finance ingestion run
type FinanceIngest struct {
	Path        string
	AccountName string
	SourceRef   string
}

// LoadFinanceIngest reads FINANCE_XLSX_PATH, FINANCE_ACCOUNT_NAME and
// FINANCE_SOURCE_REF. A missing path is not reported here; the ingestion run
// rejects it before touching storage.
func LoadFinanceIngest() FinanceIngest {
	loadDotEnv()
	return FinanceIngest{
		Path:        os.Getenv("FINANCE_XLSX_PATH"),
		AccountName: os.Getenv("FINANCE_ACCOUNT_NAME"),
		SourceRef:   os.Getenv("FINANCE_SOURCE_REF"),
	}
}

// WithOverrides replaces fields with the non-empty arguments
func (f FinanceIngest) WithOverrides(path, accountName, sourceRef string) FinanceIngest {
	if path != "" {
		f.Path = path
	}
	if accountName != "" {
		f.AccountName = accountName
	}
	if sourceRef != "" {
		f.SourceRef = sourceRef
	}
	return f
}

// WithDefaults fills the account name and source ref when blank
func (f FinanceIngest) WithDefaults() FinanceIngest {
	if strings.TrimSpace(f.AccountName) == "" {
		f.AccountName = DefaultFinanceAccount
	}
	if strings.TrimSpace(f.SourceRef) == "" {
		f.SourceRef = DefaultSourceRef(f.Path)
	}
	return f
}

// DefaultSourceRef is the file's base name, or finance:unknown without a path
func DefaultSourceRef(path string) string {
	if strings.TrimSpace(path) == "" {
		return UnknownFinanceSourceRef
	}
	return filepath.Base(path)
}

// ConfigureLogging sets the logrus level and formatter
func ConfigureLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}
}
