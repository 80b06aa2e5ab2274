package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backing store kinds accepted in BACKEND
const (
	BackendFile   = "file"
	BackendGCS    = "gcs"
	BackendGSheet = "gsheet"
	BackendSQL    = "sql"
)

// Config is the whole runtime configuration, read once at startup
type Config struct {
	Port string

	Backend   string
	SheetPath string
	SheetName string

	GCSBucket string
	GCSObject string

	GSheetCSVURL   string
	GSheetWriteURL string
	HTTPTimeout    time.Duration

	DBDriver string // postgres or sqlite
	DBDSN    string

	AdminUsername string
	AdminPassword string // plain text or a bcrypt hash
	JWTSecret     string
	SessionTTL    time.Duration
	SessionStore  string // memory or redis

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GeocoderURL       string
	GeocoderUserAgent string

	WhatsAppPhone string

	LogLevel  string
	LogFormat string

	DotEnv bool // a .env file was found and loaded
}

// Load reads the environment, after loading .env when one exists
func Load() (Config, error) {
	dotEnvErr := godotenv.Load()

	cfg := Config{
		DotEnv:            dotEnvErr == nil,
		Port:              get("PORT", "8080"),
		Backend:           strings.ToLower(get("BACKEND", BackendFile)),
		SheetPath:         get("SHEET_PATH", "plots.xlsx"),
		SheetName:         get("SHEET_NAME", "Plots"),
		GCSBucket:         get("GCS_BUCKET", ""),
		GCSObject:         get("GCS_OBJECT", "plots.xlsx"),
		GSheetCSVURL:      strings.TrimSpace(get("GSHEET_CSV_URL", "")),
		GSheetWriteURL:    strings.TrimSpace(get("GSHEET_WRITE_URL", "")),
		HTTPTimeout:       getDuration("HTTP_TIMEOUT", 15*time.Second),
		DBDriver:          strings.ToLower(get("DB_DRIVER", "postgres")),
		DBDSN:             get("DB_DSN", ""),
		AdminUsername:     get("ADMIN_USERNAME", "admin"),
		AdminPassword:     get("ADMIN_PASSWORD", "plot123"),
		JWTSecret:         get("JWT_SECRET", ""),
		SessionTTL:        getDuration("SESSION_TTL", 12*time.Hour),
		SessionStore:      strings.ToLower(get("SESSION_STORE", "memory")),
		RedisAddr:         get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     get("REDIS_PASSWORD", ""),
		RedisDB:           getInt("REDIS_DB", 0),
		GeocoderURL:       get("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: get("GEOCODER_USER_AGENT", "plotdesk/1.0"),
		WhatsAppPhone:     get("WHATSAPP_PHONE", "919876543210"),
		LogLevel:          strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(get("LOG_FORMAT", "json")),
	}

	switch cfg.Backend {
	case BackendFile, BackendGCS, BackendGSheet, BackendSQL:
	default:
		return cfg, fmt.Errorf("unknown BACKEND %q (want file, gcs, gsheet or sql)", cfg.Backend)
	}
	switch cfg.SessionStore {
	case "memory", "redis":
	default:
		return cfg, fmt.Errorf("unknown SESSION_STORE %q (want memory or redis)", cfg.SessionStore)
	}
	if cfg.Backend == BackendGSheet && cfg.GSheetCSVURL == "" {
		return cfg, fmt.Errorf("BACKEND=gsheet needs GSHEET_CSV_URL")
	}
	return cfg, nil
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
