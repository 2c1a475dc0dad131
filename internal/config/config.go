// Package config loads runtime settings from the environment, after reading an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSheets = "sheets"
	StoreLibSQL = "libsql"
	StoreMemory = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// Store is sheets, libsql or memory. Empty picks the first one configured.
	Store string

	SheetID            string
	SheetName          string
	ServiceAccountMail string
	PrivateKey         string

	TursoURL       string
	TursoAuthToken string

	FallbackPolicy string
	FallbackFile   string
	FallbackTTL    time.Duration

	RedisAddr string
	RedisPass string
	RedisDB   int

	TelegramToken       string
	TelegramAdminChatID int64

	AdminPassword    string
	AdminTelegramIDs []int64

	WhatsAppNumber      string
	CheckoutConcurrency int
	CatalogFile         string
	SeedFile            string

	ReserveMaxRetries int
	ReserveBackoff    time.Duration
}

// Load reads .env (when present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:     EnvString("PORT", "8080"),
		LogLevel: EnvString("LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       EnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		Store: strings.ToLower(EnvString("STORE_BACKEND", "")),

		SheetID:            EnvString("GOOGLE_SHEET_ID", ""),
		SheetName:          EnvString("GOOGLE_SHEET_NAME", "Presentes"),
		ServiceAccountMail: EnvString("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		PrivateKey:         EnvString("GOOGLE_PRIVATE_KEY", ""),

		TursoURL:       EnvString("TURSO_DATABASE_URL", ""),
		TursoAuthToken: EnvString("TURSO_AUTH_TOKEN", ""),

		FallbackPolicy: strings.ToLower(EnvString("FALLBACK_POLICY", "static")),
		FallbackFile:   EnvString("FALLBACK_FILE", ""),
		FallbackTTL:    EnvDuration("FALLBACK_TTL", 24*time.Hour),

		RedisAddr: strings.ReplaceAll(EnvString("REDIS_ADDR", ""), " ", ""),
		RedisPass: EnvString("REDIS_PASS", ""),
		RedisDB:   EnvInt("REDIS_DB", 0),

		TelegramToken:       EnvString("TELEGRAM_TOKEN", ""),
		TelegramAdminChatID: EnvInt64("TELEGRAM_ADMIN_CHAT_ID", 0),

		AdminPassword: EnvString("ADMIN_PASSWORD", ""),

		WhatsAppNumber:      EnvString("WHATSAPP_NUMBER", "5511999999999"),
		CheckoutConcurrency: EnvInt("CHECKOUT_CONCURRENCY", 4),
		CatalogFile:         EnvString("CATALOG_FILE", ""),
		SeedFile:            EnvString("SEED_FILE", ""),

		ReserveMaxRetries: EnvInt("RESERVE_MAX_RETRIES", 3),
		ReserveBackoff:    EnvDuration("RESERVE_BACKOFF", 25*time.Millisecond),
	}

	for _, raw := range EnvList("ADMIN_TELEGRAM_IDS") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ADMIN_TELEGRAM_IDS: %q is not a number", raw)
		}
		cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
	}

	if cfg.Store == "" {
		cfg.Store = cfg.detectStore()
	}
	return cfg, cfg.Validate()
}

func (c Config) detectStore() string {
	switch {
	case c.SheetID != "":
		return StoreSheets
	case c.TursoURL != "":
		return StoreLibSQL
	default:
		return StoreMemory
	}
}

// Validate checks that the selected backends have what they need.
func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreSheets:
		if c.SheetID == "" || c.ServiceAccountMail == "" || c.PrivateKey == "" {
			errs = append(errs, errors.New("GOOGLE_SHEET_ID, GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY must be set"))
		}
	case StoreLibSQL:
		if c.TursoURL == "" {
			errs = append(errs, errors.New("TURSO_DATABASE_URL must be set"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", c.Store))
	}

	switch c.FallbackPolicy {
	case "static", "last-known-good":
	default:
		errs = append(errs, fmt.Errorf("FALLBACK_POLICY: unknown policy %q", c.FallbackPolicy))
	}

	if c.ReserveMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("RESERVE_MAX_RETRIES: must not be negative, got %d", c.ReserveMaxRetries))
	}

	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}
