// Package config loads spendnote configuration from an optional JSON file and
// the environment. Environment variables win over file values.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	kJson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/spendnote/pkg/api"
)

// ClientSecretFile is the default path to the Google OAuth credentials JSON file.
const ClientSecretFile = "data/client_secret.json"

// Store backends.
const (
	StoreJSON     = "json"
	StorePostgres = "postgres"
)

// Defaults applied to unset values.
const (
	DefaultDataFile = "data/spendnote.json"
	DefaultHTTPAddr = ":8080"
	DefaultTimezone = "Asia/Kolkata"
)

// Config holds the application configuration.
type Config struct {
	// Store selects the persistence backend: json or postgres.
	// Environment variable: SPENDNOTE_STORE
	Store string `koanf:"SPENDNOTE_STORE"`

	// DataFile is the path of the JSON store document.
	// Environment variable: SPENDNOTE_DATA_FILE
	DataFile string `koanf:"SPENDNOTE_DATA_FILE"`

	// Timezone is the reference timezone for dates and month windows.
	// Environment variable: SPENDNOTE_TIMEZONE
	Timezone string `koanf:"SPENDNOTE_TIMEZONE"`

	// Currency is the single currency amounts are recorded in.
	// Environment variable: SPENDNOTE_CURRENCY
	Currency string `koanf:"SPENDNOTE_CURRENCY"`

	// LearnedCategories lets user corrections override the category rules.
	// Environment variable: SPENDNOTE_LEARNED_CATEGORIES
	LearnedCategories bool `koanf:"SPENDNOTE_LEARNED_CATEGORIES"`

	// HTTPAddr is the listen address for `spendnote serve`.
	// Environment variable: SPENDNOTE_HTTP_ADDR
	HTTPAddr string `koanf:"SPENDNOTE_HTTP_ADDR"`

	// ClientSecretFile is the Google OAuth credentials file used by the sheets export.
	// Environment variable: CLIENT_SECRET_FILE
	ClientSecretFile string `koanf:"CLIENT_SECRET_FILE"`

	// GSheetsTitle is the title for a new Google Sheet (used when creating).
	// Environment variable: GSHEETS_TITLE
	GSheetsTitle string `koanf:"GSHEETS_TITLE"`

	// GSheetsID is the ID of an existing Google Sheet to use.
	// Environment variable: GSHEETS_ID
	GSheetsID string `koanf:"GSHEETS_ID"`

	// GSheetsName is the name of the sheet/tab within the spreadsheet.
	// Environment variable: GSHEETS_NAME
	GSheetsName string `koanf:"GSHEETS_NAME"`

	LogLevel  string `koanf:"LOG_LEVEL"`
	LogFormat string `koanf:"LOG_FORMAT"`

	// PostgreSQL configuration, used when Store is postgres.
	Postgres PostgresConfig `koanf:",squash"`
}

// PostgresConfig holds PostgreSQL connection configuration.
// URL, when set, takes precedence over the individual fields.
type PostgresConfig struct {
	URL      string `koanf:"POSTGRES_URL"`
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

// ConnString returns a connection string accepted by pgx.
func (p PostgresConfig) ConnString() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, port),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// Load reads configuration from path (skipped when empty) and then from the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kJson.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	if c.Store == "" {
		c.Store = StoreJSON
	}
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Currency == "" {
		c.Currency = api.DefaultCurrency
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.ClientSecretFile == "" {
		c.ClientSecretFile = ClientSecretFile
	}
}

// Validate reports every missing or invalid value.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreJSON:
		if c.DataFile == "" {
			errs = append(errs, errors.New("SPENDNOTE_DATA_FILE is required for the json store"))
		}
	case StorePostgres:
		if c.Postgres.URL == "" && (c.Postgres.Host == "" || c.Postgres.Database == "") {
			errs = append(errs, errors.New("POSTGRES_URL or POSTGRES_HOST and POSTGRES_DB are required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("SPENDNOTE_STORE must be %q or %q, got %q", StoreJSON, StorePostgres, c.Store))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SPENDNOTE_TIMEZONE: %w", err))
	}
	if c.Currency != api.DefaultCurrency {
		errs = append(errs, fmt.Errorf("SPENDNOTE_CURRENCY: only %s is supported, got %q", api.DefaultCurrency, c.Currency))
	}

	return errors.Join(errs...)
}

// Location loads the configured reference timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

// SheetsConfigured reports whether enough is set to export to Google Sheets.
func (c *Config) SheetsConfigured() bool {
	return c.GSheetsName != "" && (c.GSheetsID != "" || c.GSheetsTitle != "")
}
