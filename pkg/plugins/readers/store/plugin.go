// Package store provides a plugin wrapper for the store reader.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArionMiles/spendnote/internal/plugins"
	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/ledger"
	"github.com/ArionMiles/spendnote/pkg/parser"
	storereader "github.com/ArionMiles/spendnote/pkg/reader/store"
	"github.com/ArionMiles/spendnote/pkg/store"
)

// Plugin implements the ReaderPlugin interface for saved expenses.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "store"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read saved expenses from the configured store"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"month": map[string]any{
				"type":        "string",
				"description": "Calendar month to export as YYYY-MM (default: everything)",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Only export this category",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Export at most this many of the newest expenses",
			},
		},
	}
}

// Config represents the store reader configuration.
type Config struct {
	Month    string `json:"month,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Filter converts the configuration into a store filter in loc.
func (c Config) Filter(loc *time.Location) (store.Filter, error) {
	f := store.Filter{Category: c.Category, Limit: c.Limit}
	if c.Month != "" {
		month, err := ledger.ParseMonth(c.Month, loc)
		if err != nil {
			return store.Filter{}, err
		}
		f.From, f.To = ledger.MonthRange(month, loc)
	}
	return f, nil
}

// NewReader creates a new store reader instance.
func (p *Plugin) NewReader(deps plugins.Deps, configData json.RawMessage, logger *slog.Logger) (api.Reader, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling store config: %w", err)
		}
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store reader needs an open store")
	}

	loc := deps.Location
	if loc == nil {
		loc = parser.ReferenceLocation()
	}
	filter, err := cfg.Filter(loc)
	if err != nil {
		return nil, err
	}

	return storereader.New(deps.Store, filter, logger), nil
}
