// Package store provides a plugin wrapper for the store writer.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArionMiles/spendnote/internal/plugins"
	"github.com/ArionMiles/spendnote/pkg/api"
	storewriter "github.com/ArionMiles/spendnote/pkg/writer/store"
)

// Plugin implements the WriterPlugin interface for the configured expense store.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "store"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Save expenses into the configured store (JSON file or PostgreSQL)"
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
			"batchSize": map[string]any{
				"type":        "integer",
				"description": "Number of expenses to buffer before saving (default: 10)",
				"default":     10,
			},
			"flushInterval": map[string]any{
				"type":        "integer",
				"description": "Interval in seconds between automatic flushes (default: 30)",
				"default":     30,
			},
			"attempts": map[string]any{
				"type":        "integer",
				"description": "Tries per batch before giving up (default: 3)",
				"default":     3,
			},
		},
	}
}

// Config represents the store writer configuration.
type Config struct {
	BatchSize     int  `json:"batchSize,omitempty"`
	FlushInterval int  `json:"flushInterval,omitempty"` // in seconds
	Attempts      uint `json:"attempts,omitempty"`
}

// NewWriter creates a new store writer instance.
func (p *Plugin) NewWriter(deps plugins.Deps, configData json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling store config: %w", err)
		}
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store writer needs an open store")
	}

	return storewriter.New(deps.Store, storewriter.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
		Attempts:      cfg.Attempts,
	}, logger), nil
}
