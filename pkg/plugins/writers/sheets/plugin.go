// Package sheets provides a plugin wrapper for the Google Sheets writer.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArionMiles/spendnote/internal/plugins"
	"github.com/ArionMiles/spendnote/pkg/api"
	sheetswriter "github.com/ArionMiles/spendnote/pkg/writer/sheets"
)

// Plugin implements the WriterPlugin interface for Google Sheets.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "sheets"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Write expenses to Google Sheets"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return []string{sheetswriter.Scope}
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sheetTitle": map[string]any{
				"type":        "string",
				"description": "Title for a new spreadsheet (used if sheetId is not provided)",
			},
			"sheetId": map[string]any{
				"type":        "string",
				"description": "ID of an existing spreadsheet to use",
			},
			"sheetName": map[string]any{
				"type":        "string",
				"description": "Name of the sheet/tab within the spreadsheet",
			},
			"batchSize": map[string]any{
				"type":        "integer",
				"description": "Number of expenses to buffer before writing (default: 10)",
				"default":     10,
			},
			"flushInterval": map[string]any{
				"type":        "integer",
				"description": "Interval in seconds between automatic flushes (default: 30)",
				"default":     30,
			},
		},
		"required": []string{"sheetName"},
	}
}

// Config represents the Sheets writer configuration.
type Config struct {
	SheetTitle    string `json:"sheetTitle,omitempty"`
	SheetID       string `json:"sheetId,omitempty"`
	SheetName     string `json:"sheetName"`
	BatchSize     int    `json:"batchSize,omitempty"`
	FlushInterval int    `json:"flushInterval,omitempty"` // in seconds
}

// NewWriter creates a new Sheets writer instance.
func (p *Plugin) NewWriter(deps plugins.Deps, configData json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling sheets config: %w", err)
	}

	if cfg.SheetName == "" {
		return nil, fmt.Errorf("sheetName is required")
	}
	if cfg.SheetID == "" && cfg.SheetTitle == "" {
		return nil, fmt.Errorf("either sheetId or sheetTitle is required")
	}
	if deps.HTTPClient == nil {
		return nil, fmt.Errorf("sheets writer needs an authorized http client, run setup first")
	}

	return sheetswriter.New(context.Background(), deps.HTTPClient, sheetswriter.Config{
		SheetTitle:    cfg.SheetTitle,
		SheetID:       cfg.SheetID,
		SheetName:     cfg.SheetName,
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
	}, logger)
}
