// Package lines provides a plugin wrapper for the free-text lines reader.
package lines

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ArionMiles/spendnote/internal/plugins"
	"github.com/ArionMiles/spendnote/pkg/api"
	linesreader "github.com/ArionMiles/spendnote/pkg/reader/lines"
)

// Stdin is the filePath that selects standard input.
const Stdin = "-"

// Plugin implements the ReaderPlugin interface for text files with one entry per line.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "lines"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read free-text expense entries, one per line"
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
			"filePath": map[string]any{
				"type":        "string",
				"description": "Path to the input file, or - for standard input",
			},
		},
		"required": []string{"filePath"},
	}
}

// Config represents the lines reader configuration.
type Config struct {
	FilePath string `json:"filePath"`
}

// NewReader creates a new lines reader instance.
func (p *Plugin) NewReader(deps plugins.Deps, configData json.RawMessage, logger *slog.Logger) (api.Reader, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling lines config: %w", err)
	}

	if cfg.FilePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}
	if deps.Drafter == nil {
		return nil, fmt.Errorf("lines reader needs a drafter")
	}

	var src io.Reader
	if cfg.FilePath == Stdin {
		// Hide Close so the reader leaves stdin open.
		src = struct{ io.Reader }{os.Stdin}
	} else {
		f, err := os.Open(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		src = f
	}

	return linesreader.New(src, deps.Drafter, logger), nil
}
