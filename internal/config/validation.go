package config

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
)

// StartEntry is the entry point every project must declare.
const StartEntry = "start"

// Validate checks the settings every mode depends on. It never modifies cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ConfigError("configuration is missing").Build()
	}
	if strings.TrimSpace(cfg.Browsers) == "" {
		return errors.ConfigError("browsers must be set to a non-empty compatibility query").
			WithContext("setting", "browsers").
			Build()
	}
	if !cfg.Entries.Has(StartEntry) {
		return errors.ConfigError("entries must contain a \"start\" entry point").
			WithContext("setting", "entries").
			WithContext("entry", StartEntry).
			Build()
	}
	return nil
}

// BrowserQuery returns the configured compatibility query.
func (c *Config) BrowserQuery(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(c.Browsers), nil
}
