package config

import (
	"path/filepath"
	"strings"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// OutputDefaultApplier defaults the production output directory.
type OutputDefaultApplier struct{}

func (OutputDefaultApplier) Domain() string { return "output" }

func (OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Directory) == "" {
		cfg.Output.Directory = "dist"
	}
	cfg.Output.Directory = filepath.Clean(cfg.Output.Directory)
	return nil
}

// LoaderDefaultApplier fills in loader names that were left unset.
type LoaderDefaultApplier struct{}

func (LoaderDefaultApplier) Domain() string { return "loaders" }

func (LoaderDefaultApplier) ApplyDefaults(cfg *Config) error {
	l := &cfg.Loaders
	if l.Style == "" {
		l.Style = "style-loader"
	}
	if l.CSS == "" {
		l.CSS = "css-loader"
	}
	if l.Autoprefixer == "" {
		l.Autoprefixer = "autoprefixer-loader"
	}
	if l.Sass == "" {
		l.Sass = "sass-loader"
	}
	return nil
}

// DevServerDefaultApplier defaults the dev server address.
type DevServerDefaultApplier struct{}

func (DevServerDefaultApplier) Domain() string { return "dev_server" }

func (DevServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.DevServer.Host == "" {
		cfg.DevServer.Host = "localhost"
	}
	if cfg.DevServer.Port <= 0 {
		cfg.DevServer.Port = 8080
	}
	return nil
}

// PreflightDefaultApplier defaults the source directories checked before a run.
type PreflightDefaultApplier struct{}

func (PreflightDefaultApplier) Domain() string { return "preflight" }

func (PreflightDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Preflight.RequiredPaths == nil {
		cfg.Preflight.RequiredPaths = []string{"src"}
	}
	if cfg.Preflight.CompileDirs == nil {
		cfg.Preflight.CompileDirs = []string{"src"}
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		OutputDefaultApplier{},
		LoaderDefaultApplier{},
		DevServerDefaultApplier{},
		PreflightDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults fills unset fields of cfg. Load calls it; tests and
// programmatic callers building a Config by hand may call it directly.
func ApplyDefaults(cfg *Config) error { return applyDefaults(cfg) }
