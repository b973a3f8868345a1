package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
)

// DefaultFilename is the project file looked up when no path is given.
const DefaultFilename = "webbuilder.yaml"

// Config is the project-level build configuration.
type Config struct {
	// Browsers is the target-browser compatibility query, e.g. "last 2 versions".
	Browsers   string             `yaml:"browsers"`
	Entries    Entries            `yaml:"entries"`
	Output     OutputConfig       `yaml:"output"`
	Polyfill   bool               `yaml:"polyfill"`
	Loaders    bundle.LoaderPaths `yaml:"loaders"`
	DistServer DistServerConfig   `yaml:"dist_server"`
	DevServer  DevServerConfig    `yaml:"dev_server"`
	Preflight  PreflightConfig    `yaml:"preflight"`
	Metrics    MetricsConfig      `yaml:"metrics"`
}

// OutputConfig controls where production bundles are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// DistServerConfig configures the static asset server.
type DistServerConfig struct {
	// Port is kept verbatim; it is only parsed when the dist server starts.
	Port string `yaml:"port"`
}

// DevServerConfig configures the development server.
type DevServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PreflightConfig selects the checks run before any mode starts.
type PreflightConfig struct {
	RequiredPaths []string   `yaml:"required_paths"`
	Hook          *bool      `yaml:"hook"`
	CompileDirs   []string   `yaml:"compile_dirs"`
	Lint          LintConfig `yaml:"lint"`
}

// HookEnabled reports whether the pre-commit hook should be installed.
func (p PreflightConfig) HookEnabled() bool { return p.Hook == nil || *p.Hook }

// LintConfig is an external lint command.
type LintConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// MetricsConfig controls build metrics output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads a project file, applies defaults and environment overrides.
// It does not validate; call Validate before using the result.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(filepath.Dir(configPath)); err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(configPath, data)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the variable's value, or nothing when unset.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

// Parse decodes project file contents. The format is chosen by the file
// extension: .json and .jsonc accept JSON with comments, anything else is YAML.
// Braced ${VAR} references are expanded before decoding; a bare $ is kept
// as written since banners and rule patterns use it.
func Parse(name string, data []byte) (*Config, error) {
	expanded := expandEnv(data)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		// JSON is valid YAML once comments and insignificant whitespace are gone,
		// which lets both formats share one decoder and keep entry order.
		var buf bytes.Buffer
		if err := json.Compact(&buf, jsonc.ToJSON(expanded)); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
				WithContext("path", name).
				Fatal().
				Build()
		}
		expanded = buf.Bytes()
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			WithContext("path", name).
			Fatal().
			Build()
	}
	return &cfg, nil
}

// Entry returns a copy of the named entry point configuration.
func (c *Config) Entry(name string) (bundle.Config, error) {
	entry, ok := c.Entries.Get(name)
	if !ok {
		return bundle.Config{}, errors.ConfigError(fmt.Sprintf("entry point %q is not configured", name)).
			WithContext("entry", name).
			Build()
	}
	return entry, nil
}
