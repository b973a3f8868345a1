package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "WEBBUILDER_"

// EnvDistServerPort overrides dist_server.port.
const EnvDistServerPort = EnvPrefix + "DIST_SERVER_PORT"

// loadEnvFiles loads .env and .env.local next to the project file.
// Variables already present in the process environment win.
func loadEnvFiles(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
				WithContext("path", path).
				Fatal().
				Build()
		}
		slog.Debug("Loaded environment file", logfields.Path(path))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv(EnvDistServerPort); ok && strings.TrimSpace(v) != "" {
		cfg.DistServer.Port = strings.TrimSpace(v)
	}
}
