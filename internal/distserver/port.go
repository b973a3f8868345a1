package distserver

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
)

// ResolvePort parses the configured dist server port. It must be a positive
// integer no larger than 65535.
func ResolvePort(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, errors.ConfigError("dist_server.port must be set to serve the output directory").
			WithContext("setting", "dist_server.port").
			Build()
	}
	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		b := errors.ConfigError("dist_server.port must be a positive integer").
			WithContext("setting", "dist_server.port").
			WithContext("value", value)
		if err != nil {
			b = b.WithCause(err)
		}
		return 0, b.Build()
	}
	return port, nil
}
