package bundle

// Mode selects which style chain and plugin subset a derived configuration gets.
type Mode int

const (
	// ModeProduction extracts stylesheets and enables the optimization plugins.
	ModeProduction Mode = iota
	// ModeDevServer injects styles at runtime and skips optimizations.
	ModeDevServer
)

// String returns the build-mode marker injected into bundled code.
func (m Mode) String() string {
	if m == ModeDevServer {
		return "development"
	}
	return "production"
}

// IsDevServer reports whether m is the dev-server mode.
func (m Mode) IsDevServer() bool { return m == ModeDevServer }
