package orchestrator

import "git.home.luguber.info/inful/webbuilder/internal/bundle"

// Mode is the top-level action selected by the positional argument.
type Mode int

const (
	// ModeProductionBuild is the default when the argument is absent or unrecognized.
	ModeProductionBuild Mode = iota
	ModeDevServer
	ModeDistServer
)

// Positional argument values.
const (
	ArgDevServer  = "wds"
	ArgDistServer = "distserver"
)

func (m Mode) String() string {
	switch m {
	case ModeDevServer:
		return ArgDevServer
	case ModeDistServer:
		return ArgDistServer
	default:
		return "production"
	}
}

// BundleMode is the transform mode used for builds in m.
func (m Mode) BundleMode() bundle.Mode {
	if m == ModeDevServer {
		return bundle.ModeDevServer
	}
	return bundle.ModeProduction
}

// ParseMode maps the positional argument to a Mode. recognized is false for
// a non-empty argument that names no mode; it still selects a production build.
func ParseMode(arg string) (mode Mode, recognized bool) {
	switch arg {
	case ArgDevServer:
		return ModeDevServer, true
	case ArgDistServer:
		return ModeDistServer, true
	case "":
		return ModeProductionBuild, true
	default:
		return ModeProductionBuild, false
	}
}
