package orchestrator

import (
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// RunContext carries everything a run needs to know about its invocation.
type RunContext struct {
	ID         string
	WorkDir    string
	Mode       Mode
	RawMode    string
	ConfigPath string
	// PreflightOnly stops the run after preflight checks succeed.
	PreflightOnly bool
	// DryRun transforms entries without bundling or touching the output dir.
	DryRun bool
}

// NewRunContext parses rawMode and resolves configPath against workDir.
func NewRunContext(workDir, rawMode, configPath string) RunContext {
	mode, recognized := ParseMode(rawMode)
	id := uuid.NewString()
	if !recognized {
		slog.Warn("Unrecognized mode, running a production build",
			slog.String("argument", rawMode), logfields.RunID(id))
	}
	if configPath != "" && !filepath.IsAbs(configPath) {
		configPath = filepath.Join(workDir, configPath)
	}
	return RunContext{
		ID:         id,
		WorkDir:    workDir,
		Mode:       mode,
		RawMode:    rawMode,
		ConfigPath: configPath,
	}
}

// resolve joins a project-relative path with the working directory.
func (rc RunContext) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rc.WorkDir, p)
}
