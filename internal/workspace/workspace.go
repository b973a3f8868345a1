package workspace

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// Manager owns one ephemeral directory. Create it before use and Cleanup
// when the dev server stops.
type Manager struct {
	baseDir string
	dir     string
}

// NewManager creates a manager that places its directory under baseDir, or
// the system temp dir when baseDir is empty.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create makes a fresh, uniquely named directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace base directory").
			WithContext("path", m.baseDir).
			Build()
	}
	dir, err := os.MkdirTemp(m.baseDir, "webbuilder-dev-*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace directory").
			WithContext("path", m.baseDir).
			Build()
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Cleanup removes the directory. It is a no-op when nothing was created.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean up workspace").
			WithContext("path", m.dir).
			Build()
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
