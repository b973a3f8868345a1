package preflight

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// hookMarker identifies hooks written by this tool.
const hookMarker = "# webbuilder pre-commit hook"

const hookHeader = `#!/usr/bin/env bash
` + hookMarker + ` - run preflight checks before each commit
set -e

if ! command -v webbuilder &> /dev/null; then
    echo "webbuilder not found in PATH, skipping preflight checks"
    exit 0
fi

`

// hookScript renders the hook for a project at root. The hook runs from the
// repository top level, so the project directory and config are explicit.
func hookScript(root, configPath string) string {
	cmd := "exec webbuilder -C " + shellQuote(root)
	if configPath != "" {
		cmd += " -c " + shellQuote(configPath)
	}
	return hookHeader + cmd + " --preflight-only\n"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// HookStep installs the pre-commit hook into the repository containing Root.
type HookStep struct {
	Root    string
	Enabled bool
	// ConfigPath is passed to the hook's webbuilder invocation when set.
	ConfigPath string
	// Now stamps backup filenames; time.Now when nil.
	Now func() time.Time
}

func (s HookStep) Name() string { return "hook" }

func (s HookStep) Run(_ context.Context) error {
	if !s.Enabled {
		return skipped("hook installation disabled")
	}

	gitDir, err := findGitDir(s.Root)
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return skipped("not in a Git repository")
		}
		return err
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	script := hookScript(root, s.ConfigPath)

	hooksDir := filepath.Join(gitDir, "hooks")
	hookPath := filepath.Join(hooksDir, "pre-commit")
	if err := os.MkdirAll(hooksDir, 0o750); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	if existing, err := os.ReadFile(hookPath); err == nil { // #nosec G304 -- path inside the repository's git dir
		if string(existing) == script {
			slog.Debug("Pre-commit hook up to date", logfields.Path(hookPath))
			return nil
		}
		if !strings.Contains(string(existing), hookMarker) {
			now := time.Now
			if s.Now != nil {
				now = s.Now
			}
			backupPath := fmt.Sprintf("%s.backup-%s", hookPath, now().Format("20060102-150405"))
			if err := writeExecutable(backupPath, existing); err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
			slog.Info("Backed up existing pre-commit hook", logfields.Path(backupPath))
		}
	}

	if err := writeExecutable(hookPath, []byte(script)); err != nil {
		return fmt.Errorf("failed to write hook file: %w", err)
	}
	slog.Info("Installed pre-commit hook", logfields.Path(hookPath))
	return nil
}

// writeExecutable writes data to path with mode 0755. WriteFile keeps the
// mode of an existing file, so the mode is set explicitly.
func writeExecutable(path string, data []byte) error {
	// #nosec G306 -- hooks must be executable
	if err := os.WriteFile(path, data, 0o755); err != nil {
		return err
	}
	// #nosec G302 -- hooks must be executable
	return os.Chmod(path, 0o755)
}

// findGitDir locates the .git directory for root, searching parent directories.
func findGitDir(root string) (string, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}
	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", fmt.Errorf("repository at %s is not backed by a filesystem", root)
	}
	return storage.Filesystem().Root(), nil
}
