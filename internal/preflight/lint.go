package preflight

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// maxLintOutput bounds the linter output carried in errors.
const maxLintOutput = 4096

// LintStep runs the project's lint command in Root.
type LintStep struct {
	Root    string
	Command string
	Args    []string
}

func (s LintStep) Name() string { return "lint" }

func (s LintStep) Run(ctx context.Context) error {
	if strings.TrimSpace(s.Command) == "" {
		return skipped("no lint command configured")
	}
	if _, err := exec.LookPath(s.Command); err != nil {
		return fmt.Errorf("lint command %q not found: %w", s.Command, err)
	}

	// #nosec G204 -- command comes from project configuration
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Dir = s.Root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	slog.Debug("Running linter", logfields.Path(s.Root), slog.String("command", s.Command))
	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(out.String())
		if len(output) > maxLintOutput {
			output = "..." + output[len(output)-maxLintOutput:]
		}
		if output != "" {
			return fmt.Errorf("lint failed: %w: %s", err, output)
		}
		return fmt.Errorf("lint failed: %w", err)
	}
	return nil
}
