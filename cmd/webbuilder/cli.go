package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/webbuilder/internal/config"
	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
	"git.home.luguber.info/inful/webbuilder/internal/orchestrator"
)

// CLI is the root command. The positional mode selects what runs after
// validation and preflight: "wds", "distserver", or a production build.
type CLI struct {
	Mode          string             `arg:"" optional:"" help:"Mode: wds (dev server), distserver (serve output), anything else builds for production."`
	Config        string             `short:"c" help:"Project file path" default:"webbuilder.yaml"`
	Dir           kong.ChangeDirFlag `short:"C" help:"Run as if started in this directory"`
	Verbose       bool               `short:"v" help:"Enable verbose logging"`
	Version       kong.VersionFlag   `name:"version" help:"Show version and exit"`
	DryRun        bool               `name:"dry-run" help:"Validate, run preflight and transform without invoking the bundler"`
	PreflightOnly bool               `name:"preflight-only" help:"Stop after preflight checks"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose || strings.EqualFold(os.Getenv(config.EnvPrefix+"LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// Run executes one orchestrated invocation in the current directory.
func (c *CLI) Run(ctx context.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve working directory").Build()
	}

	rc := orchestrator.NewRunContext(wd, c.Mode, c.Config)
	rc.PreflightOnly = c.PreflightOnly
	rc.DryRun = c.DryRun
	slog.Debug("Starting webbuilder",
		logfields.RunID(rc.ID),
		logfields.Mode(rc.Mode.String()),
		logfields.File(rc.ConfigPath))

	return orchestrator.New().Run(ctx, rc)
}
