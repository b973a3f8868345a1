package orchestrator

import (
	"context"
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/bundler"
	"git.home.luguber.info/inful/webbuilder/internal/config"
	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
	"git.home.luguber.info/inful/webbuilder/internal/metrics"
)

// PolyfillPrelude is prepended to every entry source when polyfill is enabled.
const PolyfillPrelude = `/* webbuilder: polyfill injection */
import "core-js/stable";
import "regenerator-runtime/runtime";
`

//go:embed assets/dist.gitignore
var distGitignore []byte

// runProductionBuild recreates the output directory and builds every entry
// in declaration order. The first failing entry stops the build. A dry run
// leaves the output directory alone and only transforms entries.
func (o *Orchestrator) runProductionBuild(ctx context.Context, rc RunContext, cfg *config.Config, rec metrics.Recorder, logger *slog.Logger) error {
	outDir := rc.resolve(cfg.Output.Directory)
	if !rc.DryRun {
		if err := resetOutputDir(outDir, logger); err != nil {
			return err
		}
	}

	tr, err := o.transformerFor(cfg)
	if err != nil {
		return err
	}
	inv := o.invokerFor(rc, cfg)
	done := "Built entry"
	if rc.DryRun {
		done = "Transformed entry"
	}

	for _, name := range cfg.Entries.Names() {
		if err := ctx.Err(); err != nil {
			return errors.WrapError(err, errors.CategoryBuild, "production build canceled").
				WithContext("entry", name).
				Build()
		}

		start := o.now()
		built, err := o.buildEntry(ctx, cfg, tr, inv, name, outDir)
		elapsed := o.now().Sub(start)
		rec.ObserveEntryBuild(name, elapsed, err == nil)
		if err != nil {
			logger.Error("Entry build failed", logfields.Entry(name), logfields.Error(err))
			if classified, ok := errors.AsClassified(err); ok {
				return classified.WithContext("entry", name)
			}
			return errors.BuildError("failed to build entry point").
				WithCause(err).
				WithContext("entry", name).
				Build()
		}
		rec.SetBundleBytes(name, built.Bytes)
		logger.Info(done,
			logfields.Entry(name),
			logfields.Count(len(built.Files)),
			logfields.Duration(elapsed))
		for _, w := range built.Warnings {
			logger.Warn("Bundler warning", logfields.Entry(name), slog.String("warning", w))
		}
	}
	return nil
}

// buildEntry transforms one entry for production, points it at outDir and
// bundles it.
func (o *Orchestrator) buildEntry(ctx context.Context, cfg *config.Config, tr EntryTransformer, inv bundler.Invoker, name, outDir string) (*bundler.Artifacts, error) {
	base, err := cfg.Entry(name)
	if err != nil {
		return nil, err
	}
	built, err := tr.Transform(ctx, bundle.ModeProduction, base)
	if err != nil {
		return nil, err
	}
	if built.Output == nil {
		built.Output = &bundle.Output{}
	}
	if built.Output.Path == "" {
		built.Output.Path = outDir
	}
	if cfg.Polyfill {
		built.Prelude = PolyfillPrelude
	}
	slog.Debug("Bundling entry", logfields.Entry(name), logfields.Path(built.Output.Path))
	return inv.Bundle(ctx, built)
}

// resetOutputDir deletes dir and recreates it holding only the .gitignore.
func resetOutputDir(dir string, logger *slog.Logger) error {
	logger.Info("Deleting "+dir, logfields.Path(dir))
	if err := os.RemoveAll(dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to delete output directory").
			WithContext("path", dir).
			Build()
	}

	ignore := filepath.Join(dir, ".gitignore")
	logger.Info("Rewriting "+ignore, logfields.Path(ignore))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", dir).
			Build()
	}
	if err := os.WriteFile(ignore, distGitignore, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output .gitignore").
			WithContext("path", ignore).
			Build()
	}
	return nil
}
