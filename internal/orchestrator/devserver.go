package orchestrator

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/bundler"
	"git.home.luguber.info/inful/webbuilder/internal/config"
	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
	"git.home.luguber.info/inful/webbuilder/internal/workspace"
)

// devSession is the currently running dev server and what it was started with.
type devSession struct {
	invoker bundler.Invoker
	entry   bundle.Config
	opts    bundler.ServeOptions
	handle  bundler.Handle
}

func (s *devSession) stop() {
	if s != nil && s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
}

// runDevServer serves the start entry until ctx is cancelled, restarting
// the server whenever the project file changes.
func (o *Orchestrator) runDevServer(ctx context.Context, rc RunContext, cfg *config.Config, logger *slog.Logger) error {
	ws := workspace.NewManager(o.workspaceBase)
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			logger.Warn("Failed to clean up dev server workspace", logfields.Error(err))
		}
	}()

	next, err := o.prepareDev(ctx, rc, cfg, ws.Path())
	if err != nil {
		return err
	}
	if err := o.start(ctx, next); err != nil {
		return err
	}
	current := next
	defer func() { current.stop() }()

	changes := o.watchConfig(ctx, rc, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Dev server stopping")
			return nil
		case <-changes:
			current = o.reload(ctx, rc, current, ws.Path(), logger)
		}
	}
}

// prepareDev transforms the start entry for the dev server.
func (o *Orchestrator) prepareDev(ctx context.Context, rc RunContext, cfg *config.Config, dir string) (*devSession, error) {
	tr, err := o.transformerFor(cfg)
	if err != nil {
		return nil, err
	}
	base, err := cfg.Entry(config.StartEntry)
	if err != nil {
		return nil, err
	}
	entry, err := tr.Transform(ctx, bundle.ModeDevServer, base)
	if err != nil {
		return nil, err
	}
	return &devSession{
		invoker: o.invokerFor(rc, cfg),
		entry:   entry,
		opts: bundler.ServeOptions{
			Host: cfg.DevServer.Host,
			Port: cfg.DevServer.Port,
			Dir:  dir,
		},
	}, nil
}

func (o *Orchestrator) start(ctx context.Context, s *devSession) error {
	h, err := s.invoker.Serve(ctx, s.entry, s.opts)
	if err != nil {
		if errors.IsClassified(err) {
			return err
		}
		return errors.ServerError("failed to start dev server").
			WithCause(err).
			WithContext("port", s.opts.Port).
			Build()
	}
	s.handle = h
	return nil
}

// reload re-reads the project file and swaps in a new dev server. Any
// failure before the swap leaves the current server running.
func (o *Orchestrator) reload(ctx context.Context, rc RunContext, current *devSession, dir string, logger *slog.Logger) *devSession {
	logger.Info("Configuration changed, reloading", logfields.File(rc.ConfigPath))

	cfg, err := o.loadConfig(rc.ConfigPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	var next *devSession
	if err == nil {
		next, err = o.prepareDev(ctx, rc, cfg, dir)
	}
	if err != nil {
		logger.Error("Reload failed, keeping the running dev server", logfields.Error(err))
		return current
	}

	current.stop()
	if err := o.start(ctx, next); err != nil {
		logger.Error("Restart failed, restoring previous dev server", logfields.Error(err))
		if rerr := o.start(ctx, current); rerr != nil {
			logger.Error("Failed to restore previous dev server", logfields.Error(rerr))
		}
		return current
	}
	logger.Info("Dev server restarted")
	return next
}

// watchConfig returns the change channel, or nil when watching is disabled
// or unavailable. A nil channel never fires.
func (o *Orchestrator) watchConfig(ctx context.Context, rc RunContext, logger *slog.Logger) <-chan struct{} {
	if o.newWatcher == nil || rc.ConfigPath == "" {
		return nil
	}
	w, err := o.newWatcher(rc.ConfigPath)
	if err == nil {
		err = w.Start(ctx)
		if err != nil {
			_ = w.Close()
		}
	}
	if err != nil {
		logger.Warn("Config reload disabled", logfields.Error(err))
		return nil
	}
	go func() {
		<-ctx.Done()
		_ = w.Close()
	}()
	return w.Changes()
}
