package orchestrator

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/bundler"
	"git.home.luguber.info/inful/webbuilder/internal/config"
	"git.home.luguber.info/inful/webbuilder/internal/distserver"
	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
	"git.home.luguber.info/inful/webbuilder/internal/metrics"
	"git.home.luguber.info/inful/webbuilder/internal/preflight"
	"git.home.luguber.info/inful/webbuilder/internal/transform"
	"git.home.luguber.info/inful/webbuilder/internal/watch"
)

// Collaborator seams. Production wiring uses the real packages; tests
// substitute fakes.
type (
	// ConfigLoader reads the project file at path.
	ConfigLoader func(path string) (*config.Config, error)

	// PreflightRunner runs the checks that gate every mode.
	PreflightRunner interface {
		Run(ctx context.Context) error
	}
	PreflightFactory func(rc RunContext, cfg *config.Config, rec metrics.Recorder) PreflightRunner

	// EntryTransformer turns a base entry config into a mode-specific one.
	EntryTransformer interface {
		Transform(ctx context.Context, mode bundle.Mode, cfg bundle.Config) (bundle.Config, error)
	}
	TransformerFactory func(cfg *config.Config, now func() time.Time) (EntryTransformer, error)

	InvokerFactory func(rc RunContext, cfg *config.Config) bundler.Invoker

	// StaticServer serves a directory until ctx is cancelled.
	StaticServer interface {
		ListenAndServe(ctx context.Context) error
	}
	DistServerFactory func(dir string, port int) (StaticServer, error)

	// ConfigWatcher reports project file changes in dev server mode.
	ConfigWatcher interface {
		Start(ctx context.Context) error
		Changes() <-chan struct{}
		Close() error
	}
	WatcherFactory func(path string) (ConfigWatcher, error)
)

// Orchestrator runs the pipeline for one RunContext.
type Orchestrator struct {
	loadConfig     ConfigLoader
	newPreflight   PreflightFactory
	newTransformer TransformerFactory
	newInvoker     InvokerFactory
	newDistServer  DistServerFactory
	newWatcher     WatcherFactory
	recorder       metrics.Recorder
	now            func() time.Time
	workspaceBase  string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithConfigLoader(fn ConfigLoader) Option { return func(o *Orchestrator) { o.loadConfig = fn } }
func WithPreflight(fn PreflightFactory) Option {
	return func(o *Orchestrator) { o.newPreflight = fn }
}
func WithTransformer(fn TransformerFactory) Option {
	return func(o *Orchestrator) { o.newTransformer = fn }
}
func WithInvoker(fn InvokerFactory) Option { return func(o *Orchestrator) { o.newInvoker = fn } }
func WithDistServer(fn DistServerFactory) Option {
	return func(o *Orchestrator) { o.newDistServer = fn }
}

// WithWatcher replaces the config file watcher. A nil factory disables
// reloads in dev server mode.
func WithWatcher(fn WatcherFactory) Option { return func(o *Orchestrator) { o.newWatcher = fn } }

// WithRecorder forces a metrics recorder. Without it a Prometheus recorder
// is created when the project configures a metrics textfile.
func WithRecorder(rec metrics.Recorder) Option { return func(o *Orchestrator) { o.recorder = rec } }

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithWorkspaceBase sets where the dev server's scratch directory is created.
func WithWorkspaceBase(dir string) Option { return func(o *Orchestrator) { o.workspaceBase = dir } }

// New creates an orchestrator with the production collaborators.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		loadConfig:     config.Load,
		newPreflight:   defaultPreflight,
		newTransformer: defaultTransformer,
		newInvoker:     defaultInvoker,
		newDistServer:  defaultDistServer,
		newWatcher:     defaultWatcher,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func defaultPreflight(rc RunContext, cfg *config.Config, rec metrics.Recorder) PreflightRunner {
	return preflight.NewRunner(preflight.DefaultSteps(rc.WorkDir, rc.ConfigPath, cfg.Preflight)...).WithRecorder(rec)
}

func defaultTransformer(cfg *config.Config, now func() time.Time) (EntryTransformer, error) {
	tr, err := transform.New(cfg, cfg.Loaders, transform.WithClock(now))
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func defaultInvoker(rc RunContext, cfg *config.Config) bundler.Invoker {
	return bundler.NewESBuild(rc.WorkDir, cfg.Loaders)
}

func defaultDistServer(dir string, port int) (StaticServer, error) {
	srv, err := distserver.New(dir, port)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

func defaultWatcher(path string) (ConfigWatcher, error) {
	cw, err := watch.NewConfigWatcher(path)
	if err != nil {
		return nil, err
	}
	return cw, nil
}

// Run executes the pipeline: Validated, PreflightChecked, then the mode.
// Every failure is returned as a classified error.
func (o *Orchestrator) Run(ctx context.Context, rc RunContext) error {
	logger := slog.With(logfields.RunID(rc.ID), logfields.Mode(rc.Mode.String()))
	started := o.now()

	cfg, err := o.loadConfig(rc.ConfigPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	logger.Debug("Configuration validated", logfields.File(rc.ConfigPath), logfields.Count(cfg.Entries.Len()))

	rec, flush := o.recorderFor(rc, cfg)
	err = o.run(ctx, rc, cfg, rec, logger)
	rec.IncRunOutcome(rc.Mode.String(), outcomeOf(ctx, err))
	if ferr := flush(); ferr != nil {
		logger.Warn("Failed to write metrics textfile", logfields.Error(ferr))
	}
	if err == nil {
		logger.Debug("Run finished", logfields.Duration(o.now().Sub(started)))
	}
	return err
}

func (o *Orchestrator) run(ctx context.Context, rc RunContext, cfg *config.Config, rec metrics.Recorder, logger *slog.Logger) error {
	if err := o.newPreflight(rc, cfg, rec).Run(ctx); err != nil {
		return err
	}
	if rc.PreflightOnly {
		logger.Info("Preflight checks passed")
		return nil
	}

	switch rc.Mode {
	case ModeDevServer:
		return o.runDevServer(ctx, rc, cfg, logger)
	case ModeDistServer:
		return o.runDistServer(ctx, rc, cfg)
	default:
		return o.runProductionBuild(ctx, rc, cfg, rec, logger)
	}
}

func (o *Orchestrator) runDistServer(ctx context.Context, rc RunContext, cfg *config.Config) error {
	port, err := distserver.ResolvePort(cfg.DistServer.Port)
	if err != nil {
		return err
	}
	srv, err := o.newDistServer(rc.resolve(cfg.Output.Directory), port)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

// recorderFor returns the run's recorder and a flush that persists it.
func (o *Orchestrator) recorderFor(rc RunContext, cfg *config.Config) (metrics.Recorder, func() error) {
	noFlush := func() error { return nil }
	if o.recorder != nil {
		return o.recorder, noFlush
	}
	if cfg.Metrics.Textfile == "" {
		return metrics.NoopRecorder{}, noFlush
	}
	prom := metrics.NewPrometheusRecorder(nil)
	path := rc.resolve(cfg.Metrics.Textfile)
	return prom, func() error { return prom.WriteTextfile(path) }
}

func outcomeOf(ctx context.Context, err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case ctx.Err() != nil && stderrors.Is(err, ctx.Err()):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}

// invokerFor returns the bundler for the run; dry runs never invoke one.
func (o *Orchestrator) invokerFor(rc RunContext, cfg *config.Config) bundler.Invoker {
	if rc.DryRun {
		return bundler.Noop{}
	}
	return o.newInvoker(rc, cfg)
}

// transformerFor builds the run's transformer, classifying factory failures.
func (o *Orchestrator) transformerFor(cfg *config.Config) (EntryTransformer, error) {
	tr, err := o.newTransformer(cfg, o.now)
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to prepare transformer").Build()
	}
	return tr, nil
}
