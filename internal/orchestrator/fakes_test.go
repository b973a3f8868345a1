package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/bundler"
	"git.home.luguber.info/inful/webbuilder/internal/config"
	"git.home.luguber.info/inful/webbuilder/internal/metrics"
)

var errBoom = errors.New("boom")

type fakePreflight struct {
	mu    sync.Mutex
	calls int
	err   error
	rc    RunContext
}

func (f *fakePreflight) factory(rc RunContext, _ *config.Config, _ metrics.Recorder) PreflightRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rc = rc
	return f
}

func (f *fakePreflight) Run(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakePreflight) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingTransformer struct{ err error }

func (f failingTransformer) Transform(context.Context, bundle.Mode, bundle.Config) (bundle.Config, error) {
	return bundle.Config{}, f.err
}

type countingTransformers struct {
	mu      sync.Mutex
	created int
}

func (c *countingTransformers) factory(cfg *config.Config, now func() time.Time) (EntryTransformer, error) {
	c.mu.Lock()
	c.created++
	c.mu.Unlock()
	return defaultTransformer(cfg, now)
}

func (c *countingTransformers) Created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

type fakeHandle struct {
	mu      sync.Mutex
	stopped int
}

func (h *fakeHandle) URL() string { return "http://localhost" }

func (h *fakeHandle) Stop() {
	h.mu.Lock()
	h.stopped++
	h.mu.Unlock()
}

func (h *fakeHandle) Stopped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

type serveCall struct {
	cfg    bundle.Config
	opts   bundler.ServeOptions
	handle *fakeHandle
}

// fakeInvoker records bundles and dev servers instead of running esbuild.
type fakeInvoker struct {
	mu       sync.Mutex
	failOn   string
	serveErr error
	bundled  []bundle.Config
	served   []serveCall
	servedC  chan struct{}
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{servedC: make(chan struct{}, 8)}
}

func (f *fakeInvoker) factory(RunContext, *config.Config) bundler.Invoker { return f }

func (f *fakeInvoker) Bundle(_ context.Context, cfg bundle.Config) (*bundler.Artifacts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bundled = append(f.bundled, cfg)
	if cfg.Name == f.failOn {
		return nil, errBoom
	}
	return &bundler.Artifacts{
		Entry:     cfg.Name,
		OutputDir: cfg.Output.Path,
		Files:     []string{cfg.Name + ".js"},
		Bytes:     100,
	}, nil
}

func (f *fakeInvoker) Serve(_ context.Context, cfg bundle.Config, opts bundler.ServeOptions) (bundler.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.serveErr != nil {
		err := f.serveErr
		f.serveErr = nil
		return nil, err
	}
	h := &fakeHandle{}
	f.served = append(f.served, serveCall{cfg: cfg, opts: opts, handle: h})
	f.servedC <- struct{}{}
	return h, nil
}

func (f *fakeInvoker) BundledNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.bundled))
	for _, c := range f.bundled {
		names = append(names, c.Name)
	}
	return names
}

func (f *fakeInvoker) Served() []serveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]serveCall(nil), f.served...)
}

type fakeWatcher struct {
	changes chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{changes: make(chan struct{}, 1), closed: make(chan struct{})}
}

func (w *fakeWatcher) factory(string) (ConfigWatcher, error) { return w, nil }
func (w *fakeWatcher) Start(context.Context) error           { return nil }
func (w *fakeWatcher) Changes() <-chan struct{}              { return w.changes }
func (w *fakeWatcher) Close() error {
	w.once.Do(func() { close(w.closed) })
	return nil
}

type fakeStaticServer struct {
	dir  string
	port int
}

func (s *fakeStaticServer) ListenAndServe(context.Context) error { return nil }

// sequenceLoader returns the configs in order, repeating the last one.
type sequenceLoader struct {
	mu   sync.Mutex
	cfgs []*config.Config
	errs []error
	n    int
}

func (l *sequenceLoader) Load(string) (*config.Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.n
	if i >= len(l.cfgs) {
		i = len(l.cfgs) - 1
	}
	l.n++
	var err error
	if i < len(l.errs) {
		err = l.errs[i]
	}
	if err != nil {
		return nil, err
	}
	return l.cfgs[i], nil
}
