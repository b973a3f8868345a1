package bundler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// liveReload reloads the page whenever the esbuild dev server reports a rebuild.
const liveReload = `new EventSource("/esbuild").addEventListener("change", () => location.reload());`

// Serve starts an esbuild context that rebuilds on change and serves the
// bundle and page from opts.Dir.
func (e *ESBuild) Serve(ctx context.Context, cfg bundle.Config, opts ServeOptions) (Handle, error) {
	if opts.Port < 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("dev server port %d out of range", opts.Port)
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("dev server needs a directory to serve")
	}

	if cfg.Output == nil {
		cfg.Output = &bundle.Output{}
	} else {
		o := *cfg.Output
		cfg.Output = &o
	}
	cfg.Output.Path = opts.Dir
	cfg.Output.PublicPath = "/"

	p, err := e.plan(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p.options.Write = true
	if p.options.Banner == nil {
		p.options.Banner = make(map[string]string)
	}
	if existing := p.options.Banner["js"]; existing != "" {
		p.options.Banner["js"] = existing + "\n" + liveReload
	} else {
		p.options.Banner["js"] = liveReload
	}
	p.options.Plugins = append(p.options.Plugins, e.pagePlugin(p, cfg.Name))

	bctx, cerr := api.Context(p.options)
	if cerr != nil {
		return nil, &Failure{Messages: cerr.Errors}
	}
	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("start watch: %w", err)
	}
	serveOpts := api.ServeOptions{Host: opts.Host, Servedir: opts.Dir}
	setPort(&serveOpts.Port, opts.Port)
	res, err := bctx.Serve(serveOpts)
	if err != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("start dev server: %w", err)
	}

	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	h := newServeHandle(bctx.Dispose, fmt.Sprintf("http://%s:%d", host, res.Port))
	go h.stopOnDone(ctx)
	slog.Info("Dev server is running at "+h.url, logfields.Entry(cfg.Name), logfields.URL(h.url))
	return h, nil
}

// pagePlugin rewrites the HTML page after every rebuild so it always
// references the current hashed bundle names.
func (e *ESBuild) pagePlugin(p *plan, entry string) api.Plugin {
	return api.Plugin{
		Name: "webbuilder-page",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					slog.Warn("Rebuild failed", logfields.Entry(entry), logfields.Error(&Failure{Messages: result.Errors}))
					return api.OnEndResult{}, nil
				}
				if p.page == nil {
					return api.OnEndResult{}, nil
				}
				meta, err := parseMetafile(result.Metafile)
				if err != nil {
					return api.OnEndResult{}, err
				}
				scripts, styles := meta.outputNames()
				if _, err := e.writePage(p, entry, scripts, styles); err != nil {
					return api.OnEndResult{}, err
				}
				slog.Debug("Rebuilt", logfields.Entry(entry), logfields.Count(len(scripts)+len(styles)))
				return api.OnEndResult{}, nil
			})
		},
	}
}

// setPort assigns a range-checked port; the field is uint16 or int
// depending on the esbuild release.
func setPort[T ~int | ~uint16](dst *T, port int) {
	*dst = T(port) // #nosec G115 -- range checked by the caller
}

type serveHandle struct {
	dispose func()
	url     string
	done    chan struct{}
	once    sync.Once
}

func newServeHandle(dispose func(), url string) *serveHandle {
	return &serveHandle{dispose: dispose, url: url, done: make(chan struct{})}
}

func (h *serveHandle) URL() string { return h.url }

func (h *serveHandle) Stop() {
	h.once.Do(func() {
		close(h.done)
		h.dispose()
	})
}

// stopOnDone stops the handle when ctx ends and returns early once the
// handle was stopped some other way.
func (h *serveHandle) stopOnDone(ctx context.Context) {
	select {
	case <-ctx.Done():
		h.Stop()
	case <-h.done:
	}
}
