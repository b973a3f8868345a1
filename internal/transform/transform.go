package transform

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
)

// DefaultTemplate is the HTML page template handed to the html plugin.
const DefaultTemplate = "index.html.tmpl"

// Patterns matched by the injected style rules.
const (
	StylesheetTest   = `\.css$`
	PreprocessedTest = `\.scss$`
)

// Plugin counts prepended per mode.
const (
	DevServerPluginCount  = 2
	ProductionPluginCount = 6
)

// SettingsSource provides project-level settings read during a transformation.
type SettingsSource interface {
	BrowserQuery(ctx context.Context) (string, error)
}

// Transformer derives bundle configurations. It is safe for concurrent use.
type Transformer struct {
	settings SettingsSource
	loaders  bundle.LoaderPaths
	template string
	now      func() time.Time

	mu        sync.Mutex
	lastToken int64
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithClock replaces the clock used for build tokens.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) { t.now = now }
}

// WithTemplate sets the HTML template resource name.
func WithTemplate(name string) Option {
	return func(t *Transformer) { t.template = name }
}

// New creates a Transformer. Every loader path must be set.
func New(settings SettingsSource, loaders bundle.LoaderPaths, opts ...Option) (*Transformer, error) {
	if missing := loaders.Missing(); len(missing) > 0 {
		return nil, errors.ConfigError("loader paths must be configured").
			WithContext("missing", strings.Join(missing, ",")).
			Build()
	}
	if settings == nil {
		return nil, errors.InternalError("transformer requires a settings source").Build()
	}
	t := &Transformer{
		settings: settings,
		loaders:  loaders,
		template: DefaultTemplate,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Transform returns a new configuration derived from cfg for mode. cfg is
// not modified and the result shares no mutable state with it.
func (t *Transformer) Transform(ctx context.Context, mode bundle.Mode, cfg bundle.Config) (bundle.Config, error) {
	browsers, err := t.settings.BrowserQuery(ctx)
	if err != nil {
		return bundle.Config{}, errors.WrapError(err, errors.CategoryConfig, "failed to read browser compatibility setting").
			WithContext("entry", cfg.Name).
			Fatal().
			Build()
	}
	if strings.TrimSpace(browsers) == "" {
		return bundle.Config{}, errors.ConfigError("browsers must be set to a non-empty compatibility query").
			WithContext("entry", cfg.Name).
			Build()
	}

	token := t.nextToken()
	stem := Stem(cfg)

	out := cfg.Clone()

	output := bundle.Output{}
	if out.Output != nil {
		output = *out.Output
	}
	output.Filename = stem + "-[hash].js"
	out.Output = &output

	rules := make([]bundle.Rule, 0, len(out.Rules)+2)
	rules = append(rules, out.Rules...)
	rules = append(rules, t.styleRules(mode, browsers)...)
	out.Rules = rules

	injected := t.plugins(mode, cfg, token)
	plugins := make([]bundle.Plugin, 0, len(injected)+len(out.Plugins))
	plugins = append(plugins, injected...)
	plugins = append(plugins, out.Plugins...)
	out.Plugins = plugins

	return out, nil
}

// Stem is the base name used for generated bundle files.
func Stem(cfg bundle.Config) string {
	if cfg.Name == "" {
		return "index"
	}
	return cfg.Name
}

// HTMLFilename is the page generated for an entry; the start entry and
// unnamed configurations produce index.html.
func HTMLFilename(cfg bundle.Config) string {
	if cfg.Name == "" || cfg.Name == "start" {
		return "index.html"
	}
	return cfg.Name + ".html"
}

// nextToken returns the build identity token. Tokens are Unix milliseconds
// and strictly increase per Transformer even when the clock does not.
func (t *Transformer) nextToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.now().UnixMilli()
	if n <= t.lastToken {
		n = t.lastToken + 1
	}
	t.lastToken = n
	return strconv.FormatInt(n, 10)
}

func (t *Transformer) styleRules(mode bundle.Mode, browsers string) []bundle.Rule {
	style := bundle.Loader{Name: t.loaders.Style}
	css := bundle.Loader{Name: t.loaders.CSS}
	autoprefixer := bundle.Loader{Name: t.loaders.Autoprefixer, Options: map[string]string{"browsers": browsers}}
	sass := bundle.Loader{Name: t.loaders.Sass, Options: map[string]string{"sourceMap": "true"}}

	if mode.IsDevServer() {
		return []bundle.Rule{
			{Test: StylesheetTest, Use: []bundle.Loader{style, css.Clone(), autoprefixer.Clone()}},
			{Test: PreprocessedTest, Use: []bundle.Loader{style.Clone(), css.Clone(), autoprefixer.Clone(), sass}},
		}
	}
	return []bundle.Rule{
		{
			Test:    StylesheetTest,
			Extract: &bundle.Extraction{Fallback: style},
			Use:     []bundle.Loader{css, autoprefixer},
		},
		{
			Test:    PreprocessedTest,
			Extract: &bundle.Extraction{Fallback: style.Clone()},
			Use:     []bundle.Loader{css.Clone(), autoprefixer.Clone(), sass},
		},
	}
}

func (t *Transformer) plugins(mode bundle.Mode, cfg bundle.Config, token string) []bundle.Plugin {
	stem := Stem(cfg)
	plugins := []bundle.Plugin{
		{
			Kind: bundle.PluginHTML,
			Options: map[string]any{
				"filename":  HTMLFilename(cfg),
				"template":  t.template,
				"devServer": mode.IsDevServer(),
				"token":     token,
			},
		},
		{
			Kind: bundle.PluginDefine,
			Options: map[string]any{
				"process.env.NODE_ENV": strconv.Quote(mode.String()),
			},
		},
	}
	if mode.IsDevServer() {
		return plugins
	}
	return append(plugins,
		bundle.Plugin{Kind: bundle.PluginDedupe},
		bundle.Plugin{Kind: bundle.PluginOccurrenceOrder},
		bundle.Plugin{Kind: bundle.PluginMinify, Options: map[string]any{"comments": false}},
		bundle.Plugin{
			Kind: bundle.PluginExtractCSS,
			Options: map[string]any{
				"filename":  stem + "-" + token + ".css",
				"allChunks": true,
				"token":     token,
			},
		},
	)
}
