package transform

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
)

type fakeSettings struct {
	browsers string
	err      error
	calls    int
}

func (f *fakeSettings) BrowserQuery(context.Context) (string, error) {
	f.calls++
	return f.browsers, f.err
}

var testLoaders = bundle.LoaderPaths{
	Style:        "style-loader",
	CSS:          "css-loader",
	Autoprefixer: "autoprefixer-loader",
	Sass:         "sass-loader",
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newTransformer(t *testing.T, settings SettingsSource) *Transformer {
	t.Helper()
	tr, err := New(settings, testLoaders, WithClock(fixedClock(1700000000000)))
	require.NoError(t, err)
	return tr
}

func baseConfigs() map[string]bundle.Config {
	return map[string]bundle.Config{
		"minimal": {},
		"empty slices": {
			Rules:   []bundle.Rule{},
			Plugins: []bundle.Plugin{},
			Output:  &bundle.Output{},
		},
		"caller rules and plugins": {
			Name:  "admin",
			Entry: "./src/admin.js",
			Output: &bundle.Output{
				Path:       "dist",
				Filename:   "ignored.js",
				PublicPath: "/assets/",
			},
			Rules: []bundle.Rule{
				{Test: `\.svg$`, Use: []bundle.Loader{{Name: "url-loader", Options: map[string]string{"limit": "1024"}}}},
				{Test: `\.css$`, Use: []bundle.Loader{{Name: "custom-css"}}},
			},
			Plugins: []bundle.Plugin{{Kind: bundle.PluginBanner, Options: map[string]any{"banner": "/* hi */"}}},
			Extra:   map[string]any{"devtool": "source-map"},
		},
	}
}

func TestTransformKeepsCallerRulesAsPrefix(t *testing.T) {
	for name, cfg := range baseConfigs() {
		for _, mode := range []bundle.Mode{bundle.ModeDevServer, bundle.ModeProduction} {
			t.Run(name+"/"+mode.String(), func(t *testing.T) {
				tr := newTransformer(t, &fakeSettings{browsers: "last 2 versions"})
				out, err := tr.Transform(context.Background(), mode, cfg)
				require.NoError(t, err)

				require.Len(t, out.Rules, len(cfg.Rules)+2)
				if len(cfg.Rules) > 0 {
					require.Empty(t, cmp.Diff(cfg.Rules, out.Rules[:len(cfg.Rules)]))
				}
				require.Equal(t, StylesheetTest, out.Rules[len(cfg.Rules)].Test)
				require.Equal(t, PreprocessedTest, out.Rules[len(cfg.Rules)+1].Test)
			})
		}
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	for name, cfg := range baseConfigs() {
		for _, mode := range []bundle.Mode{bundle.ModeDevServer, bundle.ModeProduction} {
			t.Run(name+"/"+mode.String(), func(t *testing.T) {
				before := cfg.Clone()
				tr := newTransformer(t, &fakeSettings{browsers: "> 1%"})

				out, err := tr.Transform(context.Background(), mode, cfg)
				require.NoError(t, err)
				require.Empty(t, cmp.Diff(before, cfg))

				// Edits to the result must not reach the input.
				out.Output.PublicPath = "/changed/"
				for i := range out.Rules {
					out.Rules[i].Test = "changed"
					for j := range out.Rules[i].Use {
						if out.Rules[i].Use[j].Options != nil {
							out.Rules[i].Use[j].Options["x"] = "y"
						}
					}
				}
				for i := range out.Plugins {
					if out.Plugins[i].Options != nil {
						out.Plugins[i].Options["x"] = "y"
					}
				}
				if out.Extra != nil {
					out.Extra["x"] = "y"
				}
				require.Empty(t, cmp.Diff(before, cfg))
			})
		}
	}
}

func pluginKinds(plugins []bundle.Plugin) []bundle.PluginKind {
	kinds := make([]bundle.PluginKind, 0, len(plugins))
	for _, p := range plugins {
		kinds = append(kinds, p.Kind)
	}
	return kinds
}

func TestTransformDevServerPlugins(t *testing.T) {
	cfg := baseConfigs()["caller rules and plugins"]
	tr := newTransformer(t, &fakeSettings{browsers: "last 2 versions"})

	out, err := tr.Transform(context.Background(), bundle.ModeDevServer, cfg)
	require.NoError(t, err)

	require.Len(t, out.Plugins, DevServerPluginCount+len(cfg.Plugins))
	require.Equal(t, []bundle.PluginKind{bundle.PluginHTML, bundle.PluginDefine, bundle.PluginBanner}, pluginKinds(out.Plugins))
	require.Equal(t, `"development"`, out.Plugins[1].Options["process.env.NODE_ENV"])
	require.True(t, out.Plugins[0].Bool("devServer"))
	require.Equal(t, DefaultTemplate, out.Plugins[0].String("template"))
	require.Equal(t, "admin.html", out.Plugins[0].String("filename"))
}

func TestTransformProductionPlugins(t *testing.T) {
	cfg := baseConfigs()["caller rules and plugins"]
	tr := newTransformer(t, &fakeSettings{browsers: "last 2 versions"})

	out, err := tr.Transform(context.Background(), bundle.ModeProduction, cfg)
	require.NoError(t, err)

	require.Len(t, out.Plugins, ProductionPluginCount+len(cfg.Plugins))
	require.Equal(t, []bundle.PluginKind{
		bundle.PluginHTML,
		bundle.PluginDefine,
		bundle.PluginDedupe,
		bundle.PluginOccurrenceOrder,
		bundle.PluginMinify,
		bundle.PluginExtractCSS,
		bundle.PluginBanner,
	}, pluginKinds(out.Plugins))

	require.Equal(t, `"production"`, out.Plugins[1].Options["process.env.NODE_ENV"])
	require.False(t, out.Plugins[0].Bool("devServer"))
	require.Equal(t, false, out.Plugins[4].Options["comments"])

	extract := out.Plugins[5]
	require.Equal(t, "admin-1700000000000.css", extract.String("filename"))
	require.True(t, extract.Bool("allChunks"))
	require.Equal(t, out.Plugins[0].String("token"), extract.String("token"))
}

func TestTransformStyleChains(t *testing.T) {
	tr := newTransformer(t, &fakeSettings{browsers: "last 2 versions"})

	dev, err := tr.Transform(context.Background(), bundle.ModeDevServer, bundle.Config{})
	require.NoError(t, err)
	require.Equal(t, "style-loader!css-loader!autoprefixer-loader?browsers=last 2 versions", dev.Rules[0].Chain())
	require.Equal(t, "style-loader!css-loader!autoprefixer-loader?browsers=last 2 versions!sass-loader?sourceMap=true", dev.Rules[1].Chain())
	require.Nil(t, dev.Rules[0].Extract)

	prod, err := tr.Transform(context.Background(), bundle.ModeProduction, bundle.Config{})
	require.NoError(t, err)
	require.Equal(t, "extract(style-loader, css-loader!autoprefixer-loader?browsers=last 2 versions)", prod.Rules[0].Chain())
	require.Equal(t, "extract(style-loader, css-loader!autoprefixer-loader?browsers=last 2 versions!sass-loader?sourceMap=true)", prod.Rules[1].Chain())
}

func TestTransformMinimalProductionConfig(t *testing.T) {
	tr := newTransformer(t, &fakeSettings{browsers: "last 2 versions"})
	cfg := bundle.Config{Rules: []bundle.Rule{}, Plugins: []bundle.Plugin{}, Output: &bundle.Output{}}

	out, err := tr.Transform(context.Background(), bundle.ModeProduction, cfg)
	require.NoError(t, err)
	require.Equal(t, "index-[hash].js", out.Output.Filename)
	require.Len(t, out.Rules, 2)
	require.Equal(t, "index.html", out.Plugins[0].String("filename"))
}

func TestTransformOutputFilenameIsModeIndependent(t *testing.T) {
	tr := newTransformer(t, &fakeSettings{browsers: "x"})
	cfg := bundle.Config{Name: "start", Output: &bundle.Output{Path: "dist", PublicPath: "/"}}

	dev, err := tr.Transform(context.Background(), bundle.ModeDevServer, cfg)
	require.NoError(t, err)
	prod, err := tr.Transform(context.Background(), bundle.ModeProduction, cfg)
	require.NoError(t, err)

	require.Equal(t, "start-[hash].js", dev.Output.Filename)
	require.Equal(t, dev.Output, prod.Output)
	require.Equal(t, "dist", prod.Output.Path)
	require.Equal(t, "/", prod.Output.PublicPath)
	require.Equal(t, "index.html", prod.Plugins[0].String("filename"))
}

func TestTransformReadsSettingsOnce(t *testing.T) {
	settings := &fakeSettings{browsers: "x"}
	tr := newTransformer(t, settings)

	_, err := tr.Transform(context.Background(), bundle.ModeProduction, bundle.Config{})
	require.NoError(t, err)
	require.Equal(t, 1, settings.calls)
}

func TestTransformTokensIncrease(t *testing.T) {
	tr := newTransformer(t, &fakeSettings{browsers: "x"})

	first, err := tr.Transform(context.Background(), bundle.ModeProduction, bundle.Config{})
	require.NoError(t, err)
	second, err := tr.Transform(context.Background(), bundle.ModeProduction, bundle.Config{})
	require.NoError(t, err)

	require.Equal(t, "1700000000000", first.Plugins[0].String("token"))
	require.Equal(t, "1700000000001", second.Plugins[0].String("token"))
	require.Equal(t, "index-1700000000001.css", second.Plugins[5].String("filename"))
}

func TestTransformSettingsFailure(t *testing.T) {
	tr := newTransformer(t, &fakeSettings{err: stderrors.New("boom")})
	_, err := tr.Transform(context.Background(), bundle.ModeProduction, bundle.Config{Name: "a"})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	tr = newTransformer(t, &fakeSettings{browsers: " "})
	_, err = tr.Transform(context.Background(), bundle.ModeProduction, bundle.Config{})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNewRequiresLoaderPaths(t *testing.T) {
	_, err := New(&fakeSettings{browsers: "x"}, bundle.LoaderPaths{Style: "s", CSS: "c"})
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryConfig, ce.Category())
	require.Equal(t, "autoprefixer,sass", ce.Context()["missing"])
}

func TestHTMLFilename(t *testing.T) {
	require.Equal(t, "index.html", HTMLFilename(bundle.Config{}))
	require.Equal(t, "index.html", HTMLFilename(bundle.Config{Name: "start"}))
	require.Equal(t, "admin.html", HTMLFilename(bundle.Config{Name: "admin"}))
}
