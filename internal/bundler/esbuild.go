package bundler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// ESBuild is an Invoker backed by the esbuild Go API.
type ESBuild struct {
	workDir string
	loaders bundle.LoaderPaths
	styles  StyleCompiler
}

// Option configures an ESBuild invoker.
type Option func(*ESBuild)

// WithStyleCompiler replaces the SCSS compiler.
func WithStyleCompiler(c StyleCompiler) Option {
	return func(e *ESBuild) {
		if c != nil {
			e.styles = c
		}
	}
}

// NewESBuild creates an invoker resolving paths against workDir. loaders
// identifies the style chain stages inside rules.
func NewESBuild(workDir string, loaders bundle.LoaderPaths, opts ...Option) *ESBuild {
	e := &ESBuild{workDir: workDir, loaders: loaders, styles: SassBinary{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// plan is the translated build plus the post-processing esbuild has no
// option for.
type plan struct {
	options    api.BuildOptions
	outDir     string
	publicPath string
	page       *pageSpec
	extractTo  string
}

// Plan translates cfg into esbuild build options. It is exported for
// inspection by tooling and tests; Bundle and Serve use it internally.
func (e *ESBuild) Plan(ctx context.Context, cfg bundle.Config) (api.BuildOptions, error) {
	p, err := e.plan(ctx, cfg)
	if err != nil {
		return api.BuildOptions{}, err
	}
	return p.options, nil
}

func (e *ESBuild) plan(ctx context.Context, cfg bundle.Config) (*plan, error) {
	if strings.TrimSpace(cfg.Entry) == "" {
		return nil, fmt.Errorf("entry %q has no entry module", cfg.Name)
	}

	output := bundle.Output{}
	if cfg.Output != nil {
		output = *cfg.Output
	}
	outDir := output.Path
	if outDir == "" {
		outDir = "dist"
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(e.workDir, outDir)
	}

	opts := api.BuildOptions{
		AbsWorkingDir: e.workDir,
		Bundle:        true,
		Platform:      api.PlatformBrowser,
		Format:        api.FormatIIFE,
		Target:        api.ES2017,
		Outdir:        outDir,
		EntryNames:    entryNames(output.Filename),
		AssetNames:    "assets/[name]-[hash]",
		PublicPath:    output.PublicPath,
		Metafile:      true,
		Write:         false,
		LogLevel:      api.LogLevelSilent,
		Loader: map[string]api.Loader{
			".js": api.LoaderJSX,
		},
	}

	if err := e.setEntry(&opts, cfg); err != nil {
		return nil, err
	}

	p := &plan{outDir: outDir, publicPath: output.PublicPath}

	engines := enginesFromRules(cfg.Rules, e.loaders.Autoprefixer)
	if len(engines) > 0 {
		opts.Engines = engines
	}

	for _, plugin := range cfg.Plugins {
		switch plugin.Kind {
		case bundle.PluginHTML:
			spec := pageSpecFrom(plugin)
			p.page = &spec
		case bundle.PluginDefine:
			if opts.Define == nil {
				opts.Define = make(map[string]string)
			}
			for k, v := range plugin.Options {
				if s, ok := v.(string); ok {
					opts.Define[k] = s
				}
			}
		case bundle.PluginMinify:
			opts.MinifyWhitespace = true
			opts.MinifyIdentifiers = true
			opts.MinifySyntax = true
			if c, ok := plugin.Options["comments"].(bool); ok && !c {
				opts.LegalComments = api.LegalCommentsNone
			}
		case bundle.PluginExtractCSS:
			p.extractTo = plugin.String("filename")
		case bundle.PluginBanner:
			if opts.Banner == nil {
				opts.Banner = make(map[string]string)
			}
			opts.Banner["js"] = plugin.String("banner")
		case bundle.PluginDedupe, bundle.PluginOccurrenceOrder:
			slog.Debug("Plugin is built into esbuild", "plugin", string(plugin.Kind), logfields.Entry(cfg.Name))
		default:
			slog.Warn("Ignoring unsupported plugin", "plugin", string(plugin.Kind), logfields.Entry(cfg.Name))
		}
	}

	handlers, err := compileRules(cfg.Rules, e.loaders)
	if err != nil {
		return nil, err
	}
	if len(handlers) > 0 {
		opts.Plugins = append(opts.Plugins, e.rulesPlugin(ctx, handlers, engines))
	}

	p.options = opts
	return p, nil
}

// setEntry points esbuild at the entry module, or at stdin when a prelude
// has to be prepended to the entry source.
func (e *ESBuild) setEntry(opts *api.BuildOptions, cfg bundle.Config) error {
	entry := cfg.Entry
	if cfg.Prelude == "" {
		opts.EntryPoints = []string{entry}
		return nil
	}

	path := entry
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.workDir, entry)
	}
	src, err := os.ReadFile(path) // #nosec G304 -- entry path comes from project configuration
	if err != nil {
		return fmt.Errorf("read entry %s: %w", entry, err)
	}
	opts.Stdin = &api.StdinOptions{
		Contents:   cfg.Prelude + string(src),
		ResolveDir: filepath.Dir(path),
		Sourcefile: filepath.Base(path),
		Loader:     loaderForEntry(path),
	}
	return nil
}

func loaderForEntry(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	default:
		return api.LoaderJSX
	}
}

// entryNames converts an output filename pattern such as "start-[hash].js"
// into an esbuild entry name template.
func entryNames(filename string) string {
	if filename == "" {
		return "[name]-[hash]"
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func enginesFromRules(rules []bundle.Rule, autoprefixer string) []api.Engine {
	for _, r := range rules {
		for _, l := range r.Use {
			if l.Name != autoprefixer {
				continue
			}
			engines, ignored := ParseEngines(l.Options["browsers"])
			if len(ignored) > 0 {
				slog.Debug("Browser query terms without engine mapping", "terms", strings.Join(ignored, ", "))
			}
			return engines
		}
	}
	return nil
}

// Bundle builds cfg and writes the output files, the extracted stylesheet
// and the HTML page.
func (e *ESBuild) Bundle(ctx context.Context, cfg bundle.Config) (*Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := e.plan(ctx, cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := api.Build(p.options)
	if len(result.Errors) > 0 {
		return nil, &Failure{Messages: result.Errors}
	}

	meta, err := parseMetafile(result.Metafile)
	if err != nil {
		return nil, fmt.Errorf("read build metadata: %w", err)
	}

	art := &Artifacts{
		Entry:     cfg.Name,
		OutputDir: p.outDir,
		Inputs:    len(meta.Inputs),
		Warnings:  warningTexts(result.Warnings),
	}

	files := renameExtracted(result.OutputFiles, p.extractTo)
	for _, f := range files {
		if err := writeOutput(f.Path, f.Contents); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(p.outDir, f.Path)
		if err != nil {
			rel = filepath.Base(f.Path)
		}
		rel = filepath.ToSlash(rel)
		art.Files = append(art.Files, rel)
		art.Bytes += int64(len(f.Contents))
		switch filepath.Ext(f.Path) {
		case ".js":
			art.Scripts = append(art.Scripts, rel)
		case ".css":
			art.Styles = append(art.Styles, rel)
		}
	}

	if p.page != nil {
		html, err := e.writePage(p, cfg.Name, art.Scripts, art.Styles)
		if err != nil {
			return nil, err
		}
		art.HTML = p.page.filename
		art.Files = append(art.Files, p.page.filename)
		art.Bytes += int64(len(html))
	}
	sort.Strings(art.Files)

	slog.Debug("esbuild finished",
		logfields.Entry(cfg.Name),
		logfields.Count(len(art.Files)),
		logfields.Duration(time.Since(start)))
	return art, nil
}

// renameExtracted gives extracted stylesheets the configured filename.
// Additional stylesheets get a numeric suffix.
func renameExtracted(files []api.OutputFile, target string) []api.OutputFile {
	if target == "" {
		return files
	}
	out := make([]api.OutputFile, len(files))
	copy(out, files)
	n := 0
	for i, f := range out {
		if filepath.Ext(f.Path) != ".css" {
			continue
		}
		name := target
		if n > 0 {
			ext := filepath.Ext(target)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(target, ext), n, ext)
		}
		out[i].Path = filepath.Join(filepath.Dir(f.Path), name)
		n++
	}
	return out
}

func (e *ESBuild) writePage(p *plan, title string, scripts, styles []string) ([]byte, error) {
	body, err := loadTemplate(e.workDir, p.page.template)
	if err != nil {
		return nil, err
	}
	data := Page{
		Title:     title,
		DevServer: p.page.devServer,
		Token:     p.page.token,
	}
	for _, s := range scripts {
		data.Scripts = append(data.Scripts, assetURL(p.publicPath, s))
	}
	for _, s := range styles {
		data.Styles = append(data.Styles, assetURL(p.publicPath, s))
	}
	html, err := RenderPage(body, data)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(filepath.Join(p.outDir, p.page.filename), html); err != nil {
		return nil, err
	}
	return html, nil
}

func writeOutput(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	// #nosec G306 -- bundles are public web assets
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
