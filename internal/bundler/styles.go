package bundler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// StyleCompiler turns preprocessed stylesheet sources into CSS.
type StyleCompiler interface {
	Compile(ctx context.Context, path string, src []byte, sourceMap bool) ([]byte, error)
}

// SassBinary compiles SCSS with the dart-sass executable.
type SassBinary struct {
	// Path of the executable; "sass" on PATH when empty.
	Path string
}

func (s SassBinary) Compile(ctx context.Context, path string, src []byte, sourceMap bool) ([]byte, error) {
	bin := s.Path
	if bin == "" {
		bin = "sass"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("sass executable not found: %w", err)
	}

	args := []string{"--stdin", "--load-path=" + filepath.Dir(path)}
	if sourceMap {
		args = append(args, "--embed-source-map")
	} else {
		args = append(args, "--no-source-map")
	}
	// #nosec G204 -- executable and arguments come from project configuration
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Compiling stylesheet", logfields.File(path))
	if err := cmd.Run(); err != nil {
		if msg := stderr.String(); msg != "" {
			return nil, fmt.Errorf("sass %s: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("sass %s: %w", path, err)
	}
	return stdout.Bytes(), nil
}

// styleInjectTemplate wraps CSS in a JS module that appends a <style> tag.
// The data-file attribute keeps reloaded modules from stacking duplicates.
const styleInjectTemplate = `const __file = %q;
let s = document.querySelector('style[data-file="' + __file + '"]');
if (!s) { s = document.createElement('style'); s.dataset.file = __file; document.head.appendChild(s); }
s.textContent = %s;
`

// StyleModule returns the JS module source that injects css at runtime.
func StyleModule(file, css string) string {
	return fmt.Sprintf(styleInjectTemplate, file, strconv.Quote(css))
}

// Caller rule loaders with a direct esbuild equivalent.
var knownLoaders = map[string]api.Loader{
	"url-loader":    api.LoaderDataURL,
	"file-loader":   api.LoaderFile,
	"raw-loader":    api.LoaderText,
	"json-loader":   api.LoaderJSON,
	"base64-loader": api.LoaderBase64,
	"babel-loader":  api.LoaderJSX,
	"ts-loader":     api.LoaderTSX,
}

// ruleHandler is the load behaviour compiled from one rule.
type ruleHandler struct {
	rule      bundle.Rule
	filter    string
	style     bool
	inject    bool
	sass      bool
	sourceMap bool
	loader    api.Loader
}

func compileRules(rules []bundle.Rule, loaders bundle.LoaderPaths) ([]ruleHandler, error) {
	handlers := make([]ruleHandler, 0, len(rules))
	for _, r := range rules {
		if _, err := regexp.Compile(r.Test); err != nil {
			return nil, fmt.Errorf("rule %q: invalid test pattern: %w", r.Test, err)
		}
		h := ruleHandler{rule: r, filter: r.Test}
		switch {
		case r.HasLoader(loaders.CSS):
			h.style = true
			h.inject = r.Extract == nil && r.HasLoader(loaders.Style)
			for _, l := range r.Use {
				if l.Name == loaders.Sass {
					h.sass = true
					h.sourceMap = l.Options["sourceMap"] == "true"
				}
			}
		default:
			for _, l := range r.Use {
				if loader, ok := knownLoaders[l.Name]; ok {
					h.loader = loader
					break
				}
			}
			if h.loader == api.LoaderNone {
				slog.Debug("Skipping rule without a supported loader", "test", r.Test, "chain", r.Chain())
				continue
			}
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

// rulesPlugin registers one OnLoad callback per rule in declaration order,
// so the first matching rule handles a file.
func (e *ESBuild) rulesPlugin(ctx context.Context, handlers []ruleHandler, engines []api.Engine) api.Plugin {
	return api.Plugin{
		Name: "webbuilder-rules",
		Setup: func(build api.PluginBuild) {
			for _, h := range handlers {
				build.OnLoad(api.OnLoadOptions{Filter: h.filter, Namespace: "file"},
					func(args api.OnLoadArgs) (api.OnLoadResult, error) {
						return e.load(ctx, h, args.Path, engines)
					})
			}
		},
	}
}

func (e *ESBuild) load(ctx context.Context, h ruleHandler, path string, engines []api.Engine) (api.OnLoadResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	dir := filepath.Dir(path)

	if !h.style {
		contents := string(src)
		return api.OnLoadResult{Contents: &contents, ResolveDir: dir, Loader: h.loader}, nil
	}

	if h.sass {
		src, err = e.styles.Compile(ctx, path, src, h.sourceMap)
		if err != nil {
			return api.OnLoadResult{}, err
		}
	}

	if !h.inject {
		contents := string(src)
		return api.OnLoadResult{Contents: &contents, ResolveDir: dir, Loader: api.LoaderCSS}, nil
	}

	lowered := api.Transform(string(src), api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    engines,
		Sourcefile: path,
	})
	if len(lowered.Errors) > 0 {
		return api.OnLoadResult{}, &Failure{Messages: lowered.Errors}
	}
	module := StyleModule(filepath.Base(path), string(lowered.Code))
	return api.OnLoadResult{Contents: &module, ResolveDir: dir, Loader: api.LoaderJS}, nil
}
