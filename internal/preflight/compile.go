package preflight

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/webbuilder/internal/bundler"
)

var compileLoaders = map[string]api.Loader{
	".js":  api.LoaderJSX,
	".jsx": api.LoaderJSX,
	".ts":  api.LoaderTS,
	".tsx": api.LoaderTSX,
}

// CompileStep parses every script under Dirs to catch syntax errors before
// a long build starts.
type CompileStep struct {
	Root string
	Dirs []string
}

func (s CompileStep) Name() string { return "compile" }

func (s CompileStep) Run(ctx context.Context) error {
	if len(s.Dirs) == 0 {
		return skipped("no compile directories configured")
	}
	var messages []api.Message
	files := 0
	for _, dir := range s.Dirs {
		base := dir
		if !filepath.IsAbs(base) {
			base = filepath.Join(s.Root, dir)
		}
		if _, err := os.Stat(base); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != base && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			loader, ok := compileLoaders[strings.ToLower(filepath.Ext(path))]
			if !ok {
				return nil
			}
			src, err := os.ReadFile(path) // #nosec G304 -- walking project sources
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(s.Root, path)
			if err != nil {
				rel = path
			}
			files++
			res := api.Transform(string(src), api.TransformOptions{
				Loader:     loader,
				Sourcefile: filepath.ToSlash(rel),
				LogLevel:   api.LogLevelSilent,
			})
			messages = append(messages, res.Errors...)
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	if len(messages) > 0 {
		return &bundler.Failure{Messages: messages}
	}
	if files == 0 {
		return skipped("no sources found")
	}
	return nil
}
