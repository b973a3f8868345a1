package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathsStep checks that required project paths exist.
type PathsStep struct {
	Root  string
	Paths []string
}

func (s PathsStep) Name() string { return "paths" }

func (s PathsStep) Run(_ context.Context) error {
	if len(s.Paths) == 0 {
		return skipped("no required paths configured")
	}
	var missing []string
	for _, p := range s.Paths {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(s.Root, p)
		}
		if _, err := os.Stat(full); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, p)
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required paths missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
