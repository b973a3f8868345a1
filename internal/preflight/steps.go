package preflight

import "git.home.luguber.info/inful/webbuilder/internal/config"

// DefaultSteps returns the standard sequence for a project rooted at root:
// paths, hook, compile, lint. configPath is baked into the installed hook.
func DefaultSteps(root, configPath string, cfg config.PreflightConfig) []Step {
	return []Step{
		PathsStep{Root: root, Paths: cfg.RequiredPaths},
		HookStep{Root: root, Enabled: cfg.HookEnabled(), ConfigPath: configPath},
		CompileStep{Root: root, Dirs: cfg.CompileDirs},
		LintStep{Root: root, Command: cfg.Lint.Command, Args: cfg.Lint.Args},
	}
}
