package toolchain

import (
	"context"
	"fmt"

	"github.com/stevehiehn/mlprov/internal/runner"
)

// Pip installs packages with the active environment's interpreter
// (`<venv>/bin/python -m pip`), so nothing reaches the host interpreter.
type Pip struct {
	Runner  runner.Runner
	Session *Session
}

func (p *Pip) Install(ctx context.Context, spec PackageSpec) error {
	if len(spec.Names) == 0 {
		return fmt.Errorf("pip install: no packages given")
	}
	args := []string{"install"}
	if spec.Upgrade {
		args = append(args, "--upgrade")
	}
	if spec.Force {
		args = append(args, "--force-reinstall")
	}
	for _, name := range spec.Names {
		if spec.Version != "" {
			name += "==" + spec.Version
		}
		args = append(args, name)
	}
	if spec.IndexURL != "" {
		args = append(args, "--index-url", spec.IndexURL)
	}
	return p.pip(ctx, args...)
}

func (p *Pip) InstallManifest(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("pip install: manifest path is required")
	}
	return p.pip(ctx, "install", "-r", path)
}

func (p *Pip) PurgeCache(ctx context.Context) error {
	return p.pip(ctx, "cache", "purge")
}

func (p *Pip) pip(ctx context.Context, args ...string) error {
	dir, ok := p.Session.Active()
	if !ok {
		return ErrNotActive
	}
	cmd := runner.Command{
		Name: pythonPath(dir),
		Args: append([]string{"-m", "pip"}, args...),
		Env:  activationEnv(dir),
	}
	return p.Runner.Run(ctx, cmd, runner.Streams{})
}
