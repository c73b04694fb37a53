package toolchain

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/stevehiehn/mlprov/internal/runner"
)

// Venv creates python virtual environments and tracks activation.
type Venv struct {
	Runner  runner.Runner
	Session *Session
	// Python defaults to "python3".
	Python string
}

// Create runs `python3 -m venv` for dir and activates it for the rest of
// the run. With inheritSystem, host site-packages (accelerator drivers)
// stay importable.
func (v *Venv) Create(ctx context.Context, dir string, inheritSystem bool) error {
	if dir == "" {
		return fmt.Errorf("venv: directory is required")
	}
	args := []string{"-m", "venv"}
	if inheritSystem {
		args = append(args, "--system-site-packages")
	}
	args = append(args, dir)

	py := v.Python
	if py == "" {
		py = "python3"
	}
	if err := v.Runner.Run(ctx, runner.Command{Name: py, Args: args}, runner.Streams{}); err != nil {
		return err
	}
	v.Session.activate(dir)
	return nil
}

// Deactivate ends the activation started by Create.
func (v *Venv) Deactivate(context.Context) error {
	if _, ok := v.Session.Active(); !ok {
		return ErrNotActive
	}
	v.Session.deactivate()
	return nil
}

// activationEnv mirrors what `source <dir>/bin/activate` exports.
func activationEnv(dir string) []string {
	return []string{
		"VIRTUAL_ENV=" + dir,
		"PIP_DISABLE_PIP_VERSION_CHECK=1",
	}
}

func pythonPath(dir string) string {
	return filepath.Join(dir, "bin", "python")
}
