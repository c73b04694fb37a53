// Package toolchain adapts the external collaborators a provisioning run
// depends on (git, python venv and pip) to small interfaces over a
// runner.Runner.
package toolchain

import (
	"context"
	"errors"

	"github.com/stevehiehn/mlprov/internal/runner"
)

// ErrNotActive is returned by installs and Deactivate when no isolated
// environment is active.
var ErrNotActive = errors.New("no isolated environment is active")

// FetchSpec names a source tree to clone. An empty Ref means the remote's
// default branch; Depth 0 means full history.
type FetchSpec struct {
	URL   string
	Ref   string
	Depth int
	Dest  string
}

// VCS fetches source trees.
type VCS interface {
	Fetch(ctx context.Context, spec FetchSpec) error
}

// Environment manages the isolated package environment.
type Environment interface {
	Create(ctx context.Context, dir string, inheritSystem bool) error
	Deactivate(ctx context.Context) error
}

// PackageSpec is one install request. All Names share Version when set.
type PackageSpec struct {
	Names    []string
	Version  string
	IndexURL string
	Upgrade  bool
	Force    bool
}

// Installer installs packages into the active environment.
type Installer interface {
	Install(ctx context.Context, spec PackageSpec) error
	InstallManifest(ctx context.Context, path string) error
	PurgeCache(ctx context.Context) error
}

// Toolchain bundles the collaborators used by a run.
type Toolchain struct {
	VCS         VCS
	Environment Environment
	Installer   Installer
}

// New wires git, venv and pip over r. The pip installer targets whatever
// environment the venv manager has activated.
func New(r runner.Runner) *Toolchain {
	session := &Session{}
	return &Toolchain{
		VCS:         &Git{Runner: r},
		Environment: &Venv{Runner: r, Session: session},
		Installer:   &Pip{Runner: r, Session: session},
	}
}

// Session tracks the environment activated for a run.
type Session struct {
	dir string
}

// Active returns the active environment directory.
func (s *Session) Active() (string, bool) {
	return s.dir, s.dir != ""
}

func (s *Session) activate(dir string) { s.dir = dir }

func (s *Session) deactivate() { s.dir = "" }
