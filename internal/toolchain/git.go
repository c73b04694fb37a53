package toolchain

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stevehiehn/mlprov/internal/runner"
)

// Git clones repositories with the git CLI.
type Git struct {
	Runner runner.Runner
	// Binary defaults to "git".
	Binary string
}

// Fetch clones spec.URL into spec.Dest. No check is made on Dest: cloning
// into an existing non-empty directory fails in git and that failure is
// returned as-is.
func (g *Git) Fetch(ctx context.Context, spec FetchSpec) error {
	if spec.URL == "" || spec.Dest == "" {
		return fmt.Errorf("git fetch: url and destination are required")
	}
	return g.Runner.Run(ctx, g.cloneCommand(spec), runner.Streams{})
}

func (g *Git) cloneCommand(spec FetchSpec) runner.Command {
	args := []string{"clone"}
	if spec.Ref != "" {
		args = append(args, "--branch", spec.Ref)
	}
	if spec.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(spec.Depth))
	}
	args = append(args, spec.URL, spec.Dest)

	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	return runner.Command{Name: bin, Args: args}
}
