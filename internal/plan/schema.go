package plan

import (
	"context"

	"github.com/stevehiehn/mlprov/internal/config"
	"github.com/stevehiehn/mlprov/internal/toolchain"
)

// Step is one unit of provisioning work. Steps are stateless; everything
// they touch lives behind the collaborators.
type Step struct {
	ID          string
	Name        string
	Description string
	// When gates the step; nil means the step is mandatory.
	When func(cfg *config.Config) bool
	// Action invokes one or more collaborators.
	Action func(ctx context.Context, tc *toolchain.Toolchain) error
}

// Enabled reports whether the step runs under cfg.
func (s Step) Enabled(cfg *config.Config) bool {
	return s.When == nil || s.When(cfg)
}

// Conditional reports whether the step has a precondition.
func (s Step) Conditional() bool {
	return s.When != nil
}
