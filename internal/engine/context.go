package engine

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stevehiehn/mlprov/internal/config"
	"github.com/stevehiehn/mlprov/internal/runner"
)

// RunContext holds state for one provisioning run.
type RunContext struct {
	RunID  string
	Config *config.Config
	// Runner executes collaborators in ModeRun.
	Runner runner.Runner
	// Stdout and Stderr receive collaborator output.
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  zerolog.Logger
	Metrics *Metrics
}

// NewRunContext creates a context that runs real processes and streams
// their output to the terminal.
func NewRunContext(cfg *config.Config) *RunContext {
	return &RunContext{
		RunID:  uuid.New().String(),
		Config: cfg,
		Runner: &runner.Exec{},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: log.Logger,
	}
}
