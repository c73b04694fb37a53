package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stevehiehn/mlprov/internal/artifact"
	"github.com/stevehiehn/mlprov/internal/config"
	perrors "github.com/stevehiehn/mlprov/internal/errors"
	"github.com/stevehiehn/mlprov/internal/plan"
	"github.com/stevehiehn/mlprov/internal/runner"
	"github.com/stevehiehn/mlprov/internal/toolchain"
)

// Mode controls execution behavior.
type Mode int

const (
	ModeExplain Mode = iota
	ModeDryRun
	ModeRun
)

func (m Mode) String() string {
	switch m {
	case ModeExplain:
		return "explain"
	case ModeDryRun:
		return "dry-run"
	default:
		return "run"
	}
}

// Execute runs the provisioning pipeline in the given mode. Configuration
// is validated first; a missing parameter yields a failed Result without
// any collaborator being invoked. After that, steps run strictly in order
// and the first failure stops the run. The returned error is reserved for
// problems outside the pipeline itself (run record I/O, a malformed plan);
// a step whose log cannot be opened is not started.
func Execute(ctx context.Context, rc *RunContext, mode Mode) (*Result, error) {
	result := &Result{
		RunID:   rc.RunID,
		Success: true,
	}
	logger := rc.Logger.With().Str("run_id", rc.RunID).Str("mode", mode.String()).Logger()

	if err := rc.Config.Validate(); err != nil {
		var re *perrors.RunError
		if !stderrors.As(err, &re) {
			return nil, err
		}
		logger.Error().Str("step", plan.ValidateConfigID).Str("param", re.Param).Msg(re.Message)
		result.Success = false
		result.FailedStepID = plan.ValidateConfigID
		result.Steps = append(result.Steps, StepResult{ID: plan.ValidateConfigID, Status: StatusFailed, ExitCode: re.ExitCode})
		result.Errors = append(result.Errors, *re)
		rc.Metrics.observeRun(false)
		return result, nil
	}
	result.Steps = append(result.Steps, StepResult{ID: plan.ValidateConfigID, Status: statusFor(mode)})

	steps := plan.Build(rc.Config)
	if err := plan.Validate(steps); err != nil {
		return nil, fmt.Errorf("invalid provisioning plan: %w", err)
	}

	var store *artifact.Store
	if mode == ModeRun {
		var err error
		stateDir := rc.Config.StateDir
		if stateDir == "" {
			stateDir = config.DefaultStateDir
		}
		store, err = artifact.New(rc.RunID, stateDir)
		if err != nil {
			return nil, err
		}
		result.Artifacts = []string{store.BaseDir}
	}

	var base runner.Runner = runner.DryRun{}
	if mode == ModeRun {
		base = rc.Runner
	}
	rec := &runner.Recorder{Next: base}
	tc := toolchain.New(rec)

	total := 0
	for _, s := range steps {
		if s.Enabled(rc.Config) {
			total++
		}
	}

	n := 0
	failed := false
	for _, step := range steps {
		sr := StepResult{
			ID:          step.ID,
			Name:        step.Name,
			Description: step.Description,
			Conditional: step.Conditional(),
		}
		switch {
		case failed:
			sr.Status = StatusNotRun
			result.Steps = append(result.Steps, sr)
			rc.Metrics.observeStep(step.ID, sr.Status, 0)
			continue
		case !step.Enabled(rc.Config):
			sr.Status = StatusSkipped
			logger.Info().Str("step", step.ID).Msg("precondition not met, skipping")
			result.Steps = append(result.Steps, sr)
			rc.Metrics.observeStep(step.ID, sr.Status, 0)
			continue
		}

		n++
		if mode == ModeExplain {
			sr.Status = StatusExplain
			result.Steps = append(result.Steps, sr)
			continue
		}

		var stepLog io.WriteCloser
		if store != nil {
			w, err := store.StepLog(step.ID)
			if err != nil {
				return result, err
			}
			stepLog = w
			sr.LogRef = store.StepLogPath(step.ID)
		}

		logger.Info().Str("step", step.ID).Msgf("[%d/%d] %s", n, total, step.Name)
		elapsed, err := runStep(ctx, rc, stepLog, rec, tc, step, &sr, mode)
		if stepLog != nil {
			stepLog.Close()
		}
		result.Steps = append(result.Steps, sr)
		rc.Metrics.observeStep(step.ID, sr.Status, elapsed)

		if err != nil {
			failed = true
			result.Success = false
			result.FailedStepID = step.ID
			re := stepError(ctx, step, sr, err)
			result.Errors = append(result.Errors, *re)
			logger.Error().Err(err).Str("step", step.ID).Int("exit_code", re.ExitCode).
				Msg("step failed, aborting run; the target is left as-is for inspection")
		}
	}

	if mode != ModeExplain {
		rc.Metrics.observeRun(result.Success)
	}
	if result.Success && mode == ModeRun {
		logger.Info().Msg("provisioning complete")
	}

	if store != nil {
		if err := store.WriteResult(result); err != nil {
			return result, fmt.Errorf("writing run record: %w", err)
		}
	}
	return result, nil
}

// runStep invokes one step's action with its output tee'd to the console
// and, in ModeRun, to the step log.
func runStep(ctx context.Context, rc *RunContext, stepLog io.Writer, rec *runner.Recorder,
	tc *toolchain.Toolchain, step plan.Step, sr *StepResult, mode Mode) (time.Duration, error) {
	streams := runner.Streams{Stdout: rc.Stdout, Stderr: rc.Stderr}
	if stepLog != nil {
		streams = runner.Streams{
			Stdout: teeWriter(rc.Stdout, stepLog),
			Stderr: teeWriter(rc.Stderr, stepLog),
		}
	}
	rec.Streams = &streams
	defer func() { rec.Streams = nil }()

	start := time.Now()
	err := step.Action(ctx, tc)
	elapsed := time.Since(start)
	for _, c := range rec.Take() {
		sr.Commands = append(sr.Commands, c.String())
	}

	if mode == ModeDryRun && err == nil {
		sr.Status = StatusDryRun
		if len(sr.Commands) > 0 {
			sr.DryRunInfo = "Would run: " + strings.Join(sr.Commands, " && ")
		} else {
			sr.DryRunInfo = "No external command: " + step.Description
		}
		return 0, nil
	}

	sr.Duration = elapsed.Round(time.Millisecond).String()
	if err != nil {
		sr.Status = StatusFailed
		sr.ExitCode = runner.ExitCode(err)
		return elapsed, err
	}
	sr.Status = StatusSuccess
	return elapsed, nil
}

func stepError(ctx context.Context, step plan.Step, sr StepResult, err error) *perrors.RunError {
	if ctx.Err() != nil {
		return perrors.NewCancelled(step.ID, err)
	}
	hint := fmt.Sprintf("Inspect the partially provisioned state; step %q did not complete", step.ID)
	if sr.LogRef != "" {
		hint = fmt.Sprintf("Check %s for details", sr.LogRef)
	}
	return perrors.NewStepError(step.ID, runner.ExitCode(err), err, hint)
}

func statusFor(mode Mode) string {
	switch mode {
	case ModeExplain:
		return StatusExplain
	case ModeDryRun:
		return StatusDryRun
	default:
		return StatusSuccess
	}
}

func teeWriter(console, log io.Writer) io.Writer {
	if console == nil {
		return log
	}
	return io.MultiWriter(console, log)
}
