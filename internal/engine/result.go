package engine

import perrors "github.com/stevehiehn/mlprov/internal/errors"

// Step statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped" // precondition false, never invoked
	StatusNotRun  = "not-run" // after an earlier failure
	StatusDryRun  = "dry-run"
	StatusExplain = "explain"
)

// Result is the structured outcome of one provisioning run.
type Result struct {
	RunID        string             `json:"run_id"`
	Success      bool               `json:"success"`
	FailedStepID string             `json:"failed_step_id,omitempty"`
	Steps        []StepResult       `json:"steps"`
	Artifacts    []string           `json:"artifacts,omitempty"`
	Errors       []perrors.RunError `json:"errors,omitempty"`
}

// StepResult describes the outcome of a single step.
type StepResult struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Status      string   `json:"status"`
	Conditional bool     `json:"conditional,omitempty"`
	ExitCode    int      `json:"exit_code,omitempty"`
	Commands    []string `json:"commands,omitempty"`
	LogRef      string   `json:"log_ref,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Description string   `json:"description,omitempty"`
	DryRunInfo  string   `json:"dry_run_info,omitempty"`
}

// Err returns the error that stopped the run, or nil on success.
func (r *Result) Err() error {
	if r.Success || len(r.Errors) == 0 {
		return nil
	}
	e := r.Errors[0]
	return &e
}

// Invoked lists the IDs of steps whose action was invoked, in order.
func (r *Result) Invoked() []string {
	var ids []string
	for _, sr := range r.Steps {
		switch sr.Status {
		case StatusSuccess, StatusFailed, StatusDryRun:
			ids = append(ids, sr.ID)
		}
	}
	return ids
}

// Step returns the result for id.
func (r *Result) Step(id string) (StepResult, bool) {
	for _, sr := range r.Steps {
		if sr.ID == id {
			return sr, true
		}
	}
	return StepResult{}, false
}
