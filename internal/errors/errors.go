package errors

import (
	stderrors "errors"
	"fmt"
)

// Error type constants
const (
	MissingConfiguration = "MISSING_CONFIGURATION"
	InvalidConfiguration = "INVALID_CONFIGURATION"
	StepFailed           = "STEP_FAILED"
	Cancelled            = "CANCELLED"
)

// RunError is a structured error describing why a provisioning run stopped.
type RunError struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	StepID   string `json:"step_id,omitempty"`
	Param    string `json:"param,omitempty"`
	ExitCode int    `json:"exit_code"`
	Hint     string `json:"hint,omitempty"`
	Err      error  `json:"-"`
}

func (e *RunError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Type, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewMissingConfiguration reports an absent required parameter.
func NewMissingConfiguration(param, hint string) *RunError {
	return &RunError{
		Type:     MissingConfiguration,
		Param:    param,
		Message:  fmt.Sprintf("required parameter %q is not set", param),
		ExitCode: 1,
		Hint:     hint,
	}
}

func NewInvalidConfiguration(param, msg, hint string) *RunError {
	return &RunError{Type: InvalidConfiguration, Param: param, Message: msg, ExitCode: 1, Hint: hint}
}

// NewStepError wraps a collaborator failure. The exit code is propagated
// unchanged to the process exit status.
func NewStepError(stepID string, exitCode int, err error, hint string) *RunError {
	if exitCode == 0 {
		exitCode = 1
	}
	return &RunError{
		Type:     StepFailed,
		StepID:   stepID,
		Message:  err.Error(),
		ExitCode: exitCode,
		Hint:     hint,
		Err:      err,
	}
}

func NewCancelled(stepID string, err error) *RunError {
	return &RunError{Type: Cancelled, StepID: stepID, Message: "run cancelled", ExitCode: 130, Err: err}
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var re *RunError
	if stderrors.As(err, &re) && re.ExitCode != 0 {
		return re.ExitCode
	}
	return 1
}

// Is reports whether err is a RunError of the given type.
func Is(err error, typ string) bool {
	var re *RunError
	return stderrors.As(err, &re) && re.Type == typ
}
