package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeNil(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
}

func TestExitCodeMissingConfiguration(t *testing.T) {
	err := NewMissingConfiguration("source_version", "")
	assert.Equal(t, 1, ExitCode(err))
	assert.Equal(t, "source_version", err.Param)
}

func TestExitCodePropagatesStepFailure(t *testing.T) {
	err := NewStepError("fetch-source", 128, fmt.Errorf("git exited"), "")
	assert.Equal(t, 128, ExitCode(err))
}

func TestExitCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("running: %w", NewStepError("upgrade-pip", 2, fmt.Errorf("boom"), ""))
	assert.Equal(t, 2, ExitCode(err))
	assert.True(t, Is(err, StepFailed))
	assert.False(t, Is(err, MissingConfiguration))
}

func TestExitCodePlainError(t *testing.T) {
	assert.Equal(t, 1, ExitCode(fmt.Errorf("plain")))
}

func TestStepErrorNeverZero(t *testing.T) {
	err := NewStepError("x", 0, fmt.Errorf("failed to start"), "")
	assert.Equal(t, 1, err.ExitCode)
}

func TestErrorFormatting(t *testing.T) {
	err := NewStepError("fetch-manager", 1, fmt.Errorf("exit status 1"), "")
	assert.Equal(t, "[STEP_FAILED] step fetch-manager: exit status 1", err.Error())

	missing := NewMissingConfiguration("source_version", "")
	assert.Contains(t, missing.Error(), "MISSING_CONFIGURATION")
	assert.Contains(t, missing.Error(), "source_version")
}
