package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store manages the record of one provisioning run.
type Store struct {
	RunID   string
	BaseDir string // <stateDir>/runs/<run_id>
}

// New creates a store for a given run ID, rooted at stateDir.
func New(runID, stateDir string) (*Store, error) {
	base := filepath.Join(stateDir, "runs", runID)
	if err := os.MkdirAll(filepath.Join(base, "steps"), 0o755); err != nil {
		return nil, fmt.Errorf("creating run record dir: %w", err)
	}
	return &Store{RunID: runID, BaseDir: base}, nil
}

// StepLogPath is where a step's collaborator output is kept.
func (s *Store) StepLogPath(stepID string) string {
	return filepath.Join(s.BaseDir, "steps", stepID+".log")
}

// StepLog opens the step's log for appending.
func (s *Store) StepLog(stepID string) (io.WriteCloser, error) {
	f, err := os.OpenFile(s.StepLogPath(stepID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening step log: %w", err)
	}
	return f, nil
}

// WriteResult writes the final result JSON.
func (s *Store) WriteResult(result any) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.BaseDir, "result.json"), data, 0o644)
}

// ReadResult decodes a previously written result.json into v.
func ReadResult(stateDir, runID string, v any) error {
	data, err := os.ReadFile(filepath.Join(stateDir, "runs", runID, "result.json"))
	if err != nil {
		return fmt.Errorf("reading run record: %w", err)
	}
	return json.Unmarshal(data, v)
}
