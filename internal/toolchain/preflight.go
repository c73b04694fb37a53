package toolchain

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is a binary the run shells out to.
type Tool struct {
	Name        string
	Description string
}

// RequiredTools are the collaborator binaries looked up on PATH. pip is not
// listed because it runs from inside the created environment.
func RequiredTools() []Tool {
	return []Tool{
		{Name: "git", Description: "fetches the application and plugin source trees"},
		{Name: "python3", Description: "creates the isolated environment"},
	}
}

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Preflight returns an error naming every required tool missing from PATH.
// It never runs anything.
func Preflight(lookPath LookPathFunc) error {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	var missing []string
	for _, tool := range RequiredTools() {
		if _, err := lookPath(tool.Name); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.Description))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}
