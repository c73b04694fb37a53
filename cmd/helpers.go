package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/stevehiehn/mlprov/internal/config"
	"github.com/stevehiehn/mlprov/internal/engine"
)

// parseSettings converts ["key=value", ...] to a map.
func parseSettings(raw []string) (map[string]string, error) {
	m := map[string]string{}
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", kv)
		}
		m[strings.TrimSpace(k)] = v
	}
	return m, nil
}

// loadConfig resolves the configuration from --config, the environment and
// --set. It does not validate.
func loadConfig() (*config.Config, error) {
	overrides, err := parseSettings(settings)
	if err != nil {
		return nil, err
	}
	return config.Load(config.LoadOptions{File: configFile, Overrides: overrides})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printErrors(w io.Writer, result *engine.Result) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  Error: %s\n", e.Message)
		if e.Hint != "" {
			fmt.Fprintf(w, "  Hint: %s\n", e.Hint)
		}
	}
}
