package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an optional YAML config file.
	File string
	// Overrides are --set key=value pairs; they win over everything else.
	Overrides map[string]string
	// Environ replaces the process environment when non-nil.
	Environ []string
}

// Load builds a Config from, in increasing precedence, the YAML file, the
// environment and the overrides. Empty values count as absent.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyInstallDir, DefaultInstallDir)
	v.SetDefault(KeyStateDir, DefaultStateDir)

	if opts.File != "" {
		raw, err := LoadFile(opts.File)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(raw); err != nil {
			return nil, fmt.Errorf("merging config file: %w", err)
		}
	}

	if opts.Environ != nil {
		env := environMap(opts.Environ)
		for _, k := range keys {
			if val, ok := env[k.Env]; ok && val != "" {
				v.Set(k.Name, val)
			}
		}
	} else {
		for _, k := range keys {
			if err := v.BindEnv(k.Name, k.Env); err != nil {
				return nil, fmt.Errorf("binding %s: %w", k.Env, err)
			}
		}
	}

	for name, val := range opts.Overrides {
		if _, ok := lookupKey(name); !ok {
			return nil, fmt.Errorf("unknown parameter %q (known: %s)", name, knownNames())
		}
		v.Set(name, val)
	}

	cfg := &Config{
		SourceVersion:    strings.TrimSpace(v.GetString(KeySourceVersion)),
		FrameworkVersion: strings.TrimSpace(v.GetString(KeyFrameworkVersion)),
		IndexURL:         strings.TrimSpace(v.GetString(KeyIndexURL)),
		InstallDir:       v.GetString(KeyInstallDir),
		StateDir:         v.GetString(KeyStateDir),
	}
	if acc := strings.TrimSpace(v.GetString(KeyAcceleratorVersion)); acc != "" {
		cfg.AcceleratorVersion = &acc
	}
	return cfg, nil
}

// LoadFile reads a YAML config file into a flat parameter map.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes. Unknown keys and non-scalar values are rejected.
func Parse(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	out := make(map[string]any, len(raw))
	for name, val := range raw {
		if _, ok := lookupKey(name); !ok {
			return nil, fmt.Errorf("unknown parameter %q in config file", name)
		}
		switch val.(type) {
		case string, int, float64, bool:
			out[name] = fmt.Sprint(val)
		case nil:
		default:
			return nil, fmt.Errorf("parameter %q must be a scalar", name)
		}
	}
	return out, nil
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}

func knownNames() string {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
