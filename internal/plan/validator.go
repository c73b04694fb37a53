package plan

import "fmt"

// Validate checks a step list for structural correctness: unique non-empty
// IDs, an action on every step, the environment created before any
// install, the numpy re-pin after the plugin requirements and the cache
// purge, and deactivation last.
func Validate(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	index := map[string]int{}
	for i, s := range steps {
		if s.ID == "" {
			return fmt.Errorf("step at index %d has no id", i)
		}
		if _, dup := index[s.ID]; dup {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		if s.Action == nil {
			return fmt.Errorf("step %q has no action", s.ID)
		}
		index[s.ID] = i
	}

	mustPrecede := [][2]string{
		{FetchSourceID, CreateEnvID},
		{CreateEnvID, UpgradePipID},
		{UpgradePipID, InstallFrameworkID},
		{InstallFrameworkID, InstallAcceleratorID},
		{InstallAcceleratorID, InstallRequirementsID},
		{FetchPluginID, InstallPluginReqsID},
		{InstallPluginReqsID, RepinNumericID},
		{PurgeCacheID, RepinNumericID},
	}
	for _, pair := range mustPrecede {
		before, okB := index[pair[0]]
		after, okA := index[pair[1]]
		if okB && okA && before >= after {
			return fmt.Errorf("step %q must run before %q", pair[0], pair[1])
		}
	}

	if i, ok := index[DeactivateEnvID]; ok && i != len(steps)-1 {
		return fmt.Errorf("step %q must be last", DeactivateEnvID)
	}
	if i, ok := index[RepinNumericID]; ok {
		if d, hasD := index[DeactivateEnvID]; hasD && i != d-1 {
			return fmt.Errorf("step %q must be the last install", RepinNumericID)
		}
	}
	return nil
}
