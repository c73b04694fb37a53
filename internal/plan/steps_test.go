package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevehiehn/mlprov/internal/config"
	"github.com/stevehiehn/mlprov/internal/runner"
	"github.com/stevehiehn/mlprov/internal/toolchain"
)

func baseConfig() *config.Config {
	return &config.Config{
		SourceVersion:    "v1.0",
		FrameworkVersion: "2.1.0",
		IndexURL:         "https://pkg.example/simple",
		InstallDir:       "/workspace/ComfyUI",
	}
}

func withAccelerator(cfg *config.Config, v string) *config.Config {
	cfg.AcceleratorVersion = &v
	return cfg
}

var allIDs = []string{
	FetchSourceID, CreateEnvID, UpgradePipID, InstallFrameworkID,
	InstallAcceleratorID, InstallRequirementsID, InstallAuxiliaryID,
	InstallAttentionID, UpgradeSetuptoolsID, FetchPluginID,
	InstallPluginReqsID, PurgeCacheID, RepinNumericID, DeactivateEnvID,
}

func TestBuildFixedOrder(t *testing.T) {
	steps := Build(baseConfig())
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	assert.Equal(t, allIDs, ids)
	require.NoError(t, Validate(steps))
}

func TestOnlyAcceleratorIsConditional(t *testing.T) {
	for _, s := range Build(baseConfig()) {
		assert.Equal(t, s.ID == InstallAcceleratorID, s.Conditional(), s.ID)
	}
}

func TestIDsWithoutAccelerator(t *testing.T) {
	ids := IDs(baseConfig())
	assert.NotContains(t, ids, InstallAcceleratorID)
	assert.Len(t, ids, len(allIDs)-1)
}

func TestIDsWithAccelerator(t *testing.T) {
	ids := IDs(withAccelerator(baseConfig(), "0.0.23"))
	assert.Equal(t, allIDs, ids)
}

func TestRepinIsLastInstallRegardlessOfConfig(t *testing.T) {
	for _, cfg := range []*config.Config{baseConfig(), withAccelerator(baseConfig(), "0.0.23")} {
		ids := IDs(cfg)
		n := len(ids)
		assert.Equal(t, DeactivateEnvID, ids[n-1])
		assert.Equal(t, RepinNumericID, ids[n-2])
		assert.Equal(t, PurgeCacheID, ids[n-3])
		assert.Equal(t, InstallPluginReqsID, ids[n-4])
	}
}

func TestBuildDoesNotMutateConfig(t *testing.T) {
	cfg := withAccelerator(baseConfig(), "0.0.23")
	before := *cfg
	acc := *cfg.AcceleratorVersion
	steps := Build(cfg)

	tc := toolchain.New(runner.DryRun{})
	for _, s := range steps {
		require.NoError(t, s.Action(context.Background(), tc), s.ID)
	}
	assert.Equal(t, before, *cfg)
	assert.Equal(t, acc, *cfg.AcceleratorVersion)
}

func TestStepCommands(t *testing.T) {
	cfg := withAccelerator(baseConfig(), "0.0.23")
	rec := &runner.Recorder{Next: runner.DryRun{}}
	tc := toolchain.New(rec)

	got := map[string][]string{}
	for _, s := range Build(cfg) {
		require.NoError(t, s.Action(context.Background(), tc), s.ID)
		for _, c := range rec.Take() {
			got[s.ID] = append(got[s.ID], c.String())
		}
	}

	py := "/workspace/ComfyUI/venv/bin/python -m pip "
	assert.Equal(t, []string{"git clone --branch v1.0 --depth 1 " + SourceRepo + " /workspace/ComfyUI"}, got[FetchSourceID])
	assert.Equal(t, []string{"python3 -m venv --system-site-packages /workspace/ComfyUI/venv"}, got[CreateEnvID])
	assert.Equal(t, []string{py + "install --upgrade pip"}, got[UpgradePipID])
	assert.Equal(t, []string{py + "install torch==2.1.0 torchvision==2.1.0 torchaudio==2.1.0 --index-url https://pkg.example/simple"}, got[InstallFrameworkID])
	assert.Equal(t, []string{py + "install xformers==0.0.23 --index-url https://pkg.example/simple"}, got[InstallAcceleratorID])
	assert.Equal(t, []string{py + "install -r /workspace/ComfyUI/requirements.txt"}, got[InstallRequirementsID])
	assert.Equal(t, []string{py + "install triton"}, got[InstallAuxiliaryID])
	assert.Equal(t, []string{py + "install sageattention==1.0.6"}, got[InstallAttentionID])
	assert.Equal(t, []string{py + "install --upgrade setuptools"}, got[UpgradeSetuptoolsID])
	assert.Equal(t, []string{"git clone --depth 1 " + PluginRepo + " /workspace/ComfyUI/custom_nodes/ComfyUI-Manager"}, got[FetchPluginID])
	assert.Equal(t, []string{py + "install -r /workspace/ComfyUI/custom_nodes/ComfyUI-Manager/requirements.txt"}, got[InstallPluginReqsID])
	assert.Equal(t, []string{py + "cache purge"}, got[PurgeCacheID])
	assert.Equal(t, []string{py + "install --force-reinstall numpy==1.26.4"}, got[RepinNumericID])
	assert.Empty(t, got[DeactivateEnvID])
}
