package plan

import (
	"context"

	"github.com/stevehiehn/mlprov/internal/config"
	"github.com/stevehiehn/mlprov/internal/toolchain"
)

// Source trees.
const (
	SourceRepo = "https://github.com/comfyanonymous/ComfyUI"
	PluginRepo = "https://github.com/ltdrdata/ComfyUI-Manager"
)

// Fixed packages and pins.
const (
	AcceleratorPackage = "xformers"
	AuxiliaryPackage   = "triton"
	AttentionPackage   = "sageattention"
	AttentionVersion   = "1.0.6"
	NumericPackage     = "numpy"
	// NumericVersion is re-pinned after the plugin requirements install,
	// which has been seen to pull numpy 2.x.
	NumericVersion = "1.26.4"
)

// FrameworkPackages are installed together at the framework version.
var FrameworkPackages = []string{"torch", "torchvision", "torchaudio"}

// Step IDs, in execution order.
const (
	ValidateConfigID      = "validate-config"
	FetchSourceID         = "fetch-source"
	CreateEnvID           = "create-env"
	UpgradePipID          = "upgrade-pip"
	InstallFrameworkID    = "install-framework"
	InstallAcceleratorID  = "install-accelerator"
	InstallRequirementsID = "install-requirements"
	InstallAuxiliaryID    = "install-triton"
	InstallAttentionID    = "install-sageattention"
	UpgradeSetuptoolsID   = "upgrade-setuptools"
	FetchPluginID         = "fetch-manager"
	InstallPluginReqsID   = "install-manager-requirements"
	PurgeCacheID          = "purge-cache"
	RepinNumericID        = "repin-numpy"
	DeactivateEnvID       = "deactivate-env"
)

// Build returns the provisioning steps for cfg in their fixed order.
// Configuration validation runs ahead of these and is not part of the list.
// cfg is captured, never modified.
func Build(cfg *config.Config) []Step {
	layout := cfg.Layout()

	return []Step{
		{
			ID:          FetchSourceID,
			Name:        "Fetch application source",
			Description: "Shallow clone of ComfyUI at the configured version; fails if the target exists",
			Action: func(ctx context.Context, tc *toolchain.Toolchain) error {
				return tc.VCS.Fetch(ctx, toolchain.FetchSpec{
					URL:   SourceRepo,
					Ref:   cfg.SourceVersion,
					Depth: 1,
					Dest:  layout.Root,
				})
			},
		},
		{
			ID:          CreateEnvID,
			Name:        "Create isolated environment",
			Description: "Virtualenv under the source tree, inheriting system site-packages",
			Action: func(ctx context.Context, tc *toolchain.Toolchain) error {
				return tc.Environment.Create(ctx, layout.EnvDir, true)
			},
		},
		{
			ID:          UpgradePipID,
			Name:        "Upgrade pip",
			Description: "Upgrade the installer before anything else is installed",
			Action:      upgrade("pip"),
		},
		{
			ID:          InstallFrameworkID,
			Name:        "Install framework",
			Description: "torch, torchvision and torchaudio pinned to the framework version",
			Action: func(ctx context.Context, tc *toolchain.Toolchain) error {
				return tc.Installer.Install(ctx, toolchain.PackageSpec{
					Names:    FrameworkPackages,
					Version:  cfg.FrameworkVersion,
					IndexURL: cfg.IndexURL,
				})
			},
		},
		{
			ID:          InstallAcceleratorID,
			Name:        "Install accelerator library",
			Description: "xformers pinned to the accelerator version; only when that version is configured",
			When:        (*config.Config).HasAccelerator,
			Action: func(ctx context.Context, tc *toolchain.Toolchain) error {
				return tc.Installer.Install(ctx, toolchain.PackageSpec{
					Names:    []string{AcceleratorPackage},
					Version:  *cfg.AcceleratorVersion,
					IndexURL: cfg.IndexURL,
				})
			},
		},
		{
			ID:          InstallRequirementsID,
			Name:        "Install application requirements",
			Description: "The source tree's own requirements.txt",
			Action:      manifest(layout.Manifest),
		},
		{
			ID:          InstallAuxiliaryID,
			Name:        "Install triton",
			Description: "Auxiliary acceleration library",
			Action:      install(toolchain.PackageSpec{Names: []string{AuxiliaryPackage}}),
		},
		{
			ID:          InstallAttentionID,
			Name:        "Install sageattention",
			Description: "Attention acceleration pinned to " + AttentionVersion,
			Action:      install(toolchain.PackageSpec{Names: []string{AttentionPackage}, Version: AttentionVersion}),
		},
		{
			ID:          UpgradeSetuptoolsID,
			Name:        "Upgrade setuptools",
			Description: "Upgrade the build-packaging tool",
			Action:      upgrade("setuptools"),
		},
		{
			ID:          FetchPluginID,
			Name:        "Fetch ComfyUI-Manager",
			Description: "Shallow clone of the plugin's default branch into custom_nodes",
			Action: func(ctx context.Context, tc *toolchain.Toolchain) error {
				return tc.VCS.Fetch(ctx, toolchain.FetchSpec{
					URL:   PluginRepo,
					Depth: 1,
					Dest:  layout.PluginRoot,
				})
			},
		},
		{
			ID:          InstallPluginReqsID,
			Name:        "Install ComfyUI-Manager requirements",
			Description: "Unpinned resolution that may move previously pinned libraries",
			Action:      manifest(layout.PluginManifest),
		},
		{
			ID:          PurgeCacheID,
			Name:        "Purge pip cache",
			Description: "Free disk space taken by downloaded wheels",
			Action: func(ctx context.Context, tc *toolchain.Toolchain) error {
				return tc.Installer.PurgeCache(ctx)
			},
		},
		{
			ID:          RepinNumericID,
			Name:        "Re-pin numpy",
			Description: "Force numpy back to " + NumericVersion + " after the plugin requirements",
			Action: install(toolchain.PackageSpec{
				Names:   []string{NumericPackage},
				Version: NumericVersion,
				Force:   true,
			}),
		},
		{
			ID:          DeactivateEnvID,
			Name:        "Deactivate environment",
			Description: "End the isolated environment activation",
			Action: func(ctx context.Context, tc *toolchain.Toolchain) error {
				return tc.Environment.Deactivate(ctx)
			},
		},
	}
}

// IDs lists the steps that run under cfg, in order.
func IDs(cfg *config.Config) []string {
	var ids []string
	for _, s := range Build(cfg) {
		if s.Enabled(cfg) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func install(spec toolchain.PackageSpec) func(context.Context, *toolchain.Toolchain) error {
	return func(ctx context.Context, tc *toolchain.Toolchain) error {
		return tc.Installer.Install(ctx, spec)
	}
}

func upgrade(name string) func(context.Context, *toolchain.Toolchain) error {
	return install(toolchain.PackageSpec{Names: []string{name}, Upgrade: true})
}

func manifest(path string) func(context.Context, *toolchain.Toolchain) error {
	return func(ctx context.Context, tc *toolchain.Toolchain) error {
		return tc.Installer.InstallManifest(ctx, path)
	}
}
