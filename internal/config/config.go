// Package config holds the provisioning configuration: the named parameters
// supplied by the invoking environment, and the filesystem layout derived
// from them.
package config

import (
	"path/filepath"
)

const (
	// DefaultInstallDir is the well-known location of the application tree.
	DefaultInstallDir = "/workspace/ComfyUI"
	// DefaultStateDir is where run records are kept, relative to the
	// working directory.
	DefaultStateDir = ".mlprov"

	// EnvDirName is the isolated environment directory under the install dir.
	EnvDirName = "venv"
	// PluginDir is where the plugin tree is fetched, relative to the
	// install dir.
	PluginDir = "custom_nodes/ComfyUI-Manager"
	// ManifestName is the dependency manifest file in both source trees.
	ManifestName = "requirements.txt"
)

// Parameter keys as used by --set, the YAML config file and viper.
const (
	KeySourceVersion      = "source_version"
	KeyFrameworkVersion   = "framework_version"
	KeyIndexURL           = "index_url"
	KeyAcceleratorVersion = "accelerator_version"
	KeyInstallDir         = "install_dir"
	KeyStateDir           = "state_dir"
)

// Config is read-only once a run starts. Required fields are declared in
// the order they are checked, source version first.
type Config struct {
	SourceVersion    string `validate:"required" key:"source_version"`
	FrameworkVersion string `validate:"required" key:"framework_version"`
	IndexURL         string `validate:"required,url" key:"index_url"`

	// AcceleratorVersion is nil when the parameter is absent. Presence
	// alone gates the accelerator install.
	AcceleratorVersion *string

	InstallDir string
	StateDir   string
}

// HasAccelerator reports whether the optional accelerator version is present.
func (c *Config) HasAccelerator() bool {
	return c.AcceleratorVersion != nil
}

// Layout is the filesystem contract of a run.
type Layout struct {
	Root           string
	EnvDir         string
	Manifest       string
	PluginRoot     string
	PluginManifest string
}

// Layout derives the fixed paths beneath the install dir.
func (c *Config) Layout() Layout {
	root := c.InstallDir
	if root == "" {
		root = DefaultInstallDir
	}
	plugin := filepath.Join(root, filepath.FromSlash(PluginDir))
	return Layout{
		Root:           root,
		EnvDir:         filepath.Join(root, EnvDirName),
		Manifest:       filepath.Join(root, ManifestName),
		PluginRoot:     plugin,
		PluginManifest: filepath.Join(plugin, ManifestName),
	}
}

// Key describes one configuration parameter.
type Key struct {
	Name        string `json:"name"`
	Env         string `json:"env"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
}

var keys = []Key{
	{Name: KeySourceVersion, Env: "COMFYUI_VERSION", Required: true,
		Description: "Git tag or branch of the application source tree"},
	{Name: KeyFrameworkVersion, Env: "TORCH_VERSION", Required: true,
		Description: "Exact torch version; torchvision and torchaudio are pinned to it"},
	{Name: KeyIndexURL, Env: "TORCH_INDEX_URL", Required: true,
		Description: "Package index used for the framework and accelerator installs"},
	{Name: KeyAcceleratorVersion, Env: "XFORMERS_VERSION",
		Description: "When set, xformers is installed at exactly this version"},
	{Name: KeyInstallDir, Env: "MLPROV_INSTALL_DIR", Default: DefaultInstallDir,
		Description: "Target location of the application source tree"},
	{Name: KeyStateDir, Env: "MLPROV_STATE_DIR", Default: DefaultStateDir,
		Description: "Directory for run records"},
}

// Keys returns every known parameter in check order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

func lookupKey(name string) (Key, bool) {
	for _, k := range keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}
