// Package runtimeconfig loads the JSON model configuration the demo binary
// wires an Instance from. It carries no schema beyond model.Config itself;
// one environment variable, SERVECORE_WARMUP_DATA_DIR, overrides the
// warmup data directory read from the file.
package runtimeconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelruntime/servecore/pkg/model"
)

// Config is the demo binary's top-level configuration: the model config
// plus the handful of deployment knobs the binary itself needs.
type Config struct {
	Model model.Config `json:"model"`

	// DeviceID is the device the demo instance binds to. 0 by default.
	DeviceID int64 `json:"device_id"`
	// WarmupDataDir resolves relative input_data_file names for warmup
	// samples that read from disk.
	WarmupDataDir string `json:"warmup_data_dir,omitempty"`
}

// Load reads and parses a Config from path, then applies any environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runtimeconfig: reading %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("runtimeconfig: parsing %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Model.Validate(); err != nil {
		return nil, fmt.Errorf("runtimeconfig: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides lets deployment-time environment variables win over
// values baked into the config file.
func applyEnvOverrides(cfg *Config) {
	if dir := os.Getenv("SERVECORE_WARMUP_DATA_DIR"); dir != "" {
		cfg.WarmupDataDir = dir
	}
}
