// Package project persists configuration, settings profiles and result
// snapshots.
package project

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.softpdn/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".softpdn")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// SaveAppConfig persists an AppConfig to the given path as TOML.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.CodeInvalidConfig, err, "cannot create config directory")
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "cannot encode config")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(errors.CodeInvalidConfig, err, "cannot write config %s", path)
	}
	return nil
}

// LoadAppConfig reads an AppConfig from the given path. Keys missing from
// the file keep their defaults. If the file does not exist, it returns
// DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, errors.Wrap(errors.CodeInvalidConfig, err, "cannot parse config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return model.AppConfig{}, errors.New(errors.CodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	if err := config.Simulation.Validate(); err != nil {
		return model.AppConfig{}, err
	}
	for _, f := range config.Output.Formats {
		if !slices.Contains(model.OutputFormats, f) {
			return model.AppConfig{}, errors.New(errors.CodeInvalidConfig, "unknown output format %q", f)
		}
	}
	if config.RecentDesigns == nil {
		config.RecentDesigns = []string{}
	}
	return config, nil
}
