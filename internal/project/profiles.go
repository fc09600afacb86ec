package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
)

// Profile is a named set of simulation settings, used as a comparison
// scenario or as the settings of a single run.
type Profile struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Settings    model.SimSettings `json:"settings"`
}

// DefaultProfilesPath returns the default file path for saved profiles.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "profiles.json")
}

// SaveProfiles saves profiles to a JSON file.
func SaveProfiles(path string, profiles []Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot create profile directory")
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "cannot encode profiles")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot write profiles %s", path)
	}
	return nil
}

// LoadProfiles loads profiles from a JSON file. Missing settings fields
// take their defaults. Returns an empty slice if the file does not exist.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Profile{}, nil
		}
		return nil, errors.Wrap(errors.CodeImportFailed, err, "cannot read profiles %s", path)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.CodeInvalidConfig, err, "cannot parse profiles %s", path)
	}
	profiles := make([]Profile, 0, len(raw))
	for i, r := range raw {
		p, err := decodeProfile(r)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInvalidConfig, err, "profile %d in %s", i, path)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// FindProfile returns the profile with the given name.
func FindProfile(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// ExportProfile exports a single profile to a JSON file (for sharing).
func ExportProfile(path string, profile Profile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "cannot encode profile")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot write profile %s", path)
	}
	return nil
}

// ImportProfile imports a single profile from a JSON file.
func ImportProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrap(errors.CodeImportFailed, err, "cannot read profile %s", path)
	}
	p, err := decodeProfile(data)
	if err != nil {
		return Profile{}, errors.Wrap(errors.CodeInvalidConfig, err, "profile %s", path)
	}
	return p, nil
}

func decodeProfile(data []byte) (Profile, error) {
	p := Profile{Settings: model.DefaultSettings()}
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}
	if p.Name == "" {
		return Profile{}, errors.New(errors.CodeInvalidConfig, "profile has no name")
	}
	if err := p.Settings.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
