package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/softpdn/internal/model"
)

func TestSaveAndLoadProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profiles.json")

	fast := model.DefaultSettings()
	fast.IterationMax = 3
	soft := model.DefaultSettings()
	soft.PressureGain = 0.25
	soft.Policy = model.PolicyPressureOnly
	profiles := []Profile{
		{Name: "fast", Description: "quick look", Settings: fast},
		{Name: "soft", Settings: soft},
	}

	require.NoError(t, SaveProfiles(path, profiles))
	loaded, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, profiles, loaded)

	p, ok := FindProfile(loaded, "soft")
	require.True(t, ok)
	assert.Equal(t, 0.25, p.Settings.PressureGain)
	_, ok = FindProfile(loaded, "missing")
	assert.False(t, ok)
}

func TestLoadProfilesNonExistent(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}

func TestLoadProfilesPartialSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"long","settings":{"iteration_max":100}}]`), 0644))

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, 100, profiles[0].Settings.IterationMax)
	assert.Equal(t, model.DefaultSettings().StepSize, profiles[0].Settings.StepSize)
}

func TestLoadProfilesInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"json":     "not json",
		"noname":   `[{"settings":{}}]`,
		"settings": `[{"name":"x","settings":{"point_spacing":0}}]`,
	} {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := LoadProfiles(path)
		assert.Error(t, err, name)
	}
}

func TestExportAndImportProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	s := model.DefaultSettings()
	s.Clearance = 1.25
	require.NoError(t, ExportProfile(path, Profile{Name: "wide", Settings: s}))

	p, err := ImportProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "wide", p.Name)
	assert.Equal(t, 1.25, p.Settings.Clearance)

	require.NoError(t, os.WriteFile(path, []byte(`{"settings":{}}`), 0644))
	_, err = ImportProfile(path)
	assert.Error(t, err)
}
