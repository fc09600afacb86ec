package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
)

// SnapshotVersion is written into every snapshot. Readers reject other
// major versions.
const SnapshotVersion = "1.0.0"

// Snapshot is the top-level structure of a saved simulation result, read
// by external visualisers.
type Snapshot struct {
	Version   string       `json:"version"`
	CreatedAt string       `json:"created_at"`
	Result    model.Result `json:"result"`
}

// SaveSnapshot writes res to path as indented JSON, creating parent
// directories.
func SaveSnapshot(path string, res model.Result) error {
	snap := Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Result:    res,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "failed to marshal snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "failed to create snapshot directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "failed to write snapshot")
	}
	return nil
}

// LoadSnapshot reads a snapshot and rebuilds the derived body shapes.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, errors.Wrap(errors.CodeNotFound, err, "snapshot %s not found", path)
		}
		return Snapshot{}, errors.Wrap(errors.CodeImportFailed, err, "failed to read snapshot")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.Wrap(errors.CodeImportFailed, err, "failed to parse snapshot")
	}
	if snap.Version == "" {
		return Snapshot{}, errors.New(errors.CodeImportFailed, "invalid snapshot: missing version field")
	}
	if snap.Version[:1] != SnapshotVersion[:1] {
		return Snapshot{}, errors.New(errors.CodeImportFailed, "unsupported snapshot version %s", snap.Version)
	}
	snap.Result.Refresh()
	return snap, nil
}
