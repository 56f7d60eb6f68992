package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/sph/components"
	"github.com/pthm-cable/sph/config"
)

// CheckpointVersion is incremented when the format changes.
const CheckpointVersion = 1

// Checkpoint holds everything needed to resume a run: the config that
// builds the particle layout plus the mutable per-particle state.
type Checkpoint struct {
	Version int            `json:"version"`
	Config  *config.Config `json:"config"`

	Step int     `json:"step"`
	Time float64 `json:"time"`

	Particles []ParticleState `json:"particles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ParticleState is one particle's resumable state. Density and pressure
// are not stored; they are recomputed from positions on restore.
type ParticleState struct {
	Kind        components.Kind `json:"kind"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	VelX        float64         `json:"vel_x"`
	VelY        float64         `json:"vel_y"`
	RestDensity float64         `json:"rest_density"`
}

// SaveCheckpoint writes a checkpoint to dir.
// Returns the filepath where it was saved.
func SaveCheckpoint(cp *Checkpoint, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}

	name := fmt.Sprintf("checkpoint_%d", cp.Step)
	if cp.Bookmark != nil {
		name = fmt.Sprintf("checkpoint_%d_%s", cp.Step, cp.Bookmark.Type)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	return path, nil
}

// LoadCheckpoint reads a checkpoint from disk.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if cp.Version != CheckpointVersion {
		return nil, fmt.Errorf("checkpoint version %d, want %d", cp.Version, CheckpointVersion)
	}
	if cp.Config == nil {
		return nil, fmt.Errorf("checkpoint has no config")
	}
	return &cp, nil
}
