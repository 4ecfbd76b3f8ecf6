package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Icing-Project/DryBox"
)

// RunManifest is the per-run summary artifact: wall-clock bounds, the
// DryBox version, and the resolved knobs a batch of sweep runs needs to be
// indexed without re-parsing scenario.resolved.* or logs.
type RunManifest struct {
	Version     string    `json:"version"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	SweepSuffix string    `json:"sweep_suffix,omitempty"`
	TickMs      int64     `json:"tick_ms"`
	DurationMs  int64     `json:"duration_ms"`
	Seed        uint64    `json:"seed"`
}

// Manifest assembles this run's RunManifest from its resolved settings and
// the wall-clock bounds the caller observed around RunWithContext.
func (e *Engine) Manifest(startedAt, endedAt time.Time, sweepSuffix string) RunManifest {
	return RunManifest{
		Version:     drybox.Version,
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		SweepSuffix: sweepSuffix,
		TickMs:      e.tickMs,
		DurationMs:  e.durationMs,
		Seed:        e.sc.Seed,
	}
}

// WriteManifest writes m as manifest.json next to the run's other artifacts.
func WriteManifest(path string, m RunManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &drybox.IoFailureError{Artifact: path, Err: err}
	}
	return nil
}
