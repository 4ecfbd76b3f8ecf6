package bearer

import "math/rand/v2"

// PSTNParams holds the PSTN-G711-specific scenario fields.
type PSTNParams struct {
	JitterMs float64
}

// PSTNModel is the wireline baseline: nominal loss/latency pass through
// unchanged, with uniform jitter added on top, per spec.md §4.4.
type PSTNModel struct {
	p PSTNParams
}

// NewPSTNModel builds a PSTN-G711 model.
func NewPSTNModel(p PSTNParams) *PSTNModel {
	return &PSTNModel{p: p}
}

func (m *PSTNModel) Drop(rng *rand.Rand, nowMs int64, nominalLossRate float64) bool {
	return rng.Float64() < nominalLossRate
}

func (m *PSTNModel) BaseLatencyMs(rng *rand.Rand, nowMs int64, nominalLatencyMs float64) float64 {
	return nominalLatencyMs
}

// ExtraDelayMs draws uniformly from [-jitter_ms, +jitter_ms].
func (m *PSTNModel) ExtraDelayMs(rng *rand.Rand) float64 {
	return (rng.Float64()*2 - 1) * m.p.JitterMs
}

// Reorder: PSTN-G711 never reorders.
func (m *PSTNModel) Reorder(rng *rand.Rand, deliverMs int64) int64 {
	return deliverMs
}
