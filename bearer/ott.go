package bearer

import "math/rand/v2"

// OTTParams holds the OTT-UDP-specific scenario fields.
type OTTParams struct {
	JitterMs    float64
	ReorderRate float64
	FrameMs     float64
}

// OTTModel is a plain best-effort internet path: Bernoulli loss, untruncated
// Gaussian jitter, and occasional single-frame reordering, per spec.md §4.4.
type OTTModel struct {
	p OTTParams
}

// NewOTTModel builds an OTT-UDP model.
func NewOTTModel(p OTTParams) *OTTModel {
	return &OTTModel{p: p}
}

func (m *OTTModel) Drop(rng *rand.Rand, nowMs int64, nominalLossRate float64) bool {
	return rng.Float64() < nominalLossRate
}

func (m *OTTModel) BaseLatencyMs(rng *rand.Rand, nowMs int64, nominalLatencyMs float64) float64 {
	return nominalLatencyMs
}

// ExtraDelayMs draws an untruncated Gaussian, mean 0, sigma = jitter_ms/2.
func (m *OTTModel) ExtraDelayMs(rng *rand.Rand) float64 {
	return rng.NormFloat64() * (m.p.JitterMs / 2)
}

// Reorder retards delivery by one frame with probability reorder_rate.
func (m *OTTModel) Reorder(rng *rand.Rand, deliverMs int64) int64 {
	if rng.Float64() < m.p.ReorderRate {
		return deliverMs + int64(m.p.FrameMs)
	}
	return deliverMs
}
