package bearer

import "math/rand/v2"

// volteBadStateDropBump is the source's hard-coded extra drop probability
// applied while the Gilbert-Elliott process is in the bad state. Not
// parameterized by the scenario; see DESIGN.md Open Question 1.
const volteBadStateDropBump = 0.30

// VoLTEParams holds the VoLTE-EVS-specific scenario fields.
type VoLTEParams struct {
	GEPGoodBad  float64 // probability good -> bad per send
	GEPBadGood  float64 // probability bad -> good per send
	JitterMs    float64
	ReorderRate float64
	FrameMs     float64
}

// VoLTEModel implements a two-state Gilbert-Elliott loss process with
// truncated-Gaussian jitter and frame_ms-retard reordering.
type VoLTEModel struct {
	p   VoLTEParams
	bad bool
}

// NewVoLTEModel builds a VoLTE-EVS model, starting in the good state.
func NewVoLTEModel(p VoLTEParams) *VoLTEModel {
	return &VoLTEModel{p: p}
}

func (m *VoLTEModel) Drop(rng *rand.Rand, nowMs int64, nominalLossRate float64) bool {
	// State transition happens on every send, per spec.md §4.4.
	if m.bad {
		if rng.Float64() < m.p.GEPBadGood {
			m.bad = false
		}
	} else {
		if rng.Float64() < m.p.GEPGoodBad {
			m.bad = true
		}
	}

	p := nominalLossRate
	if m.bad {
		p += volteBadStateDropBump
	}
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return rng.Float64() < p
}

func (m *VoLTEModel) BaseLatencyMs(rng *rand.Rand, nowMs int64, nominalLatencyMs float64) float64 {
	return nominalLatencyMs
}

// ExtraDelayMs draws a truncated Gaussian, mean 0, sigma = max(1,
// jitter_ms/2), clipped at +/-3 sigma, per spec.md §4.4.
func (m *VoLTEModel) ExtraDelayMs(rng *rand.Rand) float64 {
	sigma := m.p.JitterMs / 2
	if sigma < 1 {
		sigma = 1
	}
	v := rng.NormFloat64() * sigma
	bound := 3 * sigma
	if v > bound {
		v = bound
	} else if v < -bound {
		v = -bound
	}
	return v
}

func (m *VoLTEModel) Reorder(rng *rand.Rand, deliverMs int64) int64 {
	if rng.Float64() < m.p.ReorderRate {
		return deliverMs + int64(m.p.FrameMs)
	}
	return deliverMs
}
