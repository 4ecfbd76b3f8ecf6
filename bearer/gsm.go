package bearer

import "math/rand/v2"

// gsmBurstTriggerProb is the per-send probability of entering a loss burst
// while not already in one.
const gsmBurstTriggerProb = 0.02

// gsmBaselineDropRate is the drop rate applied outside a burst, per spec.md
// §4.4 (inside a burst the scenario's burst_loss_rate applies);
// gsmHandoverDriftMs is the latency added by each handover.
const (
	gsmBaselineDropRate = 0.01
	gsmHandoverDriftMs  = 20.0
)

// GSMParams holds the CS-GSM-specific scenario fields.
type GSMParams struct {
	BurstLossRate        float64
	BurstMsMean          float64
	HandoverIntervalMean float64
	HandoverEnabled       bool
}

// GSMModel implements CS-GSM's burst-loss process and handover-driven
// cumulative latency drift.
//
// The latency drift is deliberately never reset or bounded: see DESIGN.md
// Open Question 2. Each handover permanently raises the base latency for
// the remainder of the run.
type GSMModel struct {
	p GSMParams

	inBurst      bool
	burstEndMs   int64
	nextHandover int64 // nowMs threshold for the next handover draw
	driftMs      float64
	haveNext     bool
}

// NewGSMModel builds a CS-GSM model.
func NewGSMModel(p GSMParams) *GSMModel {
	return &GSMModel{p: p}
}

func (m *GSMModel) Drop(rng *rand.Rand, nowMs int64, nominalLossRate float64) bool {
	if m.inBurst {
		if nowMs >= m.burstEndMs {
			m.inBurst = false
		}
	}
	if !m.inBurst {
		if rng.Float64() < gsmBurstTriggerProb {
			m.inBurst = true
			durMs := rng.ExpFloat64() * m.p.BurstMsMean
			m.burstEndMs = nowMs + int64(durMs)
		}
	}

	rate := gsmBaselineDropRate
	if m.inBurst {
		rate = m.p.BurstLossRate
	}
	_ = nominalLossRate // CS-GSM supplies its own fixed rates, per spec.md §4.4
	return rng.Float64() < rate
}

// BaseLatencyMs applies cumulative handover drift atop the nominal latency.
// Handovers fire at exponentially distributed intervals (mean
// handover_interval_ms_mean) when enabled; each one adds a fixed 20ms that
// is never removed.
func (m *GSMModel) BaseLatencyMs(rng *rand.Rand, nowMs int64, nominalLatencyMs float64) float64 {
	if m.p.HandoverEnabled {
		if !m.haveNext {
			m.nextHandover = nowMs + int64(rng.ExpFloat64()*m.p.HandoverIntervalMean)
			m.haveNext = true
		}
		for nowMs >= m.nextHandover {
			m.driftMs += gsmHandoverDriftMs
			m.nextHandover += int64(rng.ExpFloat64() * m.p.HandoverIntervalMean)
		}
	}
	return nominalLatencyMs + m.driftMs
}

// ExtraDelayMs: CS-GSM carries no independent jitter term beyond drift.
func (m *GSMModel) ExtraDelayMs(rng *rand.Rand) float64 {
	return 0
}

// Reorder: CS-GSM never reorders, per spec.md §4.4.
func (m *GSMModel) Reorder(rng *rand.Rand, deliverMs int64) int64 {
	return deliverMs
}
