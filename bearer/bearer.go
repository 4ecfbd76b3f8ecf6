// Package bearer implements the stochastic datagram bearer models of
// spec.md §4.4: a shared send/poll-deliver/stats contract, an RFC3550-like
// jitter estimator, and four per-technology loss/latency/reorder models
// (VoLTE-EVS, CS-GSM, PSTN-G711, OTT-UDP).
//
// The drift-control bookkeeping in the teacher's pcm.PCMPlayoutBuffer
// (bounded queue + accumulated error + hysteresis) is the idiom this
// package's counters and jitter estimator are built in: deterministic,
// per-tick state carried on the bearer value itself, never recomputed from
// scratch.
package bearer

import (
	"math/rand/v2"
	"sort"
)

// Datagram is one in-flight or delivered payload, per spec.md §3.
type Datagram struct {
	Payload   []byte
	SentMs    int64
	DeliverMs int64
	Seq       uint32
}

// Model is the per-technology hook set the shared Bearer calls into. Every
// random draw goes through the rng the Bearer owns, per spec.md §4.4's
// determinism requirement.
type Model interface {
	// Drop reports whether this send is lost, advancing any internal loss
	// process state (Gilbert-Elliott, burst timers, ...).
	Drop(rng *rand.Rand, nowMs int64, nominalLossRate float64) bool
	// BaseLatencyMs returns the base latency to use for this send, which
	// may itself carry model-specific state (e.g. CS-GSM's handover
	// drift).
	BaseLatencyMs(rng *rand.Rand, nowMs int64, nominalLatencyMs float64) float64
	// ExtraDelayMs returns additional jitter/delay atop the base latency.
	ExtraDelayMs(rng *rand.Rand) float64
	// Reorder optionally perturbs deliverMs after seq assignment, before
	// the datagram is enqueued.
	Reorder(rng *rand.Rand, deliverMs int64) int64
}

// Params configures a Bearer instance from the scenario's bearer spec.
type Params struct {
	LatencyMs   float64
	JitterMs    float64
	LossRate    float64
	ReorderRate float64
	MtuBytes    int
	FrameMs     float64
}

// Bearer is one direction's datagram transport: send, poll_deliver, stats.
type Bearer struct {
	params Params
	model  Model
	rng    *rand.Rand

	queue  []Datagram
	nextSeq uint32

	txCount, dropCount, reorderCount uint64
	lastDeliveredSeq                 int64 // -1 until first delivery
	haveLastTransit                  bool
	lastTransitMs                    float64
	jitterMs                         float64
}

// New builds a Bearer around the given model, seeded from the supplied RNG
// (itself derived from the scenario seed by the engine).
func New(params Params, model Model, rng *rand.Rand) *Bearer {
	return &Bearer{
		params:           params,
		model:            model,
		rng:              rng,
		lastDeliveredSeq: -1,
	}
}

// Send queues a copy of payload with a computed deliver_ms, per spec.md
// §4.4's common send algorithm.
func (b *Bearer) Send(payload []byte, nowMs int64) {
	b.txCount++

	if b.model.Drop(b.rng, nowMs, b.params.LossRate) {
		b.dropCount++
		return
	}

	b.enqueue(payload, nowMs)
}

// SendWithoutLossDraw queues payload exactly like Send, but skips the
// model's Drop draw: audio-mode frames already had their loss decided
// against the nominal loss rate at the vocoder/PLC layer (spec.md §4.9
// step 2), so running Drop again here would double-count loss.
func (b *Bearer) SendWithoutLossDraw(payload []byte, nowMs int64) {
	b.txCount++
	b.enqueue(payload, nowMs)
}

func (b *Bearer) enqueue(payload []byte, nowMs int64) {
	base := b.model.BaseLatencyMs(b.rng, nowMs, b.params.LatencyMs)
	extra := b.model.ExtraDelayMs(b.rng)

	deliverMs := nowMs + int64(base+extra)
	if deliverMs < nowMs {
		deliverMs = nowMs
	}

	seq := b.nextSeq
	b.nextSeq = (b.nextSeq + 1) % (1 << 31)

	deliverMs = b.model.Reorder(b.rng, deliverMs)

	cp := make([]byte, len(payload))
	copy(cp, payload)

	b.queue = append(b.queue, Datagram{
		Payload:   cp,
		SentMs:    nowMs,
		DeliverMs: deliverMs,
		Seq:       seq,
	})
}

// Params returns the bearer's configured parameters, read-only.
func (b *Bearer) Params() Params {
	return b.params
}

// PollDeliver returns every datagram due at or before nowMs, in ascending
// deliver_ms order (ties broken by insertion order), updating reorder and
// jitter bookkeeping as it goes.
func (b *Bearer) PollDeliver(nowMs int64) []Datagram {
	var due, remain []Datagram
	for _, d := range b.queue {
		if d.DeliverMs <= nowMs {
			due = append(due, d)
		} else {
			remain = append(remain, d)
		}
	}
	b.queue = remain

	sort.SliceStable(due, func(i, j int) bool { return due[i].DeliverMs < due[j].DeliverMs })

	for _, d := range due {
		if b.lastDeliveredSeq >= 0 && int64(d.Seq) < b.lastDeliveredSeq {
			b.reorderCount++
		}
		b.lastDeliveredSeq = int64(d.Seq)

		transit := float64(d.DeliverMs - d.SentMs)
		if b.haveLastTransit {
			delta := transit - b.lastTransitMs
			if delta < 0 {
				delta = -delta
			}
			b.jitterMs += (delta - b.jitterMs) / 16
		} else {
			b.haveLastTransit = true
		}
		b.lastTransitMs = transit
	}

	return due
}

// Stats is the snapshot returned by spec.md §4.4's stats() contract.
type Stats struct {
	LossRate    float64
	ReorderRate float64
	JitterMs    float64
}

// Stats computes the current loss/reorder/jitter snapshot.
func (b *Bearer) Stats() Stats {
	var lossRate float64
	if b.txCount > 0 {
		lossRate = float64(b.dropCount) / float64(b.txCount)
	}
	denom := b.txCount - b.dropCount
	if denom < 1 {
		denom = 1
	}
	return Stats{
		LossRate:    lossRate,
		ReorderRate: float64(b.reorderCount) / float64(denom),
		JitterMs:    b.jitterMs,
	}
}
