// Package adapter defines the ABI of spec.md §4.8: the capability-set
// contract an adapter implementation exposes, and the context the engine
// hands it at start. Capability sub-traits (ByteLink, AudioBlock) replace
// the source's duck-typed hasattr checks with ordinary Go type assertions,
// per spec.md §9's "duck-typed capabilities" design note.
package adapter

import (
	"math/rand/v2"

	"github.com/Icing-Project/DryBox"
)

// AudioParams describes an adapter's preferred audio-mode block shape.
type AudioParams struct {
	SampleRate int
	BlockLen   int
}

// Capabilities is the capability report of spec.md §4.8. Every adapter
// returns one from CapabilitiesReport; an adapter embedding
// DefaultCapabilities gets defaults for the fields it leaves unset.
type Capabilities struct {
	ByteLink    bool
	AudioBlock  bool
	SduMaxBytes uint32
	AudioParams AudioParams
}

// CryptoMaterial is the scenario-derived key material exposed to an
// adapter's context, per spec.md §3's "Adapter Context" data model entry.
type CryptoMaterial struct {
	Priv       [32]byte
	Pub        [32]byte
	PeerPub    [32]byte
	KeyID      string
	PeerKeyID  string
	Provenance string
}

// Config is passed to Init, per spec.md §4.8.
type Config struct {
	TickMs      int64
	Side        drybox.Side
	Seed        uint64
	Mode        string
	SduMaxBytes uint32
	OutDir      string
	Crypto      CryptoMaterial
}

// Context is the AdapterContext of spec.md §3, passed to Start.
type Context interface {
	NowMs() int64
	EmitEvent(eventType string, payload map[string]interface{})
	Side() drybox.Side
	RNG() *rand.Rand
	Crypto() CryptoMaterial
}

// Lifecycle is the mandatory surface every adapter implements, per
// spec.md §4.8.
type Lifecycle interface {
	// CapabilitiesReport returns the adapter's declared capability set.
	// Adapters that don't need to customize it can embed DefaultCapabilities
	// and skip defining this method.
	CapabilitiesReport() Capabilities
	Init(cfg Config) error
	Start(ctx Context) error
	OnTimer(tMs int64)
	Stop() error
}

// ByteLink is the optional byte-mode capability sub-trait.
type ByteLink interface {
	PollLinkTX(budget int) [][]byte
	OnLinkRX(sdu []byte)
}

// AudioBlock is the optional audio-mode capability sub-trait.
type AudioBlock interface {
	PullTXBlock(tMs int64) []int16
	PushRXBlock(pcm []int16, tMs int64)
}

// Adapter is the full ABI; concrete adapters additionally implement
// ByteLink and/or AudioBlock depending on the modes they support.
type Adapter interface {
	Lifecycle
}

// DefaultCapabilities embeds into an adapter to supply the engine-side
// defaults spec.md §4.8 falls back to when an adapter has nothing custom
// to report.
type DefaultCapabilities struct {
	ByteLinkSupported   bool
	AudioBlockSupported bool
	SduMax              uint32
	Audio               AudioParams
}

// CapabilitiesReport implements the Lifecycle method via embedding.
func (d DefaultCapabilities) CapabilitiesReport() Capabilities {
	sduMax := d.SduMax
	if sduMax == 0 {
		sduMax = 1500
	}
	audio := d.Audio
	if audio.SampleRate == 0 {
		audio.SampleRate = 8000
	}
	if audio.BlockLen == 0 {
		audio.BlockLen = 160
	}
	return Capabilities{
		ByteLink:    d.ByteLinkSupported,
		AudioBlock:  d.AudioBlockSupported,
		SduMaxBytes: sduMax,
		AudioParams: audio,
	}
}
