package engine

import (
	"math/rand/v2"

	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/adapter"
	"github.com/Icing-Project/DryBox/metrics"
)

// engineContext implements adapter.Context, per spec.md §3's Adapter
// Context data model entry. One instance per side, sharing the engine's
// single RNG and event sink.
type engineContext struct {
	side    drybox.Side
	rng     *rand.Rand
	crypto  adapter.CryptoMaterial
	metrics *metrics.Writer
	tMs     *int64
}

func (c *engineContext) NowMs() int64 {
	return *c.tMs
}

func (c *engineContext) EmitEvent(eventType string, payload map[string]interface{}) {
	_ = c.metrics.WriteEvent(metrics.Event{
		TMs:     uint64(*c.tMs),
		Side:    c.side.String(),
		Type:    eventType,
		Payload: payload,
	})
}

func (c *engineContext) Side() drybox.Side {
	return c.side
}

func (c *engineContext) RNG() *rand.Rand {
	return c.rng
}

func (c *engineContext) Crypto() adapter.CryptoMaterial {
	return c.crypto
}
