// Package engine implements the central tick scheduler of spec.md §4.9:
// startup/teardown sequencing, the per-tick ordering contract, and the
// exit-code-bearing error propagation of spec.md §7.
package engine

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"

	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/adapter"
	"github.com/Icing-Project/DryBox/bearer"
	"github.com/Icing-Project/DryBox/capture"
	"github.com/Icing-Project/DryBox/keys"
	"github.com/Icing-Project/DryBox/metrics"
	"github.com/Icing-Project/DryBox/registry"
	"github.com/Icing-Project/DryBox/scenario"
	"github.com/Icing-Project/DryBox/vocoder"
)

// Engine owns both bearers, both SAR codecs, both vocoders, the optional
// channel, and both adapters for the duration of one run, per spec.md §3's
// ownership summary.
type Engine struct {
	sc        scenario.Scenario
	tickMs    int64
	durationMs int64
	budget    int

	tMs int64

	adapters map[drybox.Side]adapter.Adapter
	infos    map[drybox.Side]registry.AdapterInfo
	contexts map[drybox.Side]*engineContext

	flows   map[drybox.Direction]*flow
	channel *sharedChannel

	capture *capture.Writer
	metrics *metrics.Writer

	rng *rand.Rand

	leftKeys, rightKeys keys.KeyPair
}

// Adapters bundles the two resolved adapter instances and their specs, so
// New doesn't need a long positional parameter list.
type Adapters struct {
	Left      adapter.Adapter
	LeftInfo  registry.AdapterInfo
	LeftSpec  string
	Right     adapter.Adapter
	RightInfo registry.AdapterInfo
	RightSpec string
}

// New runs spec.md §4.9's startup sequence: key derivation, adapter
// init/start, capability checking, bearer/SAR/channel/vocoder
// construction. Returns a CapabilityMismatchError (exit 3) if the mode
// isn't supported by both adapters.
func New(sc scenario.Scenario, ad Adapters, capW *capture.Writer, metW *metrics.Writer, tickMs int64) (*Engine, error) {
	if tickMs <= 0 {
		tickMs = 10
	}
	e := &Engine{
		sc:         sc,
		tickMs:     tickMs,
		durationMs: int64(sc.DurationMs),
		budget:     scenario.BudgetPerTick,
		adapters:   map[drybox.Side]adapter.Adapter{drybox.SideL: ad.Left, drybox.SideR: ad.Right},
		infos:      map[drybox.Side]registry.AdapterInfo{drybox.SideL: ad.LeftInfo, drybox.SideR: ad.RightInfo},
		contexts:   map[drybox.Side]*engineContext{},
		flows:      map[drybox.Direction]*flow{},
		capture:    capW,
		metrics:    metW,
		rng:        rand.New(rand.NewPCG(sc.Seed, sc.Seed^0xE17E1_0000)),
	}

	// (1) Resolve key pairs (C7) and assemble both crypto contexts.
	curve := keys.CurveX25519
	if sc.Crypto != nil && sc.Crypto.Curve == "ed25519" {
		curve = keys.CurveEd25519
	}
	var leftOverride, rightOverride *[32]byte
	if sc.Crypto != nil {
		if sc.Crypto.LeftPrivHex != "" {
			v, err := parseHexSeed(sc.Crypto.LeftPrivHex)
			if err != nil {
				return nil, &drybox.ScenarioInvalidError{Field: "crypto.left_priv", Err: err}
			}
			leftOverride = &v
		}
		if sc.Crypto.RightPrivHex != "" {
			v, err := parseHexSeed(sc.Crypto.RightPrivHex)
			if err != nil {
				return nil, &drybox.ScenarioInvalidError{Field: "crypto.right_priv", Err: err}
			}
			rightOverride = &v
		}
	}
	leftKeys, err := keys.Derive(sc.Seed, curve, ad.LeftSpec, ad.RightSpec, "L", leftOverride)
	if err != nil {
		return nil, fmt.Errorf("engine: derive left keys: %w", err)
	}
	rightKeys, err := keys.Derive(sc.Seed, curve, ad.LeftSpec, ad.RightSpec, "R", rightOverride)
	if err != nil {
		return nil, fmt.Errorf("engine: derive right keys: %w", err)
	}
	e.leftKeys, e.rightKeys = leftKeys, rightKeys

	leftCrypto := adapter.CryptoMaterial{Priv: leftKeys.Priv, Pub: leftKeys.Pub, PeerPub: rightKeys.Pub, KeyID: leftKeys.KeyID(), PeerKeyID: rightKeys.KeyID(), Provenance: string(leftKeys.Provenance)}
	rightCrypto := adapter.CryptoMaterial{Priv: rightKeys.Priv, Pub: rightKeys.Pub, PeerPub: leftKeys.Pub, KeyID: rightKeys.KeyID(), PeerKeyID: leftKeys.KeyID(), Provenance: string(rightKeys.Provenance)}

	e.contexts[drybox.SideL] = &engineContext{side: drybox.SideL, rng: e.rng, crypto: leftCrypto, metrics: metW, tMs: &e.tMs}
	e.contexts[drybox.SideR] = &engineContext{side: drybox.SideR, rng: e.rng, crypto: rightCrypto, metrics: metW, tMs: &e.tMs}

	// (3) Load and construct both adapters; init then start.
	leftSduMax := ad.Left.CapabilitiesReport().SduMaxBytes
	rightSduMax := ad.Right.CapabilitiesReport().SduMaxBytes

	if err := ad.Left.Init(adapter.Config{TickMs: e.tickMs, Side: drybox.SideL, Seed: sc.Seed, Mode: string(sc.Mode), SduMaxBytes: leftSduMax, Crypto: leftCrypto}); err != nil {
		return nil, &drybox.AdapterLoadError{Spec: ad.LeftSpec, Err: err}
	}
	if err := ad.Right.Init(adapter.Config{TickMs: e.tickMs, Side: drybox.SideR, Seed: sc.Seed, Mode: string(sc.Mode), SduMaxBytes: rightSduMax, Crypto: rightCrypto}); err != nil {
		return nil, &drybox.AdapterLoadError{Spec: ad.RightSpec, Err: err}
	}
	if err := ad.Left.Start(e.contexts[drybox.SideL]); err != nil {
		return nil, &drybox.AdapterLoadError{Spec: ad.LeftSpec, Err: err}
	}
	if err := ad.Right.Start(e.contexts[drybox.SideR]); err != nil {
		return nil, &drybox.AdapterLoadError{Spec: ad.RightSpec, Err: err}
	}

	// (4) Check mode support against declared capabilities.
	if err := checkCapability(ad.Left, sc.Mode, drybox.SideL); err != nil {
		return nil, err
	}
	if err := checkCapability(ad.Right, sc.Mode, drybox.SideR); err != nil {
		return nil, err
	}

	// (5) Instantiate two independent bearers, one per direction.
	ltorModel, err := buildModel(sc.Bearer, sc.Seed, drybox.LtoR)
	if err != nil {
		return nil, err
	}
	rtolModel, err := buildModel(sc.Bearer, sc.Seed, drybox.RtoL)
	if err != nil {
		return nil, err
	}
	params := bearer.Params{
		LatencyMs: sc.Bearer.LatencyMs, JitterMs: sc.Bearer.JitterMs,
		LossRate: sc.Bearer.LossRate, ReorderRate: sc.Bearer.ReorderRate,
		MtuBytes: sc.Bearer.MtuBytes, FrameMs: sc.Bearer.FrameMs,
	}
	ltorBearer := bearer.New(params, ltorModel, rand.New(rand.NewPCG(sc.Seed, uint64(drybox.LtoR)+1)))
	rtolBearer := bearer.New(params, rtolModel, rand.New(rand.NewPCG(sc.Seed, uint64(drybox.RtoL)+1)))

	if sc.Mode == scenario.ModeByte {
		e.flows[drybox.LtoR] = newByteFlow(ltorBearer, sc.Bearer.MtuBytes, int(rightSduMax), sc.Bearer.LatencyMs)
		e.flows[drybox.RtoL] = newByteFlow(rtolBearer, sc.Bearer.MtuBytes, int(leftSduMax), sc.Bearer.LatencyMs)
	} else {
		var vL, vR vocoder.Codec
		if sc.Vocoder != nil {
			vL = buildVocoder(*sc.Vocoder)
			vR = buildVocoder(*sc.Vocoder)
		}
		e.flows[drybox.LtoR] = newAudioFlow(ltorBearer, vL)
		e.flows[drybox.RtoL] = newAudioFlow(rtolBearer, vR)

		if sc.Channel != nil {
			e.channel = buildChannel(*sc.Channel, e.rng)
		}
	}

	return e, nil
}

func parseHexSeed(hexStr string) ([32]byte, error) {
	var out [32]byte
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %w", err)
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

func checkCapability(a adapter.Adapter, mode scenario.Mode, side drybox.Side) error {
	report := a.CapabilitiesReport()
	switch mode {
	case scenario.ModeByte:
		if !report.ByteLink {
			return &drybox.CapabilityMismatchError{Side: side.String(), Mode: string(mode)}
		}
	case scenario.ModeAudio:
		if !report.AudioBlock {
			return &drybox.CapabilityMismatchError{Side: side.String(), Mode: string(mode)}
		}
	}
	return nil
}
