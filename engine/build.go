package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/bearer"
	"github.com/Icing-Project/DryBox/channel"
	"github.com/Icing-Project/DryBox/scenario"
	"github.com/Icing-Project/DryBox/vocoder"
)

// buildModel constructs the per-direction bearer model named by the
// scenario's bearer.type, per spec.md §4.4's four variants.
func buildModel(spec scenario.BearerSpec, seed uint64, dir drybox.Direction) (bearer.Model, error) {
	switch spec.Type {
	case "volte_evs":
		return bearer.NewVoLTEModel(bearer.VoLTEParams{
			GEPGoodBad: spec.GEPGoodBad, GEPBadGood: spec.GEPBadGood,
			JitterMs: spec.JitterMs, ReorderRate: spec.ReorderRate, FrameMs: spec.FrameMs,
		}), nil
	case "cs_gsm":
		return bearer.NewGSMModel(bearer.GSMParams{
			BurstLossRate: spec.BurstLossRate, BurstMsMean: spec.BurstMsMean,
			HandoverIntervalMean: spec.HandoverIntervalMean,
			HandoverEnabled:      spec.HandoverIntervalMean > 0,
		}), nil
	case "pstn_g711":
		return bearer.NewPSTNModel(bearer.PSTNParams{JitterMs: spec.JitterMs}), nil
	case "ott_udp":
		return bearer.NewOTTModel(bearer.OTTParams{
			JitterMs: spec.JitterMs, ReorderRate: spec.ReorderRate, FrameMs: spec.FrameMs,
		}), nil
	default:
		return nil, &drybox.ScenarioInvalidError{Field: "bearer.type", Err: fmt.Errorf("unknown bearer type %q", spec.Type)}
	}
}

func buildVocoder(spec scenario.VocoderSpec) vocoder.Codec {
	switch spec.Type {
	case "evs":
		return vocoder.NewEVS(spec.VadDTX)
	case "opus_nb":
		return vocoder.NewOpusNB(spec.VadDTX)
	default:
		return vocoder.NewAMR(spec.VadDTX)
	}
}

func buildChannel(spec scenario.ChannelSpec, rng *rand.Rand) *sharedChannel {
	switch spec.Type {
	case "fading":
		return &sharedChannel{fading: channel.NewFading(spec.Taps, spec.FdHz, 8000, spec.SNRDb, rng)}
	default:
		return &sharedChannel{awgn: channel.NewAWGN(spec.SNRDb, rng)}
	}
}
