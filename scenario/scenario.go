// Package scenario loads and validates the run configuration of
// spec.md §3 and §4.10, applying defaults the same way the teacher's
// bridge.LoadConfig does: parse into a yaml-tagged shadow struct, then copy
// into a validated, defaulted Scenario.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Icing-Project/DryBox"
)

// Mode is the simulation mode, per spec.md §3.
type Mode string

const (
	ModeByte  Mode = "byte"
	ModeAudio Mode = "audio"
)

// BearerSpec is the bearer model selection plus its common and
// model-specific parameters.
type BearerSpec struct {
	Type string `yaml:"type"`

	LatencyMs    float64 `yaml:"latency_ms"`
	JitterMs     float64 `yaml:"jitter_ms"`
	LossRate     float64 `yaml:"loss_rate"`
	ReorderRate  float64 `yaml:"reorder_rate"`
	MtuBytes     int     `yaml:"mtu_bytes"`
	FrameMs      float64 `yaml:"frame_ms"`

	GEPGoodBad           float64 `yaml:"ge_p_good_bad"`
	GEPBadGood           float64 `yaml:"ge_p_bad_good"`
	BurstLossRate        float64 `yaml:"burst_loss_rate"`
	BurstMsMean          float64 `yaml:"burst_ms_mean"`
	HandoverIntervalMean float64 `yaml:"handover_interval_ms_mean"`
}

// ChannelSpec is the optional audio-mode sample-domain impairment.
type ChannelSpec struct {
	Type  string  `yaml:"type"`
	SNRDb float64 `yaml:"snr_db"`
	FdHz  float64 `yaml:"fd_hz"`
	Taps  int     `yaml:"l"`
}

// VocoderSpec is the optional audio-mode codec selection.
type VocoderSpec struct {
	Type   string `yaml:"type"`
	VadDTX bool   `yaml:"vad_dtx"`
}

// CryptoSpec optionally supplies explicit private key material, taking
// precedence over seed-derived keys per spec.md §4.7.
type CryptoSpec struct {
	LeftPrivHex  string `yaml:"left_priv"`
	RightPrivHex string `yaml:"right_priv"`
	Curve        string `yaml:"curve"`
}

// Scenario is the fully-resolved, validated run configuration.
type Scenario struct {
	Mode       Mode        `yaml:"mode"`
	DurationMs uint64      `yaml:"duration_ms"`
	Seed       uint64      `yaml:"seed"`
	Bearer     BearerSpec  `yaml:"bearer"`
	Channel    *ChannelSpec `yaml:"channel,omitempty"`
	Vocoder    *VocoderSpec `yaml:"vocoder,omitempty"`
	Crypto     *CryptoSpec  `yaml:"crypto,omitempty"`

	CfoHz float64 `yaml:"cfo_hz"`
	PPM   float64 `yaml:"ppm"`

	// SnrDbSweep, when non-empty, means the file's channel.snr_db was a
	// list; ExpandSweep clones one Scenario per value.
	SnrDbSweep []float64 `yaml:"-"`
}

type yamlScenario struct {
	Mode       string      `yaml:"mode"`
	DurationMs uint64      `yaml:"duration_ms"`
	Seed       uint64      `yaml:"seed"`
	Bearer     BearerSpec  `yaml:"bearer"`
	Channel    *yamlChannel `yaml:"channel"`
	Vocoder    *VocoderSpec `yaml:"vocoder"`
	Crypto     *CryptoSpec  `yaml:"crypto"`
	CfoHz      float64     `yaml:"cfo_hz"`
	PPM        float64     `yaml:"ppm"`
}

// yamlChannel accepts snr_db as either a scalar or a list, per spec.md
// §3's sweep-expansion rule.
type yamlChannel struct {
	Type  string      `yaml:"type"`
	SNRDb interface{} `yaml:"snr_db"`
	FdHz  float64     `yaml:"fd_hz"`
	Taps  int         `yaml:"l"`
}

const (
	defaultTickMs       = 10
	defaultMtuBytes     = 1500
	defaultFrameMs      = 20.0
	defaultBudgetPerTick = 64
)

// BudgetPerTick is the engine's max-SDUs-pulled-per-adapter-per-tick
// constant from spec.md §4.9.
const BudgetPerTick = defaultBudgetPerTick

// Load reads, defaults, and validates a scenario file, per spec.md §4.10.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, &drybox.IoFailureError{Artifact: path, Err: err}
	}

	var ys yamlScenario
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return Scenario{}, &drybox.ScenarioInvalidError{Field: "(root)", Err: err}
	}

	return resolve(ys)
}

func resolve(ys yamlScenario) (Scenario, error) {
	s := Scenario{
		Mode:       Mode(ys.Mode),
		DurationMs: ys.DurationMs,
		Seed:       ys.Seed,
		Bearer:     ys.Bearer,
		Vocoder:    ys.Vocoder,
		Crypto:     ys.Crypto,
		CfoHz:      ys.CfoHz,
		PPM:        ys.PPM,
	}

	if s.Mode != ModeByte && s.Mode != ModeAudio {
		return Scenario{}, &drybox.ScenarioInvalidError{Field: "mode", Err: fmt.Errorf("must be %q or %q, got %q", ModeByte, ModeAudio, ys.Mode)}
	}
	if s.DurationMs == 0 {
		return Scenario{}, &drybox.ScenarioInvalidError{Field: "duration_ms", Err: fmt.Errorf("must be > 0")}
	}

	if s.Bearer.Type == "" {
		return Scenario{}, &drybox.ScenarioInvalidError{Field: "bearer.type", Err: fmt.Errorf("required")}
	}
	if s.Bearer.MtuBytes == 0 {
		s.Bearer.MtuBytes = defaultMtuBytes
	}
	if s.Bearer.MtuBytes <= 3 {
		return Scenario{}, &drybox.ScenarioInvalidError{Field: "bearer.mtu_bytes", Err: fmt.Errorf("must be > 3, got %d", s.Bearer.MtuBytes)}
	}
	if s.Bearer.FrameMs == 0 {
		s.Bearer.FrameMs = defaultFrameMs
	}
	switch s.Bearer.Type {
	case "volte_evs", "cs_gsm", "pstn_g711", "ott_udp":
	default:
		return Scenario{}, &drybox.ScenarioInvalidError{Field: "bearer.type", Err: fmt.Errorf("unknown bearer type %q", s.Bearer.Type)}
	}

	if ys.Channel != nil {
		cs, sweep, err := resolveChannel(*ys.Channel)
		if err != nil {
			return Scenario{}, err
		}
		s.Channel = &cs
		s.SnrDbSweep = sweep
	}

	return s, nil
}

func resolveChannel(yc yamlChannel) (ChannelSpec, []float64, error) {
	cs := ChannelSpec{Type: yc.Type, FdHz: yc.FdHz, Taps: yc.Taps}
	if cs.Type != "awgn" && cs.Type != "fading" {
		return cs, nil, &drybox.ScenarioInvalidError{Field: "channel.type", Err: fmt.Errorf("must be \"awgn\" or \"fading\", got %q", yc.Type)}
	}
	if cs.Taps == 0 {
		cs.Taps = 3
	}

	switch v := yc.SNRDb.(type) {
	case nil:
		return cs, nil, nil
	case float64:
		cs.SNRDb = v
		return cs, nil, nil
	case int:
		cs.SNRDb = float64(v)
		return cs, nil, nil
	case []interface{}:
		sweep := make([]float64, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				sweep = append(sweep, n)
			case int:
				sweep = append(sweep, float64(n))
			default:
				return cs, nil, &drybox.ScenarioInvalidError{Field: "channel.snr_db", Err: fmt.Errorf("list entries must be numeric")}
			}
		}
		if len(sweep) > 0 {
			cs.SNRDb = sweep[0]
		}
		return cs, sweep, nil
	default:
		return cs, nil, &drybox.ScenarioInvalidError{Field: "channel.snr_db", Err: fmt.Errorf("must be a number or a list of numbers")}
	}
}

// ExpandSweep implements spec.md §4.10's expand_sweep(): when snr_db was
// supplied as a list, returns one (suffix, scenario) pair per value, each
// with a scalar snr_db; otherwise returns the scenario unchanged as a
// single-element slice with an empty suffix.
func (s Scenario) ExpandSweep() []Expansion {
	if len(s.SnrDbSweep) == 0 {
		return []Expansion{{Suffix: "", Scenario: s}}
	}
	out := make([]Expansion, 0, len(s.SnrDbSweep))
	for i, v := range s.SnrDbSweep {
		clone := s
		clone.SnrDbSweep = nil
		ch := *clone.Channel
		ch.SNRDb = v
		clone.Channel = &ch
		out = append(out, Expansion{Suffix: fmt.Sprintf("snr%d", i), Scenario: clone})
	}
	return out
}

// Expansion is one member of a sweep expansion.
type Expansion struct {
	Suffix   string
	Scenario Scenario
}

// Redacted returns a copy of s with any scenario-supplied private key
// material cleared, safe to serialize into the scenario.resolved run
// artifact per spec.md §6.
func (s Scenario) Redacted() Scenario {
	if s.Crypto == nil {
		return s
	}
	redacted := *s.Crypto
	redacted.LeftPrivHex = ""
	redacted.RightPrivHex = ""
	s.Crypto = &redacted
	return s
}
