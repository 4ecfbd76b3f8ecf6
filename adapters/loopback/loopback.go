// Package loopback provides a trivial compiled-in adapter that echoes
// whatever it is handed straight back out on the next tick: useful as the
// default adapter for smoke-testing a scenario and as the engine's test
// double. Registered under the "entrypoint:loopback" spec form.
package loopback

import (
	"github.com/Icing-Project/DryBox/adapter"
	"github.com/Icing-Project/DryBox/registry"
)

func init() {
	registry.Register("loopback", func() adapter.Adapter { return New() })
}

// Loopback implements both ByteLink and AudioBlock: it queues whatever is
// pushed to it via OnLinkRX/PushRXBlock and replays it on the next
// PollLinkTX/PullTXBlock call.
type Loopback struct {
	adapter.DefaultCapabilities

	cfg adapter.Config
	ctx adapter.Context

	pendingSDUs  [][]byte
	pendingAudio []int16
}

// New builds a Loopback adapter supporting both modes.
func New() *Loopback {
	return &Loopback{
		DefaultCapabilities: adapter.DefaultCapabilities{
			ByteLinkSupported:   true,
			AudioBlockSupported: true,
		},
	}
}

func (l *Loopback) Init(cfg adapter.Config) error {
	l.cfg = cfg
	return nil
}

func (l *Loopback) Start(ctx adapter.Context) error {
	l.ctx = ctx
	return nil
}

func (l *Loopback) OnTimer(tMs int64) {}

func (l *Loopback) Stop() error { return nil }

func (l *Loopback) PollLinkTX(budget int) [][]byte {
	n := len(l.pendingSDUs)
	if n > budget {
		n = budget
	}
	out := l.pendingSDUs[:n]
	l.pendingSDUs = l.pendingSDUs[n:]
	return out
}

func (l *Loopback) OnLinkRX(sdu []byte) {
	cp := make([]byte, len(sdu))
	copy(cp, sdu)
	l.pendingSDUs = append(l.pendingSDUs, cp)
}

func (l *Loopback) PullTXBlock(tMs int64) []int16 {
	if l.pendingAudio == nil {
		return make([]int16, l.DefaultCapabilities.CapabilitiesReport().AudioParams.BlockLen)
	}
	out := l.pendingAudio
	l.pendingAudio = nil
	return out
}

func (l *Loopback) PushRXBlock(pcm []int16, tMs int64) {
	cp := make([]int16, len(pcm))
	copy(cp, pcm)
	l.pendingAudio = cp
}
