package engine

import (
	"context"

	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/adapter"
	"github.com/Icing-Project/DryBox/capture"
)

// Run drives the tick loop until t_ms exceeds duration_ms, per spec.md
// §4.9's per-tick order (a contract, not an implementation detail):
// timers -> TX pulls (L, R) -> deliveries (L->R, R->L) -> metrics tick.
// Teardown always runs, on every exit path. Equivalent to
// RunWithContext(context.Background()).
func (e *Engine) Run() error {
	return e.RunWithContext(context.Background())
}

// RunWithContext is Run, but checked for cancellation between ticks (never
// mid-tick, per spec.md §5): a canceled ctx stops the loop cleanly at the
// next tick boundary and still runs teardown.
func (e *Engine) RunWithContext(ctx context.Context) error {
	var windowStart int64
	bytesRxByDir := map[drybox.Direction]uint64{drybox.LtoR: 0, drybox.RtoL: 0}

	runErr := func() error {
		for e.tMs <= e.durationMs {
			if ctx.Err() != nil {
				return nil
			}

			// 1. timers
			e.adapters[drybox.SideL].OnTimer(e.tMs)
			e.adapters[drybox.SideR].OnTimer(e.tMs)

			// 2. TX pulls, L then R (modeled as the L->R then R->L direction flows)
			for _, dir := range drybox.Directions() {
				if err := e.pullAndSend(dir); err != nil {
					return err
				}
			}

			// 3. deliveries, L->R before R->L
			for _, dir := range drybox.Directions() {
				n, err := e.deliver(dir)
				if err != nil {
					return err
				}
				bytesRxByDir[dir] += n
			}

			// 4. goodput tick every 1000ms
			if e.tMs-windowStart >= 1000 {
				for _, dir := range drybox.Directions() {
					elapsedS := float64(e.tMs-windowStart) / 1000.0
					var bps float64
					if elapsedS > 0 {
						bps = float64(bytesRxByDir[dir]*8) / elapsedS
					}
					_ = e.metrics.WriteRow(goodputRow(e.tMs, dir.Destination(), bps))
					bytesRxByDir[dir] = 0
				}
				windowStart = e.tMs
			}

			// 5. advance
			e.tMs += e.tickMs
		}
		return nil
	}()

	e.teardown()
	return runErr
}

func (e *Engine) teardown() {
	_ = e.adapters[drybox.SideL].Stop()
	_ = e.adapters[drybox.SideR].Stop()
	if e.capture != nil {
		_ = e.capture.Close()
	}
}

func (e *Engine) pullAndSend(dir drybox.Direction) error {
	f := e.flows[dir]
	src := e.adapters[dir.Source()]

	if e.sc.Mode == "byte" {
		bl, ok := src.(adapter.ByteLink)
		if !ok {
			return nil
		}
		sdus := bl.PollLinkTX(e.budget)
		rttMsEst := maxFloat(1, 2*f.bearer.Params().LatencyMs)
		for _, sdu := range sdus {
			var wireFrags [][]byte
			if f.frag != nil {
				wireFrags = f.frag.Fragment(sdu)
			} else {
				wireFrags = [][]byte{sdu}
			}
			for _, wire := range wireFrags {
				f.bearer.Send(wire, e.tMs)
				if e.capture != nil {
					if err := e.capture.Write(capture.Record{TMs: uint64(e.tMs), Side: capture.Side(dir.Source()), Layer: capture.LayerBearer, Event: capture.EventTX, Data: wire}); err != nil {
						return &drybox.IoFailureError{Artifact: "capture.dbxcap", Err: err}
					}
				}
				_ = e.metrics.WriteRow(txRow(e.tMs, dir.Source(), rttMsEst))
			}
		}
		return nil
	}

	ab, ok := src.(adapter.AudioBlock)
	if !ok || f.vocode == nil {
		return nil
	}
	pcm := ab.PullTXBlock(e.tMs)
	if e.channel != nil {
		pcm, _ = e.channel.apply(pcm)
	}

	lost := e.rng.Float64() < f.bearer.Params().LossRate
	if lost {
		f.vocode.ProcessFrame(nil)
		_ = e.metrics.WriteRow(dropRow(e.tMs, dir.Destination()))
		return nil
	}

	bitstream := f.vocode.Encode(pcm)
	decoded := f.vocode.Decode(bitstream)
	out := f.vocode.ProcessFrame(decoded)
	f.bearer.SendWithoutLossDraw(pcmToBytes(out), e.tMs)
	return nil
}

func (e *Engine) deliver(dir drybox.Direction) (uint64, error) {
	f := e.flows[dir]
	due := f.bearer.PollDeliver(e.tMs)
	dst := e.adapters[dir.Destination()]

	var bytesRx uint64
	if e.sc.Mode == "byte" {
		bl, hasByteLink := dst.(adapter.ByteLink)
		for _, dg := range due {
			bytesRx += uint64(len(dg.Payload))
			if e.capture != nil {
				if err := e.capture.Write(capture.Record{TMs: uint64(e.tMs), Side: capture.Side(dir.Destination()), Layer: capture.LayerBearer, Event: capture.EventRX, Data: dg.Payload}); err != nil {
					return bytesRx, &drybox.IoFailureError{Artifact: "capture.dbxcap", Err: err}
				}
			}
			sdu, emitted := f.reasm.Push(dg.Payload, e.tMs)
			stats := f.bearer.Stats()
			latencyMs := float64(dg.DeliverMs - dg.SentMs)
			_ = e.metrics.WriteRow(deliveryRow(e.tMs, dir.Destination(), latencyMs, stats))
			if !emitted {
				continue
			}
			if hasByteLink {
				bl.OnLinkRX(sdu)
			}
		}
		return bytesRx, nil
	}

	ab, hasAudioBlock := dst.(adapter.AudioBlock)
	for _, dg := range due {
		bytesRx += uint64(len(dg.Payload))
		stats := f.bearer.Stats()
		latencyMs := float64(dg.DeliverMs - dg.SentMs)
		_ = e.metrics.WriteRow(deliveryRow(e.tMs, dir.Destination(), latencyMs, stats))
		if hasAudioBlock {
			ab.PushRXBlock(bytesToPCM(dg.Payload), e.tMs)
		}
	}
	return bytesRx, nil
}
