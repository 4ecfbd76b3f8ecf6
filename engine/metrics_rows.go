package engine

import (
	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/bearer"
	"github.com/Icing-Project/DryBox/metrics"
)

func f64(v float64) *float64 { return &v }

func deliveryRow(tMs int64, side drybox.Side, latencyMs float64, stats bearer.Stats) metrics.Row {
	return metrics.Row{
		TMs: uint64(tMs), Side: side.String(), Layer: "bearer", Event: "rx",
		LatencyMs:   f64(latencyMs),
		JitterMs:    f64(stats.JitterMs),
		LossRate:    f64(stats.LossRate),
		ReorderRate: f64(stats.ReorderRate),
	}
}

func txRow(tMs int64, side drybox.Side, rttMsEst float64) metrics.Row {
	return metrics.Row{
		TMs: uint64(tMs), Side: side.String(), Layer: "bearer", Event: "tx",
		RttMsEst: f64(rttMsEst),
	}
}

func dropRow(tMs int64, side drybox.Side) metrics.Row {
	return metrics.Row{
		TMs: uint64(tMs), Side: side.String(), Layer: "bearer", Event: "drop",
		Per: f64(1.0),
	}
}

func goodputRow(tMs int64, side drybox.Side, bps float64) metrics.Row {
	return metrics.Row{
		TMs: uint64(tMs), Side: side.String(), Layer: "bearer", Event: "tick",
		GoodputBps: f64(bps),
	}
}
