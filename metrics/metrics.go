// Package metrics implements the two parallel run-artifact streams of
// spec.md §4.2: a fixed-column CSV metrics log and a newline-delimited
// JSON event log, plus an optional callback mirror for demod-progress
// events and a Prometheus gauge mirror of every numeric CSV column.
package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Columns is the exact, ordered CSV header of spec.md §4.2.
var Columns = []string{
	"t_ms", "side", "layer", "event",
	"rtt_ms_est", "latency_ms", "jitter_ms", "loss_rate", "reorder_rate",
	"goodput_bps", "snr_db_est", "ber", "per", "cfo_hz_est",
	"lock_ratio", "hs_time_ms", "rekey_ms", "aead_fail_cnt",
}

// Row is one metrics-CSV row. Pointer fields are nil for unset values,
// rendered as empty cells; set values render with exactly six fractional
// digits, per spec.md §4.2.
type Row struct {
	TMs    uint64
	Side   string
	Layer  string
	Event  string

	RttMsEst     *float64
	LatencyMs    *float64
	JitterMs     *float64
	LossRate     *float64
	ReorderRate  *float64
	GoodputBps   *float64
	SnrDbEst     *float64
	Ber          *float64
	Per          *float64
	CfoHzEst     *float64
	LockRatio    *float64
	HsTimeMs     *float64
	RekeyMs      *float64
	AeadFailCnt  *float64
}

func fmtCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

func (r Row) record() []string {
	return []string{
		strconv.FormatUint(r.TMs, 10),
		r.Side,
		r.Layer,
		r.Event,
		fmtCell(r.RttMsEst),
		fmtCell(r.LatencyMs),
		fmtCell(r.JitterMs),
		fmtCell(r.LossRate),
		fmtCell(r.ReorderRate),
		fmtCell(r.GoodputBps),
		fmtCell(r.SnrDbEst),
		fmtCell(r.Ber),
		fmtCell(r.Per),
		fmtCell(r.CfoHzEst),
		fmtCell(r.LockRatio),
		fmtCell(r.HsTimeMs),
		fmtCell(r.RekeyMs),
		fmtCell(r.AeadFailCnt),
	}
}

// Event is one structured event-log record.
type Event struct {
	TMs     uint64                 `json:"t_ms"`
	Side    string                 `json:"side"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// DemodCallback is invoked for metric-type events carrying a demod
// total_bytes_processed payload field, per spec.md §4.2.
type DemodCallback func(tMs uint64, totalBytesProcessed float64)

// gaugeColumns is the subset of Columns carrying a numeric reading, mirrored
// one-to-one as Prometheus gauges; t_ms, side, layer and event are the row's
// key, not a gauge.
var gaugeColumns = []string{
	"rtt_ms_est", "latency_ms", "jitter_ms", "loss_rate", "reorder_rate",
	"goodput_bps", "snr_db_est", "ber", "per", "cfo_hz_est",
	"lock_ratio", "hs_time_ms", "rekey_ms", "aead_fail_cnt",
}

// Writer owns both the CSV and JSONL streams for one run.
type Writer struct {
	csvw *csv.Writer
	jw   io.Writer

	onDemod DemodCallback

	registry *prometheus.Registry
	gauges   map[string]prometheus.Gauge
}

// NewWriter wraps the two destination streams, writes the CSV header, and
// registers the Prometheus gauge mirror described in spec.md §4.2.
func NewWriter(csvDest, jsonlDest io.Writer) (*Writer, error) {
	cw := csv.NewWriter(csvDest)
	if err := cw.Write(Columns); err != nil {
		return nil, fmt.Errorf("metrics: write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("metrics: flush header: %w", err)
	}

	reg := prometheus.NewRegistry()
	gauges := make(map[string]prometheus.Gauge, len(gaugeColumns))
	for _, name := range gaugeColumns {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "drybox",
			Subsystem: "metrics",
			Name:      name,
			Help:      fmt.Sprintf("Last-value-wins mirror of the metrics.csv %q column.", name),
		})
		reg.MustRegister(g)
		gauges[name] = g
	}

	return &Writer{csvw: cw, jw: jsonlDest, registry: reg, gauges: gauges}, nil
}

// OnDemod registers the callback spec.md §4.2 exposes for downstream
// consumers (e.g. a GUI) watching demod progress.
func (w *Writer) OnDemod(cb DemodCallback) {
	w.onDemod = cb
}

// Registry exposes the Prometheus gauge mirror: one gauge per CSV numeric
// column, last-value-wins, updated by every WriteRow call. A host process
// can scrape it alongside, or instead of, parsing metrics.csv.
func (w *Writer) Registry() *prometheus.Registry {
	return w.registry
}

// WriteRow appends one metrics-CSV row, flushes immediately, and updates the
// gauge mirror for every non-nil numeric field the row carries.
func (w *Writer) WriteRow(r Row) error {
	if err := w.csvw.Write(r.record()); err != nil {
		return fmt.Errorf("metrics: write row: %w", err)
	}
	w.csvw.Flush()
	if err := w.csvw.Error(); err != nil {
		return err
	}
	w.updateGauges(r)
	return nil
}

func (w *Writer) updateGauges(r Row) {
	setGauge(w.gauges["rtt_ms_est"], r.RttMsEst)
	setGauge(w.gauges["latency_ms"], r.LatencyMs)
	setGauge(w.gauges["jitter_ms"], r.JitterMs)
	setGauge(w.gauges["loss_rate"], r.LossRate)
	setGauge(w.gauges["reorder_rate"], r.ReorderRate)
	setGauge(w.gauges["goodput_bps"], r.GoodputBps)
	setGauge(w.gauges["snr_db_est"], r.SnrDbEst)
	setGauge(w.gauges["ber"], r.Ber)
	setGauge(w.gauges["per"], r.Per)
	setGauge(w.gauges["cfo_hz_est"], r.CfoHzEst)
	setGauge(w.gauges["lock_ratio"], r.LockRatio)
	setGauge(w.gauges["hs_time_ms"], r.HsTimeMs)
	setGauge(w.gauges["rekey_ms"], r.RekeyMs)
	setGauge(w.gauges["aead_fail_cnt"], r.AeadFailCnt)
}

func setGauge(g prometheus.Gauge, v *float64) {
	if v != nil {
		g.Set(*v)
	}
}

// WriteEvent appends one JSONL event record, and fires the demod callback
// when the event matches its trigger condition.
func (w *Writer) WriteEvent(e Event) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("metrics: marshal event: %w", err)
	}
	if _, err := w.jw.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("metrics: write event: %w", err)
	}

	if w.onDemod != nil && e.Type == "metric" {
		if evName, ok := e.Payload["event"]; ok && evName == "demod" {
			if raw, ok := e.Payload["total_bytes_processed"]; ok {
				if n, ok := toFloat64(raw); ok {
					w.onDemod(e.TMs, n)
				}
			}
		}
	}
	return nil
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
