package sar

// group is one in-progress reassembly, keyed by frag_id. Grounded on the
// firestige-Otus IPv4 reassembler's fragmentList: a map of parts plus a
// "have we seen the final fragment" flag, evicted on timeout.
type group struct {
	startMs int64
	lastIdx *uint8
	parts   map[uint8][]byte
}

// Reassembler holds in-progress groups for one direction. PassThrough mode
// (SAR inactive because the bearer MTU is >= the adapter's max SDU) returns
// each pushed fragment's payload unchanged, per spec.md §4.3.
type Reassembler struct {
	timeoutMs   int64
	passThrough bool
	groups      map[uint8]*group
}

// NewReassembler builds a reassembler with the given timeout (spec.md §4.3:
// timeout_ms = 2 * RTT_estimate, RTT_estimate = max(1, 2*latency_ms)).
func NewReassembler(timeoutMs int64) *Reassembler {
	return &Reassembler{
		timeoutMs: timeoutMs,
		groups:    make(map[uint8]*group),
	}
}

// NewPassThroughReassembler builds a reassembler that never fragments: each
// pushed payload is returned as-is, for when mtu_bytes >= adapter sdu_max.
func NewPassThroughReassembler() *Reassembler {
	return &Reassembler{passThrough: true}
}

// Push processes one arrived wire fragment. It returns the complete SDU
// and true exactly once per frag_id, when the last fragment for that id has
// arrived and every index in [0, last_idx] is present.
func (r *Reassembler) Push(wire []byte, nowMs int64) ([]byte, bool) {
	if r.passThrough {
		return wire, true
	}

	frag, ok := Decode(wire)
	if !ok {
		return nil, false
	}

	r.evictExpired(nowMs)

	g, ok := r.groups[frag.FragID]
	if !ok {
		g = &group{startMs: nowMs, parts: make(map[uint8][]byte)}
		r.groups[frag.FragID] = g
	}
	g.parts[frag.Idx] = frag.Payload
	if frag.Last {
		idx := frag.Idx
		g.lastIdx = &idx
	}

	if g.lastIdx == nil {
		return nil, false
	}
	for i := uint8(0); i <= *g.lastIdx; i++ {
		if _, have := g.parts[i]; !have {
			return nil, false
		}
		if i == 255 {
			break // last_idx can't exceed 255; guard against wraparound loops
		}
	}

	total := 0
	for i := uint8(0); i <= *g.lastIdx; i++ {
		total += len(g.parts[i])
		if i == 255 {
			break
		}
	}
	sdu := make([]byte, 0, total)
	for i := uint8(0); i <= *g.lastIdx; i++ {
		sdu = append(sdu, g.parts[i]...)
		if i == 255 {
			break
		}
	}
	delete(r.groups, frag.FragID)
	return sdu, true
}

// evictExpired drops groups whose start_ms predates the timeout window.
// A fragment arriving after its group has been evicted starts a fresh group
// (spec.md §4.3: "a late-arriving fragment after eviction MUST NOT
// reassemble an old SDU").
func (r *Reassembler) evictExpired(nowMs int64) {
	for id, g := range r.groups {
		if nowMs-g.startMs >= r.timeoutMs {
			delete(r.groups, id)
		}
	}
}
