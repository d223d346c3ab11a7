package pipeline

import (
	"dbgjunc/bnt"
	"dbgjunc/config"
	"dbgjunc/cuckoofilter"
	"dbgjunc/dbgerr"
	"dbgjunc/rounds"
	"dbgjunc/task"
)

// forEachEdgeKey walks every position p in payload with a fully definite
// k-window, deriving the canonical edge key(s) anchored there on both sides, per
// spec.md 4.4: a definite flank contributes one edge; an indefinite (N) flank
// contributes the two dummy variants (sentinel A and T) so degree-checking later
// overcounts rather than undercounts at sequence boundaries.
func forEachEdgeKey(k int, payload []byte, fn func(key uint64)) {
	for p := 1; p+k < len(payload); p++ {
		window := payload[p : p+k]
		if !allDefinite(window) {
			continue
		}
		emitEdgeSide(payload[p-1], window, true, fn)
		emitEdgeSide(payload[p+k], window, false, fn)
	}
}

func emitEdgeSide(flank byte, window []byte, isLeft bool, fn func(uint64)) {
	if bnt.IsDefinite(flank) {
		_, key := edgeCanonKey(combineEdge(flank, window, isLeft))
		fn(key)
		return
	}
	for _, sub := range [2]byte{bnt.A, bnt.T} {
		_, key := edgeCanonKey(combineEdge(sub, window, isLeft))
		fn(key)
	}
}

// buildHistogram runs the round-partitioning pre-pass of spec.md 4.9 and 9:
// every edge's domain-mapped value is observed, regardless of round, so that
// Bounds can later slice [0, realSize) into R ranges of roughly equal edge mass.
func buildHistogram(opt config.Options, records []task.Record, realSize uint64, hist *rounds.Histogram, errs *dbgerr.Slot) {
	runStage(opt, records, errs, func(_ int) func(task.Task) error {
		return func(t task.Task) error {
			forEachEdgeKey(opt.VertexLength, t.Payload, func(key uint64) {
				hist.Observe(domain(key, realSize))
			})
			return nil
		}
	})
}

// buildEdgeFilter is the Edge Filter Builder (Pass 1a, spec.md 4.4): it inserts
// every edge whose domain-mapped value falls in this round's range into the
// shared Cuckoo filter.
func buildEdgeFilter(opt config.Options, records []task.Record, rng rounds.Range, realSize uint64, filter *cuckoofilter.Filter, errs *dbgerr.Slot) {
	runStage(opt, records, errs, func(_ int) func(task.Task) error {
		return func(t task.Task) error {
			forEachEdgeKey(opt.VertexLength, t.Payload, func(key uint64) {
				if rng.Contains(domain(key, realSize)) {
					filter.Insert(key)
				}
			})
			return nil
		}
	})
}
