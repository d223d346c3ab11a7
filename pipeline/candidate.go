package pipeline

import (
	"dbgjunc/bnt"
	"dbgjunc/candidatemask"
	"dbgjunc/config"
	"dbgjunc/cuckoofilter"
	"dbgjunc/dbgerr"
	"dbgjunc/rounds"
	"dbgjunc/task"
)

// markCandidates is the Candidate Marker (Pass 1b, spec.md 4.5): for every
// fully-definite k-window, it probes F_edge for each of the four possible
// predecessor/successor bases, derives in/out-degree estimates, and records the
// position in a per-chunk CandidateMask whenever either degree exceeds one. The
// observed flank base contributes exactly one to its degree count — c==observed
// short-circuits the filter probe for that base so the edge Pass 1a always
// inserted isn't counted twice, the same single-OR-per-base resolution the
// original uses (vertexenumerator.h).
// Per-edge probes outside this round's range are skipped entirely, per spec.md
// 4.9 ("others are skipped in F_edge insertion and probing") — such an edge was
// never inserted by this round's Edge Filter Builder, so probing it would only
// read stale zero state from a freshly allocated filter.
func markCandidates(opt config.Options, records []task.Record, rng rounds.Range, realSize uint64, filter *cuckoofilter.Filter, round int, errs *dbgerr.Slot) {
	runStage(opt, records, errs, func(_ int) func(task.Task) error {
		return func(t task.Task) error {
			k := opt.VertexLength
			payload := t.Payload
			mask := candidatemask.New(t.SeqID, t.StartOffset, round)
			for p := 1; p+k < len(payload); p++ {
				window := payload[p : p+k]
				if !allDefinite(window) {
					continue
				}
				left, right := payload[p-1], payload[p+k]

				inCount, outCount := 0, 0
				if !bnt.IsDefinite(left) {
					inCount = 2
				} else {
					for c := byte(0); c < bnt.BaseTypeNum; c++ {
						_, predKey := edgeCanonKey(combineEdge(c, window, true))
						if c == left || (rng.Contains(domain(predKey, realSize)) && filter.Contains(predKey)) {
							inCount++
						}
					}
				}
				if !bnt.IsDefinite(right) {
					outCount = 2
				} else {
					for c := byte(0); c < bnt.BaseTypeNum; c++ {
						_, succKey := edgeCanonKey(combineEdge(c, window, false))
						if c == right || (rng.Contains(domain(succKey, realSize)) && filter.Contains(succKey)) {
							outCount++
						}
					}
				}

				if inCount > 1 || outCount > 1 {
					mask.Add(uint32(p))
				}
			}
			return writeMask(opt.TmpDir, mask)
		}
	})
}
