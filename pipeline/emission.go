package pipeline

import (
	"sort"
	"sync"
	"sync/atomic"

	"dbgjunc/bifurcation"
	"dbgjunc/candidatemask"
	"dbgjunc/config"
	"dbgjunc/dbgerr"
	"dbgjunc/output"
	"dbgjunc/task"
)

// emissionSink is the single-consumer JunctionPositionWriter of spec.md 5.
// Producers submit one chunk's junctions under its pieceId; the sink first
// reassembles each seqId's chunks in increasing pieceId order (spec.md 4.8's
// "released to the JunctionPositionWriter only when pieceId == currentPiece"
// discipline), then releases whole seqIds to the underlying output.Writer in
// increasing seqId order — required because the wire format's chromosome
// separators (output.Writer) only make sense under a monotonically
// non-decreasing Chr, and workers generally finish distinct seqIds out of
// order.
type emissionSink struct {
	mu           sync.Mutex
	writer       *output.Writer
	currentPiece map[uint32]uint64
	finalPiece   map[uint32]uint64
	pending      map[uint32]map[uint64][]output.JunctionPosition
	assembled    map[uint32][]output.JunctionPosition
	complete     map[uint32]bool
	nextSeqID    uint32
	stubCounter  *atomic.Uint64
	errs         *dbgerr.Slot
}

func newEmissionSink(w *output.Writer, stubCounter *atomic.Uint64, errs *dbgerr.Slot) *emissionSink {
	return &emissionSink{
		writer:       w,
		currentPiece: make(map[uint32]uint64),
		finalPiece:   make(map[uint32]uint64),
		pending:      make(map[uint32]map[uint64][]output.JunctionPosition),
		assembled:    make(map[uint32][]output.JunctionPosition),
		complete:     make(map[uint32]bool),
		stubCounter:  stubCounter,
		errs:         errs,
	}
}

// Submit enqueues one chunk's junctions, reassembles its seqId's piece order,
// and flushes every seqId now fully ordered and complete.
func (s *emissionSink) Submit(seqID uint32, pieceID uint64, isFinal bool, junctions []output.JunctionPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[seqID] == nil {
		s.pending[seqID] = make(map[uint64][]output.JunctionPosition)
	}
	s.pending[seqID][pieceID] = junctions
	if isFinal {
		s.finalPiece[seqID] = pieceID
	}
	for {
		cur := s.currentPiece[seqID]
		js, ok := s.pending[seqID][cur]
		if !ok {
			break
		}
		s.assembled[seqID] = append(s.assembled[seqID], js...)
		delete(s.pending[seqID], cur)
		s.currentPiece[seqID] = cur + 1
	}
	if fp, known := s.finalPiece[seqID]; known && s.currentPiece[seqID] == fp+1 {
		s.complete[seqID] = true
	}
	s.flushReady()
}

// flushReady releases seqIds to the output.Writer in increasing order,
// stopping at the first seqId that is not yet complete. Stub vertex ids are
// minted here, not by the concurrent producers in emitJunctions: assembled is
// already in (seqId, pieceId, pos) order by construction, and flushReady
// itself only ever runs on one goroutine at a time (under s.mu), so stub ids
// come out in a fixed, schedule-independent order regardless of how many
// worker threads produced the underlying junctions or in what order they
// finished — required for spec.md 8's run-to-run idempotence.
func (s *emissionSink) flushReady() {
	for s.complete[s.nextSeqID] {
		js := s.assembled[s.nextSeqID]
		for i := range js {
			if js[i].BifID == bifurcation.Invalid {
				js[i].BifID = allocStub(s.stubCounter)
			}
		}
		if len(js) == 0 {
			if err := s.writer.Skip(); err != nil {
				s.errs.Set(dbgerr.OutputIO, err)
				return
			}
		} else {
			for _, j := range js {
				if err := s.writer.WriteJunction(j); err != nil {
					s.errs.Set(dbgerr.OutputIO, err)
					return
				}
			}
		}
		delete(s.assembled, s.nextSeqID)
		delete(s.complete, s.nextSeqID)
		delete(s.currentPiece, s.nextSeqID)
		delete(s.finalPiece, s.nextSeqID)
		s.nextSeqID++
	}
}

// allocStub hands out the next monotonically increasing stub vertex id. Only
// ever called from flushReady, never from the concurrent emitJunctions
// workers, so the sequence of ids handed out does not depend on goroutine
// scheduling.
func allocStub(counter *atomic.Uint64) uint64 {
	return counter.Add(1) - 1
}

// firstDefiniteWindow returns the smallest p in [1, lastFeasible] whose
// k-window is fully definite, per spec.md 8's boundary rule: an N-run at a
// sequence's head means the "sequence start" stub belongs to the first
// definite window after it, not to p==1 itself.
func firstDefiniteWindow(payload []byte, k, lastFeasible int) (int, bool) {
	for p := 1; p <= lastFeasible; p++ {
		if allDefinite(payload[p : p+k]) {
			return p, true
		}
	}
	return 0, false
}

// lastDefiniteWindow is firstDefiniteWindow's mirror for the record's tail.
func lastDefiniteWindow(payload []byte, k, lastFeasible int) (int, bool) {
	for p := lastFeasible; p >= 1; p-- {
		if allDefinite(payload[p : p+k]) {
			return p, true
		}
	}
	return 0, false
}

// emitJunctions is the Emission Pass (spec.md 4.8): it rescans every chunk,
// reloads the union of this chunk's CandidateMasks across all R rounds, resolves
// each candidate position's canonical k-mer against BifurcationStorage, and
// marks either record endpoint with a pending-stub sentinel when no confirmed
// junction claims it. The sentinel is resolved to an actual id later, by
// emissionSink.flushReady, once chunk order is no longer in question.
func emitJunctions(opt config.Options, records []task.Record, storage *bifurcation.Storage, sink *emissionSink, errs *dbgerr.Slot) {
	runStage(opt, records, errs, func(_ int) func(task.Task) error {
		return func(t task.Task) error {
			k := opt.VertexLength
			payload := t.Payload

			mask := candidatemask.New(t.SeqID, t.StartOffset, 0)
			for round := 0; round < opt.Rounds; round++ {
				m, err := loadMask(opt.TmpDir, t.SeqID, t.StartOffset, round)
				if err != nil {
					return err
				}
				mask.Union(m)
			}

			lastFeasible := len(payload) - k - 1
			assigned := make(map[int]bool, mask.Len())
			var junctions []output.JunctionPosition
			for _, pos := range mask.Positions() {
				p := int(pos)
				if p < 1 || p+k >= len(payload) {
					continue
				}
				window := payload[p : p+k]
				if !allDefinite(window) {
					continue
				}
				canon, _ := canonicalKey(window)
				id := storage.Lookup(canon)
				if id == bifurcation.Invalid {
					continue
				}
				assigned[p] = true
				junctions = append(junctions, output.JunctionPosition{
					Chr: t.SeqID, Pos: uint32(t.StartOffset + p - 1), BifID: id,
				})
			}

			// An N-run can push the chunk's first/last definite k-window away
			// from p==1/lastFeasible; a stub always names the actual edge
			// window, never a position straddling indefinite bases.
			if t.StartOffset == 0 {
				if p, ok := firstDefiniteWindow(payload, k, lastFeasible); ok && !assigned[p] {
					junctions = append(junctions, output.JunctionPosition{
						Chr: t.SeqID, Pos: uint32(t.StartOffset + p - 1), BifID: bifurcation.Invalid,
					})
				}
			}
			if t.IsFinal {
				if p, ok := lastDefiniteWindow(payload, k, lastFeasible); ok && !assigned[p] {
					junctions = append(junctions, output.JunctionPosition{
						Chr: t.SeqID, Pos: uint32(t.StartOffset + p - 1), BifID: bifurcation.Invalid,
					})
				}
			}

			sort.Slice(junctions, func(i, j int) bool { return junctions[i].Pos < junctions[j].Pos })
			sink.Submit(t.SeqID, t.PieceID, t.IsFinal, junctions)
			return nil
		}
	})
}
