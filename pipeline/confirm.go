package pipeline

import (
	"dbgjunc/config"
	"dbgjunc/dbgerr"
	"dbgjunc/occset"
	"dbgjunc/task"
)

// confirmOccurrences is the Final Confirmer (Pass 2, spec.md 4.6): it reloads
// this round's CandidateMask per chunk and inserts one OccurrenceRecord per
// candidate position into the shared OccurrenceSet, keyed by the k-mer's
// canonical packed bits (occset.key) rather than by any hash of the window —
// strand-symmetric and collision-resolved by Canon.Equal on chaining, so no
// rolling hash needs computing here. A single occurrence never forces
// isBifurcation by itself (that would wrongly promote every record-boundary
// k-mer, spec.md 8 scenario 5: "CGT remains ... stub only"); confirmation
// comes only from occset's cross-occurrence flank merge seeing two distinct
// definite bases on one side.
func confirmOccurrences(opt config.Options, records []task.Record, round int, occurrences *occset.Set, errs *dbgerr.Slot) {
	runStage(opt, records, errs, func(_ int) func(task.Task) error {
		return func(t task.Task) error {
			k := opt.VertexLength
			payload := t.Payload
			mask, err := loadMask(opt.TmpDir, t.SeqID, t.StartOffset, round)
			if err != nil {
				return err
			}

			for p := 1; p+k < len(payload); p++ {
				window := payload[p : p+k]
				if !allDefinite(window) {
					continue
				}
				if !mask.Contains(uint32(p)) {
					continue
				}
				left, right := payload[p-1], payload[p+k]
				canon, flipped := canonicalWithOrientation(window)
				canonLeft, canonRight := left, right
				if flipped {
					// The canonical form is this window's reverse complement, so
					// walking the genome forward here is walking the canonical
					// k-mer backward: what the genome calls "successor" is the
					// canonical k-mer's predecessor, and vice versa.
					canonLeft, canonRight = complementBase(right), complementBase(left)
				}
				occurrences.Insert(canon, canonLeft, canonRight)
			}
			return nil
		}
	})
}
