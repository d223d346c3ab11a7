package pipeline

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"

	"dbgjunc/bifurcation"
	"dbgjunc/config"
	"dbgjunc/cuckoofilter"
	"dbgjunc/dbgerr"
	"dbgjunc/fasta"
	"dbgjunc/kmer"
	"dbgjunc/occset"
	"dbgjunc/output"
	"dbgjunc/rounds"
	"dbgjunc/task"
)

// occShardCount is the OccurrenceSet's shard count (spec.md 5's "tolerate
// concurrent inserts"); higher reduces lock contention under many workers.
const occShardCount = 64

// histogramBins caps the round-partitioning histogram's resolution for runs
// that ask for R > 1 but whose filter domain is tiny (tests); production runs
// use rounds.BinsCount.
func histogramBins(realSize uint64) uint64 {
	if realSize < rounds.BinsCount {
		return realSize
	}
	return rounds.BinsCount
}

// Run executes the full pipeline of spec.md 2 for opt: it reads every input
// FASTA file into memory, repeats the Edge Filter Builder / Candidate Marker /
// Final Confirmer over opt.Rounds disjoint hash ranges (all rounds feeding one
// OccurrenceSet), runs the Bifurcation Writer once after the last round, builds
// the dense BifurcationStorage from the sorted, deduplicated result, and runs
// the Emission Pass to produce opt.OutFile. All temp state
// lives under a run-scoped subdirectory of opt.TmpDir (namespaced by a fresh
// uuid.UUID so concurrent invocations never collide) and is removed before
// Run returns, success or failure.
func Run(opt config.Options) error {
	if err := opt.Validate(); err != nil {
		return err
	}

	records, err := readRecords(opt)
	if err != nil {
		return err
	}

	runID := uuid.New()
	runDir := filepath.Join(opt.TmpDir, runID.String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return &dbgerr.Error{Kind: dbgerr.TempIO, Err: err}
	}
	defer os.RemoveAll(runDir)

	stageOpt := opt
	stageOpt.TmpDir = runDir

	errs := &dbgerr.Slot{}
	realSize := opt.FilterSize()

	var ranges []rounds.Range
	if opt.Rounds > 1 {
		hist := rounds.NewHistogram(realSize, histogramBins(realSize))
		buildHistogram(stageOpt, records, realSize, hist, errs)
		if errs.Failed() {
			return errs.Get()
		}
		ranges = hist.Bounds(opt.Rounds)
	} else {
		ranges = []rounds.Range{{Low: 0, High: realSize}}
	}

	filterCap := realSize
	if opt.Rounds > 1 {
		filterCap = realSize/uint64(opt.Rounds) + 1
	}

	// occurrences spans every round: a true junction's two distinguishing
	// edges can hash into different rounds' disjoint [low,high) ranges, so
	// the round-local candidate mask that sees only one of them must still
	// land its flank evidence on the same Record as the round that sees the
	// other. Only F_edge (spec.md 3's data-model table: "built per round;
	// discarded at round end") and the per-round candidate mask are
	// round-scoped; the confirmed/not-confirmed decision is made once, after
	// every round's evidence has merged.
	filterPath := filepath.Join(runDir, "filter.bin")
	occurrences := occset.New(occShardCount)
	for round, rng := range ranges {
		filter := cuckoofilter.New(filterCap, opt.VertexLength+1)

		buildEdgeFilter(stageOpt, records, rng, realSize, filter, errs)
		if errs.Failed() {
			break
		}
		// spec.md 6's "filter dump (filter.bin)": a reloadable snapshot of
		// F_edge for downstream graph construction. Overwritten every round
		// so the file left behind after the loop holds the last round's
		// filter; like the round's candidate masks, it lives under runDir and
		// is removed with the rest of the run's temp state (spec.md 5).
		if err := dumpFilter(filterPath, filter); err != nil {
			errs.Set(dbgerr.TempIO, err)
			break
		}
		markCandidates(stageOpt, records, rng, realSize, filter, round, errs)
		if errs.Failed() {
			break
		}

		confirmOccurrences(stageOpt, records, round, occurrences, errs)
		if errs.Failed() {
			break
		}
		log.Printf("[Run] round %d/%d: edge filter and candidate pass complete", round+1, len(ranges))
	}
	if errs.Failed() {
		return errs.Get()
	}

	bifPath := filepath.Join(runDir, "bifurcations.bin")
	f, ferr := os.Create(bifPath)
	if ferr != nil {
		return &dbgerr.Error{Kind: dbgerr.TempIO, Err: ferr}
	}
	totalTP, totalFP, werr := bifurcation.WriteSet(f, occurrences)
	cerr := f.Close()
	if werr != nil {
		return &dbgerr.Error{Kind: dbgerr.TempIO, Err: werr}
	}
	if cerr != nil {
		return &dbgerr.Error{Kind: dbgerr.TempIO, Err: cerr}
	}

	storage, err := buildStorage([]string{bifPath}, opt.VertexLength)
	if err != nil {
		return err
	}
	log.Printf("[Run] %d distinct junction vertices assembled (%d confirmations, %d false positives across %d round(s))",
		storage.Len(), totalTP, totalFP, len(ranges))

	outFile, err := os.Create(opt.OutFile)
	if err != nil {
		return &dbgerr.Error{Kind: dbgerr.OutputIO, Err: err}
	}
	writer := output.NewWriter(outFile)

	var stubCounter atomic.Uint64
	stubCounter.Store(storage.Len() + 42) // spec.md 9: V+42, preserved for wire compatibility.

	sink := newEmissionSink(writer, &stubCounter, errs)
	emitJunctions(stageOpt, records, storage, sink, errs)

	if ferr := writer.Flush(); ferr != nil && !errs.Failed() {
		errs.Set(dbgerr.OutputIO, ferr)
	}
	cerr = outFile.Close()
	if errs.Failed() {
		os.Remove(opt.OutFile)
		return errs.Get()
	}
	if cerr != nil {
		os.Remove(opt.OutFile)
		return &dbgerr.Error{Kind: dbgerr.OutputIO, Err: cerr}
	}
	return nil
}

// dumpFilter writes filter's serialized form to path, per spec.md 6's
// "filter dump (filter.bin)" external interface.
func dumpFilter(path string, filter *cuckoofilter.Filter) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	werr := filter.Serialize(f)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// readRecords loads every input FASTA file in order, assigning sequential
// seqIds across the whole input list (not restarted per file), per the
// Sequence Reader contract named in spec.md 1/6.
func readRecords(opt config.Options) ([]task.Record, error) {
	var out []task.Record
	var id uint32
	for _, fn := range opt.Inputs {
		r, fp, err := fasta.Open(fn)
		if err != nil {
			return nil, &dbgerr.Error{Kind: dbgerr.InputOpen, Err: err}
		}
		for {
			rec, rerr := r.Next()
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				fp.Close()
				return nil, &dbgerr.Error{Kind: dbgerr.InputOpen, Err: rerr}
			}
			out = append(out, task.Record{SeqID: id, Seq: rec.Seq})
			id++
		}
		fp.Close()
	}
	return out, nil
}

// buildStorage reads back the confirmed-bifurcation stream(s), sorts by
// canonical k-mer, deduplicates (defensive: WriteSet's source occset.Set
// already holds at most one Record per canonical k-mer, but bifPaths may in
// principle name more than one stream), and assigns dense ids in that sorted
// order — spec.md 9's determinism requirement.
func buildStorage(bifPaths []string, k int) (*bifurcation.Storage, error) {
	wordsPerKmer := kmer.WordsFor(k)
	var all []kmer.Packed
	for _, p := range bifPaths {
		f, err := os.Open(p)
		if err != nil {
			return nil, &dbgerr.Error{Kind: dbgerr.TempIO, Err: err}
		}
		ks, rerr := bifurcation.ReadSorted(f, wordsPerKmer, k)
		cerr := f.Close()
		if rerr != nil {
			return nil, &dbgerr.Error{Kind: dbgerr.TempIO, Err: rerr}
		}
		if cerr != nil {
			return nil, &dbgerr.Error{Kind: dbgerr.TempIO, Err: cerr}
		}
		all = append(all, ks...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Less(all[j]) })
	all = dedupeSorted(all)
	return bifurcation.Build(all), nil
}

// dedupeSorted removes adjacent duplicates from a sorted slice of packed
// k-mers, preserving I1/I3 (one canonical k-mer, one id).
func dedupeSorted(ks []kmer.Packed) []kmer.Packed {
	if len(ks) == 0 {
		return ks
	}
	out := ks[:1]
	for _, k := range ks[1:] {
		if !k.Equal(out[len(out)-1]) {
			out = append(out, k)
		}
	}
	return out
}
