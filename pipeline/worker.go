package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dbgjunc/candidatemask"
	"dbgjunc/config"
	"dbgjunc/dbgerr"
	"dbgjunc/task"
)

// queueCapacity is Q from spec.md 5: "one bounded task queue per worker, each
// with capacity Q (e.g., 16)".
const queueCapacity = 16

// runStage drives one barrier-bounded pass over records: it spins up
// opt.Threads worker goroutines, each fed by its own bounded Queue, runs the
// Task Distributor once (spec.md 4.3), and blocks until every worker has seen
// its GAME_OVER sentinel. makeWorker is called once per worker to build its
// per-task handler; workers that observe a failed errs Slot stop doing work
// but keep draining their queue so the single-threaded distributor never
// blocks on a queue nobody is reading, per spec.md 5's cancellation contract.
func runStage(opt config.Options, records []task.Record, errs *dbgerr.Slot, makeWorker func(workerID int) func(task.Task) error) {
	queues := task.NewQueues(opt.Threads, queueCapacity)

	var wg sync.WaitGroup
	for i := 0; i < opt.Threads; i++ {
		wg.Add(1)
		worker := makeWorker(i)
		go func(q task.Queue) {
			defer wg.Done()
			for {
				t := <-q
				if t.GameOver {
					return
				}
				if errs.Failed() {
					continue
				}
				if err := worker(t); err != nil {
					errs.Set(dbgerr.TempIO, err)
				}
			}
		}(queues[i])
	}

	task.Distribute(records, opt.VertexLength, queues)
	task.Finish(queues)
	wg.Wait()
}

// maskPath names a CandidateMask temp file, per spec.md 4.5:
// `<tmp>/<seqId>_<startOffset>_<round>.tmp`.
func maskPath(tmpDir string, seqID uint32, startOffset, round int) string {
	return filepath.Join(tmpDir, fmt.Sprintf("%d_%d_%d.tmp", seqID, startOffset, round))
}

// writeMask spills m to its temp file (spec.md 4.5).
func writeMask(tmpDir string, m *candidatemask.Mask) error {
	path := maskPath(tmpDir, m.SeqID, m.StartOffset, m.Round)
	f, err := os.Create(path)
	if err != nil {
		return &dbgerr.Error{Kind: dbgerr.TempIO, Err: err}
	}
	defer f.Close()
	if _, err := m.WriteTo(f); err != nil {
		return &dbgerr.Error{Kind: dbgerr.TempIO, Err: err}
	}
	return nil
}

// loadMask reloads the CandidateMask spilled by writeMask for the given chunk
// coordinates (spec.md 4.6, 4.8).
func loadMask(tmpDir string, seqID uint32, startOffset, round int) (*candidatemask.Mask, error) {
	path := maskPath(tmpDir, seqID, startOffset, round)
	f, err := os.Open(path)
	if err != nil {
		return nil, &dbgerr.Error{Kind: dbgerr.TempIO, Err: err}
	}
	defer f.Close()
	m := candidatemask.New(seqID, startOffset, round)
	if _, err := m.ReadFrom(f); err != nil {
		return nil, &dbgerr.Error{Kind: dbgerr.TempIO, Err: err}
	}
	return m, nil
}
