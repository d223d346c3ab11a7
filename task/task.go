// Package task implements the Task Distributor of spec.md 4.3: it chops each
// input record into overlapping, bounded-size chunks and round-robins them into
// per-worker bounded queues, each terminated by a GAME_OVER sentinel. Grounded on
// the teacher's GetReadSeqBucket/ParaConstructCF channel fan-out
// (constructcf/constructcf.go), generalized from fixed-size read buckets to a
// single growing per-record buffer sliced into fixed TASK_SIZE chunks.
package task

import "dbgjunc/bnt"

// TaskSize is the default chunk payload size in bases, matching spec.md 4.3's
// "TASK_SIZE (constant, e.g., 2^16)".
const TaskSize = 1 << 16

// Task is a bounded sub-sequence of one input record.
type Task struct {
	SeqID      uint32
	StartOffset int // absolute offset of Payload[0] within the record, sentinel-inclusive
	PieceID    uint64 // monotone within a SeqID
	IsFinal    bool
	GameOver   bool // sentinel: no payload, worker must exit after seeing this
	Payload    []byte // 2-bit base codes (bnt.Base2Bnt already applied), 'N' sentinel-padded
}

// Queue is a single worker's bounded inbox.
type Queue chan Task

// NewQueues allocates numWorkers bounded queues of capacity q.
func NewQueues(numWorkers, q int) []Queue {
	qs := make([]Queue, numWorkers)
	for i := range qs {
		qs[i] = make(Queue, q)
	}
	return qs
}

// Record is the minimal shape the distributor needs from a Sequence Reader
// record: an integer id and raw ASCII bases (non-ACGT bytes are normalized to 'N'
// by Distribute, per spec.md 4.3).
type Record struct {
	SeqID uint32
	Seq   []byte
}

// overlapSize is the number of trailing bases carried over into the next chunk so
// that every candidate window that straddles a chunk boundary is still fully
// present in at least one chunk; spec.md 4.3 fixes it to k+1.
func overlapSize(k int) int { return k + 1 }

// Distribute feeds queues round-robin, skipping any queue currently at capacity,
// per spec.md 4.3's "round-robin to the next worker queue with available
// capacity" contract. It closes no channels; callers push the terminal GAME_OVER
// sentinel themselves once all records are exhausted (Finish).
func Distribute(records []Record, k int, queues []Queue) {
	overlap := overlapSize(k)
	next := 0
	for _, rec := range records {
		var pieceID uint64
		buf := make([]byte, 0, TaskSize+overlap)
		buf = append(buf, bnt.N)
		start := 0
		emit := func(isFinal bool) {
			payload := make([]byte, len(buf))
			copy(payload, buf)
			t := Task{SeqID: rec.SeqID, StartOffset: start, PieceID: pieceID, IsFinal: isFinal, Payload: payload}
			next = send(queues, next, t)
			pieceID++
			if len(buf) >= overlap {
				start += len(buf) - overlap
				buf = append(buf[:0], buf[len(buf)-overlap:]...)
			} else {
				start += len(buf)
				buf = buf[:0]
			}
		}
		for _, b := range rec.Seq {
			c := bnt.Base2Bnt[b]
			buf = append(buf, c)
			if len(buf) >= TaskSize {
				emit(false)
			}
		}
		buf = append(buf, bnt.N)
		emit(true)
	}
}

// send places t on queues[from], or the next queue with room, wrapping around;
// it returns the index to resume scanning from on the next call.
func send(queues []Queue, from int, t Task) int {
	n := len(queues)
	for i := 0; i < n; i++ {
		idx := (from + i) % n
		select {
		case queues[idx] <- t:
			return (idx + 1) % n
		default:
		}
	}
	// every queue momentarily full: block on the preferred queue.
	queues[from] <- t
	return (from + 1) % n
}

// Finish pushes one GAME_OVER sentinel onto every queue, per spec.md 4.3.
func Finish(queues []Queue) {
	for _, q := range queues {
		q <- Task{GameOver: true}
	}
}
