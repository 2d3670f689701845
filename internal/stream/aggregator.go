package stream

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/agent-runner-go/internal/errors"
)

// Chunk is one ordered fragment of a stream's output.
type Chunk struct {
	// StreamID identifies the owning stream.
	StreamID string

	// Seq is the chunk's sequence number, starting at 0 and gapless
	// per stream.
	Seq int

	// Data is the chunk payload. Empty on the terminal chunk.
	Data string

	// Final is true only on the terminal chunk.
	Final bool

	// Timestamp records when the chunk was created.
	Timestamp time.Time
}

// Summary describes a finished stream to completion and error observers.
type Summary struct {
	StreamID string
	Chunks   int
	Data     string
	Duration time.Duration
}

// Stats is a point-in-time snapshot of a stream's state.
type Stats struct {
	StreamID      string
	Chunks        int
	Completed     bool
	Elapsed       time.Duration
	BufferSize    int
	BufferedBytes int
}

// Aggregator turns a raw sequence of output fragments into ordered, bounded,
// observable chunks. It keeps a most-recent-history buffer capped at the
// configured capacity; once the buffer overflows, the oldest fragments are
// dropped in batches, so BufferedData reflects recent history only.
//
// Observers are notified synchronously in push order. Callbacks must not
// call back into the aggregator.
type Aggregator struct {
	mu           sync.Mutex
	log          *slog.Logger
	id           string
	capacity     int
	buf          []string
	seq          int // next sequence number, including the terminal chunk's slot
	chunks       int // data chunks processed, excluding the terminal chunk
	completed    bool
	started      time.Time
	finished     time.Time
	chunkSubs    []func(Chunk)
	completeSubs []func(Summary)
	errorSubs    []func(error, Summary)
}

// NewAggregator creates an aggregator for one streaming execution.
// Capacity bounds the number of retained fragments; values below 1 are
// clamped to 1.
func NewAggregator(log *slog.Logger, id string, capacity int) *Aggregator {
	if capacity < 1 {
		capacity = 1
	}

	return &Aggregator{
		log:      log.With("component", "stream_aggregator", "stream_id", id),
		id:       id,
		capacity: capacity,
		buf:      make([]string, 0, capacity),
		started:  time.Now(),
	}
}

// ID returns the owning stream identifier.
func (a *Aggregator) ID() string {
	return a.id
}

// OnChunk registers an observer invoked for every pushed chunk.
func (a *Aggregator) OnChunk(fn func(Chunk)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.chunkSubs = append(a.chunkSubs, fn)
}

// OnComplete registers an observer invoked once when the stream completes.
func (a *Aggregator) OnComplete(fn func(Summary)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.completeSubs = append(a.completeSubs, fn)
}

// OnError registers an observer invoked once if the stream fails.
func (a *Aggregator) OnError(fn func(error, Summary)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorSubs = append(a.errorSubs, fn)
}

// PushChunk assigns the next sequence number to data, buffers it, notifies
// chunk observers, and returns the created chunk. It never blocks on I/O.
// Pushing to a finished stream returns ErrStreamCompleted.
func (a *Aggregator) PushChunk(data string) (Chunk, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.completed {
		return Chunk{}, errors.ErrStreamCompleted
	}

	chunk := Chunk{
		StreamID:  a.id,
		Seq:       a.seq,
		Data:      data,
		Timestamp: time.Now(),
	}
	a.seq++
	a.chunks++

	a.buf = append(a.buf, data)

	// Batch eviction: let the buffer grow to twice its capacity, then
	// drop the oldest half in one copy. BufferedData compensates by
	// reading only the trailing capacity entries.
	if len(a.buf) >= a.capacity*2 {
		a.log.Debug("Evicting oldest stream fragments", "dropped", len(a.buf)-a.capacity)

		kept := make([]string, a.capacity, a.capacity*2)
		copy(kept, a.buf[len(a.buf)-a.capacity:])
		a.buf = kept
	}

	for _, fn := range a.chunkSubs {
		fn(chunk)
	}

	return chunk, nil
}

// Complete marks the stream finished, notifies completion observers, and
// returns the terminal chunk (empty payload, Final set). Idempotent: repeat
// calls return a terminal chunk without re-notifying.
func (a *Aggregator) Complete() Chunk {
	a.mu.Lock()
	defer a.mu.Unlock()

	terminal := Chunk{
		StreamID:  a.id,
		Seq:       a.seq,
		Final:     true,
		Timestamp: time.Now(),
	}

	if a.completed {
		return terminal
	}

	a.completed = true
	a.finished = time.Now()
	a.seq++

	summary := a.summaryLocked()

	a.log.Debug("Stream completed", "chunks", summary.Chunks, "duration", summary.Duration)

	for _, fn := range a.chunkSubs {
		fn(terminal)
	}

	for _, fn := range a.completeSubs {
		fn(summary)
	}

	return terminal
}

// Fail marks the stream finished with an error and notifies error observers.
// It never panics and is a no-op on an already-finished stream.
func (a *Aggregator) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.completed {
		return
	}

	a.completed = true
	a.finished = time.Now()

	summary := a.summaryLocked()

	a.log.Debug("Stream failed", "error", err, "chunks", summary.Chunks)

	for _, fn := range a.errorSubs {
		fn(err, summary)
	}
}

// BufferedData returns the concatenation of currently buffered fragments in
// arrival order. Once capacity has been exceeded this is the most recent
// history only, not a full transcript.
func (a *Aggregator) BufferedData() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return strings.Join(a.windowLocked(), "")
}

// Stats returns a snapshot of the stream's state.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	window := a.windowLocked()

	buffered := 0
	for _, s := range window {
		buffered += len(s)
	}

	return Stats{
		StreamID:      a.id,
		Chunks:        a.chunks,
		Completed:     a.completed,
		Elapsed:       a.elapsedLocked(),
		BufferSize:    len(window),
		BufferedBytes: buffered,
	}
}

// windowLocked returns the trailing capacity-bounded view of the buffer.
func (a *Aggregator) windowLocked() []string {
	if len(a.buf) <= a.capacity {
		return a.buf
	}

	return a.buf[len(a.buf)-a.capacity:]
}

func (a *Aggregator) elapsedLocked() time.Duration {
	if a.completed {
		return a.finished.Sub(a.started)
	}

	return time.Since(a.started)
}

func (a *Aggregator) summaryLocked() Summary {
	return Summary{
		StreamID: a.id,
		Chunks:   a.chunks,
		Data:     strings.Join(a.windowLocked(), ""),
		Duration: a.elapsedLocked(),
	}
}
