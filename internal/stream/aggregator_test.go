package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runnererrors "github.com/wagiedev/agent-runner-go/internal/errors"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAggregator(capacity int) *Aggregator {
	return NewAggregator(nopLogger(), "test-stream", capacity)
}

func TestPushChunk_SequenceNumbers(t *testing.T) {
	agg := newTestAggregator(16)

	for i := 0; i < 5; i++ {
		chunk, err := agg.PushChunk(fmt.Sprintf("chunk-%d", i))
		require.NoError(t, err)
		assert.Equal(t, i, chunk.Seq)
		assert.Equal(t, "test-stream", chunk.StreamID)
		assert.False(t, chunk.Final)
	}
}

func TestPushChunk_NotifiesObserversInOrder(t *testing.T) {
	agg := newTestAggregator(16)

	var seen []int

	agg.OnChunk(func(c Chunk) {
		seen = append(seen, c.Seq)
	})

	for i := 0; i < 4; i++ {
		_, err := agg.PushChunk(fmt.Sprintf("%d", i))
		require.NoError(t, err)
	}

	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestPushChunk_AfterComplete(t *testing.T) {
	agg := newTestAggregator(4)
	agg.Complete()

	_, err := agg.PushChunk("late")
	assert.ErrorIs(t, err, runnererrors.ErrStreamCompleted)
}

func TestBufferedData_UnderCapacity(t *testing.T) {
	agg := newTestAggregator(8)

	for _, s := range []string{"a", "b", "c"} {
		_, err := agg.PushChunk(s)
		require.NoError(t, err)
	}

	assert.Equal(t, "abc", agg.BufferedData())
}

func TestBufferedData_AfterOverflow(t *testing.T) {
	const capacity = 4

	agg := newTestAggregator(capacity)

	// Push well past capacity, across several eviction batches.
	total := capacity*3 + 1
	for i := 0; i < total; i++ {
		_, err := agg.PushChunk(fmt.Sprintf("[%d]", i))
		require.NoError(t, err)
	}

	var want strings.Builder
	for i := total - capacity; i < total; i++ {
		fmt.Fprintf(&want, "[%d]", i)
	}

	assert.Equal(t, want.String(), agg.BufferedData())

	stats := agg.Stats()
	assert.Equal(t, capacity, stats.BufferSize)
	assert.Equal(t, total, stats.Chunks)
}

func TestComplete_TerminalChunk(t *testing.T) {
	agg := newTestAggregator(8)

	_, err := agg.PushChunk("a")
	require.NoError(t, err)
	_, err = agg.PushChunk("b")
	require.NoError(t, err)

	var summaries []Summary

	agg.OnComplete(func(s Summary) {
		summaries = append(summaries, s)
	})

	var finals []Chunk

	agg.OnChunk(func(c Chunk) {
		if c.Final {
			finals = append(finals, c)
		}
	})

	terminal := agg.Complete()

	assert.True(t, terminal.Final)
	assert.Empty(t, terminal.Data)
	assert.Equal(t, 2, terminal.Seq)

	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].Chunks)
	assert.Equal(t, "ab", summaries[0].Data)
	assert.GreaterOrEqual(t, summaries[0].Duration, time.Duration(0))

	require.Len(t, finals, 1)
}

func TestComplete_Idempotent(t *testing.T) {
	agg := newTestAggregator(8)

	notified := 0

	agg.OnComplete(func(Summary) {
		notified++
	})

	first := agg.Complete()
	second := agg.Complete()

	assert.True(t, first.Final)
	assert.True(t, second.Final)
	assert.Equal(t, 1, notified)
}

func TestFail_NotifiesErrorObservers(t *testing.T) {
	agg := newTestAggregator(8)

	_, err := agg.PushChunk("partial")
	require.NoError(t, err)

	var gotErr error

	var gotSummary Summary

	agg.OnError(func(e error, s Summary) {
		gotErr = e
		gotSummary = s
	})

	failure := errors.New("process killed")
	agg.Fail(failure)

	assert.Equal(t, failure, gotErr)
	assert.Equal(t, 1, gotSummary.Chunks)

	// Fail is terminal: later completes must not notify.
	completed := 0

	agg.OnComplete(func(Summary) {
		completed++
	})

	agg.Complete()
	assert.Equal(t, 0, completed)
}

func TestStats_Snapshot(t *testing.T) {
	agg := newTestAggregator(8)

	_, err := agg.PushChunk("hello")
	require.NoError(t, err)

	stats := agg.Stats()
	assert.Equal(t, "test-stream", stats.StreamID)
	assert.Equal(t, 1, stats.Chunks)
	assert.False(t, stats.Completed)
	assert.Equal(t, 1, stats.BufferSize)
	assert.Equal(t, len("hello"), stats.BufferedBytes)

	agg.Complete()
	assert.True(t, agg.Stats().Completed)
}

func TestNewAggregator_ClampsCapacity(t *testing.T) {
	agg := NewAggregator(nopLogger(), "s", 0)

	_, err := agg.PushChunk("x")
	require.NoError(t, err)
	_, err = agg.PushChunk("y")
	require.NoError(t, err)

	assert.Equal(t, "y", agg.BufferedData())
}
