package agentrunner

import (
	"log/slog"

	"github.com/wagiedev/agent-runner-go/internal/stream"
)

// StreamAggregator buffers and sequences streaming output chunks, tracks
// statistics, and exposes chunk, completion, and error notifications to any
// number of subscribers.
//
// The orchestrator wires one aggregator into every streaming execution, but
// aggregators are also usable independently, for example by UI or logging
// layers sequencing their own output:
//
//	agg := agentrunner.NewStreamAggregator(nil, "ui-log", 256)
//	agg.OnChunk(func(c agentrunner.StreamChunk) {
//	    render(c.Data)
//	})
//	agg.OnComplete(func(s agentrunner.StreamSummary) {
//	    fmt.Printf("done: %d chunks in %s\n", s.Chunks, s.Duration)
//	})
type StreamAggregator = stream.Aggregator

// NewStreamAggregator creates an aggregator for one stream. A nil logger
// disables logging; capacity bounds the most-recent-history buffer.
func NewStreamAggregator(log *slog.Logger, id string, capacity int) *StreamAggregator {
	if log == nil {
		log = NopLogger()
	}

	return stream.NewAggregator(log, id, capacity)
}
