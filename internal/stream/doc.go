// Package stream buffers and sequences the incremental output of one
// streaming execution.
//
// An Aggregator assigns gapless, strictly increasing sequence numbers to
// output fragments, retains a bounded most-recent-history buffer, and
// notifies registered chunk, completion, and error observers in order.
// The buffer is lossy by design: once capacity is exceeded, the oldest
// fragments are dropped and only recent history remains readable.
package stream
