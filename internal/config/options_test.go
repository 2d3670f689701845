package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_FillsDefaults(t *testing.T) {
	opts := (&Options{}).Normalize()

	assert.Equal(t, DefaultToolName, opts.ToolName)
	assert.Equal(t, 30*time.Second, opts.DefaultTimeout)
	assert.Equal(t, 10, opts.MaxConcurrentSessions)
	assert.Equal(t, 1024, opts.StreamBufferCapacity)
	assert.Equal(t, 60*time.Second, opts.SessionCleanupInterval)
	assert.Equal(t, 300*time.Second, opts.MaxSessionIdleTime)
	assert.False(t, opts.Streaming)
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	opts := (&Options{
		ToolName:              "other-tool",
		DefaultTimeout:        time.Second,
		MaxConcurrentSessions: 2,
		StreamBufferCapacity:  16,
	}).Normalize()

	assert.Equal(t, "other-tool", opts.ToolName)
	assert.Equal(t, time.Second, opts.DefaultTimeout)
	assert.Equal(t, 2, opts.MaxConcurrentSessions)
	assert.Equal(t, 16, opts.StreamBufferCapacity)
}

func TestNormalize_NilReceiver(t *testing.T) {
	var opts *Options

	normalized := opts.Normalize()
	assert.NotNil(t, normalized)
	assert.Equal(t, DefaultToolName, normalized.ToolName)
}
