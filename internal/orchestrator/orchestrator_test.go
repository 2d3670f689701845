package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/agent-runner-go/internal/config"
	"github.com/wagiedev/agent-runner-go/internal/errors"
	"github.com/wagiedev/agent-runner-go/internal/runner"
	"github.com/wagiedev/agent-runner-go/internal/session"
	"github.com/wagiedev/agent-runner-go/internal/stream"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, mutate ...func(*config.Options)) *Orchestrator {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Tests require a Unix shell")
	}

	opts := (&config.Options{SkipVersionCheck: true}).Normalize()
	for _, fn := range mutate {
		fn(opts)
	}

	o := New(nopLogger(), opts)

	t.Cleanup(func() {
		_ = o.Cleanup()
	})

	return o
}

func shell(script string) runner.Command {
	return runner.Command{Executable: "sh", Args: []string{"-c", script}}
}

func TestCreateSession_Defaults(t *testing.T) {
	o := newTestOrchestrator(t)

	id, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
	assert.Equal(t, []string{"s1"}, o.ActiveSessions())
}

func TestCreateSession_GeneratedID(t *testing.T) {
	o := newTestOrchestrator(t)

	id, err := o.CreateSession("", config.SessionConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestCreateSession_StreamingConfig(t *testing.T) {
	o := newTestOrchestrator(t, func(opts *config.Options) {
		opts.Streaming = true
	})

	// Unset inherits the process-wide default.
	inherited, err := o.CreateSession("inherited", config.SessionConfig{})
	require.NoError(t, err)

	sess, err := o.lookup(inherited)
	require.NoError(t, err)
	require.NotNil(t, sess.Config().Streaming)
	assert.True(t, *sess.Config().Streaming)

	// An explicit false survives a default of true.
	streaming := false

	explicit, err := o.CreateSession("explicit", config.SessionConfig{Streaming: &streaming})
	require.NoError(t, err)

	sess, err = o.lookup(explicit)
	require.NoError(t, err)
	require.NotNil(t, sess.Config().Streaming)
	assert.False(t, *sess.Config().Streaming)
}

func TestCreateSession_Duplicate(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)

	_, err = o.CreateSession("s1", config.SessionConfig{})

	var dup *errors.DuplicateSessionError

	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "s1", dup.ID)
	assert.Len(t, o.ActiveSessions(), 1)
}

func TestCreateSession_Capacity(t *testing.T) {
	o := newTestOrchestrator(t, func(opts *config.Options) {
		opts.MaxConcurrentSessions = 3
	})

	for i := 0; i < 3; i++ {
		_, err := o.CreateSession(fmt.Sprintf("s%d", i), config.SessionConfig{})
		require.NoError(t, err)
	}

	_, err := o.CreateSession("overflow", config.SessionConfig{})

	var capErr *errors.CapacityError

	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 3, capErr.Limit)
}

func TestCreateSession_IDReusableAfterDestroy(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)
	require.NoError(t, o.DestroySession("s1"))

	_, err = o.CreateSession("s1", config.SessionConfig{})
	assert.NoError(t, err)
}

func TestDestroySession_Unknown(t *testing.T) {
	o := newTestOrchestrator(t)

	err := o.DestroySession("nope")

	var notFound *errors.NotFoundError

	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "session", notFound.Kind)
}

func TestDestroySession_RemovesFromActive(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)

	require.NoError(t, o.DestroySession("s1"))
	assert.Empty(t, o.ActiveSessions())
}

func TestExecute_Direct(t *testing.T) {
	o := newTestOrchestrator(t)

	result, err := o.Execute(context.Background(), shell("echo direct"), nil)
	require.NoError(t, err)
	assert.Equal(t, "direct\n", result.Stdout)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExecute_DirectSkipsSessionBookkeeping(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)

	_, err = o.Execute(context.Background(), shell("true"), nil)
	require.NoError(t, err)

	stats, err := o.SessionStats("s1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Executions)
}

func TestExecute_ThroughSession(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{
		Env: map[string]string{"GREETING": "hi"},
	})
	require.NoError(t, err)

	result, err := o.Execute(context.Background(), shell(`echo "$GREETING"`), &ExecOptions{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", result.Stdout)

	stats, err := o.SessionStats("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Executions)
}

func TestExecute_UnknownSession(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.Execute(context.Background(), shell("true"), &ExecOptions{SessionID: "ghost"})

	var notFound *errors.NotFoundError

	require.ErrorAs(t, err, &notFound)
}

func TestExecute_SessionTimeoutPrecedence(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	// The session default (5s) lets a short command finish.
	_, err = o.Execute(context.Background(), shell("sleep 0.05"), &ExecOptions{SessionID: "s1"})
	require.NoError(t, err)

	// An explicit option timeout (100ms) overrides the session default.
	_, err = o.Execute(context.Background(), shell("sleep 10"), &ExecOptions{
		SessionID:   "s1",
		ExecOptions: session.ExecOptions{Timeout: 100 * time.Millisecond},
	})

	var timeoutErr *errors.TimeoutError

	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 100*time.Millisecond, timeoutErr.Timeout)
}

func TestExecuteStream_OrderedChunks(t *testing.T) {
	o := newTestOrchestrator(t)

	var chunks []stream.Chunk

	cmd := shell("printf a; sleep 0.05; printf b; sleep 0.05; printf c")

	result, err := o.ExecuteStream(context.Background(), cmd, func(c stream.Chunk) {
		chunks = append(chunks, c)
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", result.Stdout)

	require.Len(t, chunks, 4) // three data chunks plus the terminal chunk

	for i, c := range chunks[:3] {
		assert.Equal(t, i, c.Seq)
		assert.Equal(t, string(rune('a'+i)), c.Data)
		assert.False(t, c.Final)
	}

	terminal := chunks[3]
	assert.True(t, terminal.Final)
	assert.Empty(t, terminal.Data)
}

func TestExecuteStream_SessionScoped(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)

	var streamID string

	_, err = o.ExecuteStream(context.Background(), shell("printf x"), func(c stream.Chunk) {
		streamID = c.StreamID
	}, &ExecOptions{SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "s1", streamID)

	stats, err := o.SessionStats("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Executions)
}

func TestExecuteStream_TimeoutReturnsFailure(t *testing.T) {
	o := newTestOrchestrator(t)

	cmd := shell("sleep 10")

	_, err := o.ExecuteStream(context.Background(), cmd, nil, &ExecOptions{
		ExecOptions: session.ExecOptions{Timeout: 100 * time.Millisecond},
	})

	var timeoutErr *errors.TimeoutError

	require.ErrorAs(t, err, &timeoutErr)
}

func TestIdleEviction(t *testing.T) {
	o := newTestOrchestrator(t, func(opts *config.Options) {
		opts.SessionCleanupInterval = 50 * time.Millisecond
		opts.MaxSessionIdleTime = 100 * time.Millisecond
	})

	_, err := o.CreateSession("idle", config.SessionConfig{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(o.ActiveSessions()) == 0
	}, 2*time.Second, 25*time.Millisecond)
}

func TestIdleEviction_ActiveSessionSurvives(t *testing.T) {
	o := newTestOrchestrator(t, func(opts *config.Options) {
		opts.SessionCleanupInterval = 50 * time.Millisecond
		opts.MaxSessionIdleTime = 10 * time.Minute
	})

	_, err := o.CreateSession("busy", config.SessionConfig{})
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"busy"}, o.ActiveSessions())
}

func TestCleanup_Idempotent(t *testing.T) {
	opts := (&config.Options{SkipVersionCheck: true}).Normalize()
	o := New(nopLogger(), opts)

	_, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)

	require.NoError(t, o.Cleanup())
	require.NoError(t, o.Cleanup())

	assert.Empty(t, o.ActiveSessions())

	_, err = o.Execute(context.Background(), shell("true"), nil)
	assert.ErrorIs(t, err, errors.ErrOrchestratorClosed)

	_, err = o.CreateSession("s2", config.SessionConfig{})
	assert.ErrorIs(t, err, errors.ErrOrchestratorClosed)
}

func TestUpdateSessionConfig(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.CreateSession("s1", config.SessionConfig{})
	require.NoError(t, err)

	newTimeout := 100 * time.Millisecond
	require.NoError(t, o.UpdateSessionConfig("s1", config.SessionConfigUpdate{Timeout: &newTimeout}))

	_, err = o.Execute(context.Background(), shell("sleep 10"), &ExecOptions{SessionID: "s1"})

	var timeoutErr *errors.TimeoutError

	require.ErrorAs(t, err, &timeoutErr)
}
