package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnError_Unwrap(t *testing.T) {
	inner := errors.New("exec: not found")
	err := &SpawnError{Executable: "claude", Err: inner}

	assert.Contains(t, err.Error(), "claude")
	assert.ErrorIs(t, err, inner)
}

func TestSpawnError_WrappedThroughFmt(t *testing.T) {
	spawnErr := &SpawnError{Executable: "claude", Err: errors.New("permission denied")}
	wrapped := fmt.Errorf("execute command: %w", spawnErr)

	var target *SpawnError

	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "claude", target.Executable)
}

func TestTimeoutError_Message(t *testing.T) {
	err := &TimeoutError{Executable: "claude", Timeout: 5 * time.Second}

	assert.Contains(t, err.Error(), "5s")
	assert.Contains(t, err.Error(), "claude")
}

func TestProcessError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *ProcessError
		want string
	}{
		{
			name: "with wrapped error",
			err:  &ProcessError{ExitCode: 1, Err: errors.New("signal: killed")},
			want: "process failed (exit 1): signal: killed",
		},
		{
			name: "with stderr only",
			err:  &ProcessError{ExitCode: 2, Stderr: "bad flag"},
			want: "process failed (exit 2): bad flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNotFoundError_Kinds(t *testing.T) {
	sessionErr := &NotFoundError{Kind: "session", ID: "s1"}
	processErr := &NotFoundError{Kind: "process", ID: "p1"}

	assert.Equal(t, `session "s1" not found`, sessionErr.Error())
	assert.Equal(t, `process "p1" not found`, processErr.Error())
}

func TestRunnerError_Interface(t *testing.T) {
	errs := []RunnerError{
		&ToolNotFoundError{Tool: "claude"},
		&SpawnError{Executable: "x"},
		&TimeoutError{Executable: "x"},
		&ProcessError{},
		&NotFoundError{Kind: "session", ID: "x"},
		&DuplicateSessionError{ID: "x"},
		&CapacityError{Limit: 10},
		&InactiveSessionError{ID: "x"},
	}

	for _, err := range errs {
		assert.True(t, err.IsRunnerError())
		assert.NotEmpty(t, err.Error())
	}
}
