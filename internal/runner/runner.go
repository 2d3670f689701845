package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/agent-runner-go/internal/config"
	"github.com/wagiedev/agent-runner-go/internal/errors"
	"github.com/wagiedev/agent-runner-go/internal/tool"
)

const (
	// readBufferSize is the size of each stdout read. Every read becomes
	// one streaming chunk in streaming mode.
	readBufferSize = 4096

	// maxStderrBufferSize caps the accumulated stderr transcript.
	// Stderr reading continues past the cap (callbacks still fire),
	// but the buffer stops growing to prevent unbounded memory usage.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
)

// Command is one execution request. It is immutable once submitted: the
// runner never mutates it and copies what it needs.
type Command struct {
	// Executable is the program name or path. Required.
	Executable string

	// Args are the program arguments.
	Args []string

	// WorkingDir overrides the runner's default working directory.
	WorkingDir string

	// Env entries override the runner's environment for this command.
	Env map[string]string

	// Timeout overrides the runner's default timeout. Zero means default.
	Timeout time.Duration
}

// ExecutionResult is the outcome of one completed command. Created exactly
// once per execution, immutable thereafter.
type ExecutionResult struct {
	// ID is the generated execution identifier.
	ID string

	// Stdout is the concatenated standard output.
	Stdout string

	// Stderr is the concatenated standard error, empty if none was produced.
	Stderr string

	// ExitCode is the process exit code, 0 on normal success.
	ExitCode int

	// Duration is the wall-clock time from spawn to exit.
	Duration time.Duration

	// CompletedAt records when the execution finished.
	CompletedAt time.Time
}

// ChunkFunc receives raw stdout fragments as they arrive in streaming mode.
type ChunkFunc func(data string)

// Handle represents one live subprocess registered with the runner. Its
// pipes are drained and the process reaped in the background, so the
// registry entry disappears on its own once the process exits.
type Handle struct {
	// ID is the execution identifier the process is registered under.
	ID string

	// Pid is the operating-system process identifier.
	Pid int

	cmd     *exec.Cmd
	started time.Time

	// done receives the Wait result exactly once, after both pipes are
	// drained and the registry entry has been removed.
	done chan error
}

// Runner spawns subprocesses for commands and produces execution results,
// blocking or streaming. It keeps a registry of live processes so they can
// be signalled individually or torn down together.
type Runner struct {
	log  *slog.Logger
	opts *config.Options
	disc tool.Discoverer

	mu    sync.RWMutex
	procs map[string]*Handle
}

// New creates a runner with the given (normalized) options.
func New(log *slog.Logger, opts *config.Options) *Runner {
	return &Runner{
		log:  log.With("component", "process_runner"),
		opts: opts,
		disc: tool.NewDiscoverer(&tool.Config{
			Name:   opts.ToolName,
			Path:   opts.ToolPath,
			Logger: log,
		}),
		procs: make(map[string]*Handle),
	}
}

// Spawn launches a subprocess for the command and registers it in the
// live-process registry. Output is drained in the background and the
// registry entry is removed automatically when the process exits; until
// then the process can be signalled through Kill.
//
// Returns a SpawnError if the executable cannot be found or the operating
// system refuses to create the process.
func (r *Runner) Spawn(_ context.Context, command Command) (*Handle, error) {
	return r.spawn(command, nil, nil)
}

// spawn starts the process, registers it, and arranges background draining
// and reaping. Every stdout read goes to onStdout and every stderr read to
// onStderr when non-nil; the configured stderr callback fires regardless.
func (r *Runner) spawn(command Command, onStdout, onStderr func(string)) (*Handle, error) {
	if command.Executable == "" {
		return nil, &errors.SpawnError{Executable: "", Err: errors.ErrEmptyExecutable}
	}

	//nolint:gosec // G204: subprocess launching with dynamic args is the point of this package
	cmd := exec.Command(command.Executable, command.Args...)

	cmd.Dir = command.WorkingDir
	if cmd.Dir == "" {
		cmd.Dir = r.opts.DefaultWorkingDir
	}

	cmd.Env = mergeEnv(r.opts.Env, command.Env)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &errors.SpawnError{Executable: command.Executable, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &errors.SpawnError{Executable: command.Executable, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return nil, &errors.SpawnError{Executable: command.Executable, Err: err}
	}

	handle := &Handle{
		ID:      ulid.Make().String(),
		Pid:     cmd.Process.Pid,
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan error, 1),
	}

	r.mu.Lock()
	r.procs[handle.ID] = handle
	r.mu.Unlock()

	var drains errgroup.Group

	drains.Go(func() error {
		buf := make([]byte, readBufferSize)

		for {
			n, readErr := stdout.Read(buf)
			if n > 0 && onStdout != nil {
				onStdout(string(buf[:n]))
			}

			if readErr != nil {
				return nil
			}
		}
	})

	drains.Go(func() error {
		buf := make([]byte, readBufferSize)

		for {
			n, readErr := stderr.Read(buf)
			if n > 0 {
				data := string(buf[:n])

				if r.opts.Stderr != nil {
					r.opts.Stderr(data)
				}

				if onStderr != nil {
					onStderr(data)
				}
			}

			if readErr != nil {
				return nil
			}
		}
	})

	// Pipe drains must complete before Wait per the os/exec contract. The
	// reaper deregisters before publishing the result so the registry never
	// reports a process that has already been reaped.
	go func() {
		_ = drains.Wait()
		waitErr := handle.cmd.Wait()
		r.deregister(handle.ID)
		handle.done <- waitErr
	}()

	r.log.Debug("Spawned subprocess",
		"execution_id", handle.ID,
		"pid", handle.Pid,
		"executable", command.Executable,
	)

	return handle, nil
}

// Execute spawns the command, drains stdout and stderr concurrently, and
// returns the consolidated result once the process exits.
//
// If the command's timeout (or the runner default) elapses first, the
// process is killed and a TimeoutError is returned; partial output is
// discarded. A non-zero exit code is a successful result, reported through
// ExecutionResult.ExitCode.
func (r *Runner) Execute(ctx context.Context, command Command) (*ExecutionResult, error) {
	return r.run(ctx, command, nil)
}

// ExecuteStream behaves like Execute, additionally forwarding every stdout
// read to onChunk synchronously as it arrives. Stderr is accumulated only,
// not streamed. Once a timeout fires, no further chunks are delivered even
// if the process produces output before it actually dies.
func (r *Runner) ExecuteStream(ctx context.Context, command Command, onChunk ChunkFunc) (*ExecutionResult, error) {
	return r.run(ctx, command, onChunk)
}

func (r *Runner) run(ctx context.Context, command Command, onChunk ChunkFunc) (*ExecutionResult, error) {
	var stdoutBuf strings.Builder

	var stderrBuf strings.Builder

	// Set before the kill signal so no chunk produced after a timeout or
	// cancellation reaches the caller.
	var suppressed atomic.Bool

	onStdout := func(data string) {
		stdoutBuf.WriteString(data)

		if onChunk != nil && !suppressed.Load() {
			onChunk(data)
		}
	}

	onStderr := func(data string) {
		if stderrBuf.Len() < maxStderrBufferSize {
			stderrBuf.WriteString(data)
		}
	}

	handle, err := r.spawn(command, onStdout, onStderr)
	if err != nil {
		return nil, err
	}

	timeout := command.Timeout
	if timeout <= 0 {
		timeout = r.opts.DefaultTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Single race between process exit, the timeout timer, and caller
	// cancellation: exactly one wins and the losers' effects are suppressed.
	select {
	case waitErr := <-handle.done:
		return r.buildResult(handle, command, waitErr, &stdoutBuf, &stderrBuf)

	case <-timer.C:
		suppressed.Store(true)
		r.log.Warn("Execution timed out, killing process",
			"execution_id", handle.ID,
			"timeout", timeout,
		)

		r.killAndReap(handle)

		return nil, &errors.TimeoutError{Executable: command.Executable, Timeout: timeout}

	case <-ctx.Done():
		suppressed.Store(true)
		r.log.Debug("Context cancelled, killing process", "execution_id", handle.ID)

		r.killAndReap(handle)

		return nil, ctx.Err()
	}
}

// killAndReap kills the process and waits for the background reaper, which
// removes the registry entry before publishing its result.
func (r *Runner) killAndReap(handle *Handle) {
	if handle.cmd.Process != nil {
		_ = handle.cmd.Process.Kill()
	}

	<-handle.done
}

func (r *Runner) buildResult(
	handle *Handle,
	command Command,
	waitErr error,
	stdoutBuf, stderrBuf *strings.Builder,
) (*ExecutionResult, error) {
	completedAt := time.Now()
	duration := completedAt.Sub(handle.started)

	exitCode := 0

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(waitErr, &exitErr) {
			// Wait failed for a reason other than a non-zero exit
			// (I/O error, signal delivery problem).
			return nil, &errors.ProcessError{
				Stderr: stderrBuf.String(),
				Err:    waitErr,
			}
		}

		exitCode = exitErr.ExitCode()
	}

	r.log.Debug("Execution completed",
		"execution_id", handle.ID,
		"executable", command.Executable,
		"exit_code", exitCode,
		"duration", duration,
	)

	return &ExecutionResult{
		ID:          handle.ID,
		Stdout:      stdoutBuf.String(),
		Stderr:      stderrBuf.String(),
		ExitCode:    exitCode,
		Duration:    duration,
		CompletedAt: completedAt,
	}, nil
}

// Kill signals a registered live process and removes it from the registry.
// Returns a NotFoundError if the identifier is not currently registered.
func (r *Runner) Kill(id string, sig os.Signal) error {
	r.mu.Lock()

	handle, ok := r.procs[id]
	if ok {
		delete(r.procs, id)
	}

	r.mu.Unlock()

	if !ok {
		return &errors.NotFoundError{Kind: "process", ID: id}
	}

	r.log.Debug("Signalling process", "execution_id", id, "pid", handle.Pid, "signal", sig)

	if err := handle.cmd.Process.Signal(sig); err != nil {
		return &errors.ProcessError{Err: fmt.Errorf("signal process %d: %w", handle.Pid, err)}
	}

	return nil
}

// RunningProcesses returns a snapshot of currently registered execution
// identifiers. It does not block running executions.
func (r *Runner) RunningProcesses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.procs))
	for id := range r.procs {
		ids = append(ids, id)
	}

	return ids
}

// Cleanup kills and deregisters every currently registered process.
// Each kill is best-effort: individual failures are collected and joined,
// but do not abort the remaining kills.
func (r *Runner) Cleanup() error {
	r.mu.Lock()

	handles := make([]*Handle, 0, len(r.procs))
	for _, h := range r.procs {
		handles = append(handles, h)
	}

	r.procs = make(map[string]*Handle)

	r.mu.Unlock()

	var errs []error

	for _, h := range handles {
		r.log.Debug("Killing process during cleanup", "execution_id", h.ID, "pid", h.Pid)

		if err := h.cmd.Process.Kill(); err != nil {
			errs = append(errs, fmt.Errorf("kill process %d: %w", h.Pid, err))
		}
	}

	return stderrors.Join(errs...)
}

// IsAvailable reports whether the wrapped tool can be located (and, unless
// version checking is skipped, responds to a version probe). It never blocks
// longer than the internal probe timeout.
func (r *Runner) IsAvailable(ctx context.Context) bool {
	if _, err := r.disc.Discover(ctx); err != nil {
		return false
	}

	if r.opts.SkipVersionCheck {
		return true
	}

	_, err := r.disc.Version(ctx)

	return err == nil
}

// Version probes the wrapped tool for its version string.
func (r *Runner) Version(ctx context.Context) (string, error) {
	return r.disc.Version(ctx)
}

func (r *Runner) deregister(id string) {
	r.mu.Lock()
	delete(r.procs, id)
	r.mu.Unlock()
}

// mergeEnv layers command-level overrides on top of the runner defaults and
// the inherited process environment.
func mergeEnv(defaults, overrides map[string]string) []string {
	if len(defaults) == 0 && len(overrides) == 0 {
		return nil // inherit parent environment untouched
	}

	env := os.Environ()

	for k, v := range defaults {
		env = append(env, k+"="+v)
	}

	for k, v := range overrides {
		env = append(env, k+"="+v)
	}

	return env
}
