// Package agentrunner manages a command-line AI tool as a supervised
// subprocess, exposing blocking execution, chunked streaming, and multi-
// session semantics to Go applications.
//
// # Basic Usage
//
// Create an Orchestrator and execute commands directly:
//
//	o := agentrunner.New(
//	    agentrunner.WithDefaultTimeout(30*time.Second),
//	)
//	defer o.Cleanup()
//
//	result, err := o.Execute(ctx, agentrunner.Command{
//	    Executable: "claude",
//	    Args:       []string{"-p", "Summarize this repo"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Stdout)
//
// A non-zero exit code is a successful ExecutionResult: inspect
// result.ExitCode and result.Stderr. Errors are reserved for spawn failures,
// timeouts, and lifecycle violations.
//
// # Streaming
//
// ExecuteStream delivers output incrementally while still producing the
// consolidated result:
//
//	result, err := o.ExecuteStream(ctx, cmd, func(c agentrunner.StreamChunk) {
//	    if !c.Final {
//	        fmt.Print(c.Data)
//	    }
//	})
//
// Chunks carry strictly increasing, gapless sequence numbers; the terminal
// chunk has Final set and an empty payload. A streaming call that times out
// stops delivering chunks and returns a TimeoutError, never a success with
// partial data.
//
// # Sessions
//
// Sessions bind a working directory, environment, and timeout across
// multiple commands and track usage statistics:
//
//	id, err := o.CreateSession("review", agentrunner.SessionConfig{
//	    WorkingDir: "/src/project",
//	    Timeout:    5 * time.Second,
//	})
//	result, err = o.Execute(ctx, cmd, agentrunner.WithSession(id))
//
// Per-call options take precedence over command fields, which take
// precedence over session defaults. Sessions idle past the configured
// threshold are evicted automatically.
//
// # Logging
//
// Logging is disabled by default. For operation tracking, pass a logger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	o := agentrunner.New(agentrunner.WithLogger(logger))
//
// # Error Handling
//
// Typed errors distinguish failure scenarios:
//
//	result, err := o.Execute(ctx, cmd)
//	if err != nil {
//	    var timeoutErr *agentrunner.TimeoutError
//	    if errors.As(err, &timeoutErr) {
//	        log.Fatalf("timed out after %s", timeoutErr.Timeout)
//	    }
//	    var spawnErr *agentrunner.SpawnError
//	    if errors.As(err, &spawnErr) {
//	        log.Fatalf("could not launch %q: %v", spawnErr.Executable, spawnErr)
//	    }
//	    log.Fatal(err)
//	}
//
// # Requirements
//
// Availability and version probes (IsAvailable, Version) expect the wrapped
// tool to be installed in PATH or at the path given via WithToolPath.
// Execution itself works with any executable reachable through the host's
// standard search mechanism.
package agentrunner
