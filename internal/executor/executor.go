// Package executor runs compiled or interpreted programs against test input
// under a wall-clock time limit, with cooperative cancellation and
// whole-process-tree reclamation.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"localjudge/internal/language"
	"localjudge/internal/monitor"
)

// DefaultTimeLimit is used when no limit was configured.
const DefaultTimeLimit = 3 * time.Second

// waitDelay bounds how long Wait blocks on lingering pipe readers after the
// process group was killed (grandchildren may still hold the stream fds).
const waitDelay = 5 * time.Second

// Result is the normalized outcome of one process run.
type Result struct {
	Stdout string
	Stderr string
	// ExitCode is the process exit code, or -1 when unknown (signal kill,
	// spawn failure).
	ExitCode int
	// Signal is the OS-reported termination signal name, "" if none.
	Signal string
	// Elapsed is wall-clock time from spawn to completion. Always set,
	// even on spawn failure or force kill.
	Elapsed time.Duration
	// TimedOut is true when the time limit expired and the process tree
	// was killed.
	TimedOut bool
	// Aborted is true when the caller's cancellation fired. Not an error.
	Aborted bool
}

// Executor spawns run commands resolved through the language registry. It
// owns the tunable time limit applied to every execution.
type Executor struct {
	registry *language.Registry
	metrics  *monitor.Metrics

	mu        sync.RWMutex
	timeLimit time.Duration
}

// New creates an Executor. metrics may be nil.
func New(registry *language.Registry, timeLimit time.Duration, metrics *monitor.Metrics) *Executor {
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	return &Executor{
		registry:  registry,
		timeLimit: timeLimit,
		metrics:   metrics,
	}
}

// TimeLimit returns the current per-execution wall-clock limit.
func (e *Executor) TimeLimit() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.timeLimit
}

// SetTimeLimit changes the limit for subsequent executions. In-flight
// executions keep the limit they started with.
func (e *Executor) SetTimeLimit(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	e.timeLimit = d
	e.mu.Unlock()
}

// Execute runs the program for sourcePath with input fed on stdin.
// languageID may be empty, in which case the language is detected from the
// path; if no language matches, sourcePath is treated as a directly
// executable binary. Cancellation of ctx aborts the run.
func (e *Executor) Execute(ctx context.Context, sourcePath, outputDir, input, languageID string) Result {
	return e.run(ctx, sourcePath, outputDir, languageID, bytes.NewReader([]byte(input)))
}

// ExecuteFile is the streaming variant of Execute: the file at inputPath is
// piped into the process without buffering it in memory.
func (e *Executor) ExecuteFile(ctx context.Context, sourcePath, outputDir, inputPath, languageID string) Result {
	f, err := os.Open(inputPath)
	if err != nil {
		return Result{
			ExitCode: -1,
			Stderr:   fmt.Sprintf("opening input file: %v", err),
		}
	}
	defer f.Close()
	return e.run(ctx, sourcePath, outputDir, languageID, f)
}

func (e *Executor) run(ctx context.Context, sourcePath, outputDir, languageID string, input io.Reader) Result {
	// A cancellation that already fired must not spawn anything.
	if ctx.Err() != nil {
		return Result{ExitCode: -1, Aborted: true}
	}

	cmd := e.resolveCommand(sourcePath, outputDir, languageID)
	limit := e.TimeLimit()

	execCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	start := time.Now()

	proc := exec.CommandContext(execCtx, cmd.Path, cmd.Args...)
	proc.Dir = filepath.Dir(sourcePath)
	proc.Stdin = input
	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr
	setProcessGroup(proc)

	// On timeout or cancellation the whole process group goes, not just
	// the direct child: user programs may fork helpers that would
	// otherwise outlive the kill.
	proc.Cancel = func() error {
		return terminateTree(proc.Process)
	}
	proc.WaitDelay = waitDelay

	if err := proc.Start(); err != nil {
		return Result{
			ExitCode: -1,
			Stderr:   fmt.Sprintf("failed to start process: %v", err),
			Elapsed:  time.Since(start),
		}
	}

	e.metrics.ExecutionStarted()
	waitErr := proc.Wait()
	e.metrics.ExecutionEnded()

	elapsed := time.Since(start)
	aborted := ctx.Err() != nil
	timedOut := !aborted && errors.Is(execCtx.Err(), context.DeadlineExceeded)

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Elapsed:  elapsed,
		TimedOut: timedOut,
		Aborted:  aborted,
	}
	if proc.ProcessState != nil {
		res.ExitCode = proc.ProcessState.ExitCode()
		res.Signal = terminationSignal(proc.ProcessState)
	}

	// A wait failure without process state means the run broke below the
	// process level. Under cancellation that is expected and stays silent;
	// otherwise it is worth surfacing.
	if waitErr != nil && proc.ProcessState == nil && !aborted {
		res.Stderr = fmt.Sprintf("process wait failed: %v", waitErr)
	}

	log.Debug().
		Str("source", sourcePath).
		Int("exit_code", res.ExitCode).
		Str("signal", res.Signal).
		Bool("timed_out", res.TimedOut).
		Bool("aborted", res.Aborted).
		Dur("elapsed", elapsed).
		Msg("execution finished")

	return res
}

// resolveCommand builds the run invocation. Unknown files fall back to being
// executed directly, which covers pre-built binaries handed to the judge.
func (e *Executor) resolveCommand(sourcePath, outputDir, languageID string) language.Command {
	var desc *language.Descriptor
	var ok bool
	if languageID != "" {
		desc, ok = e.registry.ByID(languageID)
	}
	if !ok {
		desc, ok = e.registry.DetectByPath(sourcePath)
	}
	if !ok {
		return language.Command{Path: sourcePath}
	}
	return desc.RunCommand(sourcePath, outputDir)
}
