// Package judge orchestrates compilation and execution of a solution over a
// set of test cases and turns raw process outcomes into verdicts.
package judge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"localjudge/internal/compiler"
	"localjudge/internal/executor"
	"localjudge/internal/language"
	"localjudge/internal/monitor"
	"localjudge/internal/testcase"
	"localjudge/pkg/exitstatus"
)

// ExecMode selects how a batch of test cases is scheduled.
type ExecMode string

const (
	// ModeSequential runs cases in order and reports results at the end.
	ModeSequential ExecMode = "sequential"
	// ModeSequentialLive runs cases in order, delivering each result
	// through the callback as soon as it is judged.
	ModeSequentialLive ExecMode = "sequential_live"
	// ModeParallel runs cases concurrently. Results keep test order.
	ModeParallel ExecMode = "parallel"
)

// ValidExecMode reports whether s names a known execution mode.
func ValidExecMode(s string) bool {
	switch ExecMode(s) {
	case ModeSequential, ModeSequentialLive, ModeParallel:
		return true
	}
	return false
}

// Compiler is the slice of the compiler the judge needs.
type Compiler interface {
	Compile(ctx context.Context, sourcePath string) compiler.Result
	ClearCache()
}

// Executor is the slice of the executor the judge needs.
type Executor interface {
	Execute(ctx context.Context, sourcePath, outputDir, input, languageID string) executor.Result
	SetTimeLimit(d time.Duration)
	TimeLimit() time.Duration
}

// ResultFunc receives per-case results during live judging. The index is the
// position of the case in the submitted batch. Under parallel mode the
// callback fires as each case completes, from multiple goroutines, in
// completion order.
type ResultFunc func(index int, result TestResult)

// Judge ties the registry, compiler and executor together and owns the
// comparison and scheduling settings.
type Judge struct {
	registry *language.Registry
	compiler Compiler
	executor Executor
	metrics  *monitor.Metrics
	tracer   *monitor.Tracer

	mu       sync.RWMutex
	compare  CompareMode
	execMode ExecMode
}

// New creates a Judge with trim comparison and sequential scheduling.
// metrics and tracer may be nil.
func New(registry *language.Registry, c Compiler, e Executor, metrics *monitor.Metrics, tracer *monitor.Tracer) *Judge {
	return &Judge{
		registry: registry,
		compiler: c,
		executor: e,
		metrics:  metrics,
		tracer:   tracer,
		compare:  CompareTrim,
		execMode: ModeSequential,
	}
}

// SetComparisonMode changes how outputs are matched for subsequent batches.
func (j *Judge) SetComparisonMode(mode CompareMode) {
	j.mu.Lock()
	j.compare = mode
	j.mu.Unlock()
}

// ComparisonMode returns the current comparison mode.
func (j *Judge) ComparisonMode() CompareMode {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.compare
}

// SetExecMode changes the scheduling mode for subsequent batches.
func (j *Judge) SetExecMode(mode ExecMode) {
	j.mu.Lock()
	j.execMode = mode
	j.mu.Unlock()
}

// SetTimeLimit forwards to the executor.
func (j *Judge) SetTimeLimit(d time.Duration) {
	j.executor.SetTimeLimit(d)
}

// ClearCache drops all cached compilation artifacts.
func (j *Judge) ClearCache() {
	j.compiler.ClearCache()
}

// JudgeAll compiles sourcePath once and judges it against every test case.
// onResult may be nil; in live mode it receives each result as it lands.
// Compilation failure fans out as one CE result per case without running
// anything. Cancellation marks the remaining cases STOPPED.
func (j *Judge) JudgeAll(ctx context.Context, sourcePath string, cases []testcase.TestCase, onResult ResultFunc) RunResult {
	start := time.Now()
	runID := uuid.NewString()

	languageID := ""
	if desc, ok := j.registry.DetectByPath(sourcePath); ok {
		languageID = desc.ID
	}

	ctx, span := j.tracer.StartSpan(ctx, "batch",
		monitor.AttrRunID(runID),
		monitor.AttrSource(sourcePath),
		monitor.AttrLanguage(languageID),
		monitor.AttrTestCount(len(cases)),
	)
	defer span.End()

	run := RunResult{
		RunID:    runID,
		Source:   sourcePath,
		Language: languageID,
		Results:  make([]TestResult, len(cases)),
	}

	// Cancelled before anything ran: every case reports stopped, no
	// compiler or executor process is spawned.
	if ctx.Err() != nil {
		for i := range cases {
			run.Results[i] = TestResult{TestCaseID: cases[i].ID, Verdict: VerdictStopped, ExitCode: -1}
			if onResult != nil {
				onResult(i, run.Results[i])
			}
		}
		run.Verdict = VerdictStopped
		run.Elapsed = time.Since(start)
		span.SetAttributes(monitor.AttrVerdict(string(run.Verdict)))
		return run
	}

	comp := j.compiler.Compile(ctx, sourcePath)
	run.Compiled = comp.Success
	run.Cached = comp.Cached
	if !comp.Success {
		verdict := VerdictCompileError
		switch {
		case comp.Aborted:
			verdict = VerdictStopped
		case comp.Kind != compiler.FailCompile:
			verdict = VerdictInternal
		}
		for i := range cases {
			run.Results[i] = TestResult{
				TestCaseID: cases[i].ID,
				Verdict:    verdict,
				ExitCode:   -1,
				Message:    comp.Error,
			}
			if onResult != nil {
				onResult(i, run.Results[i])
			}
			j.recordVerdict(languageID, verdict, 0)
		}
		run.Verdict = Summarize(run.Results)
		run.Elapsed = time.Since(start)
		span.SetAttributes(monitor.AttrVerdict(string(run.Verdict)))
		if !comp.Aborted {
			log.Warn().
				Str("run_id", runID).
				Str("source", sourcePath).
				Str("kind", string(comp.Kind)).
				Msg("judge batch failed before execution")
		}
		return run
	}

	mode := j.currentExecMode()
	cmp := j.ComparisonMode()

	switch mode {
	case ModeParallel:
		var wg sync.WaitGroup
		for i := range cases {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res := j.judgeOne(ctx, sourcePath, comp.OutputDir, languageID, cmp, cases[i])
				run.Results[i] = res
				if onResult != nil {
					onResult(i, res)
				}
			}(i)
		}
		wg.Wait()
	default:
		live := mode == ModeSequentialLive && onResult != nil
		for i := range cases {
			run.Results[i] = j.judgeOne(ctx, sourcePath, comp.OutputDir, languageID, cmp, cases[i])
			if live {
				onResult(i, run.Results[i])
			}
		}
		if !live && onResult != nil {
			for i := range run.Results {
				onResult(i, run.Results[i])
			}
		}
	}

	run.Verdict = Summarize(run.Results)
	run.Elapsed = time.Since(start)
	span.SetAttributes(monitor.AttrVerdict(string(run.Verdict)), monitor.AttrCached(run.Cached))

	log.Info().
		Str("run_id", runID).
		Str("source", sourcePath).
		Str("language", languageID).
		Str("verdict", string(run.Verdict)).
		Int("tests", len(cases)).
		Dur("elapsed", run.Elapsed).
		Msg("judge batch finished")

	return run
}

// JudgeTestCase compiles (normally a cache hit) and judges a single case.
func (j *Judge) JudgeTestCase(ctx context.Context, sourcePath string, tc testcase.TestCase) TestResult {
	if ctx.Err() != nil {
		return TestResult{TestCaseID: tc.ID, Verdict: VerdictStopped, ExitCode: -1}
	}
	comp := j.compiler.Compile(ctx, sourcePath)
	if !comp.Success {
		if comp.Aborted {
			return TestResult{TestCaseID: tc.ID, Verdict: VerdictStopped, ExitCode: -1}
		}
		verdict := VerdictCompileError
		if comp.Kind != compiler.FailCompile {
			verdict = VerdictInternal
		}
		j.recordVerdict(j.detectID(sourcePath), verdict, 0)
		return TestResult{
			TestCaseID: tc.ID,
			Verdict:    verdict,
			ExitCode:   -1,
			Message:    comp.Error,
		}
	}
	return j.judgeOne(ctx, sourcePath, comp.OutputDir, j.detectID(sourcePath), j.ComparisonMode(), tc)
}

func (j *Judge) judgeOne(ctx context.Context, sourcePath, outputDir, languageID string, cmp CompareMode, tc testcase.TestCase) TestResult {
	res := j.executor.Execute(ctx, sourcePath, outputDir, tc.Input, languageID)

	tr := TestResult{
		TestCaseID: tc.ID,
		Elapsed:    res.Elapsed,
		Output:     res.Stdout,
		Expected:   tc.Expected,
		Stderr:     res.Stderr,
		ExitCode:   res.ExitCode,
		Signal:     res.Signal,
	}

	switch {
	case res.Aborted:
		tr.Verdict = VerdictStopped
	case res.TimedOut:
		tr.Verdict = VerdictTimeLimit
		tr.Message = fmt.Sprintf("time limit of %s exceeded", j.executor.TimeLimit())
	case res.ExitCode != 0 || res.Signal != "":
		tr.Verdict = VerdictRuntimeError
		cls := exitstatus.Classify(res.ExitCode, res.Signal)
		tr.ErrorKind = errorKind(cls.Signal)
		// The program's own stderr is the most useful message when there
		// is one; the classifier description covers the silent crashes.
		tr.Message = cls.Description
		if s := strings.TrimSpace(res.Stderr); s != "" {
			tr.Message = s
		}
	case Compare(cmp, res.Stdout, tc.Expected):
		tr.Verdict = VerdictAccepted
	default:
		tr.Verdict = VerdictWrongAnswer
	}

	j.recordVerdict(languageID, tr.Verdict, res.Elapsed)
	j.metrics.RecordOutput(len(res.Stdout) + len(res.Stderr))
	return tr
}

func (j *Judge) recordVerdict(languageID string, verdict Verdict, elapsed time.Duration) {
	if languageID == "" {
		languageID = "unknown"
	}
	j.metrics.RecordJudgement(languageID, string(verdict), elapsed.Seconds())
}

func (j *Judge) detectID(sourcePath string) string {
	if desc, ok := j.registry.DetectByPath(sourcePath); ok {
		return desc.ID
	}
	return ""
}

func (j *Judge) currentExecMode() ExecMode {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.execMode
}

func errorKind(signal string) RuntimeErrorKind {
	switch signal {
	case "SIGSEGV":
		return ErrKindSegv
	case "SIGFPE":
		return ErrKindFPE
	case "SIGABRT":
		return ErrKindAbort
	default:
		return ErrKindUnknown
	}
}
