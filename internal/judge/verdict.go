package judge

import "time"

// Verdict is the judged outcome of a test case or a whole run.
type Verdict string

const (
	VerdictAccepted     Verdict = "AC"
	VerdictWrongAnswer  Verdict = "WA"
	VerdictTimeLimit    Verdict = "TLE"
	VerdictRuntimeError Verdict = "RE"
	VerdictCompileError Verdict = "CE"
	VerdictInternal     Verdict = "IE"
	VerdictPending      Verdict = "PENDING"
	VerdictRunning      Verdict = "RUNNING"
	VerdictStopped      Verdict = "STOPPED"
)

// RuntimeErrorKind refines a runtime-error verdict with the crash class.
type RuntimeErrorKind string

const (
	ErrKindNone    RuntimeErrorKind = ""
	ErrKindSegv    RuntimeErrorKind = "SIGSEGV"
	ErrKindFPE     RuntimeErrorKind = "SIGFPE"
	ErrKindAbort   RuntimeErrorKind = "SIGABRT"
	ErrKindUnknown RuntimeErrorKind = "UNKNOWN"
)

// TestResult is the judged outcome of one test case.
type TestResult struct {
	TestCaseID string           `json:"test_case_id"`
	Verdict    Verdict          `json:"verdict"`
	Elapsed    time.Duration    `json:"elapsed"`
	Output     string           `json:"output,omitempty"`
	Expected   string           `json:"expected,omitempty"`
	Stderr     string           `json:"stderr,omitempty"`
	ExitCode   int              `json:"exit_code"`
	Signal     string           `json:"signal,omitempty"`
	ErrorKind  RuntimeErrorKind `json:"error_kind,omitempty"`
	// Message carries compile output, crash descriptions, or internal
	// error detail, depending on the verdict.
	Message string `json:"message,omitempty"`
}

// RunResult aggregates the per-case results of a judge batch.
type RunResult struct {
	RunID    string        `json:"run_id"`
	Source   string        `json:"source"`
	Language string        `json:"language,omitempty"`
	Verdict  Verdict       `json:"verdict"`
	Results  []TestResult  `json:"results"`
	Elapsed  time.Duration `json:"elapsed"`
	Compiled bool          `json:"compiled"`
	Cached   bool          `json:"cached"`
}

// Summarize derives the batch verdict from per-case verdicts: the first
// non-accepted verdict in test order wins, an empty batch is accepted.
func Summarize(results []TestResult) Verdict {
	for _, r := range results {
		if r.Verdict != VerdictAccepted {
			return r.Verdict
		}
	}
	return VerdictAccepted
}
