package api

import "localjudge/internal/judge"

// JudgeRequest asks the server to judge a source file. Test cases may be
// supplied inline; otherwise the cases stored beside the source are used.
type JudgeRequest struct {
	SourcePath string          `json:"source_path"`
	Language   string          `json:"language,omitempty"`
	TestCases  []TestCaseInput `json:"test_cases,omitempty"`
}

// TestCaseInput is one inline test case.
type TestCaseInput struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// JudgeResponse is the judged batch.
type JudgeResponse struct {
	RunID    string       `json:"run_id"`
	Source   string       `json:"source"`
	Language string       `json:"language,omitempty"`
	Verdict  string       `json:"verdict"`
	Results  []CaseResult `json:"results"`
	Duration string       `json:"duration"`
	Compiled bool         `json:"compiled"`
	Cached   bool         `json:"cached"`
}

// CaseResult is one judged test case.
type CaseResult struct {
	TestCaseID string `json:"test_case_id"`
	Verdict    string `json:"verdict"`
	Duration   string `json:"duration"`
	Output     string `json:"output,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Signal     string `json:"signal,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Message    string `json:"message,omitempty"`
}

// CompileRequest asks for compilation (or a cache check) only.
type CompileRequest struct {
	SourcePath string `json:"source_path"`
}

// CompileResponse reports a compile outcome.
type CompileResponse struct {
	Success      bool   `json:"success"`
	Cached       bool   `json:"cached"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Error        string `json:"error,omitempty"`
	Duration     string `json:"duration"`
}

// StopRequest cancels the live run for a source file.
type StopRequest struct {
	SourcePath string `json:"source_path"`
}

// LanguageInfo describes one registered language.
type LanguageInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Compiled   bool     `json:"compiled"`
}

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  bool   `json:"database"`
	Languages int    `json:"languages"`
	Uptime    string `json:"uptime"`
}

func toCaseResult(r judge.TestResult) CaseResult {
	return CaseResult{
		TestCaseID: r.TestCaseID,
		Verdict:    string(r.Verdict),
		Duration:   r.Elapsed.String(),
		Output:     r.Output,
		Expected:   r.Expected,
		Stderr:     r.Stderr,
		ExitCode:   r.ExitCode,
		Signal:     r.Signal,
		ErrorKind:  string(r.ErrorKind),
		Message:    r.Message,
	}
}

func toJudgeResponse(run judge.RunResult) JudgeResponse {
	results := make([]CaseResult, 0, len(run.Results))
	for _, r := range run.Results {
		results = append(results, toCaseResult(r))
	}
	return JudgeResponse{
		RunID:    run.RunID,
		Source:   run.Source,
		Language: run.Language,
		Verdict:  string(run.Verdict),
		Results:  results,
		Duration: run.Elapsed.String(),
		Compiled: run.Compiled,
		Cached:   run.Cached,
	}
}
