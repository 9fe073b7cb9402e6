package storage

import "time"

// RunRecord is one persisted judge batch.
type RunRecord struct {
	ID         string    `json:"id" db:"id"`
	SourcePath string    `json:"source_path" db:"source_path"`
	Language   string    `json:"language" db:"language"`
	Verdict    string    `json:"verdict" db:"verdict"`
	TestCount  int       `json:"test_count" db:"test_count"`
	Passed     int       `json:"passed" db:"passed"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	Compiled   bool      `json:"compiled" db:"compiled"`
	CacheHit   bool      `json:"cache_hit" db:"cache_hit"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CaseRecord is one persisted per-test-case result within a run.
type CaseRecord struct {
	RunID      string `json:"run_id" db:"run_id"`
	TestCaseID string `json:"test_case_id" db:"test_case_id"`
	Verdict    string `json:"verdict" db:"verdict"`
	ExitCode   int    `json:"exit_code" db:"exit_code"`
	Signal     string `json:"signal,omitempty" db:"signal"`
	DurationMS int64  `json:"duration_ms" db:"duration_ms"`
	Output     string `json:"output,omitempty" db:"output"`
	Message    string `json:"message,omitempty" db:"message"`
}

// RunFilter provides criteria for querying run history.
type RunFilter struct {
	SourcePath string
	Language   string
	Verdict    string
	Limit      int
	Offset     int
}
