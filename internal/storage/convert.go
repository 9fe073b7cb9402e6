package storage

import (
	"time"

	"localjudge/internal/judge"
)

// FromRunResult converts a judged batch into its persistence records.
func FromRunResult(run judge.RunResult) (*RunRecord, []CaseRecord) {
	passed := 0
	cases := make([]CaseRecord, 0, len(run.Results))
	for _, r := range run.Results {
		if r.Verdict == judge.VerdictAccepted {
			passed++
		}
		cases = append(cases, CaseRecord{
			RunID:      run.RunID,
			TestCaseID: r.TestCaseID,
			Verdict:    string(r.Verdict),
			ExitCode:   r.ExitCode,
			Signal:     r.Signal,
			DurationMS: r.Elapsed.Milliseconds(),
			Output:     r.Output,
			Message:    r.Message,
		})
	}

	record := &RunRecord{
		ID:         run.RunID,
		SourcePath: run.Source,
		Language:   run.Language,
		Verdict:    string(run.Verdict),
		TestCount:  len(run.Results),
		Passed:     passed,
		DurationMS: run.Elapsed.Milliseconds(),
		Compiled:   run.Compiled,
		CacheHit:   run.Cached,
		CreatedAt:  time.Now().UTC(),
	}
	return record, cases
}
