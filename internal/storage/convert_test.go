package storage

import (
	"testing"
	"time"

	"localjudge/internal/judge"
)

func TestFromRunResult(t *testing.T) {
	run := judge.RunResult{
		RunID:    "r1",
		Source:   "/work/main.cpp",
		Language: "cpp",
		Verdict:  judge.VerdictWrongAnswer,
		Elapsed:  1500 * time.Millisecond,
		Compiled: true,
		Cached:   true,
		Results: []judge.TestResult{
			{TestCaseID: "a", Verdict: judge.VerdictAccepted, Elapsed: 20 * time.Millisecond},
			{TestCaseID: "b", Verdict: judge.VerdictWrongAnswer, Output: "wrong", ExitCode: 0},
			{TestCaseID: "c", Verdict: judge.VerdictRuntimeError, ExitCode: 139, Signal: "SIGSEGV"},
		},
	}

	rec, cases := FromRunResult(run)

	if rec.ID != "r1" || rec.Verdict != "WA" || rec.TestCount != 3 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Passed != 1 {
		t.Errorf("Passed = %d, want 1", rec.Passed)
	}
	if rec.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", rec.DurationMS)
	}
	if !rec.Compiled || !rec.CacheHit {
		t.Errorf("compile flags lost: %+v", rec)
	}
	if len(cases) != 3 {
		t.Fatalf("got %d case records, want 3", len(cases))
	}
	if cases[2].Signal != "SIGSEGV" || cases[2].ExitCode != 139 {
		t.Errorf("case record lost crash detail: %+v", cases[2])
	}
	for _, c := range cases {
		if c.RunID != "r1" {
			t.Errorf("case %q has run id %q", c.TestCaseID, c.RunID)
		}
	}
}
