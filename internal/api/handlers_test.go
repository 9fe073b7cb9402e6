package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"localjudge/internal/compiler"
	"localjudge/internal/executor"
	"localjudge/internal/judge"
	"localjudge/internal/language"
	"localjudge/internal/testcase"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	reg := language.NewRegistry()
	reg.Reload([]language.Config{
		{ID: "shell", Name: "Shell", Extensions: []string{".sh"}, Run: "sh {src}"},
	})

	c := compiler.New(reg, compiler.NewMemoryCache(), filepath.Join(t.TempDir(), "out"), nil)
	e := executor.New(reg, 5*time.Second, nil)
	j := judge.New(reg, c, e, nil, nil)
	return NewHandlers(j, c, reg, judge.NewRunManager(nil), nil, nil, nil)
}

func writeShellSource(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sol.sh")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleJudgeWithInlineCases(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	h := newTestHandlers(t)
	src := writeShellSource(t, "cat")

	body, _ := json.Marshal(JudgeRequest{
		SourcePath: src,
		TestCases: []TestCaseInput{
			{ID: "t1", Input: "hello\n", Expected: "hello\n"},
			{ID: "t2", Input: "x\n", Expected: "y\n"},
		},
	})
	rec := postJSON(t, h.HandleJudge, "/judge", string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp JudgeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Verdict != "WA" {
		t.Errorf("batch verdict = %q, want WA", resp.Verdict)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Verdict != "AC" || resp.Results[1].Verdict != "WA" {
		t.Errorf("verdicts = %q, %q", resp.Results[0].Verdict, resp.Results[1].Verdict)
	}
}

func TestHandleJudgeUsesStoredCases(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	h := newTestHandlers(t)
	src := writeShellSource(t, "cat")
	if _, err := testcase.Add(src, "stored", "in\n", "in\n"); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(JudgeRequest{SourcePath: src})
	rec := postJSON(t, h.HandleJudge, "/judge", string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp JudgeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Verdict != "AC" {
		t.Errorf("verdict = %q, want AC", resp.Verdict)
	}
}

func TestHandleJudgeRejectsMissingSource(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.HandleJudge, "/judge", `{"source_path":"/no/such/file.sh"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "SOURCE_NOT_FOUND" {
		t.Errorf("error code = %q, want SOURCE_NOT_FOUND", resp.Code)
	}
}

func TestHandleJudgeRejectsEmptyCaseSet(t *testing.T) {
	h := newTestHandlers(t)
	src := writeShellSource(t, "cat")

	body, _ := json.Marshal(JudgeRequest{SourcePath: src})
	rec := postJSON(t, h.HandleJudge, "/judge", string(body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "NO_TEST_CASES") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleJudgeStreamEmitsResultEvents(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	h := newTestHandlers(t)
	src := writeShellSource(t, "cat")

	body, _ := json.Marshal(JudgeRequest{
		SourcePath: src,
		TestCases: []TestCaseInput{
			{ID: "t1", Input: "a\n", Expected: "a\n"},
			{ID: "t2", Input: "b\n", Expected: "b\n"},
		},
	})
	rec := postJSON(t, h.HandleJudgeStream, "/judge/stream", string(body))

	out := rec.Body.String()
	if got := strings.Count(out, "event: result"); got != 2 {
		t.Errorf("got %d result events, want 2:\n%s", got, out)
	}
	if !strings.Contains(out, "event: done") {
		t.Errorf("missing done event:\n%s", out)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleCompileUnsupportedFile(t *testing.T) {
	h := newTestHandlers(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(CompileRequest{SourcePath: src})
	rec := postJSON(t, h.HandleCompile, "/compile", string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp CompileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success {
		t.Error("unsupported file reported success")
	}
	if resp.Kind != string(compiler.FailUnsupported) {
		t.Errorf("Kind = %q, want %q", resp.Kind, compiler.FailUnsupported)
	}
}

func TestHandleLanguages(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/languages", nil)
	rec := httptest.NewRecorder()
	h.HandleLanguages(rec, req)

	var infos []LanguageInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].ID != "shell" {
		t.Errorf("languages = %+v", infos)
	}
	if infos[0].Compiled {
		t.Error("interpreted language reported as compiled")
	}
}

func TestHandleStopWithoutLiveRun(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.HandleStop, "/judge/stop", `{"source_path":"/work/a.sh"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"stopped":false`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleListRunsWithoutDatabase(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	h.HandleListRuns(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
