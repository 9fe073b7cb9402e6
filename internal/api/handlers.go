package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"localjudge/internal/compiler"
	"localjudge/internal/judge"
	"localjudge/internal/language"
	"localjudge/internal/monitor"
	"localjudge/internal/storage"
	"localjudge/internal/testcase"
)

// Handlers holds the wired judge components behind the HTTP endpoints.
type Handlers struct {
	judge    *judge.Judge
	compiler *compiler.Compiler
	registry *language.Registry
	runs     *judge.RunManager
	db       *storage.DB
	history  *storage.HistoryWriter
	metrics  *monitor.Metrics
}

// NewHandlers creates the handler set. db, history and metrics may be nil.
func NewHandlers(j *judge.Judge, c *compiler.Compiler, reg *language.Registry, runs *judge.RunManager, db *storage.DB, history *storage.HistoryWriter, metrics *monitor.Metrics) *Handlers {
	return &Handlers{
		judge:    j,
		compiler: c,
		registry: reg,
		runs:     runs,
		db:       db,
		history:  history,
		metrics:  metrics,
	}
}

// HandleJudge runs the full batch and responds with all results at once.
func (h *Handlers) HandleJudge(w http.ResponseWriter, r *http.Request) {
	req, cases, ok := h.decodeJudgeRequest(w, r)
	if !ok {
		return
	}

	runCtx, done := h.runs.Begin(r.Context(), req.SourcePath)
	defer done()

	run := h.judge.JudgeAll(runCtx, req.SourcePath, cases, nil)
	h.recordHistory(run)

	writeJSON(w, http.StatusOK, toJudgeResponse(run))
}

// HandleJudgeStream runs the batch and streams per-case results as SSE
// events, followed by a summary event.
func (h *Handlers) HandleJudgeStream(w http.ResponseWriter, r *http.Request) {
	req, cases, ok := h.decodeJudgeRequest(w, r)
	if !ok {
		return
	}

	sse := newSSESender(w)
	if sse == nil {
		writeError(w, "streaming not supported", "STREAMING_UNSUPPORTED", http.StatusInternalServerError, r)
		return
	}

	runCtx, done := h.runs.Begin(r.Context(), req.SourcePath)
	defer done()

	run := h.judge.JudgeAll(runCtx, req.SourcePath, cases, func(i int, result judge.TestResult) {
		sse.sendJSON("result", toCaseResult(result))
	})
	h.recordHistory(run)

	resp := toJudgeResponse(run)
	resp.Results = nil // already streamed
	sse.sendJSON("done", resp)
}

// HandleStop cancels the live run for a source file.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}
	if req.SourcePath == "" {
		writeError(w, "source_path is required", "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	stopped := h.runs.Stop(req.SourcePath)
	writeJSON(w, http.StatusOK, map[string]any{"stopped": stopped})
}

// HandleCompile compiles a source file without judging it.
func (h *Handlers) HandleCompile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}
	if req.SourcePath == "" {
		writeError(w, "source_path is required", "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	res := h.compiler.Compile(r.Context(), req.SourcePath)
	writeJSON(w, http.StatusOK, CompileResponse{
		Success:      res.Success,
		Cached:       res.Cached,
		ArtifactPath: res.ArtifactPath,
		Kind:         string(res.Kind),
		Error:        res.Error,
		Duration:     res.Elapsed.String(),
	})
}

// HandleClearCache drops all cached compilation artifacts.
func (h *Handlers) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	h.compiler.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleLanguages lists the registered languages.
func (h *Handlers) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	descs := h.registry.Languages()
	infos := make([]LanguageInfo, 0, len(descs))
	for _, d := range descs {
		infos = append(infos, LanguageInfo{
			ID:         d.ID,
			Name:       d.Name,
			Extensions: d.Extensions,
			Compiled:   d.Compiled(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// HandleListRuns queries persisted run history.
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeError(w, "database not configured", "DB_UNAVAILABLE", http.StatusServiceUnavailable, r)
		return
	}

	filter := storage.RunFilter{
		SourcePath: r.URL.Query().Get("source"),
		Language:   r.URL.Query().Get("language"),
		Verdict:    r.URL.Query().Get("verdict"),
		Limit:      100,
	}

	runs, err := h.db.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, "query failed", "INTERNAL", http.StatusInternalServerError, r)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGetRun retrieves one persisted run with its case results.
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, "run ID required", "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}
	if h.db == nil {
		writeError(w, "database not configured", "DB_UNAVAILABLE", http.StatusServiceUnavailable, r)
		return
	}

	run, cases, err := h.db.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, "run not found", "NOT_FOUND", http.StatusNotFound, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run, "cases": cases})
}

func (h *Handlers) decodeJudgeRequest(w http.ResponseWriter, r *http.Request) (JudgeRequest, []testcase.TestCase, bool) {
	var req JudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return req, nil, false
	}
	if req.SourcePath == "" {
		writeError(w, "source_path is required", "INVALID_REQUEST", http.StatusBadRequest, r)
		return req, nil, false
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		writeError(w, "source file not found", "SOURCE_NOT_FOUND", http.StatusBadRequest, r)
		return req, nil, false
	}

	var cases []testcase.TestCase
	if len(req.TestCases) > 0 {
		cases = make([]testcase.TestCase, 0, len(req.TestCases))
		for i, tc := range req.TestCases {
			id := tc.ID
			if id == "" {
				id = tc.Name
			}
			if id == "" {
				id = fmt.Sprintf("case-%d", i+1)
			}
			cases = append(cases, testcase.TestCase{
				ID:       id,
				Name:     tc.Name,
				Input:    tc.Input,
				Expected: tc.Expected,
			})
		}
	} else {
		stored, err := testcase.Load(req.SourcePath)
		if err != nil {
			writeError(w, "loading test cases: "+err.Error(), "TESTCASE_LOAD_FAILED", http.StatusInternalServerError, r)
			return req, nil, false
		}
		cases = stored
	}
	if len(cases) == 0 {
		writeError(w, "no test cases for source", "NO_TEST_CASES", http.StatusBadRequest, r)
		return req, nil, false
	}
	return req, cases, true
}

func (h *Handlers) recordHistory(run judge.RunResult) {
	if h.history == nil {
		return
	}
	rec, cases := storage.FromRunResult(run)
	h.history.Record(rec, cases)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, msg, code string, status int, r *http.Request) {
	resp := ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: RequestIDFromContext(r.Context()),
	}
	writeJSON(w, status, resp)
}
