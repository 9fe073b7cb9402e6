package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"localjudge/internal/language"
)

func newTestRegistry(t *testing.T) *language.Registry {
	t.Helper()
	reg := language.NewRegistry()
	reg.Reload([]language.Config{
		{
			ID:         "shell",
			Name:       "Shell",
			Extensions: []string{".sh"},
			Run:        "sh {src}",
		},
	})
	return reg
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.sh")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecuteFeedsStdinAndCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	e := New(newTestRegistry(t), 5*time.Second, nil)
	src := writeScript(t, "cat")

	res := e.Execute(context.Background(), src, t.TempDir(), "hello judge\n", "")
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "hello judge\n" {
		t.Errorf("Stdout = %q, want input echoed back", res.Stdout)
	}
	if res.TimedOut || res.Aborted {
		t.Errorf("TimedOut=%v Aborted=%v on a clean run", res.TimedOut, res.Aborted)
	}
}

func TestExecuteCapturesNonzeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	e := New(newTestRegistry(t), 5*time.Second, nil)
	src := writeScript(t, "echo oops >&2; exit 7")

	res := e.Execute(context.Background(), src, t.TempDir(), "", "")
	if res.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "oops") {
		t.Errorf("Stderr = %q, want program stderr", res.Stderr)
	}
}

func TestExecuteTimesOut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	e := New(newTestRegistry(t), 100*time.Millisecond, nil)
	src := writeScript(t, "sleep 10")

	start := time.Now()
	res := e.Execute(context.Background(), src, t.TempDir(), "", "")
	if !res.TimedOut {
		t.Fatalf("TimedOut = false, result = %+v", res)
	}
	if res.Aborted {
		t.Error("timeout misreported as abort")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("kill took %v, expected prompt reclamation", elapsed)
	}
}

func TestExecutePreCancelledDoesNotSpawn(t *testing.T) {
	e := New(newTestRegistry(t), 5*time.Second, nil)
	src := writeScript(t, "echo ran > marker")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := e.Execute(ctx, src, t.TempDir(), "", "")
	if !res.Aborted {
		t.Fatal("pre-cancelled context did not abort")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(src), "marker")); err == nil {
		t.Error("process was spawned despite cancelled context")
	}
}

func TestExecuteMidRunCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	e := New(newTestRegistry(t), 30*time.Second, nil)
	src := writeScript(t, "sleep 10")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := e.Execute(ctx, src, t.TempDir(), "", "")
	if !res.Aborted {
		t.Fatalf("Aborted = false, result = %+v", res)
	}
	if res.TimedOut {
		t.Error("abort misreported as timeout")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("cancel-to-return took %v", elapsed)
	}
}

func TestExecuteSpawnFailure(t *testing.T) {
	e := New(newTestRegistry(t), 5*time.Second, nil)
	// No registered extension, so the path is executed directly; it does
	// not exist.
	missing := filepath.Join(t.TempDir(), "no-such-binary")

	res := e.Execute(context.Background(), missing, t.TempDir(), "", "")
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	if res.Stderr == "" {
		t.Error("spawn failure produced no stderr message")
	}
}

func TestExecuteFileMissingInput(t *testing.T) {
	e := New(newTestRegistry(t), 5*time.Second, nil)
	src := writeScript(t, "cat")

	res := e.ExecuteFile(context.Background(), src, t.TempDir(), filepath.Join(t.TempDir(), "ghost.txt"), "")
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "input file") {
		t.Errorf("Stderr = %q, want an input file error", res.Stderr)
	}
}

func TestSetTimeLimit(t *testing.T) {
	e := New(newTestRegistry(t), 2*time.Second, nil)
	if got := e.TimeLimit(); got != 2*time.Second {
		t.Errorf("TimeLimit = %v, want 2s", got)
	}

	e.SetTimeLimit(7 * time.Second)
	if got := e.TimeLimit(); got != 7*time.Second {
		t.Errorf("TimeLimit after set = %v, want 7s", got)
	}

	e.SetTimeLimit(0)
	if got := e.TimeLimit(); got != 7*time.Second {
		t.Errorf("TimeLimit after invalid set = %v, want unchanged 7s", got)
	}
}

func TestNewDefaultsTimeLimit(t *testing.T) {
	e := New(newTestRegistry(t), 0, nil)
	if got := e.TimeLimit(); got != DefaultTimeLimit {
		t.Errorf("TimeLimit = %v, want default %v", got, DefaultTimeLimit)
	}
}
