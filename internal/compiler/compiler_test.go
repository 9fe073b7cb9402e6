package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"localjudge/internal/language"
)

// compileCount returns how many times the fake compiler actually ran.
func compileCount(t *testing.T, counterFile string) int {
	t.Helper()
	data, err := os.ReadFile(counterFile)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "x")
}

// newTestCompiler registers a fake compiled language whose "compiler" is a
// shell command copying the source to the artifact and bumping a counter.
func newTestCompiler(t *testing.T) (*Compiler, string) {
	t.Helper()
	dir := t.TempDir()
	counter := filepath.Join(dir, "compile-count")

	reg := language.NewRegistry()
	reg.Reload([]language.Config{
		{
			ID:         "fake",
			Name:       "Fake Compiled",
			Extensions: []string{".fake"},
			Compile:    fmt.Sprintf("sh -c 'cp {src} {exe} && printf x >> %s'", counter),
			Run:        "{exe}",
		},
		{
			ID:         "script",
			Name:       "Fake Interpreted",
			Extensions: []string{".scr"},
			Run:        "sh {src}",
		},
		{
			ID:         "broken",
			Name:       "Broken Compiler",
			Extensions: []string{".brk"},
			Compile:    "sh -c 'echo boom >&2; exit 1'",
			Run:        "{exe}",
		},
		{
			ID:         "missing",
			Name:       "Missing Compiler",
			Extensions: []string{".mis"},
			Compile:    "definitely-not-a-real-compiler-xyz {src}",
			Run:        "{exe}",
		},
	})

	c := New(reg, NewMemoryCache(), filepath.Join(dir, "out"), nil)
	return c, counter
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileCachesUnchangedSource(t *testing.T) {
	c, counter := newTestCompiler(t)
	src := writeSource(t, "prog.fake", "hello")

	first := c.Compile(context.Background(), src)
	if !first.Success {
		t.Fatalf("first compile failed: %s", first.Error)
	}
	if first.Cached {
		t.Error("first compile reported cached")
	}
	if first.ArtifactPath == "" {
		t.Fatal("compiled language returned no artifact path")
	}

	second := c.Compile(context.Background(), src)
	if !second.Success || !second.Cached {
		t.Errorf("second compile: success=%v cached=%v, want cached success", second.Success, second.Cached)
	}
	if got := compileCount(t, counter); got != 1 {
		t.Errorf("compiler ran %d times, want 1", got)
	}
}

func TestCompileRecompilesWhenArtifactDeleted(t *testing.T) {
	c, counter := newTestCompiler(t)
	src := writeSource(t, "prog.fake", "hello")

	first := c.Compile(context.Background(), src)
	if !first.Success {
		t.Fatalf("compile failed: %s", first.Error)
	}
	if err := os.Remove(first.ArtifactPath); err != nil {
		t.Fatal(err)
	}

	third := c.Compile(context.Background(), src)
	if !third.Success {
		t.Fatalf("recompile failed: %s", third.Error)
	}
	if third.Cached {
		t.Error("recompile after artifact deletion reported cached")
	}
	if got := compileCount(t, counter); got != 2 {
		t.Errorf("compiler ran %d times, want 2", got)
	}
}

func TestCompileRecompilesWhenSourceChanges(t *testing.T) {
	c, counter := newTestCompiler(t)
	src := writeSource(t, "prog.fake", "v1")

	c.Compile(context.Background(), src)
	if err := os.WriteFile(src, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := c.Compile(context.Background(), src)
	if !res.Success || res.Cached {
		t.Errorf("changed source: success=%v cached=%v, want fresh success", res.Success, res.Cached)
	}
	if got := compileCount(t, counter); got != 2 {
		t.Errorf("compiler ran %d times, want 2", got)
	}
}

func TestCompileInterpretedSkipsCompiler(t *testing.T) {
	c, counter := newTestCompiler(t)
	src := writeSource(t, "prog.scr", "echo hi")

	res := c.Compile(context.Background(), src)
	if !res.Success || !res.Cached {
		t.Errorf("interpreted: success=%v cached=%v, want cached success", res.Success, res.Cached)
	}
	if res.ArtifactPath != "" {
		t.Errorf("interpreted ArtifactPath = %q, want empty", res.ArtifactPath)
	}
	if res.OutputDir == "" {
		t.Error("interpreted OutputDir is empty")
	}
	if _, err := os.Stat(res.OutputDir); err != nil {
		t.Errorf("interpreted OutputDir not usable: %v", err)
	}
	if got := compileCount(t, counter); got != 0 {
		t.Errorf("compiler ran %d times, want 0", got)
	}
}

func TestCompileCancelledReportsAborted(t *testing.T) {
	c, counter := newTestCompiler(t)
	src := writeSource(t, "prog.fake", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Compile(ctx, src)
	if res.Success {
		t.Fatal("cancelled compile succeeded")
	}
	if !res.Aborted {
		t.Errorf("Aborted = false, Kind = %q, Error = %q", res.Kind, res.Error)
	}
	if res.Kind != "" {
		t.Errorf("Kind = %q, want no failure kind on cancellation", res.Kind)
	}
	if got := compileCount(t, counter); got != 0 {
		t.Errorf("compiler ran %d times after cancellation, want 0", got)
	}
}

func TestCompileUnsupportedFile(t *testing.T) {
	c, _ := newTestCompiler(t)
	src := writeSource(t, "notes.txt", "hi")

	res := c.Compile(context.Background(), src)
	if res.Success {
		t.Fatal("unsupported file compiled")
	}
	if res.Kind != FailUnsupported {
		t.Errorf("Kind = %q, want %q", res.Kind, FailUnsupported)
	}
}

func TestCompileMissingSource(t *testing.T) {
	c, _ := newTestCompiler(t)

	res := c.Compile(context.Background(), filepath.Join(t.TempDir(), "ghost.fake"))
	if res.Success {
		t.Fatal("missing source compiled")
	}
	if res.Kind != FailSourceRead {
		t.Errorf("Kind = %q, want %q", res.Kind, FailSourceRead)
	}
}

func TestCompileErrorCapturesStderr(t *testing.T) {
	c, _ := newTestCompiler(t)
	src := writeSource(t, "prog.brk", "hi")

	res := c.Compile(context.Background(), src)
	if res.Success {
		t.Fatal("broken compile succeeded")
	}
	if res.Kind != FailCompile {
		t.Errorf("Kind = %q, want %q", res.Kind, FailCompile)
	}
	if !strings.Contains(res.Error, "boom") {
		t.Errorf("Error = %q, want compiler stderr", res.Error)
	}
}

func TestCompilerNotFoundIsDistinct(t *testing.T) {
	c, _ := newTestCompiler(t)
	src := writeSource(t, "prog.mis", "hi")

	res := c.Compile(context.Background(), src)
	if res.Success {
		t.Fatal("compile with missing compiler succeeded")
	}
	if res.Kind != FailCompilerMissing {
		t.Errorf("Kind = %q, want %q", res.Kind, FailCompilerMissing)
	}
	if !strings.Contains(res.Error, "not found") {
		t.Errorf("Error = %q, want a compiler-not-found message", res.Error)
	}
}

func TestClearCacheForcesRecompile(t *testing.T) {
	c, counter := newTestCompiler(t)
	src := writeSource(t, "prog.fake", "hello")

	c.Compile(context.Background(), src)
	c.ClearCache()
	res := c.Compile(context.Background(), src)
	if res.Cached {
		t.Error("compile after ClearCache reported cached")
	}
	if got := compileCount(t, counter); got != 2 {
		t.Errorf("compiler ran %d times, want 2", got)
	}
}

func TestMemoryCacheOps(t *testing.T) {
	cache := NewMemoryCache()

	if _, ok := cache.Get("/a"); ok {
		t.Error("empty cache returned an entry")
	}
	cache.Set("/a", Entry{Hash: 1})
	cache.Set("/b", Entry{Hash: 2})
	if e, ok := cache.Get("/a"); !ok || e.Hash != 1 {
		t.Error("Get after Set failed")
	}
	cache.Delete("/a")
	if _, ok := cache.Get("/a"); ok {
		t.Error("entry survived Delete")
	}
	cache.Clear()
	if _, ok := cache.Get("/b"); ok {
		t.Error("entry survived Clear")
	}
}
