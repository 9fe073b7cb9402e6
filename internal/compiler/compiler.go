// Package compiler turns source files into runnable artifacts, skipping the
// compiler process entirely when a cached artifact is still valid.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"localjudge/internal/language"
	"localjudge/internal/monitor"
)

// FailureKind distinguishes why a compilation failed. The remedies differ:
// a compile error is the user's code, a missing compiler is the environment,
// a read error is the judge's own problem.
type FailureKind string

const (
	FailUnsupported     FailureKind = "unsupported_file"
	FailSourceRead      FailureKind = "source_read"
	FailCompilerMissing FailureKind = "compiler_missing"
	FailCompile         FailureKind = "compile_error"
	FailInternal        FailureKind = "internal"
)

// Result is the outcome of one Compile call.
type Result struct {
	Success bool
	// OutputDir is where artifacts for this source live. For interpreted
	// languages this is still returned so the executor has a stable
	// working location.
	OutputDir string
	// ArtifactPath is the resolved executable, empty for interpreted
	// languages (the source itself is the artifact).
	ArtifactPath string
	// Kind and Error are set only on failure.
	Kind    FailureKind
	Error   string
	Elapsed time.Duration
	// Cached is true when no compiler process was spawned: either the
	// cache answered, or the language needs no compilation.
	Cached bool
	// Aborted is true when the context was cancelled before the compiler
	// finished. Not a failure kind: the caller asked to stop.
	Aborted bool
}

// Compiler compiles sources via the language registry, memoizing results in
// a content-hash cache.
type Compiler struct {
	registry  *language.Registry
	cache     Cache
	outputDir string
	metrics   *monitor.Metrics
}

// New creates a Compiler writing artifacts under outputDir. metrics may be
// nil.
func New(registry *language.Registry, cache Cache, outputDir string, metrics *monitor.Metrics) *Compiler {
	return &Compiler{
		registry:  registry,
		cache:     cache,
		outputDir: outputDir,
		metrics:   metrics,
	}
}

// Compile produces a runnable artifact for sourcePath. All failures are
// reported through the Result; Compile never panics on process errors.
func (c *Compiler) Compile(ctx context.Context, sourcePath string) Result {
	start := time.Now()

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return failure(FailInternal, fmt.Sprintf("resolving source path: %v", err), start)
	}

	desc, ok := c.registry.DetectByPath(abs)
	if !ok {
		return failure(FailUnsupported, fmt.Sprintf("unsupported file type %q", filepath.Ext(abs)), start)
	}

	logger := log.With().Str("source", abs).Str("language", desc.ID).Logger()
	outDir := c.sourceOutputDir(abs)

	if !desc.Compiled() {
		// Interpreted language: the run command operates on the source
		// directly, nothing to build. The output directory still has to
		// exist in case the run template references it.
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return failure(FailInternal, fmt.Sprintf("creating output directory: %v", err), start)
		}
		return Result{Success: true, OutputDir: outDir, Elapsed: time.Since(start), Cached: true}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return failure(FailSourceRead, fmt.Sprintf("reading source file: %v", err), start)
	}
	hash := xxhash.Sum64(data)

	cmd, _ := desc.CompileCommand(abs, outDir)
	cmdLine := strings.Join(append([]string{cmd.Path}, cmd.Args...), " ")

	if entry, ok := c.cache.Get(abs); ok {
		if entry.Hash == hash && entry.CompileCommand == cmdLine && artifactExists(entry.ArtifactPath) {
			logger.Debug().Msg("compile cache hit")
			c.metrics.RecordCompile(true, 0)
			return Result{
				Success:      true,
				OutputDir:    entry.OutputDir,
				ArtifactPath: entry.ArtifactPath,
				Elapsed:      time.Since(start),
				Cached:       true,
			}
		}
		c.cache.Delete(abs)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return failure(FailInternal, fmt.Sprintf("creating output directory: %v", err), start)
	}

	execCmd := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	execCmd.Dir = filepath.Dir(abs)
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	logger.Debug().Str("command", cmdLine).Msg("compiling")
	runErr := execCmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			logger.Debug().Msg("compile aborted")
			return Result{Aborted: true, Elapsed: elapsed}
		case errors.Is(runErr, exec.ErrNotFound):
			return Result{
				Kind:    FailCompilerMissing,
				Error:   fmt.Sprintf("compiler %q not found: is it installed and on PATH?", cmd.Path),
				Elapsed: elapsed,
			}
		case errors.As(runErr, &exitErr):
			logger.Debug().Int("exit_code", exitErr.ExitCode()).Msg("compile failed")
			return Result{
				Kind:    FailCompile,
				Error:   compileErrorText(stderr.String(), stdout.String(), exitErr.ExitCode()),
				Elapsed: elapsed,
			}
		default:
			return Result{
				Kind:    FailInternal,
				Error:   fmt.Sprintf("running compiler: %v", runErr),
				Elapsed: elapsed,
			}
		}
	}

	artifact := desc.ArtifactPath(abs, outDir)
	c.cache.Set(abs, Entry{
		Hash:           hash,
		OutputDir:      outDir,
		ArtifactPath:   artifact,
		CompileCommand: cmdLine,
		CreatedAt:      time.Now(),
	})

	logger.Info().Dur("elapsed", elapsed).Str("artifact", artifact).Msg("compiled")
	c.metrics.RecordCompile(false, elapsed.Seconds())

	return Result{
		Success:      true,
		OutputDir:    outDir,
		ArtifactPath: artifact,
		Elapsed:      elapsed,
	}
}

// Invalidate drops the cache entry for sourcePath.
func (c *Compiler) Invalidate(sourcePath string) {
	if abs, err := filepath.Abs(sourcePath); err == nil {
		c.cache.Delete(abs)
	}
}

// ClearCache drops every cache entry.
func (c *Compiler) ClearCache() {
	c.cache.Clear()
}

// sourceOutputDir gives each source directory its own artifact subdirectory
// so same-named sources in different directories never clobber each other.
func (c *Compiler) sourceOutputDir(absSource string) string {
	dirKey := fmt.Sprintf("%016x", xxhash.Sum64String(filepath.Dir(absSource)))
	return filepath.Join(c.outputDir, dirKey)
}

func artifactExists(path string) bool {
	if path == "" {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

func compileErrorText(stderr, stdout string, exitCode int) string {
	if strings.TrimSpace(stderr) != "" {
		return stderr
	}
	if strings.TrimSpace(stdout) != "" {
		return stdout
	}
	return fmt.Sprintf("compiler exited with code %d", exitCode)
}

func failure(kind FailureKind, msg string, start time.Time) Result {
	return Result{Kind: kind, Error: msg, Elapsed: time.Since(start)}
}
