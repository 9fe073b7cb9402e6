// Package language maps source files to the commands that compile and run
// them. Descriptors are plain data built from configuration; command
// construction is pure string interpolation over that data.
package language

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Placeholder tokens recognized in compile/run command templates.
const (
	PlaceholderSource    = "{src}"    // absolute source file path
	PlaceholderOutputDir = "{outDir}" // artifact output directory
	PlaceholderExe       = "{exe}"    // resolved artifact path
	PlaceholderBase      = "{base}"   // source base name without extension (class name)
)

// Descriptor describes how one language is compiled and executed.
type Descriptor struct {
	// ID is the unique language identifier from configuration.
	ID string
	// Name is the display name.
	Name string
	// Extensions are the recognized file extensions, lowercase with a
	// leading dot.
	Extensions []string
	// CompileArgs is the tokenized compile command template. Empty for
	// interpreted languages.
	CompileArgs []string
	// RunArgs is the tokenized run command template. Never empty.
	RunArgs []string
	// OutputExt overrides the artifact file extension. Empty means the
	// platform default (".exe" on Windows, none elsewhere).
	OutputExt string
}

// Command is a resolved executable invocation.
type Command struct {
	Path string
	Args []string
}

// Compiled reports whether the language needs a compile step.
func (d *Descriptor) Compiled() bool {
	return len(d.CompileArgs) > 0
}

// HasExtension reports whether the descriptor claims ext. The leading dot is
// optional and matching is case-insensitive.
func (d *Descriptor) HasExtension(ext string) bool {
	ext = normalizeExt(ext)
	for _, e := range d.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ArtifactPath resolves the output artifact location for sourcePath, or ""
// for interpreted languages.
func (d *Descriptor) ArtifactPath(sourcePath, outputDir string) string {
	if !d.Compiled() {
		return ""
	}
	ext := d.OutputExt
	if ext == "" {
		ext = platformExeExt()
	}
	return filepath.Join(outputDir, baseName(sourcePath)+ext)
}

// CompileCommand interpolates the compile template, or returns false for
// interpreted languages.
func (d *Descriptor) CompileCommand(sourcePath, outputDir string) (Command, bool) {
	if !d.Compiled() {
		return Command{}, false
	}
	return d.interpolate(d.CompileArgs, sourcePath, outputDir), true
}

// RunCommand interpolates the run template.
func (d *Descriptor) RunCommand(sourcePath, outputDir string) Command {
	return d.interpolate(d.RunArgs, sourcePath, outputDir)
}

func (d *Descriptor) interpolate(tpl []string, sourcePath, outputDir string) Command {
	repl := strings.NewReplacer(
		PlaceholderSource, sourcePath,
		PlaceholderOutputDir, outputDir,
		PlaceholderExe, d.ArtifactPath(sourcePath, outputDir),
		PlaceholderBase, baseName(sourcePath),
	)
	out := make([]string, len(tpl))
	for i, tok := range tpl {
		out[i] = repl.Replace(tok)
	}
	return Command{Path: out[0], Args: out[1:]}
}

func baseName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func platformExeExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
