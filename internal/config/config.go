// Package config loads and validates judge configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"localjudge/internal/judge"
	"localjudge/internal/language"
)

// Config is the root configuration.
type Config struct {
	Judge     JudgeConfig               `yaml:"judge"`
	Languages map[string]LanguageConfig `yaml:"languages"`
	Server    ServerConfig              `yaml:"server"`
	Database  DatabaseConfig            `yaml:"database"`
	Tracing   TracingConfig             `yaml:"tracing"`
}

// JudgeConfig holds the judging parameters.
type JudgeConfig struct {
	// TimeLimitMS is the per-execution wall-clock limit in milliseconds.
	TimeLimitMS int `yaml:"time_limit_ms"`
	// Comparison is one of exact, trim, ignore_whitespace.
	Comparison string `yaml:"comparison"`
	// ExecutionMode is one of sequential, sequential_live, parallel.
	ExecutionMode string `yaml:"execution_mode"`
	// OutputDir holds compiled artifacts. Empty means a directory under
	// the OS temp dir.
	OutputDir string `yaml:"output_dir"`
}

// LanguageConfig describes one language entry. Command templates may use the
// placeholders {src}, {exe}, {outDir} and {base}.
type LanguageConfig struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
	Compile    string   `yaml:"compile,omitempty"`
	Run        string   `yaml:"run"`
	OutputExt  string   `yaml:"output_ext,omitempty"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
	ShutdownTimeout int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig holds the optional run-history store settings. An empty DSN
// disables persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// TracingConfig toggles OpenTelemetry span creation.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns a working configuration with the common toolchains
// registered.
func DefaultConfig() *Config {
	return &Config{
		Judge: JudgeConfig{
			TimeLimitMS:   3000,
			Comparison:    string(judge.CompareTrim),
			ExecutionMode: string(judge.ModeSequential),
		},
		Languages: map[string]LanguageConfig{
			"c": {
				Name:       "C",
				Extensions: []string{".c"},
				Compile:    "gcc -O2 -o {exe} {src}",
				Run:        "{exe}",
			},
			"cpp": {
				Name:       "C++",
				Extensions: []string{".cpp", ".cc", ".cxx"},
				Compile:    "g++ -O2 -std=c++17 -o {exe} {src}",
				Run:        "{exe}",
			},
			"go": {
				Name:       "Go",
				Extensions: []string{".go"},
				Compile:    "go build -o {exe} {src}",
				Run:        "{exe}",
			},
			"java": {
				Name:       "Java",
				Extensions: []string{".java"},
				Compile:    "javac -d {outDir} {src}",
				Run:        "java -cp {outDir} {base}",
				OutputExt:  ".class",
			},
			"javascript": {
				Name:       "JavaScript",
				Extensions: []string{".js", ".mjs"},
				Run:        "node {src}",
			},
			"python": {
				Name:       "Python",
				Extensions: []string{".py"},
				Run:        "python3 {src}",
			},
			"rust": {
				Name:       "Rust",
				Extensions: []string{".rs"},
				Compile:    "rustc -O -o {exe} {src}",
				Run:        "{exe}",
			},
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8090,
			MaxBodyBytes:    4 << 20,
			ShutdownTimeout: 10,
		},
	}
}

// Load reads configuration from path, layered over the defaults. A missing
// file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enum fields.
func (c *Config) Validate() error {
	if c.Judge.TimeLimitMS < 100 || c.Judge.TimeLimitMS > 60000 {
		return fmt.Errorf("judge.time_limit_ms must be between 100 and 60000, got %d", c.Judge.TimeLimitMS)
	}
	if !judge.ValidCompareMode(c.Judge.Comparison) {
		return fmt.Errorf("judge.comparison %q is not one of exact, trim, ignore_whitespace", c.Judge.Comparison)
	}
	if !judge.ValidExecMode(c.Judge.ExecutionMode) {
		return fmt.Errorf("judge.execution_mode %q is not one of sequential, sequential_live, parallel", c.Judge.ExecutionMode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	for id, lc := range c.Languages {
		if lc.Run == "" {
			return fmt.Errorf("language %q has no run command", id)
		}
		if len(lc.Extensions) == 0 {
			return fmt.Errorf("language %q has no extensions", id)
		}
	}
	return nil
}

// TimeLimit returns the execution limit as a duration.
func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.Judge.TimeLimitMS) * time.Millisecond
}

// LanguageConfigs converts the language map into registry entries, ordered
// by id so registration order is deterministic.
func (c *Config) LanguageConfigs() []language.Config {
	ids := make([]string, 0, len(c.Languages))
	for id := range c.Languages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]language.Config, 0, len(ids))
	for _, id := range ids {
		lc := c.Languages[id]
		out = append(out, language.Config{
			ID:         id,
			Name:       lc.Name,
			Extensions: lc.Extensions,
			Compile:    lc.Compile,
			Run:        lc.Run,
			OutputExt:  lc.OutputExt,
		})
	}
	return out
}

// OutputDir returns the artifact directory, defaulting under the OS temp
// dir.
func (c *Config) OutputDir() string {
	if c.Judge.OutputDir != "" {
		return c.Judge.OutputDir
	}
	return filepath.Join(os.TempDir(), "localjudge")
}
