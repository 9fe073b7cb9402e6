package language

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/rs/zerolog/log"
)

// Config is one language entry as it arrives from configuration. Command
// templates are shell-style strings; they are tokenized once at reload time.
type Config struct {
	ID         string
	Name       string
	Extensions []string
	Compile    string // empty for interpreted languages
	Run        string
	OutputExt  string
}

// Registry resolves file paths and language ids to descriptors. It is
// read-only between reloads; Reload atomically replaces the whole set.
type Registry struct {
	mu          sync.RWMutex
	descriptors []*Descriptor
	byID        map[string]*Descriptor
}

// NewRegistry creates an empty registry. Call Reload to populate it.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Descriptor)}
}

// Reload replaces the registered language set. Invalid entries are skipped
// with a warning; a duplicate extension claim is logged but does not fail the
// load, and lookups resolve to the first registered claimant.
func (r *Registry) Reload(configs []Config) {
	descriptors := make([]*Descriptor, 0, len(configs))
	byID := make(map[string]*Descriptor, len(configs))
	claimed := make(map[string]string)

	for _, cfg := range configs {
		desc, err := buildDescriptor(cfg)
		if err != nil {
			log.Warn().Err(err).Str("language", cfg.ID).Msg("skipping invalid language config")
			continue
		}
		if _, dup := byID[desc.ID]; dup {
			log.Warn().Str("language", desc.ID).Msg("skipping duplicate language id")
			continue
		}
		for _, ext := range desc.Extensions {
			if owner, ok := claimed[ext]; ok {
				log.Warn().
					Str("extension", ext).
					Str("language", desc.ID).
					Str("already_claimed_by", owner).
					Msg("duplicate extension claim, first registered language wins")
				continue
			}
			claimed[ext] = desc.ID
		}
		descriptors = append(descriptors, desc)
		byID[desc.ID] = desc
	}

	r.mu.Lock()
	r.descriptors = descriptors
	r.byID = byID
	r.mu.Unlock()

	log.Info().Int("languages", len(descriptors)).Msg("language registry reloaded")
}

// ByID returns the descriptor registered under id.
func (r *Registry) ByID(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// DetectByPath resolves a descriptor from the file extension of path.
// When two languages claim the extension, the first registered one wins.
func (r *Registry) DetectByPath(path string) (*Descriptor, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.descriptors {
		if d.HasExtension(ext) {
			return d, true
		}
	}
	return nil, false
}

// IsExtensionSupported reports whether any language claims ext. The leading
// dot is optional.
func (r *Registry) IsExtensionSupported(ext string) bool {
	ext = normalizeExt(ext)
	if ext == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.descriptors {
		if d.HasExtension(ext) {
			return true
		}
	}
	return false
}

// Languages returns the registered descriptors in registration order.
func (r *Registry) Languages() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

func buildDescriptor(cfg Config) (*Descriptor, error) {
	if cfg.ID == "" {
		return nil, errEmptyField("id")
	}
	if cfg.Name == "" {
		return nil, errEmptyField("name")
	}
	if len(cfg.Extensions) == 0 {
		return nil, errEmptyField("extensions")
	}
	if strings.TrimSpace(cfg.Run) == "" {
		return nil, errEmptyField("run")
	}

	runArgs, err := shlex.Split(cfg.Run)
	if err != nil || len(runArgs) == 0 {
		return nil, errBadTemplate("run", err)
	}

	var compileArgs []string
	if strings.TrimSpace(cfg.Compile) != "" {
		compileArgs, err = shlex.Split(cfg.Compile)
		if err != nil || len(compileArgs) == 0 {
			return nil, errBadTemplate("compile", err)
		}
	}

	exts := make([]string, 0, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		if n := normalizeExt(e); n != "." && n != "" {
			exts = append(exts, n)
		}
	}
	if len(exts) == 0 {
		return nil, errEmptyField("extensions")
	}

	return &Descriptor{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Extensions:  exts,
		CompileArgs: compileArgs,
		RunArgs:     runArgs,
		OutputExt:   cfg.OutputExt,
	}, nil
}
