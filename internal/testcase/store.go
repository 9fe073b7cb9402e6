// Package testcase persists per-source test cases as YAML files in a hidden
// directory next to the source file, so cases travel with the code they
// exercise.
package testcase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// storeDir is the hidden directory created beside judged sources.
const storeDir = ".localjudge"

// ErrNotFound is returned when a test case id does not exist for a source.
var ErrNotFound = errors.New("test case not found")

// TestCase is one input/expected-output pair for a source file.
type TestCase struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name,omitempty" json:"name,omitempty"`
	Input     string    `yaml:"input" json:"input"`
	Expected  string    `yaml:"expected" json:"expected"`
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
}

type document struct {
	Cases []TestCase `yaml:"cases"`
}

// FilePath returns where the cases for sourcePath are stored.
func FilePath(sourcePath string) string {
	dir := filepath.Dir(sourcePath)
	return filepath.Join(dir, storeDir, filepath.Base(sourcePath)+".tests.yaml")
}

// Load reads the test cases for sourcePath. A missing store file is not an
// error; it yields an empty slice.
func Load(sourcePath string) ([]TestCase, error) {
	data, err := os.ReadFile(FilePath(sourcePath))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading test cases: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing test cases: %w", err)
	}
	return doc.Cases, nil
}

// Save writes the full case list for sourcePath, creating the store
// directory if needed.
func Save(sourcePath string, cases []TestCase) error {
	path := FilePath(sourcePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating test case directory: %w", err)
	}
	data, err := yaml.Marshal(document{Cases: cases})
	if err != nil {
		return fmt.Errorf("encoding test cases: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing test cases: %w", err)
	}
	return nil
}

// Add appends a new case for sourcePath and returns it with a generated id.
func Add(sourcePath, name, input, expected string) (TestCase, error) {
	cases, err := Load(sourcePath)
	if err != nil {
		return TestCase{}, err
	}
	tc := TestCase{
		ID:        uuid.NewString(),
		Name:      name,
		Input:     input,
		Expected:  expected,
		CreatedAt: time.Now().UTC(),
	}
	if tc.Name == "" {
		tc.Name = fmt.Sprintf("case %d", len(cases)+1)
	}
	cases = append(cases, tc)
	if err := Save(sourcePath, cases); err != nil {
		return TestCase{}, err
	}
	return tc, nil
}

// Delete removes the case with the given id.
func Delete(sourcePath, id string) error {
	cases, err := Load(sourcePath)
	if err != nil {
		return err
	}
	kept := cases[:0]
	found := false
	for _, tc := range cases {
		if tc.ID == id {
			found = true
			continue
		}
		kept = append(kept, tc)
	}
	if !found {
		return ErrNotFound
	}
	return Save(sourcePath, kept)
}
