package testcase

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "main.cpp")
	if err := os.WriteFile(src, []byte("int main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestLoadMissingStoreIsEmpty(t *testing.T) {
	cases, err := Load(tempSource(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 0 {
		t.Errorf("got %d cases, want 0", len(cases))
	}
}

func TestAddAndLoadRoundTrip(t *testing.T) {
	src := tempSource(t)

	first, err := Add(src, "sample", "1 2\n", "3\n")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" {
		t.Fatal("Add returned empty id")
	}
	if _, err := Add(src, "", "5 5\n", "10\n"); err != nil {
		t.Fatal(err)
	}

	cases, err := Load(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 2 {
		t.Fatalf("got %d cases, want 2", len(cases))
	}
	if cases[0].Name != "sample" || cases[0].Input != "1 2\n" || cases[0].Expected != "3\n" {
		t.Errorf("first case = %+v", cases[0])
	}
	if cases[1].Name != "case 2" {
		t.Errorf("default name = %q, want %q", cases[1].Name, "case 2")
	}
}

func TestStoreFileLivesBesideSource(t *testing.T) {
	src := tempSource(t)
	if _, err := Add(src, "s", "in", "out"); err != nil {
		t.Fatal(err)
	}

	path := FilePath(src)
	if filepath.Dir(filepath.Dir(path)) != filepath.Dir(src) {
		t.Errorf("store path %q not beside source %q", path, src)
	}
	if !strings.Contains(path, storeDir) {
		t.Errorf("store path %q missing %q", path, storeDir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file not created: %v", err)
	}
}

func TestDelete(t *testing.T) {
	src := tempSource(t)
	tc, err := Add(src, "s", "in", "out")
	if err != nil {
		t.Fatal(err)
	}

	if err := Delete(src, tc.ID); err != nil {
		t.Fatal(err)
	}
	cases, err := Load(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 0 {
		t.Errorf("got %d cases after delete, want 0", len(cases))
	}

	if err := Delete(src, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete unknown id = %v, want ErrNotFound", err)
	}
}
