package exitstatus

import (
	"strings"
	"testing"
)

func TestClassifyNamedSignal(t *testing.T) {
	tests := []struct {
		name       string
		signal     string
		wantSignal string
		wantSubstr string
	}{
		{"segfault", "SIGSEGV", "SIGSEGV", "Segmentation fault"},
		{"fpe", "SIGFPE", "SIGFPE", "division by zero"},
		{"abort", "SIGABRT", "SIGABRT", "abort"},
		{"kill", "SIGKILL", "SIGKILL", "Killed"},
		{"unknown signal name kept verbatim", "SIGUSR1", "SIGUSR1", "Terminated by signal SIGUSR1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(1, tt.signal)
			if got.Signal != tt.wantSignal {
				t.Errorf("Signal = %q, want %q", got.Signal, tt.wantSignal)
			}
			if !strings.Contains(got.Description, tt.wantSubstr) {
				t.Errorf("Description = %q, want substring %q", got.Description, tt.wantSubstr)
			}
		})
	}
}

func TestClassifyExitCode(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantSignal string
		wantSubstr string
	}{
		{"128+11 is SIGSEGV", 139, "SIGSEGV", "Segmentation fault"},
		{"128+8 is SIGFPE", 136, "SIGFPE", "division by zero"},
		{"128+6 is SIGABRT", 134, "SIGABRT", "abort"},
		{"128+9 is SIGKILL", 137, "SIGKILL", "Killed"},
		{"negated signal number", -11, "SIGSEGV", "Segmentation fault"},
		{"plain nonzero exit", 1, "", "Process exited with code 1"},
		{"zero exit", 0, "", "Process exited with code 0"},
		{"sentinel -1 is not a signal", -1, "", "Process exited with code -1"},
		{"access violation", -1073741819, "", "Access violation"},
		{"divide by zero", -1073741676, "", "division by zero"},
		{"stack overflow", -1073741571, "", "Stack overflow"},
		{"heap corruption", -1073740940, "", "Heap corruption"},
		{"stack buffer overrun", -1073740791, "", "buffer overrun"},
		{"ctrl-c exit", -1073741510, "", "Ctrl+C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.code, "")
			if got.Signal != tt.wantSignal {
				t.Errorf("Classify(%d).Signal = %q, want %q", tt.code, got.Signal, tt.wantSignal)
			}
			if !strings.Contains(got.Description, tt.wantSubstr) {
				t.Errorf("Classify(%d).Description = %q, want substring %q", tt.code, got.Description, tt.wantSubstr)
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// Arbitrary codes never produce an empty description.
	for _, code := range []int{0, 1, -1, 42, 200, 1 << 20, -(1 << 20)} {
		if got := Classify(code, ""); got.Description == "" {
			t.Errorf("Classify(%d) returned empty description", code)
		}
	}
}
