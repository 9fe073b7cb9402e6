// Package exitstatus maps process exit codes and signals to human-readable
// failure descriptions. It is a pure lookup with no error paths: every input
// produces a usable Classification.
package exitstatus

import "fmt"

// Classification describes how a process terminated.
type Classification struct {
	// Signal is the resolved signal name ("SIGSEGV", ...), or "" when the
	// exit was not signal-related.
	Signal string
	// Description is a human-readable explanation of the termination.
	Description string
}

// Signal descriptions for the names the OS commonly reports.
var signalDescriptions = map[string]string{
	"SIGSEGV": "Segmentation fault (invalid memory access)",
	"SIGFPE":  "Floating point exception (integer division by zero?)",
	"SIGABRT": "Aborted (abort() called or assertion failed)",
	"SIGBUS":  "Bus error (misaligned or invalid memory access)",
	"SIGILL":  "Illegal instruction",
	"SIGKILL": "Killed (SIGKILL)",
	"SIGPIPE": "Broken pipe",
	"SIGXCPU": "CPU time limit exceeded",
	"SIGXFSZ": "File size limit exceeded",
	"SIGTERM": "Terminated (SIGTERM)",
	"SIGINT":  "Interrupted (SIGINT)",
	"SIGHUP":  "Hangup (SIGHUP)",
}

// POSIX signal numbers, for exit codes that encode a signal (128+n or -n).
var signalNumbers = map[int]string{
	1:  "SIGHUP",
	2:  "SIGINT",
	3:  "SIGQUIT",
	4:  "SIGILL",
	6:  "SIGABRT",
	7:  "SIGBUS",
	8:  "SIGFPE",
	9:  "SIGKILL",
	11: "SIGSEGV",
	13: "SIGPIPE",
	15: "SIGTERM",
	24: "SIGXCPU",
	25: "SIGXFSZ",
}

// Windows NTSTATUS exception codes, as surfaced in process exit codes. The
// process reports an unsigned 32-bit value that Go reinterprets as a negative
// signed int.
var ntstatusDescriptions = map[uint32]string{
	0xC0000005: "Access violation (invalid memory access)",
	0xC000001D: "Illegal instruction",
	0xC0000094: "Integer division by zero",
	0xC00000FD: "Stack overflow",
	0xC0000374: "Heap corruption detected",
	0xC0000409: "Stack buffer overrun detected",
	0xC000013A: "Process terminated (Ctrl+C)",
	0x40000015: "Fatal application exit (abort)",
}

// Classify resolves an exit code and an optional OS-reported signal name into
// a termination description. signalName takes precedence when non-empty;
// otherwise the signal is derived from the exit code by platform convention.
func Classify(exitCode int, signalName string) Classification {
	if signalName != "" {
		if desc, ok := signalDescriptions[signalName]; ok {
			return Classification{Signal: signalName, Description: desc}
		}
		return Classification{
			Signal:      signalName,
			Description: fmt.Sprintf("Terminated by signal %s", signalName),
		}
	}

	// POSIX shells report 128+signal; some platforms report the negated
	// signal number directly.
	var sigNum int
	switch {
	case exitCode > 128 && exitCode <= 128+64:
		sigNum = exitCode - 128
	// -1 is excluded: it is the conventional "exit code unknown" sentinel.
	case exitCode < -1 && exitCode >= -64:
		sigNum = -exitCode
	}
	if name, ok := signalNumbers[sigNum]; ok {
		return Classification{Signal: name, Description: signalDescriptions[name]}
	}

	// Windows exception codes come through as negative 32-bit values.
	if exitCode != 0 {
		u := uint32(exitCode) // reinterpret, reconstructing code + 2^32 for negatives
		if desc, ok := ntstatusDescriptions[u]; ok {
			return Classification{Description: desc}
		}
	}

	return Classification{Description: fmt.Sprintf("Process exited with code %d", exitCode)}
}
