//go:build !windows

package executor

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup places the child in its own process group so the whole
// tree can be signalled at once.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateTree kills the process and every descendant by signalling its
// process group. Falls back to a direct kill if the group is gone.
func terminateTree(p *os.Process) error {
	if p == nil {
		return nil
	}
	pgid, err := unix.Getpgid(p.Pid)
	if err == nil && pgid > 0 {
		return unix.Kill(-pgid, unix.SIGKILL)
	}
	return p.Kill()
}

// terminationSignal returns the name of the signal that killed the process,
// or "" for a normal exit.
func terminationSignal(state *os.ProcessState) string {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return unix.SignalName(ws.Signal())
}
