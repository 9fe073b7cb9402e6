//go:build windows

package executor

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// terminateTree kills the process and its descendants via taskkill, which
// walks the child tree recursively. A plain Kill would leave grandchildren
// running.
func terminateTree(p *os.Process) error {
	if p == nil {
		return nil
	}
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(p.Pid))
	if err := kill.Run(); err != nil {
		return p.Kill()
	}
	return nil
}

// terminationSignal always returns "": Windows reports exceptions through
// the exit code, which the exit-status classifier decodes instead.
func terminationSignal(*os.ProcessState) string {
	return ""
}
