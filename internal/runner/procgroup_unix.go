//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcGroup starts cmd in its own process group so cancelling the
// context also stops the containers, browsers and PHP workers the tool
// forked.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 3 * time.Second
}
