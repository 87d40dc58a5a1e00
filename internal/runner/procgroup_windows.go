//go:build windows

package runner

import (
	"os/exec"
	"time"
)

// setProcGroup only bounds the wait on Windows, which has no Unix process
// groups. CommandContext already kills the child on cancellation.
func setProcGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = 3 * time.Second
}
