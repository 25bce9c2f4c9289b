//go:build unix

package collab

import (
	"os/exec"
	"syscall"
)

// configureProcess puts the bridge in its own process group so cancellation also
// reaches any workers it forked
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
