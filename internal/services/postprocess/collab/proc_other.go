//go:build !unix

package collab

import "os/exec"

func configureProcess(_ *exec.Cmd) {}
