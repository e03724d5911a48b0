//go:build !unix

package errors

import "os/exec"

func signalStatus(exitErr *exec.ExitError) (string, bool) {
	return "", false
}
