//go:build unix

package persistence

import (
	"os"
	"syscall"
)

// processAlive probes whether pid still refers to a live process by
// sending the null signal, which performs only the existence and
// permission checks without delivering anything real.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
