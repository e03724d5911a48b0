//go:build !unix

package persistence

import "os"

// processAlive probes whether pid still refers to a live process.
// Non-Unix platforms don't support the null-signal idiom, so this
// falls back to whether the process can be opened at all.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	_, err := os.FindProcess(pid)
	return err == nil
}
