package persistence

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
)

// lockRecord is the JSON body of a run directory's .lock file: an
// opaque token plus the PID that took the lock, enough to tell a
// stale lock left by a crashed process from one still genuinely held.
type lockRecord struct {
	Token string `json:"token"`
	PID   int    `json:"pid"`
}

// Lock is the advisory lock on a run directory described in §5:
// "the run directory is owned exclusively by one Orchestrator
// instance... implementers should acquire an advisory lock file."
type Lock struct {
	fs    fsport.FileSystem
	path  string
	token string
}

// Acquire takes the advisory lock for runDir. It refuses to overwrite
// an existing lock held by a still-running process; a lock whose PID
// is no longer alive is treated as stale and reclaimed.
func Acquire(fs fsport.FileSystem, runDir string) (*Lock, error) {
	path := fs.Join(runDir, artifact.FileLock)
	if fs.Exists(path) {
		data, err := fs.Read(path)
		if err == nil {
			var existing lockRecord
			if jsonErr := json.Unmarshal(data, &existing); jsonErr == nil && processAlive(existing.PID) {
				return nil, reachc.New(reachc.CodePersistenceLocked, "run directory is locked by another process").
					WithContext("runDir", runDir).WithContext("pid", strconv.Itoa(existing.PID))
			}
		}
	}

	rec := lockRecord{Token: uuid.NewString(), PID: os.Getpid()}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, reachc.New(reachc.CodeInternal, "failed to marshal lock record").WithCause(err)
	}
	if err := fs.Write(path, data, fsport.DefaultWriteOptions()); err != nil {
		return nil, reachc.Classify(err).WithPaths(path)
	}
	return &Lock{fs: fs, path: path, token: rec.Token}, nil
}

// Release removes the lock file, but only if it still carries this
// Lock's token — guarding against releasing a lock some other process
// has since reclaimed.
func (l *Lock) Release() error {
	data, err := l.fs.Read(l.path)
	if err != nil {
		return nil // already gone
	}
	var existing lockRecord
	if jsonErr := json.Unmarshal(data, &existing); jsonErr == nil && existing.Token != l.token {
		return reachc.New(reachc.CodePersistenceLocked, "lock was reclaimed by another process; refusing to release it")
	}
	if err := l.fs.Remove(l.path); err != nil {
		return reachc.Classify(err).WithPaths(l.path)
	}
	return nil
}
