package processrunner

import (
	"context"
	"sync"
)

// Scripted is a ProcessRunner fake for tests and for runMode.mockMode: it
// returns pre-programmed results keyed by invocation order, without
// spawning any real process.
type Scripted struct {
	mu       sync.Mutex
	Results  []SpawnResult
	Errors   []error
	Calls    []Call
	killed   []string
}

type Call struct {
	Command string
	Opts    SpawnOptions
}

func NewScripted() *Scripted { return &Scripted{} }

func (s *Scripted) Spawn(ctx context.Context, command string, opts SpawnOptions) (SpawnResult, error) {
	s.mu.Lock()
	idx := len(s.Calls)
	s.Calls = append(s.Calls, Call{Command: command, Opts: opts})
	s.mu.Unlock()

	var result SpawnResult
	var err error
	if idx < len(s.Results) {
		result = s.Results[idx]
	}
	if idx < len(s.Errors) {
		err = s.Errors[idx]
	}
	if opts.OnStdout != nil {
		for _, line := range result.StdoutTail {
			opts.OnStdout(line)
		}
	}
	return result, err
}

func (s *Scripted) KillAll(signal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killed = append(s.killed, signal)
}
