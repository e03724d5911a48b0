package persistence

import (
	"sort"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
	"github.com/bsladewski/Tenacious-C-sub001/internal/logging"
	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

// ResumableRun names one candidate run directory and its parsed state.
type ResumableRun struct {
	RunDir string
	State  StateDocument
}

// FindLatestResumableRun implements §4.2: enumerate baseDir's immediate
// subdirectories, sort by modification time descending, load each
// execution-state.json, and return the first whose state is not
// terminal. Directories without the file, or with unreadable or
// invalid JSON, are skipped with a logged warning and treated as
// not-resumable.
//
// When registry is non-nil, LatestNonTerminal is consulted first: a hit
// that still loads and is still non-terminal is returned immediately,
// skipping the directory scan entirely. A registry miss, a stale or
// unreadable row, or a nil registry all fall back to the full scan
// below, which remains the source of truth.
func FindLatestResumableRun(fs fsport.FileSystem, store *Store, baseDir string, registry *Registry, log logging.Logger) (*ResumableRun, error) {
	if registry != nil {
		if run, ok := resumableFromRegistry(store, registry, log); ok {
			return run, nil
		}
	}

	infos, err := fs.List(baseDir, fsport.ListOptions{})
	if err != nil {
		return nil, reachc.Classify(err).WithPaths(baseDir)
	}

	type candidate struct {
		info fsport.Info
		path string
	}
	var dirs []candidate
	for _, info := range infos {
		if !info.IsDir {
			continue
		}
		dirs = append(dirs, candidate{info: info, path: fs.Join(baseDir, info.Name)})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].info.ModTime.After(dirs[j].info.ModTime) })

	for _, d := range dirs {
		doc, err := store.Load(d.path)
		if err != nil {
			if log != nil {
				log.Warn("skipping unresumable run directory", logging.F("runDir", d.path), logging.F("reason", err.Error()))
			}
			continue
		}
		if statemachine.IsTerminal(doc.Context.CurrentState) {
			continue
		}
		return &ResumableRun{RunDir: d.path, State: doc}, nil
	}

	return nil, reachc.New(reachc.CodePersistenceNoRun, "no resumable run found").WithContext("baseDir", baseDir)
}

// resumableFromRegistry attempts the accelerated path: ask the registry
// for its latest non-terminal row, then confirm it against disk (the
// registry can lag a crash or an out-of-process edit). Any miss or
// disagreement is logged and treated as a cache miss, not an error.
func resumableFromRegistry(store *Store, registry *Registry, log logging.Logger) (*ResumableRun, bool) {
	hit, ok, err := registry.LatestNonTerminal()
	if err != nil {
		if log != nil {
			log.Warn("run registry lookup failed, falling back to directory scan", logging.F("reason", err.Error()))
		}
		return nil, false
	}
	if !ok {
		return nil, false
	}

	doc, err := store.Load(hit.RunDir)
	if err != nil {
		if log != nil {
			log.Warn("run registry hit did not load, falling back to directory scan", logging.F("runDir", hit.RunDir), logging.F("reason", err.Error()))
		}
		return nil, false
	}
	if statemachine.IsTerminal(doc.Context.CurrentState) {
		return nil, false
	}
	return &ResumableRun{RunDir: hit.RunDir, State: doc}, true
}
