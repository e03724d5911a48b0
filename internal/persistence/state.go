// Package persistence implements State Persistence (C2, spec §4.2):
// serializing the Orchestration Context and an Effective Config
// snapshot into execution-state.json, advisory run-directory locking,
// and discovery of the latest resumable run.
package persistence

import (
	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

// StateDocument is execution-state.json's schema (§3): the full
// Orchestration Context plus an Effective Config snapshot and the
// timestamp of the save itself.
type StateDocument struct {
	Context    statemachine.Context   `json:"context"`
	Config     config.EffectiveConfig `json:"config"`
	LastSaved  string                 `json:"lastSaved"`
}

func (d StateDocument) Validate() []artifact.FieldError {
	var errs []artifact.FieldError
	if d.Context.CurrentState == "" {
		errs = append(errs, artifact.FieldError{Path: "$.context.currentState", Message: "must be present"})
	}
	if d.Config.RunID == "" {
		errs = append(errs, artifact.FieldError{Path: "$.config.runId", Message: "must be present"})
	}
	if d.LastSaved == "" {
		errs = append(errs, artifact.FieldError{Path: "$.lastSaved", Message: "must be present"})
	}
	return errs
}

// Store wraps the Artifact Store with the C2-specific save/load
// operations; every write and read still flows through C1 so path
// safety and atomic-write guarantees apply uniformly (§4.2: "Writes
// are atomic (C1)").
type Store struct {
	artifacts *artifact.Store
}

func NewStore(artifacts *artifact.Store) *Store { return &Store{artifacts: artifacts} }

// Save atomically persists the run's execution-state.json.
func (s *Store) Save(runDir string, ctx statemachine.Context, cfg config.EffectiveConfig, nowISO string) error {
	doc := StateDocument{Context: ctx, Config: cfg, LastSaved: nowISO}
	path := s.artifacts.Join(runDir, artifact.FileExecutionState)
	return artifact.WriteJSON(s.artifacts, path, doc)
}

// Load reads and schema-validates a run's execution-state.json.
func (s *Store) Load(runDir string) (StateDocument, error) {
	path := s.artifacts.Join(runDir, artifact.FileExecutionState)
	doc, err := artifact.ReadJSON[StateDocument](s.artifacts, path)
	if err != nil {
		return StateDocument{}, err
	}
	return doc, nil
}

// LoadOrNotFound is like Load but maps a missing file to
// PERSISTENCE_NO_RESUMABLE_RUN instead of ARTIFACT_NOT_FOUND, which is
// the vocabulary findLatestResumableRun's callers expect.
func (s *Store) LoadOrNotFound(runDir string) (StateDocument, error) {
	doc, err := s.Load(runDir)
	if err != nil {
		if rerr, ok := err.(*reachc.Error); ok && rerr.Code == reachc.CodeArtifactNotFound {
			return StateDocument{}, reachc.New(reachc.CodePersistenceNoRun, "no execution-state.json in run directory").
				WithContext("runDir", runDir)
		}
		return StateDocument{}, err
	}
	return doc, nil
}
