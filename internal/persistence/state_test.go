package persistence

import (
	"testing"

	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

func newTestSetup() (*Store, string) {
	fs := fsport.NewMemory()
	artifacts := artifact.NewStore(fs, "/runs")
	return NewStore(artifacts), "/runs/run-1"
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store, runDir := newTestSetup()
	ctx := statemachine.NewContext()
	ctx.CurrentState = statemachine.StateExecution
	ctx.ExecIterationCount = 2
	cfg := config.EffectiveConfig{RunID: "run-1"}

	if err := store.Save(runDir, ctx, cfg, "2026-07-31T00:00:00Z"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc, err := store.Load(runDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Context != ctx {
		t.Fatalf("context mismatch after round trip: got %+v want %+v", doc.Context, ctx)
	}
	if doc.Config.RunID != "run-1" {
		t.Fatalf("config mismatch: got %+v", doc.Config)
	}
}

func TestLoadOrNotFoundMapsMissingFile(t *testing.T) {
	store, runDir := newTestSetup()
	if _, err := store.LoadOrNotFound(runDir); err == nil {
		t.Fatal("expected PERSISTENCE_NO_RESUMABLE_RUN for a missing state file")
	}
}
