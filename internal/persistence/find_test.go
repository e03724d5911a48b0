package persistence

import (
	"testing"
	"time"

	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
	"github.com/bsladewski/Tenacious-C-sub001/internal/logging"
	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

func saveRun(t *testing.T, store *Store, runDir string, state statemachine.State) {
	t.Helper()
	ctx := statemachine.NewContext()
	ctx.CurrentState = state
	cfg := config.EffectiveConfig{RunID: runDir}
	if err := store.Save(runDir, ctx, cfg, "2026-07-31T00:00:00Z"); err != nil {
		t.Fatalf("seed %s: %v", runDir, err)
	}
}

func TestFindLatestResumableRunSkipsTerminalAndInvalid(t *testing.T) {
	fs := fsport.NewMemory()
	artifacts := artifact.NewStore(fs, "/runs")
	store := NewStore(artifacts)

	saveRun(t, store, "/runs/run-1", statemachine.StateComplete)
	time.Sleep(time.Millisecond)
	saveRun(t, store, "/runs/run-2", statemachine.StateExecution)
	time.Sleep(time.Millisecond)
	// run-3 has no execution-state.json at all; must be skipped.
	if err := fs.Mkdir("/runs/run-3"); err != nil {
		t.Fatalf("mkdir run-3: %v", err)
	}

	got, err := FindLatestResumableRun(fs, store, "/runs", nil, logging.Noop{})
	if err != nil {
		t.Fatalf("FindLatestResumableRun: %v", err)
	}
	if got.RunDir != "/runs/run-2" {
		t.Fatalf("expected run-2, got %s", got.RunDir)
	}
}

func TestFindLatestResumableRunNoneFound(t *testing.T) {
	fs := fsport.NewMemory()
	artifacts := artifact.NewStore(fs, "/runs")
	store := NewStore(artifacts)
	saveRun(t, store, "/runs/run-1", statemachine.StateComplete)

	if _, err := FindLatestResumableRun(fs, store, "/runs", nil, logging.Noop{}); err == nil {
		t.Fatal("expected PERSISTENCE_NO_RESUMABLE_RUN when every run is terminal")
	}
}

func TestFindLatestResumableRunUsesRegistryHit(t *testing.T) {
	dir := t.TempDir()
	fs := fsport.NewMemory()
	artifacts := artifact.NewStore(fs, "/runs")
	store := NewStore(artifacts)

	saveRun(t, store, "/runs/run-1", statemachine.StateComplete)
	time.Sleep(time.Millisecond)
	saveRun(t, store, "/runs/run-2", statemachine.StateExecution)

	registry, err := OpenRegistry(dir + "/registry.db")
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	defer registry.Close()
	if err := registry.Upsert("run-2", "/runs/run-2", StateDocument{Context: statemachine.Context{CurrentState: statemachine.StateExecution}, LastSaved: "2026-07-31T00:00:00Z"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := FindLatestResumableRun(fs, store, "/runs", registry, logging.Noop{})
	if err != nil {
		t.Fatalf("FindLatestResumableRun: %v", err)
	}
	if got.RunDir != "/runs/run-2" {
		t.Fatalf("expected registry-accelerated hit run-2, got %s", got.RunDir)
	}
}

func TestFindLatestResumableRunFallsBackWhenRegistryStale(t *testing.T) {
	dir := t.TempDir()
	fs := fsport.NewMemory()
	artifacts := artifact.NewStore(fs, "/runs")
	store := NewStore(artifacts)

	saveRun(t, store, "/runs/run-1", statemachine.StateExecution)

	registry, err := OpenRegistry(dir + "/registry.db")
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	defer registry.Close()
	// Registry points at a run directory that no longer exists on disk.
	if err := registry.Upsert("run-stale", "/runs/run-stale", StateDocument{Context: statemachine.Context{CurrentState: statemachine.StateExecution}, LastSaved: "2026-07-31T00:00:00Z"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := FindLatestResumableRun(fs, store, "/runs", registry, logging.Noop{})
	if err != nil {
		t.Fatalf("FindLatestResumableRun: %v", err)
	}
	if got.RunDir != "/runs/run-1" {
		t.Fatalf("expected directory-scan fallback to run-1, got %s", got.RunDir)
	}
}
