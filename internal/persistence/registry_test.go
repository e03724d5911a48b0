package persistence

import (
	"testing"

	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

func TestRegistryUpsertAndLatestNonTerminal(t *testing.T) {
	reg, err := OpenRegistry(":memory:")
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	defer reg.Close()

	doneCtx := statemachine.NewContext()
	doneCtx.CurrentState = statemachine.StateComplete
	if err := reg.Upsert("run-1", "/runs/run-1", StateDocument{Context: doneCtx, LastSaved: "t1"}); err != nil {
		t.Fatalf("Upsert run-1: %v", err)
	}

	activeCtx := statemachine.NewContext()
	activeCtx.CurrentState = statemachine.StateExecution
	if err := reg.Upsert("run-2", "/runs/run-2", StateDocument{Context: activeCtx, LastSaved: "t2"}); err != nil {
		t.Fatalf("Upsert run-2: %v", err)
	}

	hit, ok, err := reg.LatestNonTerminal()
	if err != nil {
		t.Fatalf("LatestNonTerminal: %v", err)
	}
	if !ok {
		t.Fatal("expected a non-terminal hit")
	}
	if hit.RunID != "run-2" {
		t.Fatalf("expected run-2, got %s", hit.RunID)
	}
}

func TestRegistryLatestNonTerminalEmpty(t *testing.T) {
	reg, err := OpenRegistry(":memory:")
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	defer reg.Close()

	_, ok, err := reg.LatestNonTerminal()
	if err != nil {
		t.Fatalf("LatestNonTerminal: %v", err)
	}
	if ok {
		t.Fatal("expected no hit on an empty registry")
	}
}
