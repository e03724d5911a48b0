package orchestrator

import (
	"testing"
	"time"

	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	"github.com/bsladewski/Tenacious-C-sub001/internal/clock"
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
	"github.com/bsladewski/Tenacious-C-sub001/internal/logging"
	"github.com/bsladewski/Tenacious-C-sub001/internal/prompter"
	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

func testCfg(runID string) config.EffectiveConfig {
	return config.EffectiveConfig{
		RunID: runID,
		Paths: config.Paths{
			ArtifactBaseDir: "/runs",
			RunDirectory:    "/runs/" + runID,
		},
		Thresholds: config.Thresholds{PlanConfidence: 80},
	}
}

func newTestOrchestrator(runID string) (*Orchestrator, *fsport.Memory) {
	fs := fsport.NewMemory()
	cfg := testCfg(runID)
	clk := clock.NewMock(time.Unix(1700000000, 0))
	o := New(cfg, fs, prompter.NonInteractive{}, clk, logging.Noop{}, nil)
	return o, fs
}

func seedPlan(t *testing.T, o *Orchestrator) {
	t.Helper()
	planDir := artifact.PlanDir(o.fs, o.RunDir())
	if err := o.artifacts.WriteText(o.artifacts.Join(planDir, artifact.FilePlanMD), "# Plan\ndo it\n"); err != nil {
		t.Fatalf("seed plan.md: %v", err)
	}
	meta := artifact.PlanMetadata{SchemaVersion: artifact.CurrentSchemaVersion, Confidence: 90, OpenQuestions: []string{}, Summary: "s"}
	if err := artifact.WriteJSON(o.artifacts, o.artifacts.Join(planDir, artifact.FilePlanMetadata), meta); err != nil {
		t.Fatalf("seed plan-metadata.json: %v", err)
	}
}

func seedExecution(t *testing.T, o *Orchestrator, iteration int) {
	t.Helper()
	execDir := artifact.ExecuteDir(o.fs, o.RunDir(), iteration)
	meta := artifact.ExecuteMetadata{SchemaVersion: artifact.CurrentSchemaVersion, HardBlockers: []artifact.HardBlocker{}, Summary: "done"}
	if err := artifact.WriteJSON(o.artifacts, o.artifacts.Join(execDir, artifact.FileExecuteMetadata), meta); err != nil {
		t.Fatalf("seed execute-metadata.json: %v", err)
	}
	if err := o.artifacts.WriteText(o.artifacts.Join(execDir, artifact.ExecutionSummaryMD(iteration)), "# Summary\n"); err != nil {
		t.Fatalf("seed execution-summary: %v", err)
	}
}

func seedGapAudit(t *testing.T, o *Orchestrator, iteration int, gapsIdentified bool) {
	t.Helper()
	dir := artifact.GapAuditDir(o.fs, o.RunDir(), iteration)
	meta := artifact.GapAuditMetadata{SchemaVersion: artifact.CurrentSchemaVersion, GapsIdentified: gapsIdentified, Summary: "s"}
	if err := artifact.WriteJSON(o.artifacts, o.artifacts.Join(dir, artifact.FileGapAuditMetadata), meta); err != nil {
		t.Fatalf("seed gap-audit-metadata.json: %v", err)
	}
	if err := o.artifacts.WriteText(o.artifacts.Join(dir, artifact.GapAuditSummaryMD(iteration)), "# Gap audit\n"); err != nil {
		t.Fatalf("seed gap-audit summary: %v", err)
	}
}

func TestOrchestratorHappyPathToComplete(t *testing.T) {
	o, _ := newTestOrchestrator("run-happy")

	if res, err := o.Start("do the thing"); err != nil || res.State != statemachine.StatePlanGeneration {
		t.Fatalf("Start: res=%+v err=%v", res, err)
	}
	if o.lock == nil {
		t.Fatal("expected lock acquired after Start")
	}

	seedPlan(t, o)
	if res, err := o.OnPlanComplete(90); err != nil || res.State != statemachine.StateExecution {
		t.Fatalf("OnPlanComplete: res=%+v err=%v", res, err)
	}
	if got := o.GetContext().ExecIterationCount; got != 1 {
		t.Fatalf("expected ExecIterationCount=1, got %d", got)
	}

	seedExecution(t, o, 1)
	if res, err := o.OnExecutionComplete(false, false); err != nil || res.State != statemachine.StateGapAudit {
		t.Fatalf("OnExecutionComplete: res=%+v err=%v", res, err)
	}

	seedGapAudit(t, o, 1, false)
	if res, err := o.OnGapAuditComplete(false); err != nil || res.State != statemachine.StateSummaryGeneration {
		t.Fatalf("OnGapAuditComplete: res=%+v err=%v", res, err)
	}

	if res, err := o.OnGenerateSummary(); err != nil || res.State != statemachine.StateSummaryGeneration {
		t.Fatalf("OnGenerateSummary: res=%+v err=%v", res, err)
	}
	if err := o.WriteSummary(); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	summaryPath := o.artifacts.Join(o.RunDir(), artifact.FileRunSummary)
	if !o.artifacts.Exists(summaryPath) {
		t.Fatal("expected run-summary.md to exist")
	}

	res, err := o.OnSummaryComplete()
	if err != nil || res.State != statemachine.StateComplete || !res.IsComplete {
		t.Fatalf("OnSummaryComplete: res=%+v err=%v", res, err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit code 0 on completion, got %d", res.ExitCode)
	}
	if o.lock != nil {
		t.Fatal("expected lock released on completion")
	}
	if !o.IsComplete() {
		t.Fatal("expected IsComplete() true")
	}
}

func TestOnPlanCompleteRejectsIncompletePlan(t *testing.T) {
	o, _ := newTestOrchestrator("run-bad-plan")
	if _, err := o.Start("do the thing"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// No plan-metadata.json seeded: validation must reject before C4 ever
	// sees PLAN_COMPLETE.
	res, err := o.OnPlanComplete(90)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if res.State != statemachine.StateFailed {
		t.Fatalf("expected FAILED, got %s", res.State)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3 (schema/validation), got %d", res.ExitCode)
	}
	if o.lock != nil {
		t.Fatal("expected lock released on failure")
	}
}

func TestOnExecutionCompleteRejectsIncompleteArtifacts(t *testing.T) {
	o, _ := newTestOrchestrator("run-bad-exec")
	if _, err := o.Start("do the thing"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	seedPlan(t, o)
	if _, err := o.OnPlanComplete(90); err != nil {
		t.Fatalf("OnPlanComplete: %v", err)
	}

	// Execute directory never seeded.
	if _, err := o.OnExecutionComplete(false, false); err == nil {
		t.Fatal("expected execution artifact validation failure")
	}
	if o.GetCurrentState() != statemachine.StateFailed {
		t.Fatalf("expected FAILED, got %s", o.GetCurrentState())
	}
}

func TestSecondStartFailsWhileLockHeld(t *testing.T) {
	o1, fs := newTestOrchestrator("run-locked")
	if _, err := o1.Start("requirements"); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	cfg := testCfg("run-locked")
	clk := clock.NewMock(time.Unix(1700000100, 0))
	o2 := New(cfg, fs, prompter.NonInteractive{}, clk, logging.Noop{}, nil)
	res, err := o2.Start("requirements")
	if err == nil {
		t.Fatal("expected second Start to fail on an already-locked run directory")
	}
	if res.Error.Code != reachc.CodePersistenceLocked {
		t.Fatalf("expected PERSISTENCE_LOCKED, got %v", res.Error.Code)
	}
}

func TestOnErrorTransitionsToFailedAndReleasesLock(t *testing.T) {
	o, _ := newTestOrchestrator("run-error")
	if _, err := o.Start("requirements"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	boom := reachc.New(reachc.CodeInternal, "boom")
	res, err := o.OnError(boom)
	if err == nil {
		t.Fatal("expected an error result")
	}
	if res.State != statemachine.StateFailed {
		t.Fatalf("expected FAILED, got %s", res.State)
	}
	if o.lock != nil {
		t.Fatal("expected lock released after OnError")
	}
}
