package artifact

import (
	"testing"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

func seedPlan(t *testing.T, s *Store, planDir string, withMetadata bool) {
	t.Helper()
	if err := s.WriteText(s.Join(planDir, FilePlanMD), "# Plan\nDo the thing.\n"); err != nil {
		t.Fatalf("seed plan.md: %v", err)
	}
	if withMetadata {
		meta := PlanMetadata{SchemaVersion: CurrentSchemaVersion, Confidence: 90, OpenQuestions: []string{}, Summary: "s"}
		if err := WriteJSON(s, s.Join(planDir, FilePlanMetadata), meta); err != nil {
			t.Fatalf("seed plan-metadata.json: %v", err)
		}
	}
}

func TestValidatePlanArtifactsComplete(t *testing.T) {
	s := newTestStore()
	planDir := s.Join("/runs", "run-1", "plan")
	seedPlan(t, s, planDir, true)

	meta, err := ValidatePlanArtifacts(s, planDir)
	if err != nil {
		t.Fatalf("ValidatePlanArtifacts: %v", err)
	}
	if meta.Confidence != 90 {
		t.Fatalf("unexpected confidence: %d", meta.Confidence)
	}
}

func TestValidatePlanArtifactsMissingMetadata(t *testing.T) {
	s := newTestStore()
	planDir := s.Join("/runs", "run-1", "plan")
	seedPlan(t, s, planDir, false)

	_, err := ValidatePlanArtifacts(s, planDir)
	if err == nil {
		t.Fatal("expected ARTIFACT_INCOMPLETE")
	}
	rerr, ok := err.(*reachc.Error)
	if !ok || rerr.Code != reachc.CodeArtifactIncomplete {
		t.Fatalf("expected ARTIFACT_INCOMPLETE, got %v", err)
	}
}

func TestValidatePlanArtifactsEmptyPlanMD(t *testing.T) {
	s := newTestStore()
	planDir := s.Join("/runs", "run-1", "plan")
	if err := s.WriteText(s.Join(planDir, FilePlanMD), "   \n"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	meta := PlanMetadata{SchemaVersion: CurrentSchemaVersion, OpenQuestions: []string{}, Summary: "s"}
	if err := WriteJSON(s, s.Join(planDir, FilePlanMetadata), meta); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}

	_, err := ValidatePlanArtifacts(s, planDir)
	if err == nil {
		t.Fatal("expected empty plan.md to be rejected")
	}
}

func TestValidateExecutionArtifactsComplete(t *testing.T) {
	s := newTestStore()
	execDir := s.Join("/runs", "run-1", "execute")
	meta := ExecuteMetadata{SchemaVersion: CurrentSchemaVersion, HardBlockers: []HardBlocker{}, Summary: "done"}
	if err := WriteJSON(s, s.Join(execDir, FileExecuteMetadata), meta); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.WriteText(s.Join(execDir, ExecutionSummaryMD(1)), "# Summary\n"); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	got, err := ValidateExecutionArtifacts(s, execDir, 1)
	if err != nil {
		t.Fatalf("ValidateExecutionArtifacts: %v", err)
	}
	if got.HasHardBlockers() {
		t.Fatal("expected no hard blockers")
	}
}

func TestValidateExecutionArtifactsMissingSummary(t *testing.T) {
	s := newTestStore()
	execDir := s.Join("/runs", "run-1", "execute")
	meta := ExecuteMetadata{SchemaVersion: CurrentSchemaVersion, HardBlockers: []HardBlocker{}, Summary: "done"}
	if err := WriteJSON(s, s.Join(execDir, FileExecuteMetadata), meta); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := ValidateExecutionArtifacts(s, execDir, 1); err == nil {
		t.Fatal("expected missing execution-summary-1.md to be rejected")
	}
}

func TestValidateGapAuditArtifactsComplete(t *testing.T) {
	s := newTestStore()
	dir := s.Join("/runs", "run-1", "gap-audit")
	meta := GapAuditMetadata{SchemaVersion: CurrentSchemaVersion, GapsIdentified: true, Summary: "gaps found"}
	if err := WriteJSON(s, s.Join(dir, FileGapAuditMetadata), meta); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.WriteText(s.Join(dir, GapAuditSummaryMD(1)), "# Gap audit\n"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := ValidateGapAuditArtifacts(s, dir, 1)
	if err != nil {
		t.Fatalf("ValidateGapAuditArtifacts: %v", err)
	}
	if !got.GapsIdentified {
		t.Fatal("expected gapsIdentified true")
	}
}

func TestGetExecutionArtifactsReconstructsProgress(t *testing.T) {
	s := newTestStore()
	execDir := s.Join("/runs", "run-1", "execute")
	names := []string{
		ExecutionSummaryMD(1),
		ExecutionSummaryFollowUpMD(1, 0),
		ExecutionSummaryFollowUpMD(1, 2),
		ExecutionSummaryFollowUpMD(1, 1),
	}
	for _, n := range names {
		if err := s.WriteText(s.Join(execDir, n), "x"); err != nil {
			t.Fatalf("seed %s: %v", n, err)
		}
	}
	if err := s.WriteText(s.Join(execDir, FileExecuteMetadata), "{}"); err != nil {
		t.Fatalf("seed unrelated file: %v", err)
	}

	got, err := GetExecutionArtifacts(s, execDir, 1)
	if err != nil {
		t.Fatalf("GetExecutionArtifacts: %v", err)
	}
	if !got.InitialDone {
		t.Fatal("expected InitialDone true")
	}
	if !got.HasDoneIteration0 {
		t.Fatal("expected HasDoneIteration0 true")
	}
	if got.LastFollowUpIteration != 2 {
		t.Fatalf("expected LastFollowUpIteration=2, got %d", got.LastFollowUpIteration)
	}
	if len(got.AllFollowUpIterations) != 3 {
		t.Fatalf("expected 3 follow-up iterations, got %v", got.AllFollowUpIterations)
	}
}

func TestGetExecutionArtifactsNoFollowUps(t *testing.T) {
	s := newTestStore()
	execDir := s.Join("/runs", "run-1", "execute")
	if err := s.WriteText(s.Join(execDir, ExecutionSummaryMD(1)), "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := GetExecutionArtifacts(s, execDir, 1)
	if err != nil {
		t.Fatalf("GetExecutionArtifacts: %v", err)
	}
	if !got.InitialDone {
		t.Fatal("expected InitialDone true")
	}
	if got.HasDoneIteration0 {
		t.Fatal("expected HasDoneIteration0 false")
	}
	if got.LastFollowUpIteration != -1 {
		t.Fatalf("expected LastFollowUpIteration=-1, got %d", got.LastFollowUpIteration)
	}
}
