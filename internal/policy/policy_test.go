package policy

import "github.com/bsladewski/Tenacious-C-sub001/internal/config"

import "testing"

func testConfig() config.EffectiveConfig {
	return config.EffectiveConfig{
		Limits: config.Limits{
			MaxPlanIterations:     3,
			MaxExecIterations:     2,
			MaxFollowUpIterations: 4,
			MaxGapAuditIterations: 2,
		},
		Thresholds: config.Thresholds{PlanConfidence: 85},
	}
}

func TestCheckPlanRevisionStopConditionMet(t *testing.T) {
	d := CheckPlanRevisionStop(testConfig(), 1, false, 90)
	if d.Outcome != OutcomeConditionMet {
		t.Fatalf("expected CONDITION_MET, got %s", d.Outcome)
	}
}

func TestCheckPlanRevisionStopBelowThresholdContinues(t *testing.T) {
	d := CheckPlanRevisionStop(testConfig(), 1, false, 50)
	if d.Outcome != OutcomeContinue || d.Reason != "below-threshold" {
		t.Fatalf("expected CONTINUE/below-threshold, got %s/%s", d.Outcome, d.Reason)
	}
}

func TestCheckPlanRevisionStopOpenQuestionsContinues(t *testing.T) {
	d := CheckPlanRevisionStop(testConfig(), 1, true, 95)
	if d.Outcome != OutcomeContinue || d.Reason != "open-questions" {
		t.Fatalf("expected CONTINUE/open-questions, got %s/%s", d.Outcome, d.Reason)
	}
}

func TestCheckPlanRevisionStopLimitReached(t *testing.T) {
	d := CheckPlanRevisionStop(testConfig(), 3, true, 10)
	if d.Outcome != OutcomeLimitReached {
		t.Fatalf("expected LIMIT_REACHED, got %s", d.Outcome)
	}
	if len(d.NextSteps) == 0 {
		t.Fatal("expected actionable next steps")
	}
}

func TestCheckPlanRevisionStopUnlimitedNeverLimitReached(t *testing.T) {
	cfg := testConfig()
	cfg.RunMode.UnlimitedIterations = true
	d := CheckPlanRevisionStop(cfg, 1000, true, 0)
	if d.Outcome != OutcomeContinue {
		t.Fatalf("expected CONTINUE under unlimited mode, got %s", d.Outcome)
	}
}

func TestCheckFollowUpStopNoMoreWork(t *testing.T) {
	d := CheckFollowUpStop(testConfig(), 0, false, false)
	if d.Outcome != OutcomeNoMoreWork {
		t.Fatalf("expected NO_MORE_WORK, got %s", d.Outcome)
	}
}

func TestCheckFollowUpStopLimitReachedWithHardBlockers(t *testing.T) {
	d := CheckFollowUpStop(testConfig(), 4, true, true)
	if d.Outcome != OutcomeLimitReached {
		t.Fatalf("expected LIMIT_REACHED, got %s", d.Outcome)
	}
	found := false
	for _, s := range d.NextSteps {
		if s == "Hard blockers remain and must be resolved manually" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hard-blocker next step, got %v", d.NextSteps)
	}
}

func TestCheckFollowUpStopContinues(t *testing.T) {
	d := CheckFollowUpStop(testConfig(), 1, true, false)
	if d.Outcome != OutcomeContinue {
		t.Fatalf("expected CONTINUE, got %s", d.Outcome)
	}
}

func TestCheckExecutionIterationStopConditionMet(t *testing.T) {
	d := CheckExecutionIterationStop(testConfig(), 1, false)
	if d.Outcome != OutcomeConditionMet {
		t.Fatalf("expected CONDITION_MET, got %s", d.Outcome)
	}
}

func TestCheckExecutionIterationStopLimitReached(t *testing.T) {
	d := CheckExecutionIterationStop(testConfig(), 2, true)
	if d.Outcome != OutcomeLimitReached {
		t.Fatalf("expected LIMIT_REACHED, got %s", d.Outcome)
	}
}

func TestCheckExecutionIterationStopContinues(t *testing.T) {
	d := CheckExecutionIterationStop(testConfig(), 1, true)
	if d.Outcome != OutcomeContinue {
		t.Fatalf("expected CONTINUE, got %s", d.Outcome)
	}
}

func TestProgressDisplayFormats(t *testing.T) {
	cfg := testConfig()
	p := PlanRevisionProgress(cfg, 2)
	if p.Display != "2/3" || p.Unlimited {
		t.Fatalf("unexpected progress: %+v", p)
	}

	cfg.RunMode.UnlimitedIterations = true
	p = ExecutionProgress(cfg, 7)
	if p.Display != "7/∞" || !p.Unlimited {
		t.Fatalf("unexpected unlimited progress: %+v", p)
	}
}
