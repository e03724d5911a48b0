// Package policy implements the Iteration Policy (C3, spec §4.3): pure
// stop-condition predicates over (EffectiveConfig, counters, signals).
// Nothing in this package touches the filesystem, a clock, or a
// process — every function here is a plain value transformation, which
// is what makes the state machine built on top of it exhaustively
// table-testable.
package policy

import (
	"strconv"

	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
)

// Outcome is the verdict a stop-condition predicate reaches.
type Outcome string

const (
	OutcomeConditionMet Outcome = "CONDITION_MET"
	OutcomeLimitReached Outcome = "LIMIT_REACHED"
	OutcomeContinue     Outcome = "CONTINUE"
	OutcomeNoMoreWork   Outcome = "NO_MORE_WORK"
)

// Decision is the result of a stop-condition check: an outcome, a
// human-readable message, a short machine-readable reason, and — when
// a limit was reached — an ordered list of actionable next steps.
type Decision struct {
	Outcome   Outcome
	Reason    string
	Message   string
	NextSteps []string
}

// Progress is the {current, max, unlimited, display} helper shape used
// to render iteration counters consistently across logs and summaries.
type Progress struct {
	Current   int
	Max       int
	Unlimited bool
	Display   string
}

// progressFor builds a Progress for a counter against a configured
// limit, honoring unlimited mode and the sentinel-max convention.
func progressFor(cfg config.EffectiveConfig, current, limit int) Progress {
	unlimited := cfg.Unlimited() || limit >= config.Unbounded
	p := Progress{Current: current, Max: limit, Unlimited: unlimited}
	if unlimited {
		p.Display = strconv.Itoa(current) + "/∞"
	} else {
		p.Display = strconv.Itoa(current) + "/" + strconv.Itoa(limit)
	}
	return p
}

// PlanRevisionProgress reports plan-revision progress against
// limits.maxPlanIterations.
func PlanRevisionProgress(cfg config.EffectiveConfig, revisionCount int) Progress {
	return progressFor(cfg, revisionCount, cfg.Limits.MaxPlanIterations)
}

// FollowUpProgress reports follow-up progress against
// limits.maxFollowUpIterations.
func FollowUpProgress(cfg config.EffectiveConfig, iterationCount int) Progress {
	return progressFor(cfg, iterationCount, cfg.Limits.MaxFollowUpIterations)
}

// ExecutionProgress reports execution-iteration progress against
// limits.maxExecIterations.
func ExecutionProgress(cfg config.EffectiveConfig, execCount int) Progress {
	return progressFor(cfg, execCount, cfg.Limits.MaxExecIterations)
}

// GapAuditProgress reports gap-audit progress against
// limits.maxGapAuditIterations.
func GapAuditProgress(cfg config.EffectiveConfig, auditCount int) Progress {
	return progressFor(cfg, auditCount, cfg.Limits.MaxGapAuditIterations)
}

// CheckPlanRevisionStop implements §4.3's checkPlanRevisionStop.
func CheckPlanRevisionStop(cfg config.EffectiveConfig, revisionCount int, hasOpenQuestions bool, lastConfidence int) Decision {
	if !hasOpenQuestions && lastConfidence >= cfg.Thresholds.PlanConfidence {
		return Decision{
			Outcome: OutcomeConditionMet,
			Reason:  "confidence-threshold-met",
			Message: "plan has no open questions and confidence meets the configured threshold",
		}
	}
	limit := cfg.EffectiveLimit(cfg.Limits.MaxPlanIterations)
	if limit != config.Unbounded && revisionCount >= limit {
		return Decision{
			Outcome: OutcomeLimitReached,
			Reason:  "max-plan-iterations",
			Message: "maximum plan revision iterations reached without convergence",
			NextSteps: []string{
				"Answer the remaining open questions manually or resume with --resume",
				"Increase maxPlanIterations",
			},
		}
	}
	reason := "below-threshold"
	if hasOpenQuestions {
		reason = "open-questions"
	}
	return Decision{
		Outcome: OutcomeContinue,
		Reason:  reason,
		Message: "plan revision should continue: " + reason,
	}
}

// CheckFollowUpStop implements §4.3's checkFollowUpStop.
func CheckFollowUpStop(cfg config.EffectiveConfig, iterationCount int, hasFollowUps, hasHardBlockers bool) Decision {
	if !hasFollowUps && !hasHardBlockers {
		return Decision{
			Outcome: OutcomeNoMoreWork,
			Reason:  "no-remaining-work",
			Message: "no follow-ups or hard blockers remain",
		}
	}
	limit := cfg.EffectiveLimit(cfg.Limits.MaxFollowUpIterations)
	if limit != config.Unbounded && iterationCount >= limit {
		nextSteps := []string{"Increase maxFollowUpIterations"}
		if hasHardBlockers {
			nextSteps = append(nextSteps, "Hard blockers remain and must be resolved manually")
		}
		return Decision{
			Outcome:   OutcomeLimitReached,
			Reason:    "max-followup-iterations",
			Message:   "maximum follow-up iterations reached without exhausting remaining work",
			NextSteps: nextSteps,
		}
	}
	return Decision{
		Outcome: OutcomeContinue,
		Reason:  "work-remaining",
		Message: "follow-up work remains",
	}
}

// CheckExecutionIterationStop implements §4.3's checkExecutionIterationStop.
func CheckExecutionIterationStop(cfg config.EffectiveConfig, execCount int, gapsIdentified bool) Decision {
	if !gapsIdentified {
		return Decision{
			Outcome: OutcomeConditionMet,
			Reason:  "no-gaps-identified",
			Message: "gap audit identified no gaps",
		}
	}
	limit := cfg.EffectiveLimit(cfg.Limits.MaxExecIterations)
	if limit != config.Unbounded && execCount >= limit {
		return Decision{
			Outcome: OutcomeLimitReached,
			Reason:  "max-exec-iterations",
			Message: "maximum execution iterations reached with gaps still identified",
			NextSteps: []string{
				"Increase maxExecIterations",
				"Review the gap audit summaries and close remaining gaps manually",
			},
		}
	}
	return Decision{
		Outcome: OutcomeContinue,
		Reason:  "gaps-remaining",
		Message: "gap audit identified gaps; another execution iteration is required",
	}
}
