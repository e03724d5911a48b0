package statemachine

import (
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
)

// legalTargets is the static adjacency table from §4.4, including the
// TOOL_CURATION pass-through state (gated at the event-handling level,
// not here, by whether a run's config enables it).
var legalTargets = map[State][]State{
	StateIdle:              {StatePlanGeneration},
	StatePlanGeneration:    {StatePlanRevision, StateToolCuration, StateExecution, StateFailed},
	StatePlanRevision:      {StatePlanRevision, StateToolCuration, StateExecution, StateSummaryGeneration, StateFailed},
	StateToolCuration:      {StateToolCuration, StateExecution, StateFailed},
	StateExecution:         {StateFollowUps, StateGapAudit, StateFailed},
	StateFollowUps:         {StateFollowUps, StateGapAudit, StateFailed},
	StateGapAudit:          {StateGapPlan, StateSummaryGeneration, StateFailed},
	StateGapPlan:           {StateExecution, StateSummaryGeneration, StateFailed},
	StateSummaryGeneration: {StateComplete, StateFailed},
	StateComplete:          {},
	StateFailed:            {StateIdle},
}

// legal reports whether a literal s -> to move is legal, treating a
// same-state move as always legal (§8: "self-transition allowed only
// where the table lists it" — events that do not advance the state at
// all, like the purely informational PLAN_GENERATED, are not
// "transitions" in the table's sense).
func legal(from, to State) bool {
	if from == to {
		return true
	}
	for _, t := range legalTargets[from] {
		if t == to {
			return true
		}
	}
	return false
}

func invalid(ctx Context, kind EventKind, to State, msg string) TransitionResult {
	return TransitionResult{
		Accepted:   false,
		Context:    ctx,
		FromState:  ctx.CurrentState,
		ToState:    to,
		EventKind:  kind,
		Invalid:    true,
		InvalidMsg: msg,
	}
}

func accept(ctx Context, kind EventKind, to State, now string) TransitionResult {
	from := ctx.CurrentState
	ctx.CurrentState = to
	ctx.LastTransitionAt = now
	return TransitionResult{Accepted: true, Context: ctx, FromState: from, ToState: to, EventKind: kind}
}

// Transition is the pure function at the heart of C4: given a context,
// an event, the run's effective config (only consulted for
// toolCuration.enabled and nothing else), and a caller-supplied
// timestamp (the function itself never reads a clock), it returns
// either an accepted transition with the updated context or a
// rejection that leaves ctx untouched.
func Transition(ctx Context, evt Event, cfg config.EffectiveConfig, now string) TransitionResult {
	switch evt.Kind {

	case EventStartPlan:
		if ctx.CurrentState != StateIdle {
			return invalid(ctx, evt.Kind, StatePlanGeneration, "START_PLAN only valid from IDLE")
		}
		next := accept(ctx, evt.Kind, StatePlanGeneration, now)
		if next.Context.StartedAt == "" {
			next.Context.StartedAt = now
		}
		return next

	case EventPlanGenerated:
		if ctx.CurrentState != StatePlanGeneration {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "PLAN_GENERATED only valid from PLAN_GENERATION")
		}
		return accept(ctx, evt.Kind, StatePlanGeneration, now)

	case EventOpenQuestionsFound, EventConfidenceLow:
		return enterOrContinueRevision(ctx, evt, now, false)

	case EventQuestionsAnswered, EventPlanImproved:
		return enterOrContinueRevision(ctx, evt, now, true)

	case EventPlanComplete:
		if ctx.CurrentState != StatePlanGeneration && ctx.CurrentState != StatePlanRevision {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "PLAN_COMPLETE only valid from PLAN_GENERATION or PLAN_REVISION")
		}
		ctx.LastConfidence = evt.Confidence
		if cfg.ToolCuration.Enabled {
			return accept(ctx, evt.Kind, StateToolCuration, now)
		}
		return enterExecution(ctx, evt.Kind, now)

	case EventToolCurationComplete:
		if ctx.CurrentState != StateToolCuration {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "TOOL_CURATION_COMPLETE only valid from TOOL_CURATION")
		}
		return enterExecution(ctx, evt.Kind, now)

	case EventExecutionComplete:
		if ctx.CurrentState != StateExecution {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "EXECUTION_COMPLETE only valid from EXECUTION")
		}
		// Hard-blocker priority over follow-ups is strict (§4.4).
		if evt.HasHardBlockers {
			ctx.FollowUpIterationCount = 0
			ctx.HasDoneIteration0 = false
			return accept(ctx, evt.Kind, StateFollowUps, now)
		}
		if evt.HasFollowUps {
			ctx.HasDoneIteration0 = true
			return accept(ctx, evt.Kind, StateFollowUps, now)
		}
		return accept(ctx, evt.Kind, StateGapAudit, now)

	case EventHardBlockersResolved:
		if ctx.CurrentState != StateFollowUps {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "HARD_BLOCKERS_RESOLVED only valid from FOLLOW_UPS")
		}
		ctx.HasDoneIteration0 = true
		return accept(ctx, evt.Kind, StateFollowUps, now)

	case EventFollowUpsComplete:
		if ctx.CurrentState != StateFollowUps {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "FOLLOW_UPS_COMPLETE only valid from FOLLOW_UPS")
		}
		if evt.HasFollowUps {
			// Self-transition, increments followUpIterationCount (§4.4).
			ctx.FollowUpIterationCount++
			return accept(ctx, evt.Kind, StateFollowUps, now)
		}
		return accept(ctx, evt.Kind, StateGapAudit, now)

	case EventMaxFollowUpsReached:
		if ctx.CurrentState != StateFollowUps {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "MAX_FOLLOW_UPS_REACHED only valid from FOLLOW_UPS")
		}
		return accept(ctx, evt.Kind, StateGapAudit, now)

	case EventGapAuditComplete:
		if ctx.CurrentState != StateGapAudit {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "GAP_AUDIT_COMPLETE only valid from GAP_AUDIT")
		}
		if evt.GapsIdentified {
			return accept(ctx, evt.Kind, StateGapPlan, now)
		}
		return accept(ctx, evt.Kind, StateSummaryGeneration, now)

	case EventGapPlanComplete:
		if ctx.CurrentState != StateGapPlan {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "GAP_PLAN_COMPLETE only valid from GAP_PLAN")
		}
		ctx.ExecIterationCount++
		ctx.FollowUpIterationCount = 0
		ctx.HasDoneIteration0 = false
		return accept(ctx, evt.Kind, StateExecution, now)

	case EventMaxExecIterationsReached:
		if ctx.CurrentState != StateGapAudit {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "MAX_EXEC_ITERATIONS_REACHED only valid from GAP_AUDIT")
		}
		return accept(ctx, evt.Kind, StateSummaryGeneration, now)

	case EventGenerateSummary:
		if ctx.CurrentState != StatePlanRevision && ctx.CurrentState != StateGapAudit {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "GENERATE_SUMMARY only valid from PLAN_REVISION or GAP_AUDIT")
		}
		return accept(ctx, evt.Kind, StateSummaryGeneration, now)

	case EventSummaryComplete:
		if ctx.CurrentState != StateSummaryGeneration {
			return invalid(ctx, evt.Kind, ctx.CurrentState, "SUMMARY_COMPLETE only valid from SUMMARY_GENERATION")
		}
		return accept(ctx, evt.Kind, StateComplete, now)

	case EventResume:
		return resume(ctx, evt, now)

	case EventError:
		if IsTerminal(ctx.CurrentState) {
			return invalid(ctx, evt.Kind, StateFailed, "ERROR is not valid from a terminal state")
		}
		rec := &ErrorRecord{At: now}
		if evt.Err != nil {
			rec.Code = string(evt.Err.Code)
			rec.Message = evt.Err.Message
		}
		ctx.LastError = rec
		return accept(ctx, evt.Kind, StateFailed, now)

	default:
		return invalid(ctx, evt.Kind, ctx.CurrentState, "unrecognized event kind")
	}
}

// enterOrContinueRevision handles the four events that move a run into
// or further through PLAN_REVISION. accepted controls whether
// planRevisionCount increments: QUESTIONS_ANSWERED and PLAN_IMPROVED
// represent an accepted revision; OPEN_QUESTIONS_FOUND and
// CONFIDENCE_LOW merely report why another revision is needed.
func enterOrContinueRevision(ctx Context, evt Event, now string, accepted bool) TransitionResult {
	switch ctx.CurrentState {
	case StatePlanGeneration, StatePlanRevision:
		if evt.Kind == EventConfidenceLow {
			ctx.LastConfidence = evt.Confidence
		}
		if accepted {
			ctx.PlanRevisionCount++
		}
		return accept(ctx, evt.Kind, StatePlanRevision, now)
	default:
		return invalid(ctx, evt.Kind, ctx.CurrentState, "plan-revision event only valid from PLAN_GENERATION or PLAN_REVISION")
	}
}

// enterExecution applies the §3 invariant for entering EXECUTION from
// PLAN_REVISION, PLAN_GENERATION, or TOOL_CURATION: execIterationCount
// becomes 1 and the follow-up counters reset.
func enterExecution(ctx Context, kind EventKind, now string) TransitionResult {
	ctx.ExecIterationCount = 1
	ctx.FollowUpIterationCount = 0
	ctx.HasDoneIteration0 = false
	return accept(ctx, kind, StateExecution, now)
}

// resume implements §4.4's RESUME bypass rule: valid when the current
// state can legally transition to fromState, or when the current
// state is IDLE and fromState is any non-terminal, non-IDLE state
// (crash-recovery bypass).
func resume(ctx Context, evt Event, now string) TransitionResult {
	target := evt.ResumeFromState
	if legal(ctx.CurrentState, target) {
		return accept(ctx, evt.Kind, target, now)
	}
	if ctx.CurrentState == StateIdle && IsResumable(target) {
		return accept(ctx, evt.Kind, target, now)
	}
	return invalid(ctx, evt.Kind, target, "RESUME target is not reachable from the current state")
}
