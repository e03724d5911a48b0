package orchestrator

import (
	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/persistence"
	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

// Resume restores an Orchestrator from a previously persisted
// StateDocument (found via persistence.FindLatestResumableRun), applies
// the RESUME event's bypass rule (§4.4), re-acquires the run-directory
// lock, and then reconciles the in-memory counters against whatever the
// filesystem actually shows (§4.5: "discrepancies are resolved in
// favour of the disk state").
func (o *Orchestrator) Resume(saved persistence.StateDocument) (StepResult, error) {
	lock, err := persistence.Acquire(o.fs, o.RunDir())
	if err != nil {
		return o.errorResult(reachc.Classify(err))
	}
	o.lock = lock

	// Seed every counter from the saved document before running the
	// RESUME event itself, so the single C2 Save the post-transition
	// sequence performs already carries the restored counters rather
	// than a second, separate write.
	o.mu.Lock()
	o.ctx = statemachine.Context{CurrentState: statemachine.StateIdle}
	o.ctx.PlanRevisionCount = saved.Context.PlanRevisionCount
	o.ctx.ExecIterationCount = saved.Context.ExecIterationCount
	o.ctx.FollowUpIterationCount = saved.Context.FollowUpIterationCount
	o.ctx.HasDoneIteration0 = saved.Context.HasDoneIteration0
	o.ctx.LastConfidence = saved.Context.LastConfidence
	o.ctx.LastError = saved.Context.LastError
	o.ctx.StartedAt = saved.Context.StartedAt
	o.mu.Unlock()

	result, err := o.apply(statemachine.Resume(saved.Context.CurrentState))
	if err != nil {
		return result, err
	}

	if err := o.reconcileFromDisk(); err != nil {
		return o.errorResult(reachc.Classify(err))
	}

	// reconcileFromDisk only mutates the in-memory Context; persist the
	// reconciled counters so execution-state.json agrees with disk truth
	// immediately rather than waiting for the next accepted transition.
	o.mu.Lock()
	ctx := o.ctx
	o.mu.Unlock()
	now := o.clk.ISO(o.clk.Now())
	if err := o.state.Save(o.RunDir(), ctx, o.cfg, now); err != nil {
		return o.errorResult(reachc.Classify(err))
	}
	if o.registry != nil {
		_ = o.registry.Upsert(o.cfg.RunID, o.RunDir(), persistence.StateDocument{Context: ctx, Config: o.cfg, LastSaved: now})
	}

	return result, nil
}

// reconcileFromDisk rewrites execIterationCount, followUpIterationCount,
// hasDoneIteration0, and planRevisionCount against what the on-disk
// artifact layout actually contains, per §4.5's resume re-scan
// algorithm. The on-disk summary files are the truth; a saved counter
// that disagrees with disk is simply overwritten, never treated as an
// error.
func (o *Orchestrator) reconcileFromDisk() error {
	o.mu.Lock()
	iteration := o.ctx.ExecIterationCount
	state := o.ctx.CurrentState
	o.mu.Unlock()
	if iteration == 0 {
		iteration = 1
	}

	execDir := artifact.ExecuteDir(o.fs, o.RunDir(), iteration)
	if !o.artifacts.Exists(execDir) {
		return nil
	}

	progress, err := artifact.GetExecutionArtifacts(o.artifacts, execDir, iteration)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.ctx.HasDoneIteration0 = progress.HasDoneIteration0
	if len(progress.AllFollowUpIterations) > 0 {
		o.ctx.FollowUpIterationCount = len(progress.AllFollowUpIterations)
	} else if state != statemachine.StateFollowUps {
		o.ctx.FollowUpIterationCount = 0
	}
	return nil
}

// planRevisionCount has no independent disk truth to reconcile against:
// the run directory layout (§6) keeps only the latest
// plan/{plan.md,plan-metadata.json}, unlike execution iterations, which
// are individually numbered. It is trusted from the saved StateDocument
// as-is.
