// Package orchestrator implements the Orchestrator (C5, spec §2, §4.5):
// the top-level driver that owns the State Machine (C4) context, queries
// the Iteration Policy (C3) at decision points, validates artifacts
// through the Artifact Store (C1), checkpoints via State Persistence
// (C2) after every accepted transition, and requests engine invocations
// through the engine-invocation abstraction.
package orchestrator

import (
	"sync"

	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	"github.com/bsladewski/Tenacious-C-sub001/internal/clock"
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
	"github.com/bsladewski/Tenacious-C-sub001/internal/logging"
	"github.com/bsladewski/Tenacious-C-sub001/internal/persistence"
	"github.com/bsladewski/Tenacious-C-sub001/internal/policy"
	"github.com/bsladewski/Tenacious-C-sub001/internal/prompter"
	"github.com/bsladewski/Tenacious-C-sub001/internal/statemachine"
)

// TransitionRecord is one entry of the in-memory transition history
// exposed by GetTransitionHistory, independent of what gets persisted
// to execution-state.json (which only ever keeps the current Context).
type TransitionRecord struct {
	From  statemachine.State     `json:"from"`
	To    statemachine.State     `json:"to"`
	Event statemachine.EventKind `json:"event"`
	At    string                 `json:"at"`
}

// StepResult is what every event entry point returns: the post-transition
// sequence's outcome (§2: "validate artifacts, persist state, log
// state_transition, return StepResult").
type StepResult struct {
	Success    bool
	State      statemachine.State
	IsComplete bool
	ExitCode   int
	Error      *reachc.Error
}

// Orchestrator is constructed once per run with its full dependency
// bundle; every event entry point mutates its single in-memory Context
// under mu, matching the "single-threaded cooperative" scheduling model
// of §5.
type Orchestrator struct {
	mu sync.Mutex

	cfg       config.EffectiveConfig
	fs        fsport.FileSystem
	artifacts *artifact.Store
	state     *persistence.Store
	registry  *persistence.Registry
	prompt    prompter.Prompter
	clk       clock.Clock
	log       logging.Logger
	lock      *persistence.Lock

	ctx     statemachine.Context
	history []TransitionRecord
}

// New builds an Orchestrator for cfg. registry may be nil; when present
// it is kept in sync alongside every persisted Save (it is never the
// source of truth, only an accelerator — §4.2).
func New(cfg config.EffectiveConfig, fs fsport.FileSystem, prompt prompter.Prompter, clk clock.Clock, log logging.Logger, registry *persistence.Registry) *Orchestrator {
	artifacts := artifact.NewStore(fs, cfg.Paths.ArtifactBaseDir)
	return &Orchestrator{
		cfg:       cfg,
		fs:        fs,
		artifacts: artifacts,
		state:     persistence.NewStore(artifacts),
		registry:  registry,
		prompt:    prompt,
		clk:       clk,
		log:       log.With(cfg.RunID, "", 0, modeOf(cfg.RunMode)),
		ctx:       statemachine.NewContext(),
	}
}

func modeOf(rm config.RunMode) string {
	if rm.MockMode {
		return "mock"
	}
	return "live"
}

// RunDir returns the run's root directory (cfg.Paths.RunDirectory).
func (o *Orchestrator) RunDir() string { return o.cfg.Paths.RunDirectory }

// GetCurrentState returns the Context's current state.
func (o *Orchestrator) GetCurrentState() statemachine.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ctx.CurrentState
}

// GetContext returns a copy of the current Orchestration Context.
func (o *Orchestrator) GetContext() statemachine.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ctx
}

// GetTransitionHistory returns every transition accepted so far, in order.
func (o *Orchestrator) GetTransitionHistory() []TransitionRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]TransitionRecord, len(o.history))
	copy(out, o.history)
	return out
}

// IsComplete reports whether the run has reached COMPLETE.
func (o *Orchestrator) IsComplete() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ctx.CurrentState == statemachine.StateComplete
}

// GetRunState returns the document C2 would persist for the current
// in-memory Context, without touching disk.
func (o *Orchestrator) GetRunState() persistence.StateDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	return persistence.StateDocument{Context: o.ctx, Config: o.cfg, LastSaved: o.clk.ISO(o.clk.Now())}
}

// Start begins a new run: acquires the advisory run-directory lock,
// seeds requirements.txt and the redacted effective-config.json
// snapshot, emits run_started, and applies START_PLAN.
func (o *Orchestrator) Start(requirements string) (StepResult, error) {
	lock, err := persistence.Acquire(o.fs, o.RunDir())
	if err != nil {
		return o.errorResult(reachc.Classify(err))
	}
	o.lock = lock

	if err := o.artifacts.Mkdir(o.RunDir()); err != nil {
		return o.errorResult(reachc.Classify(err))
	}
	reqPath := o.artifacts.Join(o.RunDir(), artifact.FileRequirements)
	if err := o.artifacts.WriteText(reqPath, requirements); err != nil {
		return o.errorResult(reachc.Classify(err))
	}
	if err := o.writeEffectiveConfig(); err != nil {
		return o.errorResult(reachc.Classify(err))
	}

	o.log.Event(logging.EventRunStarted, "run started", logging.F("runId", o.cfg.RunID))
	return o.apply(statemachine.StartPlan(requirements))
}

func (o *Orchestrator) writeEffectiveConfig() error {
	data, err := o.cfg.RedactedJSON()
	if err != nil {
		return reachc.New(reachc.CodeInternal, "failed to render effective config").WithCause(err)
	}
	path := o.artifacts.Join(o.RunDir(), artifact.FileEffectiveConfig)
	return o.artifacts.WriteText(path, string(data))
}

// --- Event entry points (§4.4 events, routed through the pure C4
// Transition function and the §2 post-transition sequence). ---

func (o *Orchestrator) OnPlanGenerated() (StepResult, error) {
	return o.apply(statemachine.PlanGenerated())
}

func (o *Orchestrator) OnOpenQuestionsFound(count int) (StepResult, error) {
	return o.apply(statemachine.OpenQuestionsFound(count))
}

func (o *Orchestrator) OnQuestionsAnswered() (StepResult, error) {
	return o.apply(statemachine.QuestionsAnswered())
}

func (o *Orchestrator) OnConfidenceLow(confidence int) (StepResult, error) {
	return o.apply(statemachine.ConfidenceLow(confidence, o.cfg.Thresholds.PlanConfidence))
}

func (o *Orchestrator) OnPlanImproved() (StepResult, error) {
	return o.apply(statemachine.PlanImproved())
}

// OnPlanComplete validates the plan directory (§4.1) before accepting
// PLAN_COMPLETE: a schema-invalid or incomplete plan/plan-metadata.json
// is a ValidationError (§7), fatal for the run.
func (o *Orchestrator) OnPlanComplete(confidence int) (StepResult, error) {
	if _, err := artifact.ValidatePlanArtifacts(o.artifacts, artifact.PlanDir(o.fs, o.RunDir())); err != nil {
		return o.applyError(reachc.Classify(err))
	}
	return o.apply(statemachine.PlanComplete(confidence))
}

func (o *Orchestrator) OnToolCurationComplete() (StepResult, error) {
	return o.apply(statemachine.ToolCurationComplete())
}

// OnExecutionComplete validates the iteration's execute directory
// before accepting EXECUTION_COMPLETE.
func (o *Orchestrator) OnExecutionComplete(hasFollowUps, hasHardBlockers bool) (StepResult, error) {
	execDir := artifact.ExecuteDir(o.fs, o.RunDir(), o.currentExecIteration())
	if _, err := artifact.ValidateExecutionArtifacts(o.artifacts, execDir, o.currentExecIteration()); err != nil {
		return o.applyError(reachc.Classify(err))
	}
	return o.apply(statemachine.ExecutionComplete(hasFollowUps, hasHardBlockers))
}

func (o *Orchestrator) OnHardBlockersResolved() (StepResult, error) {
	return o.apply(statemachine.HardBlockersResolved())
}

func (o *Orchestrator) OnFollowUpsComplete(hasFollowUps bool) (StepResult, error) {
	return o.apply(statemachine.FollowUpsComplete(hasFollowUps))
}

func (o *Orchestrator) OnMaxFollowUpsReached() (StepResult, error) {
	return o.apply(statemachine.MaxFollowUpsReached())
}

// OnGapAuditComplete validates the gap-audit directory before accepting
// GAP_AUDIT_COMPLETE.
func (o *Orchestrator) OnGapAuditComplete(gapsIdentified bool) (StepResult, error) {
	auditDir := artifact.GapAuditDir(o.fs, o.RunDir(), o.currentExecIteration())
	if _, err := artifact.ValidateGapAuditArtifacts(o.artifacts, auditDir, o.currentExecIteration()); err != nil {
		return o.applyError(reachc.Classify(err))
	}
	return o.apply(statemachine.GapAuditComplete(gapsIdentified))
}

func (o *Orchestrator) OnGapPlanComplete() (StepResult, error) {
	return o.apply(statemachine.GapPlanComplete())
}

func (o *Orchestrator) OnMaxExecIterationsReached() (StepResult, error) {
	return o.apply(statemachine.MaxExecIterationsReached())
}

func (o *Orchestrator) OnGenerateSummary() (StepResult, error) {
	return o.apply(statemachine.GenerateSummary())
}

// OnSummaryComplete accepts SUMMARY_COMPLETE and releases the advisory
// run-directory lock: COMPLETE is terminal, so nothing further needs it.
func (o *Orchestrator) OnSummaryComplete() (StepResult, error) {
	res, err := o.apply(statemachine.SummaryComplete())
	o.releaseLock()
	return res, err
}

// OnError forces a transition to FAILED (§7: UnexpectedError / any fatal
// ValidationError or EngineInvocationError the caller has already
// classified) and releases the lock.
func (o *Orchestrator) OnError(e *reachc.Error) (StepResult, error) {
	res, err := o.applyError(e)
	o.releaseLock()
	return res, err
}

func (o *Orchestrator) releaseLock() {
	if o.lock == nil {
		return
	}
	_ = o.lock.Release()
	o.lock = nil
}

// CheckPlanRevisionStop consults C3 with the current plan-revision
// counter, letting the driver loop decide whether to emit
// QUESTIONS_ANSWERED/PLAN_IMPROVED (continue) or PLAN_COMPLETE (stop) for
// the next revision round, without duplicating counter bookkeeping
// outside the Orchestrator.
func (o *Orchestrator) CheckPlanRevisionStop(hasOpenQuestions bool, lastConfidence int) policy.Decision {
	o.mu.Lock()
	revisionCount := o.ctx.PlanRevisionCount
	o.mu.Unlock()
	return policy.CheckPlanRevisionStop(o.cfg, revisionCount, hasOpenQuestions, lastConfidence)
}

// CheckFollowUpStop consults C3 with the current follow-up counter.
func (o *Orchestrator) CheckFollowUpStop(hasFollowUps, hasHardBlockers bool) policy.Decision {
	o.mu.Lock()
	iterationCount := o.ctx.FollowUpIterationCount
	o.mu.Unlock()
	return policy.CheckFollowUpStop(o.cfg, iterationCount, hasFollowUps, hasHardBlockers)
}

// CheckExecutionIterationStop consults C3 with the current exec-iteration
// counter.
func (o *Orchestrator) CheckExecutionIterationStop(gapsIdentified bool) policy.Decision {
	o.mu.Lock()
	execCount := o.ctx.ExecIterationCount
	o.mu.Unlock()
	return policy.CheckExecutionIterationStop(o.cfg, execCount, gapsIdentified)
}

// currentExecIteration reads ExecIterationCount defensively: before the
// first EXECUTION entry it is still 0, but no validate* caller reaches
// that state before enterExecution has set it to 1.
func (o *Orchestrator) currentExecIteration() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx.ExecIterationCount == 0 {
		return 1
	}
	return o.ctx.ExecIterationCount
}

// applyError is apply(ERROR(e)) by another name, used both by OnError
// and by the validation-gated event methods above when an artifact
// fails to validate.
func (o *Orchestrator) applyError(e *reachc.Error) (StepResult, error) {
	return o.apply(statemachine.Error(e))
}

// apply runs one event through C4's pure Transition, and on acceptance
// performs the §2 post-transition sequence: persist via C2, log
// state_transition, append to history. Rejections are not persisted —
// they leave the Context untouched, matching C4's own contract.
func (o *Orchestrator) apply(evt statemachine.Event) (StepResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clk.ISO(o.clk.Now())
	result := statemachine.Transition(o.ctx, evt, o.cfg, now)

	if !result.Accepted {
		err := reachc.New(reachc.CodeStateMachineInvalidTransition, result.InvalidMsg).
			WithContext("event", string(evt.Kind)).
			WithContext("from", string(result.FromState)).
			WithContext("to", string(result.ToState))
		return StepResult{Success: false, State: result.FromState, Error: err, ExitCode: err.Code.ExitCode()}, err
	}

	o.ctx = result.Context
	o.history = append(o.history, TransitionRecord{
		From: result.FromState, To: result.ToState, Event: result.EventKind, At: now,
	})

	if err := o.state.Save(o.RunDir(), o.ctx, o.cfg, now); err != nil {
		classified := reachc.Classify(err)
		return StepResult{Success: false, State: o.ctx.CurrentState, Error: classified, ExitCode: classified.Code.ExitCode()}, classified
	}
	if o.registry != nil {
		_ = o.registry.Upsert(o.cfg.RunID, o.RunDir(), persistence.StateDocument{Context: o.ctx, Config: o.cfg, LastSaved: now})
	}

	o.log.Event(logging.EventStateTransition, "state transition",
		logging.F("event", string(result.EventKind)),
		logging.F("from", string(result.FromState)),
		logging.F("to", string(result.ToState)))

	isComplete := result.ToState == statemachine.StateComplete
	exitCode := 0
	if result.ToState == statemachine.StateFailed {
		exitCode = o.failureExitCode()
		o.log.Event(logging.EventRunFailed, "run failed", logging.F("lastErrorCode", o.lastErrorCode()))
	} else if isComplete {
		o.log.Event(logging.EventRunCompleted, "run completed")
	}

	return StepResult{Success: true, State: result.ToState, IsComplete: isComplete, ExitCode: exitCode}, nil
}

// errorResult wraps a pre-transition failure (lock acquisition, seeding
// requirements.txt, writing effective-config.json) that never reached
// C4 at all — there is no FromState/ToState to report.
func (o *Orchestrator) errorResult(e *reachc.Error) (StepResult, error) {
	return StepResult{Success: false, Error: e, ExitCode: e.Code.ExitCode()}, e
}

func (o *Orchestrator) failureExitCode() int {
	if o.ctx.LastError == nil {
		return reachc.CodeUnknown.ExitCode()
	}
	return reachc.Code(o.ctx.LastError.Code).ExitCode()
}

func (o *Orchestrator) lastErrorCode() string {
	if o.ctx.LastError == nil {
		return ""
	}
	return o.ctx.LastError.Code
}
