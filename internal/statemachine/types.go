// Package statemachine implements the State Machine (C4, spec §4.4) as
// a pure function over (OrchestrationContext, Event) pairs. Nothing in
// this package touches the filesystem, a clock, or a subprocess: every
// mutation the Orchestrator needs is expressed as a value returned from
// Transition, which is what lets the whole transition table be
// exhaustively unit tested without any fakes.
package statemachine

import (
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

// State is one node of the orchestration lifecycle (§4.4).
type State string

const (
	StateIdle               State = "IDLE"
	StatePlanGeneration     State = "PLAN_GENERATION"
	StatePlanRevision       State = "PLAN_REVISION"
	StateToolCuration       State = "TOOL_CURATION"
	StateExecution          State = "EXECUTION"
	StateFollowUps          State = "FOLLOW_UPS"
	StateGapAudit           State = "GAP_AUDIT"
	StateGapPlan            State = "GAP_PLAN"
	StateSummaryGeneration  State = "SUMMARY_GENERATION"
	StateComplete           State = "COMPLETE"
	StateFailed             State = "FAILED"
)

// IsTerminal reports whether s has no outgoing transitions except the
// FAILED -> IDLE restart.
func IsTerminal(s State) bool { return s == StateComplete || s == StateFailed }

// IsResumable reports whether a run parked in s can be resumed.
func IsResumable(s State) bool { return !IsTerminal(s) && s != StateIdle }

// EventKind identifies which of the §4.4 events a value carries.
type EventKind string

const (
	EventStartPlan              EventKind = "START_PLAN"
	EventPlanGenerated           EventKind = "PLAN_GENERATED"
	EventOpenQuestionsFound      EventKind = "OPEN_QUESTIONS_FOUND"
	EventQuestionsAnswered       EventKind = "QUESTIONS_ANSWERED"
	EventConfidenceLow           EventKind = "CONFIDENCE_LOW"
	EventPlanImproved            EventKind = "PLAN_IMPROVED"
	EventPlanComplete            EventKind = "PLAN_COMPLETE"
	EventToolCurationComplete    EventKind = "TOOL_CURATION_COMPLETE"
	EventExecutionComplete       EventKind = "EXECUTION_COMPLETE"
	EventHardBlockersResolved    EventKind = "HARD_BLOCKERS_RESOLVED"
	EventFollowUpsComplete       EventKind = "FOLLOW_UPS_COMPLETE"
	EventMaxFollowUpsReached     EventKind = "MAX_FOLLOW_UPS_REACHED"
	EventGapAuditComplete        EventKind = "GAP_AUDIT_COMPLETE"
	EventGapPlanComplete         EventKind = "GAP_PLAN_COMPLETE"
	EventMaxExecIterationsReached EventKind = "MAX_EXEC_ITERATIONS_REACHED"
	EventGenerateSummary         EventKind = "GENERATE_SUMMARY"
	EventSummaryComplete         EventKind = "SUMMARY_COMPLETE"
	EventResume                  EventKind = "RESUME"
	EventError                   EventKind = "ERROR"
)

// Event is a tagged union over every state-machine event; only the
// fields relevant to Kind are populated by callers.
type Event struct {
	Kind EventKind

	Requirements        string // START_PLAN
	OpenQuestionCount   int    // OPEN_QUESTIONS_FOUND
	Confidence          int    // CONFIDENCE_LOW, PLAN_COMPLETE
	ConfidenceThreshold int    // CONFIDENCE_LOW
	HasFollowUps        bool   // EXECUTION_COMPLETE, FOLLOW_UPS_COMPLETE
	HasHardBlockers     bool   // EXECUTION_COMPLETE
	GapsIdentified      bool   // GAP_AUDIT_COMPLETE
	ResumeFromState      State  // RESUME
	Err                  *reachc.Error
}

func StartPlan(requirements string) Event { return Event{Kind: EventStartPlan, Requirements: requirements} }
func PlanGenerated() Event                { return Event{Kind: EventPlanGenerated} }
func OpenQuestionsFound(count int) Event  { return Event{Kind: EventOpenQuestionsFound, OpenQuestionCount: count} }
func QuestionsAnswered() Event            { return Event{Kind: EventQuestionsAnswered} }
func ConfidenceLow(conf, threshold int) Event {
	return Event{Kind: EventConfidenceLow, Confidence: conf, ConfidenceThreshold: threshold}
}
func PlanImproved() Event           { return Event{Kind: EventPlanImproved} }
func PlanComplete(confidence int) Event { return Event{Kind: EventPlanComplete, Confidence: confidence} }
func ToolCurationComplete() Event   { return Event{Kind: EventToolCurationComplete} }
func ExecutionComplete(hasFollowUps, hasHardBlockers bool) Event {
	return Event{Kind: EventExecutionComplete, HasFollowUps: hasFollowUps, HasHardBlockers: hasHardBlockers}
}
func HardBlockersResolved() Event { return Event{Kind: EventHardBlockersResolved} }
func FollowUpsComplete(hasFollowUps bool) Event {
	return Event{Kind: EventFollowUpsComplete, HasFollowUps: hasFollowUps}
}
func MaxFollowUpsReached() Event { return Event{Kind: EventMaxFollowUpsReached} }
func GapAuditComplete(gapsIdentified bool) Event {
	return Event{Kind: EventGapAuditComplete, GapsIdentified: gapsIdentified}
}
func GapPlanComplete() Event            { return Event{Kind: EventGapPlanComplete} }
func MaxExecIterationsReached() Event   { return Event{Kind: EventMaxExecIterationsReached} }
func GenerateSummary() Event            { return Event{Kind: EventGenerateSummary} }
func SummaryComplete() Event            { return Event{Kind: EventSummaryComplete} }
func Resume(fromState State) Event      { return Event{Kind: EventResume, ResumeFromState: fromState} }
func Error(err *reachc.Error) Event     { return Event{Kind: EventError, Err: err} }

// ErrorRecord is the durable record of the last error observed by a run.
type ErrorRecord struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	At      string `json:"at"`
}

// Context is the Orchestration Context (§3), owned by the Orchestrator
// (C5) and persisted verbatim by the State Persistence layer (C2).
type Context struct {
	CurrentState           State        `json:"currentState"`
	PlanRevisionCount      int          `json:"planRevisionCount"`
	ExecIterationCount     int          `json:"execIterationCount"`
	FollowUpIterationCount int          `json:"followUpIterationCount"`
	HasDoneIteration0      bool         `json:"hasDoneIteration0"`
	LastConfidence         int          `json:"lastConfidence"`
	LastError              *ErrorRecord `json:"lastError,omitempty"`
	StartedAt              string       `json:"startedAt"`
	LastTransitionAt       string       `json:"lastTransitionAt"`
}

// NewContext returns the context a fresh run begins with: state IDLE,
// every counter zeroed.
func NewContext() Context {
	return Context{CurrentState: StateIdle}
}

// TransitionResult is what Transition returns: either an accepted
// transition with the updated context, or a rejected one that leaves
// the original context untouched (§4.4: "attempting any other
// destination returns Invalid and leaves context unchanged").
type TransitionResult struct {
	Accepted   bool
	Context    Context
	FromState  State
	ToState    State
	EventKind  EventKind
	Invalid    bool
	InvalidMsg string
}
