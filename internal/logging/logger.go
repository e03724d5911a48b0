// Package logging provides the structured, event-typed Logger port (§6).
// Every record carries {runId, phase, iteration, mode} plus typed fields,
// and every string value is redacted before serialization.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3}

// EventType enumerates the event-typed records from §6.
type EventType string

const (
	EventRunStarted                  EventType = "run_started"
	EventPhaseStarted                EventType = "phase_started"
	EventPhaseCompleted              EventType = "phase_completed"
	EventIterationStarted            EventType = "iteration_started"
	EventIterationCompleted          EventType = "iteration_completed"
	EventEngineInvocationStarted     EventType = "engine_invocation_started"
	EventEngineInvocationCompleted   EventType = "engine_invocation_completed"
	EventEngineInvocationFailed      EventType = "engine_invocation_failed"
	EventArtifactWritten             EventType = "artifact_written"
	EventArtifactValidated           EventType = "artifact_validated"
	EventArtifactValidationFailed    EventType = "artifact_validation_failed"
	EventStopConditionMet            EventType = "stop_condition_met"
	EventLimitExceeded                EventType = "limit_exceeded"
	EventRunCompleted                EventType = "run_completed"
	EventRunFailed                   EventType = "run_failed"
	EventStateTransition             EventType = "state_transition"
)

// Record is one structured log line.
type Record struct {
	Timestamp time.Time         `json:"ts"`
	EventID   string            `json:"eventId"`
	Level     Level             `json:"level"`
	Event     EventType         `json:"event,omitempty"`
	Message   string            `json:"msg"`
	RunID     string            `json:"runId,omitempty"`
	Phase     string            `json:"phase,omitempty"`
	Iteration int               `json:"iteration,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorCode string            `json:"errorCode,omitempty"`
}

// Logger is the dependency port consumed by the orchestrator.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Event(event EventType, msg string, fields ...Field)
	With(runID, phase string, iteration int, mode string) Logger
}

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value string
}

func F(key, value string) Field { return Field{Key: key, Value: value} }

// JSONLogger is the real Logger implementation: one redacted JSON object
// per line.
type JSONLogger struct {
	mu        sync.Mutex
	w         io.Writer
	level     Level
	runID     string
	phase     string
	iteration int
	mode      string
}

func New(w io.Writer, level Level) *JSONLogger {
	if w == nil {
		w = os.Stderr
	}
	return &JSONLogger{w: w, level: level}
}

func (l *JSONLogger) With(runID, phase string, iteration int, mode string) Logger {
	return &JSONLogger{w: l.w, level: l.level, runID: runID, phase: phase, iteration: iteration, mode: mode}
}

func (l *JSONLogger) shouldLog(lvl Level) bool { return levelRank[lvl] >= levelRank[l.level] }

func (l *JSONLogger) write(lvl Level, event EventType, msg string, err error, fields []Field) {
	if !l.shouldLog(lvl) {
		return
	}
	rec := Record{
		Timestamp: time.Now().UTC(),
		EventID:   uuid.NewString(),
		Level:     lvl,
		Event:     event,
		Message:   reachc.Redact(msg),
		RunID:     l.runID,
		Phase:     l.phase,
		Iteration: l.iteration,
		Mode:      l.mode,
	}
	if len(fields) > 0 {
		rec.Fields = make(map[string]string, len(fields))
		for _, f := range fields {
			rec.Fields[f.Key] = reachc.Redact(f.Value)
		}
	}
	if err != nil {
		rec.Error = reachc.Redact(err.Error())
		if re, ok := err.(*reachc.Error); ok {
			rec.ErrorCode = string(re.Code)
		}
	}
	data, marshalErr := json.Marshal(rec)
	if marshalErr != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, string(data))
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.write(LevelDebug, "", msg, nil, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.write(LevelInfo, "", msg, nil, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, "", msg, nil, fields) }
func (l *JSONLogger) Error(msg string, err error, fields ...Field) {
	l.write(LevelError, "", msg, err, fields)
}
func (l *JSONLogger) Event(event EventType, msg string, fields ...Field) {
	l.write(LevelInfo, event, msg, nil, fields)
}

// Noop discards everything; useful in tests that don't assert on logs.
type Noop struct{}

func (Noop) Debug(string, ...Field)             {}
func (Noop) Info(string, ...Field)              {}
func (Noop) Warn(string, ...Field)              {}
func (Noop) Error(string, error, ...Field)      {}
func (Noop) Event(EventType, string, ...Field)  {}
func (Noop) With(string, string, int, string) Logger { return Noop{} }
