package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLoggerRedactsFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug).With("run-1", "EXECUTION", 2, "bounded")

	l.Info("starting engine", F("apiKey", "api_key=abcdefghijklmnop"))

	var rec Record
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if rec.RunID != "run-1" || rec.Phase != "EXECUTION" || rec.Iteration != 2 || rec.Mode != "bounded" {
		t.Errorf("unexpected envelope: %+v", rec)
	}
	if strings.Contains(rec.Fields["apiKey"], "abcdefghijklmnop") {
		t.Errorf("secret leaked: %s", rec.Fields["apiKey"])
	}
	if rec.EventID == "" {
		t.Errorf("expected a non-empty eventId")
	}
}

func TestJSONLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debug("should not appear")
	l.Info("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below configured level, got %q", buf.String())
	}
	l.Warn("this should appear")
	if buf.Len() == 0 {
		t.Fatalf("expected output at warn level")
	}
}

func TestJSONLoggerEvent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)
	l.Event(EventStateTransition, "transitioned", F("from", "PLAN_REVISION"), F("to", "EXECUTION"))
	var rec Record
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec.Event != EventStateTransition {
		t.Errorf("expected event type %s, got %s", EventStateTransition, rec.Event)
	}
}
