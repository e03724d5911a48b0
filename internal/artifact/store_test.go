package artifact

import (
	"strings"
	"testing"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
)

func newTestStore() *Store {
	return NewStore(fsport.NewMemory(), "/runs")
}

func TestStoreWriteReadJSONRoundTrip(t *testing.T) {
	s := newTestStore()
	path := s.Join("/runs", "run-1", "plan", FilePlanMetadata)
	in := PlanMetadata{SchemaVersion: CurrentSchemaVersion, Confidence: 80, OpenQuestions: []string{}, Summary: "ok"}

	if err := WriteJSON(s, path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out, err := ReadJSON[PlanMetadata](s, path)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestStoreWriteJSONRejectsInvalidBeforeCommit(t *testing.T) {
	s := newTestStore()
	path := s.Join("/runs", "run-1", "plan", FilePlanMetadata)
	bad := PlanMetadata{SchemaVersion: "bogus", Confidence: 999}

	err := WriteJSON(s, path, bad)
	if err == nil {
		t.Fatal("expected schema validation error")
	}
	if s.Exists(path) {
		t.Fatal("invalid artifact must not be committed to disk")
	}
	rerr, ok := err.(*reachc.Error)
	if !ok || rerr.Code != reachc.CodeArtifactSchemaInvalid {
		t.Fatalf("expected ARTIFACT_SCHEMA_INVALID, got %v", err)
	}
}

func TestStoreReadJSONRejectsCorruptDocument(t *testing.T) {
	s := newTestStore()
	path := s.Join("/runs", "run-1", "plan", FilePlanMetadata)
	underlying := s.fs.(*fsport.Memory)
	if err := underlying.Write(path, []byte(`{"schemaVersion": "1.0.0"`), fsport.DefaultWriteOptions()); err != nil {
		t.Fatalf("seed write: %v", err)
	}
	if _, err := ReadJSON[PlanMetadata](s, path); err == nil {
		t.Fatal("expected malformed JSON to fail")
	}
}

func TestStoreRejectsPathTraversal(t *testing.T) {
	s := newTestStore()
	escaping := s.Join("/runs", "..", "etc", "passwd")
	err := s.WriteText(escaping, "nope")
	if err == nil {
		t.Fatal("expected path traversal rejection")
	}
	rerr, ok := err.(*reachc.Error)
	if !ok || rerr.Code != reachc.CodeArtifactPathTraversal {
		t.Fatalf("expected ARTIFACT_PATH_TRAVERSAL, got %v", err)
	}
}

func TestStoreWriteTextRoundTrip(t *testing.T) {
	s := newTestStore()
	path := s.Join("/runs", "run-1", "plan", FilePlanMD)
	if err := s.WriteText(path, "# Plan\n"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := s.ReadText(path)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if !strings.Contains(got, "# Plan") {
		t.Fatalf("unexpected content: %q", got)
	}
}
