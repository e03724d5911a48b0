package artifact

import (
	"encoding/json"
	"strconv"
	"strings"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
)

// Store is the single choke point every artifact write and read passes
// through: it resolves paths under baseDir, rejects any escape outside
// it, writes atomically via the underlying FileSystem, and validates
// JSON artifacts against their schema before returning them to a
// caller (§4.1: "reads return typed values only after full schema
// validation").
type Store struct {
	fs      fsport.FileSystem
	baseDir string
}

// NewStore builds a Store rooted at baseDir (normally
// <config>.paths.artifactBaseDir). baseDir itself is never checked for
// existence here; callers create it lazily on first write.
func NewStore(fs fsport.FileSystem, baseDir string) *Store {
	return &Store{fs: fs, baseDir: baseDir}
}

// Join exposes the underlying FileSystem's path joiner so the naming
// helpers in this package can be used without reaching into fsport
// directly.
func (s *Store) Join(elem ...string) string { return s.fs.Join(elem...) }

// safePath resolves path and verifies it falls under baseDir, guarding
// against a maliciously or accidentally crafted run-id/iteration value
// that contains "..".
func (s *Store) safePath(path string) (string, error) {
	resolved, err := s.fs.Resolve(path)
	if err != nil {
		return "", reachc.Classify(err)
	}
	base, err := s.fs.Resolve(s.baseDir)
	if err != nil {
		return "", reachc.Classify(err)
	}
	if resolved != base && !strings.HasPrefix(resolved, base+"/") {
		return "", reachc.New(reachc.CodeArtifactPathTraversal, "path escapes artifact base directory").
			WithContext("path", path).WithContext("baseDir", s.baseDir)
	}
	return resolved, nil
}

// WriteText writes plain-text artifacts (plan.md, run-summary.md, the
// various *-summary-*.md files, requirements.txt) with no schema
// attached. Writes are always atomic and create missing parents.
func (s *Store) WriteText(path string, content string) error {
	resolved, err := s.safePath(path)
	if err != nil {
		return err
	}
	if err := s.fs.Write(resolved, []byte(content), fsport.DefaultWriteOptions()); err != nil {
		return reachc.Classify(err).WithPaths(resolved)
	}
	return nil
}

// ReadText reads a plain-text artifact back.
func (s *Store) ReadText(path string) (string, error) {
	resolved, err := s.safePath(path)
	if err != nil {
		return "", err
	}
	data, err := s.fs.Read(resolved)
	if err != nil {
		return "", reachc.Classify(err).WithPaths(resolved)
	}
	return string(data), nil
}

// WriteJSON marshals v, validates it, and atomically writes it. The
// artifact is validated before the write lands so a caller never
// commits a metadata document that would itself fail ReadJSON.
func WriteJSON[T Validatable](s *Store, path string, v T) error {
	if fieldErrs := v.Validate(); len(fieldErrs) > 0 {
		return schemaError(path, fieldErrs)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return reachc.New(reachc.CodeInternal, "failed to marshal artifact").WithCause(err)
	}
	resolved, err := s.safePath(path)
	if err != nil {
		return err
	}
	if err := s.fs.Write(resolved, data, fsport.DefaultWriteOptions()); err != nil {
		return reachc.Classify(err).WithPaths(resolved)
	}
	return nil
}

// ReadJSON reads and fully schema-validates a JSON artifact, returning
// ARTIFACT_SCHEMA_INVALID with every offending JSON path on failure.
func ReadJSON[T Validatable](s *Store, path string) (T, error) {
	var zero T
	resolved, err := s.safePath(path)
	if err != nil {
		return zero, err
	}
	data, err := s.fs.Read(resolved)
	if err != nil {
		return zero, reachc.Classify(err).WithPaths(resolved)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, reachc.New(reachc.CodeArtifactSchemaInvalid, "malformed JSON artifact").
			WithPaths(resolved).WithCause(err)
	}
	if fieldErrs := v.Validate(); len(fieldErrs) > 0 {
		return zero, schemaError(resolved, fieldErrs)
	}
	return v, nil
}

// Exists reports whether an artifact-relative path exists under baseDir.
func (s *Store) Exists(path string) bool {
	resolved, err := s.safePath(path)
	if err != nil {
		return false
	}
	return s.fs.Exists(resolved)
}

// Mkdir creates an artifact directory (and parents) under baseDir.
func (s *Store) Mkdir(path string) error {
	resolved, err := s.safePath(path)
	if err != nil {
		return err
	}
	if err := s.fs.Mkdir(resolved); err != nil {
		return reachc.Classify(err).WithPaths(resolved)
	}
	return nil
}

// List lists an artifact directory's contents.
func (s *Store) List(path string, opts fsport.ListOptions) ([]fsport.Info, error) {
	resolved, err := s.safePath(path)
	if err != nil {
		return nil, err
	}
	infos, err := s.fs.List(resolved, opts)
	if err != nil {
		return nil, reachc.Classify(err).WithPaths(resolved)
	}
	return infos, nil
}

func schemaError(path string, fieldErrs []FieldError) error {
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.String())
	}
	return reachc.New(reachc.CodeArtifactSchemaInvalid, strings.Join(msgs, "; ")).
		WithPaths(path).
		WithContext("fieldErrorCount", strconv.Itoa(len(fieldErrs)))
}
