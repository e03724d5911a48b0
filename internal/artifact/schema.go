package artifact

import "fmt"

// FieldError names one offending JSON path for a schema violation (§4.1:
// "a structured error carrying the JSON path of every offending field").
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string { return fmt.Sprintf("%s: %s", e.Path, e.Message) }

// Validatable is implemented by every artifact schema type.
type Validatable interface {
	Validate() []FieldError
}

const schemaVersion1 = "1.0.0"

// PlanMetadata is plan-metadata.json (§3).
type PlanMetadata struct {
	SchemaVersion string   `json:"schemaVersion"`
	Confidence    int      `json:"confidence"`
	OpenQuestions []string `json:"openQuestions"`
	Summary       string   `json:"summary"`
}

func (m PlanMetadata) Validate() []FieldError {
	var errs []FieldError
	if m.SchemaVersion != schemaVersion1 {
		errs = append(errs, FieldError{"$.schemaVersion", fmt.Sprintf("must equal %q", schemaVersion1)})
	}
	if m.Confidence < 0 || m.Confidence > 100 {
		errs = append(errs, FieldError{"$.confidence", "must be within [0,100]"})
	}
	if m.OpenQuestions == nil {
		errs = append(errs, FieldError{"$.openQuestions", "must be present (may be empty array)"})
	}
	if len(m.Summary) < 1 || len(m.Summary) > 3000 {
		errs = append(errs, FieldError{"$.summary", "must be within [1,3000] chars"})
	}
	return errs
}

// HardBlocker is one entry of execute-metadata.json's hardBlockers array.
type HardBlocker struct {
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// ExecuteMetadata is execute-metadata.json (§3).
type ExecuteMetadata struct {
	SchemaVersion string        `json:"schemaVersion"`
	HasFollowUps  bool          `json:"hasFollowUps"`
	HardBlockers  []HardBlocker `json:"hardBlockers"`
	Summary       string        `json:"summary"`
}

func (m ExecuteMetadata) Validate() []FieldError {
	var errs []FieldError
	if m.SchemaVersion == "" {
		errs = append(errs, FieldError{"$.schemaVersion", "must be present"})
	}
	if m.HardBlockers == nil {
		errs = append(errs, FieldError{"$.hardBlockers", "must be present (may be empty array)"})
	}
	for i, b := range m.HardBlockers {
		if b.Description == "" {
			errs = append(errs, FieldError{fmt.Sprintf("$.hardBlockers[%d].description", i), "must be non-empty"})
		}
		if b.Reason == "" {
			errs = append(errs, FieldError{fmt.Sprintf("$.hardBlockers[%d].reason", i), "must be non-empty"})
		}
	}
	if m.Summary == "" {
		errs = append(errs, FieldError{"$.summary", "must be non-empty"})
	}
	return errs
}

// HasHardBlockers reports whether any blocker is present.
func (m ExecuteMetadata) HasHardBlockers() bool { return len(m.HardBlockers) > 0 }

// GapAuditMetadata is gap-audit-metadata.json (§3).
type GapAuditMetadata struct {
	SchemaVersion  string `json:"schemaVersion"`
	GapsIdentified bool   `json:"gapsIdentified"`
	Summary        string `json:"summary"`
}

func (m GapAuditMetadata) Validate() []FieldError {
	var errs []FieldError
	if m.SchemaVersion == "" {
		errs = append(errs, FieldError{"$.schemaVersion", "must be present"})
	}
	if m.Summary == "" {
		errs = append(errs, FieldError{"$.summary", "must be non-empty"})
	}
	return errs
}

// CurrentSchemaVersion is stamped onto every newly produced metadata
// artifact.
const CurrentSchemaVersion = schemaVersion1
