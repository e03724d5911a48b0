package config

import (
	"fmt"
	"strings"
)

// ValidationError is one field-level configuration problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationResult aggregates every ValidationError found.
type ValidationResult struct {
	Errors []*ValidationError
}

func (r *ValidationResult) add(field, msg string) {
	r.Errors = append(r.Errors, &ValidationError{Field: field, Message: msg})
}

func (r *ValidationResult) Valid() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

var validTools = map[ToolName]bool{
	ToolCodex: true, ToolCopilot: true, ToolCursor: true, ToolClaude: true, ToolMock: true,
}

// Validate checks the EffectiveConfig against the constraints in §3.
func (c EffectiveConfig) Validate() *ValidationResult {
	r := &ValidationResult{Errors: []*ValidationError{}}

	if c.Thresholds.PlanConfidence < 0 || c.Thresholds.PlanConfidence > 100 {
		r.add("thresholds.planConfidence", "must be within [0,100]")
	}
	for name, limit := range map[string]int{
		"limits.maxPlanIterations":     c.Limits.MaxPlanIterations,
		"limits.maxExecIterations":     c.Limits.MaxExecIterations,
		"limits.maxFollowUpIterations": c.Limits.MaxFollowUpIterations,
		"limits.maxGapAuditIterations": c.Limits.MaxGapAuditIterations,
	} {
		if limit <= 0 {
			r.add(name, "must be > 0 (use unlimitedIterations for no bound)")
		}
	}
	for name, tool := range map[string]ToolName{
		"tools.plan": c.Tools.Plan, "tools.execute": c.Tools.Execute, "tools.audit": c.Tools.Audit,
	} {
		if !validTools[tool] {
			r.add(name, fmt.Sprintf("unknown tool %q", tool))
		}
	}
	for i, t := range c.Fallback.FallbackTools {
		if !validTools[t] {
			r.add(fmt.Sprintf("fallback.fallbackTools[%d]", i), fmt.Sprintf("unknown tool %q", t))
		}
	}
	if c.Fallback.MaxRetries < 0 {
		r.add("fallback.maxRetries", "must be >= 0")
	}
	if c.Fallback.RetryDelayMs < 0 {
		r.add("fallback.retryDelayMs", "must be >= 0")
	}
	if c.Paths.ArtifactBaseDir == "" {
		r.add("paths.artifactBaseDir", "must not be empty")
	}
	if c.Paths.RunDirectory == "" {
		r.add("paths.runDirectory", "must not be empty")
	}

	return r
}
