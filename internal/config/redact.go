package config

import (
	"encoding/json"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

// RedactedJSON marshals c to JSON and then redacts every string value
// found anywhere in the tree, so effective-config.json never echoes a
// secret that leaked into free-form fields such as Input. This runs the
// redaction pass over the whole document, not just over log lines, per
// SPEC_FULL.md's AMBIENT STACK / Configuration section.
func (c EffectiveConfig) RedactedJSON() ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	redactTree(generic)
	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, err
	}
	return out, nil
}

func redactTree(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if s, ok := val.(string); ok {
				t[k] = reachc.Redact(s)
			} else {
				redactTree(val)
			}
		}
	case []any:
		for i, val := range t {
			if s, ok := val.(string); ok {
				t[i] = reachc.Redact(s)
			} else {
				redactTree(val)
			}
		}
	}
}
