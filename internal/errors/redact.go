package errors

import "regexp"

// secretPattern pairs a matching regex with the index of the submatch group
// that holds the sensitive value to redact (the rest of the match, such as
// a "key=" prefix or a "Bearer " marker, is preserved verbatim).
type secretPattern struct {
	re       *regexp.Regexp
	valueIdx int
}

// defaultPatterns implements the redaction rule set from spec §6: generic
// api_key=…, bearer tokens, AWS AKIA…, GitHub gh[pousr]_…, provider keys
// sk-… / sk-ant-…, and generic password/secret/token=… forms.
var defaultPatterns = []secretPattern{
	{regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*"?)([a-zA-Z0-9_\-]{8,})`), 2},
	{regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9_\-\.]{10,})`), 2},
	{regexp.MustCompile(`(AKIA[0-9A-Z]{16})`), 1},
	{regexp.MustCompile(`(gh[pousr]_[a-zA-Z0-9]{20,})`), 1},
	{regexp.MustCompile(`(sk-ant-[a-zA-Z0-9\-]{10,})`), 1},
	{regexp.MustCompile(`(sk-[a-zA-Z0-9]{10,})`), 1},
	{regexp.MustCompile(`(?i)(password\s*[:=]\s*"?)([^\s"']{3,})`), 2},
	{regexp.MustCompile(`(?i)(secret\s*[:=]\s*"?)([^\s"']{3,})`), 2},
	{regexp.MustCompile(`(?i)(token\s*[:=]\s*"?)([a-zA-Z0-9_\-\.]{8,})`), 2},
}

// Redact replaces every sensitive substring matched by defaultPatterns with
// at most its first four characters followed by "[REDACTED]". It is applied
// to every logged message, every log field, every string value serialized
// into effective-config.json, and every run-summary field.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, p := range defaultPatterns {
		s = redactOne(s, p)
	}
	return s
}

func redactOne(s string, p secretPattern) string {
	locs := p.re.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}
	var out []byte
	last := 0
	for _, loc := range locs {
		vStart, vEnd := loc[2*p.valueIdx], loc[2*p.valueIdx+1]
		if vStart < 0 {
			continue
		}
		out = append(out, s[last:vStart]...)
		value := s[vStart:vEnd]
		keep := value
		if len(keep) > 4 {
			keep = keep[:4]
		}
		out = append(out, keep...)
		out = append(out, "[REDACTED]"...)
		last = vEnd
	}
	out = append(out, s[last:]...)
	return string(out)
}

// RedactMap redacts every value in a string-keyed map, leaving keys intact.
func RedactMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Redact(v)
	}
	return out
}
