package llmtool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence if the model wrapped
// its reply in one (```lang ... ```). Anything else passes through unchanged.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return s
	}
	// Drop the opening ```lang line and the closing ``` line.
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) == "```" {
		lines = lines[1:last]
	} else {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// DecodeStrict unmarshals raw into out, rejecting unknown fields so schema
// drift in model output surfaces as an error instead of silent zero values.
func DecodeStrict(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("llmtool: decode response: %w", err)
	}
	return nil
}

// Decode unmarshals raw into out, tolerating extra fields.
func Decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("llmtool: decode response: %w", err)
	}
	return nil
}
