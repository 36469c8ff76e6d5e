package plan

import (
	"encoding/json"
	"fmt"

	"formautofill/models"
)

// completionEnvelope is the subset of a chat-completion response the
// unwrapping cares about. Providers either parse the structured output for us
// (message.parsed) or embed it in message.content, sometimes as a string that
// needs re-parsing.
type completionEnvelope struct {
	Choices []struct {
		Message struct {
			Parsed  json.RawMessage `json:"parsed"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// FromCompletion locates the FillPlan payload inside a raw completion
// response and validates it. Tolerates the payload arriving as an object, as
// a JSON string requiring re-parsing, or buried in surrounding prose (in
// which case the first top-level {...} span is used).
func FromCompletion(body []byte) (models.FillPlan, error) {
	var env completionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.FillPlan{}, fmt.Errorf("unexpected completion response: %w", err)
	}
	if env.Error != nil {
		return models.FillPlan{}, fmt.Errorf("provider error: %s", env.Error.Message)
	}
	if len(env.Choices) == 0 {
		return models.FillPlan{}, fmt.Errorf("completion has no choices")
	}

	payload := env.Choices[0].Message.Parsed
	if len(payload) == 0 || string(payload) == "null" {
		payload = env.Choices[0].Message.Content
	}
	if len(payload) == 0 || string(payload) == "null" {
		return models.FillPlan{}, fmt.Errorf("completion has no parsed/content payload")
	}

	// The payload may itself be a JSON string holding the plan.
	var asString string
	if err := json.Unmarshal(payload, &asString); err == nil {
		payload = []byte(asString)
	}

	p, err := ValidateBytes(payload)
	if err == nil {
		return p, nil
	}

	// Tolerant fallback: some models wrap the JSON in prose or code fences.
	if span, ok := firstObjectSpan(string(payload)); ok {
		if p2, err2 := ValidateBytes([]byte(span)); err2 == nil {
			return p2, nil
		}
	}
	return models.FillPlan{}, err
}

// firstObjectSpan scans for the first balanced top-level {...} span,
// respecting string literals and escapes.
func firstObjectSpan(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
