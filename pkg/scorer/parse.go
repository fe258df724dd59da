package scorer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError indicates the enrichment service returned text from which no
// usable JSON object could be recovered. Callers treat it as equivalent to
// a service failure and fall back to the local scorer.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("enrichment response parse failed: %s", e.Reason)
}

// decodeResponse parses the enrichment service response into v. It tries a
// strict parse of the whole response first; on failure it searches for the
// first balanced {...} span and retries. A second failure yields *ParseError.
func decodeResponse(content string, v any) error {
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}

	span, ok := firstJSONObject(content)
	if !ok {
		return &ParseError{Reason: "no json object found in response"}
	}

	if err := json.Unmarshal([]byte(span), v); err != nil {
		return &ParseError{Reason: fmt.Sprintf("invalid json object: %v", err)}
	}
	return nil
}

// firstJSONObject returns the first balanced top-level {...} span in s,
// skipping braces inside string literals
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
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
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
