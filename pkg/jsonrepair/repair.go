// Package jsonrepair is a best-effort parser for near-structured model
// output. It only performs structural repair (fences, brace extraction, brace
// balancing); it never guesses semantic intent.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoObject = errors.New("jsonrepair: no JSON object found")

// StripFences removes markdown code fences (```json ... ```) around a block.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop an optional language tag on the fence line
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "json" || first == "JSON" || first == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the outermost {...} span of s, or "" when no opening
// brace exists. A truncated object (no closing brace) is returned from the
// opening brace to the end so balancing can finish the job.
func ExtractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return s[start:]
	}
	return s[start : end+1]
}

// BalanceBraces appends the closing braces/brackets an unterminated object is
// missing. String state is tracked so braces inside literals are ignored.
func BalanceBraces(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// Repair runs the full ladder: strip fences, extract the outermost object,
// balance braces. It returns the repaired candidate without parsing it.
func Repair(raw string) (string, error) {
	obj := ExtractObject(StripFences(raw))
	if obj == "" {
		return "", ErrNoObject
	}
	return BalanceBraces(obj), nil
}

// Unmarshal repairs raw and decodes the result into v.
func Unmarshal(raw string, v interface{}) error {
	// fast path: already valid
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), v); err == nil {
		return nil
	}
	repaired, err := Repair(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), v)
}
