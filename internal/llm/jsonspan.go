package llm

import "strings"

// FirstJSONObject returns the first brace-balanced {...} region of s.
// Braces inside JSON string literals (including escaped quotes) do not count.
// ok is false when s has no opening brace or the first object never closes.
func FirstJSONObject(s string) (span string, ok bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
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
