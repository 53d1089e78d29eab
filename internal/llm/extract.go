package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON finds and parses the first balanced JSON object in raw model
// output. Completions routinely wrap the object in code fences or prose, so
// the scan strips fence markers first and then walks the text for a `{...}`
// span with matched braces (string- and escape-aware, so braces inside
// string values don't fool it).
//
// On any failure — no object, unbalanced braces, invalid JSON — a fresh deep
// copy of fallback is returned. Partial JSON is treated as wholly
// untrustworthy: the result is either the parsed object or the fallback,
// never a blend of both. The fallback itself is never mutated.
func ExtractJSON(raw string, fallback map[string]any) map[string]any {
	if parsed, ok := ParseJSONObject(raw); ok {
		return parsed
	}
	return copyFallback(fallback)
}

// ParseJSONObject finds and parses the first balanced JSON object in raw,
// reporting ok=false when none exists or the span is not valid JSON. Callers
// that need to distinguish a real parse from a fallback use this directly.
func ParseJSONObject(raw string) (map[string]any, bool) {
	candidate := firstJSONObject(stripFences(raw))
	if candidate == "" {
		return nil, false
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// stripFences removes markdown code-fence markers (``` with an optional
// language tag) and surrounding whitespace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for {
		idx := strings.Index(s, "```")
		if idx < 0 {
			return s
		}
		rest := s[idx+3:]
		// Drop an optional language tag directly after the fence.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{}") {
			rest = rest[nl+1:]
		}
		s = s[:idx] + rest
	}
}

// firstJSONObject returns the first substring that starts with '{' and ends
// at its matching '}', or "" if no balanced object exists.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 && c == '}' {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// copyFallback deep-copies a fallback object through a JSON round trip so
// callers can safely hand out the same declared fallback many times.
func copyFallback(fallback map[string]any) map[string]any {
	if fallback == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(fallback)
	if err != nil {
		// Fallbacks are hand-authored literals; marshal cannot realistically
		// fail, but a shallow copy beats returning shared state.
		out := make(map[string]any, len(fallback))
		for k, v := range fallback {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}
