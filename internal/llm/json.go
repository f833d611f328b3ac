package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON document out of an LLM response.
//
// Models are instructed to answer with a fenced ```json block, but in
// practice responses arrive fenced, bare, or with surrounding prose. The
// first fenced block wins; otherwise the first balanced top-level object or
// array is returned.
func ExtractJSON(response string) (string, error) {
	doc, _, err := ExtractJSONWithRemainder(response)
	return doc, err
}

// ExtractJSONWithRemainder extracts a JSON document and returns any text
// following it. Improvement responses carry the rewritten answer as plain
// text after the fenced suggestions block.
func ExtractJSONWithRemainder(response string) (doc string, remainder string, err error) {
	if fenced, rest, ok := extractFenced(response); ok {
		return strings.TrimSpace(fenced), strings.TrimSpace(rest), nil
	}

	start := strings.IndexAny(response, "{[")
	if start < 0 {
		return "", "", fmt.Errorf("no JSON found in response")
	}

	end, ok := matchBalanced(response, start)
	if !ok {
		return "", "", fmt.Errorf("unterminated JSON in response")
	}

	return response[start : end+1], strings.TrimSpace(response[end+1:]), nil
}

// extractFenced returns the content of the first ```json (or bare ```) fence
// and the text after the closing fence.
func extractFenced(s string) (content, rest string, ok bool) {
	for _, marker := range []string{"```json", "```"} {
		idx := strings.Index(s, marker)
		if idx < 0 {
			continue
		}
		body := s[idx+len(marker):]
		closing := strings.Index(body, "```")
		if closing < 0 {
			return "", "", false
		}
		return body[:closing], body[closing+3:], true
	}
	return "", "", false
}

// matchBalanced finds the index of the bracket closing the one at start,
// skipping over string literals.
func matchBalanced(s string, start int) (int, bool) {
	open := s[start]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return 0, false
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
