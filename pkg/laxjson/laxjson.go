// Package laxjson extracts a JSON object from the free-form text a
// generative model returns. The model is asked for exactly one object but may
// wrap it in markdown fences or prose, and occasionally emits tokens that are
// almost-JSON. The repair rules are deliberately small and listed here so the
// surface stays auditable:
//
//  1. markdown code fences (``` or ```json) are stripped;
//  2. the first balanced {...} span is taken, ignoring braces inside strings;
//  3. a trailing `OR null` after a value collapses to the value, a bare
//     `OR null` in value position becomes `null`;
//  4. bare Python-style tokens (None, Null, True, False) in value position
//     are normalized to their JSON spellings.
//
// The repairs run only outside string literals: a quoted value such as
// "score: none" passes through untouched.
//
// Anything still unparseable after that is a genuine parse failure and is
// returned as an error; callers degrade to their heuristic paths.
package laxjson

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoObject = errors.New("no JSON object found in text")

	fenceRe      = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bareOrNullRe = regexp.MustCompile(`(?i):\s*OR\s+null`)
	orNullRe     = regexp.MustCompile(`(?i)\s+OR\s+null`)
	noneRe       = regexp.MustCompile(`(?i):\s*(?:none|null)\b`)
	trueRe       = regexp.MustCompile(`:\s*True\b`)
	falseRe      = regexp.MustCompile(`:\s*False\b`)
)

// Extract returns the repaired JSON object text contained in raw.
func Extract(raw string) (string, error) {
	text := raw

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	} else {
		// Unterminated fence: drop the fence line itself.
		text = strings.ReplaceAll(text, "```json", "")
		text = strings.ReplaceAll(text, "```", "")
	}

	span, ok := braceSpan(text)
	if !ok {
		return "", ErrNoObject
	}

	return repair(span), nil
}

// Unmarshal extracts the object in raw and decodes it into v.
func Unmarshal(raw string, v any) error {
	text, err := Extract(raw)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(text), v)
}

// braceSpan finds the first balanced {...} span, skipping brace characters
// that occur inside string literals.
func braceSpan(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}

			continue
		}

		switch r {
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
			if start < 0 {
				continue
			}

			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// repair applies the token rewrites between string literals only, with the
// same escape-aware scan braceSpan uses, so quoted keys and values are never
// rewritten.
func repair(text string) string {
	var out, chunk strings.Builder

	inString := false
	escaped := false

	flush := func() {
		s := chunk.String()
		s = bareOrNullRe.ReplaceAllString(s, ": null")
		s = orNullRe.ReplaceAllString(s, "")
		s = noneRe.ReplaceAllString(s, ": null")
		s = trueRe.ReplaceAllString(s, ": true")
		s = falseRe.ReplaceAllString(s, ": false")
		out.WriteString(s)
		chunk.Reset()
	}

	for _, r := range text {
		if inString {
			out.WriteRune(r)

			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}

			continue
		}

		if r == '"' {
			flush()
			out.WriteRune(r)
			inString = true

			continue
		}

		chunk.WriteRune(r)
	}

	flush()

	return out.String()
}
