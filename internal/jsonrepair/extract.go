// Package jsonrepair recovers structured JSON from free-form model output.
//
// Recovery runs in three steps: Extract locates the payload inside the raw
// text, Repair applies an ordered list of pure string stages, and CloseOut
// trims the result to the expected top-level brackets before decoding.
package jsonrepair

import (
	"regexp"
	"strings"
)

// Shape is the expected top-level JSON kind.
type Shape int

const (
	Object Shape = iota
	Array
)

func (s Shape) String() string {
	if s == Array {
		return "array"
	}
	return "object"
}

func (s Shape) brackets() (opening, closing string) {
	if s == Array {
		return "[", "]"
	}
	return "{", "}"
}

var (
	jsonFence  = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	anyFence   = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*\\s*(.*?)```")
	objectSpan = regexp.MustCompile(`(?s)\{.*\}`)
	arraySpan  = regexp.MustCompile(`(?s)\[.*\]`)
)

// Extract returns the most likely JSON payload in raw.
//
// Preference order: a ```json fenced block, any fenced block, the widest
// {...} (or [...] for arrays) span, and finally the whole text.
func Extract(raw string, shape Shape) string {
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := anyFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	span := objectSpan
	if shape == Array {
		span = arraySpan
	}
	if m := span.FindString(raw); m != "" {
		return strings.TrimSpace(m)
	}
	return strings.TrimSpace(raw)
}
