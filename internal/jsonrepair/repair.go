package jsonrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxRepairPasses bounds how often the stage chain is re-run while it keeps
// changing the text. A stage can expose work for an earlier one (unescaping
// quotes reveals bare keys), so a single pass is not always a fixed point.
const maxRepairPasses = 8

const snippetLen = 200

// ErrNoPayload is returned by CloseOut when no bracket pair of the expected
// shape can be found.
var ErrNoPayload = errors.New("no balanced payload found")

// ParseFailure reports that a response could not be turned into JSON even
// after every repair stage ran.
type ParseFailure struct {
	Shape   Shape
	Step    string // "closeout" or "decode"
	Snippet string
	Err     error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("jsonrepair: %s of %s payload failed: %v", e.Step, e.Shape, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// Repair runs the stage chain for shape until the text stops changing.
func Repair(s string, shape Shape) string {
	stages := Stages(shape)
	for pass := 0; pass < maxRepairPasses; pass++ {
		next := s
		for _, stage := range stages {
			next = stage.Apply(next)
		}
		if next == s {
			break
		}
		s = next
	}
	return s
}

// CloseOut makes sure s starts and ends with the brackets of shape. It slices
// from the first opening to the last closing bracket. Only when an array was
// expected and no such pair exists is a lone object wrapped in [].
func CloseOut(s string, shape Shape) (string, error) {
	s = strings.TrimSpace(s)
	opening, closing := shape.brackets()
	if strings.HasPrefix(s, opening) && strings.HasSuffix(s, closing) {
		return s, nil
	}

	first := strings.Index(s, opening)
	last := strings.LastIndex(s, closing)
	if first != -1 && last > first {
		return s[first : last+1], nil
	}

	if shape == Array && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return "[" + s + "]", nil
	}
	return "", ErrNoPayload
}

// Parse extracts, repairs and decodes raw into v. Any failure is returned as
// a *ParseFailure.
func Parse(raw string, shape Shape, v any) error {
	text := Repair(Extract(raw, shape), shape)

	closed, err := CloseOut(text, shape)
	if err != nil {
		return &ParseFailure{Shape: shape, Step: "closeout", Snippet: truncate(text), Err: err}
	}

	if err := json.Unmarshal([]byte(closed), v); err != nil {
		return &ParseFailure{Shape: shape, Step: "decode", Snippet: truncate(closed), Err: err}
	}
	return nil
}

// ExtractAndParse decodes raw into a generic value: map[string]any for
// objects and []any for arrays.
func ExtractAndParse(raw string, shape Shape) (any, error) {
	if shape == Array {
		var out []any
		if err := Parse(raw, shape, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var out map[string]any
	if err := Parse(raw, shape, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// truncate cuts s to at most snippetLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
