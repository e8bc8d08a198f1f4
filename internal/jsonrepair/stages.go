package jsonrepair

import (
	"regexp"
	"strings"
)

// Stage is one named string-to-string repair. Every stage is idempotent.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Stages returns the ordered repair chain for a payload shape. Array payloads
// (per-day meal lists) get the macro and bare-value stages on top of the
// common ones.
func Stages(shape Shape) []Stage {
	stages := []Stage{
		{Name: "strip_comments", Apply: StripComments},
		{Name: "quote_single_quoted_keys", Apply: QuoteSingleQuotedKeys},
		{Name: "quote_bare_keys", Apply: QuoteBareKeys},
		{Name: "normalize_booleans", Apply: NormalizeBooleans},
		{Name: "remove_trailing_commas", Apply: RemoveTrailingCommas},
	}
	if shape == Array {
		stages = append(stages,
			Stage{Name: "quote_macro_values", Apply: QuoteMacroValues},
			Stage{Name: "quote_bare_values", Apply: QuoteBareValues},
			Stage{Name: "unescape_quotes", Apply: UnescapeQuotes},
			Stage{Name: "strip_invisible", Apply: StripInvisible},
		)
	}
	return stages
}

var (
	singleQuotedKey  = regexp.MustCompile(`'([^']+)'\s*:`)
	bareKey          = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	pythonBool       = regexp.MustCompile(`([:\[,]\s*)(True|False)\b`)
	trailingComma    = regexp.MustCompile(`,\s*([}\]])`)
	macroValue       = regexp.MustCompile(`("(?:calories|protein|carbs|fats)"\s*:\s*)(-?\d+(?:\.\d+)?(?:[ \t]*[A-Za-z]+)?)`)
	singleQuotedVal  = regexp.MustCompile(`(:\s*)'([^']*)'`)
	bareValue        = regexp.MustCompile(`(:\s*)([^"\s,{}\[\]](?:[^",{}\[\]\n]*[^"\s,{}\[\]])?)(\s*[,}\]])`)
	jsonNumber       = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?$`)
	jsonLiteralWords = map[string]bool{"true": true, "false": true, "null": true}
)

// StripComments removes /* block */ and // line comments that sit outside
// string literals. A // directly after ':' is kept so bare URLs survive.
// An unterminated block comment is left as is.
func StripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					b.WriteString(s[i:])
					return b.String()
				}
				i += 2 + end + 1
				continue
			case '/':
				if i > 0 && s[i-1] == ':' {
					break
				}
				end := strings.IndexByte(s[i:], '\n')
				if end < 0 {
					return b.String()
				}
				i += end - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// QuoteSingleQuotedKeys turns 'key': into "key":.
func QuoteSingleQuotedKeys(s string) string {
	return mapOutsideStrings(s, func(seg string) string {
		return singleQuotedKey.ReplaceAllString(seg, `"$1":`)
	})
}

// QuoteBareKeys turns {key: and , key: into {"key": and , "key":.
func QuoteBareKeys(s string) string {
	return mapOutsideStrings(s, func(seg string) string {
		return bareKey.ReplaceAllString(seg, `$1"$2":`)
	})
}

// NormalizeBooleans lowercases Python-style True/False literals.
func NormalizeBooleans(s string) string {
	return mapOutsideStrings(s, func(seg string) string {
		return pythonBool.ReplaceAllStringFunc(seg, strings.ToLower)
	})
}

// RemoveTrailingCommas drops a comma that directly precedes } or ].
func RemoveTrailingCommas(s string) string {
	return mapOutsideStrings(s, func(seg string) string {
		return trailingComma.ReplaceAllString(seg, "$1")
	})
}

// QuoteMacroValues quotes numeric values of the calories, protein, carbs and
// fats keys, keeping a trailing unit word (g, kcal, grams) inside the quotes.
func QuoteMacroValues(s string) string {
	return macroValue.ReplaceAllString(s, `${1}"${2}"`)
}

// QuoteBareValues double-quotes single-quoted values and unquoted words.
// JSON numbers and true/false/null are left alone.
func QuoteBareValues(s string) string {
	return mapOutsideStrings(s, func(seg string) string {
		seg = singleQuotedVal.ReplaceAllString(seg, `$1"$2"`)
		return bareValue.ReplaceAllStringFunc(seg, func(m string) string {
			parts := bareValue.FindStringSubmatch(m)
			value := parts[2]
			if jsonNumber.MatchString(value) || jsonLiteralWords[value] {
				return m
			}
			return parts[1] + `"` + value + `"` + parts[3]
		})
	})
}

// UnescapeQuotes removes backslashes in front of single quotes, and in front
// of double quotes when the payload has no unescaped double quote at all
// (a JSON document that was itself string-encoded).
func UnescapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	if strings.Contains(s, `\"`) && !hasUnescapedQuote(s) {
		s = strings.ReplaceAll(s, `\"`, `"`)
	}
	return s
}

// StripInvisible drops control and zero-width characters and turns
// non-breaking spaces into plain spaces.
func StripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\u00a0':
			return ' '
		case r < 0x20, r >= 0x7f && r <= 0x9f:
			return -1
		case r >= 0x200b && r <= 0x200d, r == 0xfeff:
			return -1
		}
		return r
	}, s)
}

func hasUnescapedQuote(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '"' && (i == 0 || s[i-1] != '\\') {
			return true
		}
	}
	return false
}

// mapOutsideStrings applies fn to every region of s that is not inside a
// double-quoted string literal. Literals are copied through untouched.
func mapOutsideStrings(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))

	start := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				b.WriteString(s[start : i+1])
				start = i + 1
				inString = false
			}
			continue
		}
		if c == '"' {
			b.WriteString(fn(s[start:i]))
			start = i
			inString = true
		}
	}

	if start < len(s) {
		if inString {
			b.WriteString(s[start:])
		} else {
			b.WriteString(fn(s[start:]))
		}
	}
	return b.String()
}
