package grammar

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Line is one physical configuration line split into tokens.
type Line struct {
	Num    int
	Indent int
	Text   string
	Tokens []string
	// Err is set when the line could not be tokenized.
	Err string
}

// Lex splits configuration text into lines. Blank lines are dropped.
func Lex(text string) []Line {
	var out []Line
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		l := Line{
			Num:    i + 1,
			Indent: indentWidth(raw),
			Text:   trimmed,
		}
		if !utf8.ValidString(raw) {
			l.Err = "invalid UTF-8"
		} else {
			toks, err := tokenize(trimmed)
			if err != nil {
				l.Err = err.Error()
			}
			l.Tokens = toks
		}
		out = append(out, l)
	}
	return out
}

func indentWidth(s string) int {
	n := 0
	for _, c := range s {
		switch c {
		case ' ':
			n++
		case '\t':
			n += 8 - n%8
		default:
			return n
		}
	}
	return n
}

// tokenize splits on whitespace. A double-quoted run is one token with the
// quotes kept, so that descriptions round-trip.
func tokenize(s string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case (c == ' ' || c == '\t') && !inQuote:
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quoted string")
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks, nil
}
