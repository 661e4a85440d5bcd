// Package warnings collects the diagnostics produced while compiling one
// configuration file.
package warnings

import (
	"fmt"
	"sort"
)

// Kind classifies a warning.
type Kind string

const (
	KindParse         Kind = "parse"
	KindRedFlag       Kind = "red-flag"
	KindUnimplemented Kind = "unimplemented"
	KindPedantic      Kind = "pedantic"
)

// ParseWarning describes a line the parser recognized as RGOS but could not
// turn into a rule.
type ParseWarning struct {
	Line          int    `json:"line" yaml:"line"`
	Text          string `json:"text" yaml:"text"`
	ParserContext string `json:"parser_context" yaml:"parser_context"`
	Comment       string `json:"comment" yaml:"comment"`
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("line %d: %s (%s) [%s]", w.Line, w.Text, w.Comment, w.ParserContext)
}

// Warnings is a per-unit collection. The zero value is ready to use.
// It is not safe for concurrent use; each compilation unit owns one.
type Warnings struct {
	ParseWarnings []ParseWarning `json:"parse_warnings,omitempty" yaml:"parse_warnings,omitempty"`
	RedFlags      []string       `json:"red_flags,omitempty" yaml:"red_flags,omitempty"`
	Unimplemented []string       `json:"unimplemented,omitempty" yaml:"unimplemented,omitempty"`
	Pedantic      []string       `json:"pedantic,omitempty" yaml:"pedantic,omitempty"`
}

// New returns an empty collection.
func New() *Warnings {
	return &Warnings{}
}

// AddParseWarning records a structured parse warning.
func (w *Warnings) AddParseWarning(line int, text, parserContext, comment string) {
	w.ParseWarnings = append(w.ParseWarnings, ParseWarning{
		Line:          line,
		Text:          text,
		ParserContext: parserContext,
		Comment:       comment,
	})
}

// RedFlag records a free-text warning.
func (w *Warnings) RedFlag(msg string) {
	w.RedFlags = append(w.RedFlags, msg)
}

// RedFlagf records a formatted free-text warning.
func (w *Warnings) RedFlagf(format string, args ...interface{}) {
	w.RedFlag(fmt.Sprintf(format, args...))
}

// Unimplementedf records syntax that is understood but not modeled.
func (w *Warnings) Unimplementedf(format string, args ...interface{}) {
	w.Unimplemented = append(w.Unimplemented, fmt.Sprintf(format, args...))
}

// Pedanticf records a stylistic observation.
func (w *Warnings) Pedanticf(format string, args ...interface{}) {
	w.Pedantic = append(w.Pedantic, fmt.Sprintf(format, args...))
}

// Counts returns the number of warnings per kind.
func (w *Warnings) Counts() map[Kind]int {
	return map[Kind]int{
		KindParse:         len(w.ParseWarnings),
		KindRedFlag:       len(w.RedFlags),
		KindUnimplemented: len(w.Unimplemented),
		KindPedantic:      len(w.Pedantic),
	}
}

// Len returns the total number of warnings, excluding pedantic ones.
func (w *Warnings) Len() int {
	return len(w.ParseWarnings) + len(w.RedFlags) + len(w.Unimplemented)
}

// Entry is one warning flattened for display.
type Entry struct {
	Kind Kind
	Line int
	Text string
}

// Entries flattens the collection: parse warnings ordered by line, then red
// flags and unimplemented notes in insertion order.
func (w *Warnings) Entries(includePedantic bool) []Entry {
	parse := append([]ParseWarning(nil), w.ParseWarnings...)
	sort.SliceStable(parse, func(i, j int) bool { return parse[i].Line < parse[j].Line })

	var out []Entry
	for _, p := range parse {
		out = append(out, Entry{Kind: KindParse, Line: p.Line, Text: p.Text + " (" + p.Comment + ")"})
	}
	for _, r := range w.RedFlags {
		out = append(out, Entry{Kind: KindRedFlag, Text: r})
	}
	for _, u := range w.Unimplemented {
		out = append(out, Entry{Kind: KindUnimplemented, Text: u})
	}
	if includePedantic {
		for _, p := range w.Pedantic {
			out = append(out, Entry{Kind: KindPedantic, Text: p})
		}
	}
	return out
}
