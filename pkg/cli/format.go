// Package cli provides shared formatting helpers for the rgosc command.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/newtron-network/rgosc/pkg/warnings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

// SetColor overrides NO_COLOR detection.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("\033[32m", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("\033[33m", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("\033[31m", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("\033[1m", s) }

// Dim wraps s in ANSI dim.
func Dim(s string) string { return paint("\033[2m", s) }

// Status renders a pass/fail marker.
func Status(ok bool) string {
	if ok {
		return Green("ok")
	}
	return Red("FAILED")
}

// KindLabel colors a warning kind by severity.
func KindLabel(k warnings.Kind) string {
	switch k {
	case warnings.KindRedFlag:
		return Red(string(k))
	case warnings.KindUnimplemented, warnings.KindParse:
		return Yellow(string(k))
	default:
		return Dim(string(k))
	}
}

// Summary renders non-zero counts in a fixed kind order, e.g.
// "2 red-flag, 1 unimplemented". It returns "clean" when all are zero.
func Summary(counts map[warnings.Kind]int) string {
	var parts []string
	for _, k := range []warnings.Kind{warnings.KindParse, warnings.KindRedFlag, warnings.KindUnimplemented, warnings.KindPedantic} {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, ", ")
}
