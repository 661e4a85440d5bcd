package grammar

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/util"
)

// Patterns are written as space separated elements:
//
//	literal            matches one token, case-insensitively
//	<name:type>        captures one value of the given type
//	<name:type>...     captures one or more values
//	<name:a|b|c>       captures one of the listed keywords
//	[ ... ]            optional sequence
//	( a | b c )        alternatives
//
// Literals that appear in the matched line are recorded as flags.

type elemKind int

const (
	elemLit elemKind = iota
	elemCapture
	elemOptional
	elemChoice
)

type elem struct {
	kind   elemKind
	lit    string
	name   string
	typ    string
	enum   []string
	repeat bool
	seq    []elem
	alts   [][]elem
}

type arg struct {
	name  string
	value string
}

type pattern struct {
	src string
	seq []elem
}

func compilePattern(src string) (*pattern, error) {
	toks, err := splitPattern(src)
	if err != nil {
		return nil, err
	}
	seq, rest, err := parseSeq(toks)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", src, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("pattern %q: unexpected %q", src, rest[0])
	}
	return &pattern{src: src, seq: seq}, nil
}

func mustCompile(src string) *pattern {
	p, err := compilePattern(src)
	if err != nil {
		panic(err)
	}
	return p
}

func splitPattern(src string) ([]string, error) {
	var toks []string
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ':
			i++
		case strings.ContainsRune("[]()|", rune(c)):
			toks = append(toks, string(c))
			i++
		case c == '<':
			end := strings.IndexByte(src[i:], '>')
			if end < 0 {
				return nil, fmt.Errorf("unterminated capture in %q", src)
			}
			end += i + 1
			if strings.HasPrefix(src[end:], "...") {
				end += 3
			}
			toks = append(toks, src[i:end])
			i = end
		default:
			j := i
			for j < len(src) && !strings.ContainsRune(" []()|<", rune(src[j])) {
				j++
			}
			toks = append(toks, src[i:j])
			i = j
		}
	}
	return toks, nil
}

// parseSeq consumes elements until a closing token it does not own.
func parseSeq(toks []string) ([]elem, []string, error) {
	var seq []elem
	for len(toks) > 0 {
		t := toks[0]
		switch t {
		case "]", ")", "|":
			return seq, toks, nil
		case "[":
			inner, rest, err := parseSeq(toks[1:])
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0] != "]" {
				return nil, nil, fmt.Errorf("missing ]")
			}
			seq = append(seq, elem{kind: elemOptional, seq: inner})
			toks = rest[1:]
		case "(":
			var alts [][]elem
			rest := toks[1:]
			for {
				inner, r, err := parseSeq(rest)
				if err != nil {
					return nil, nil, err
				}
				alts = append(alts, inner)
				if len(r) == 0 {
					return nil, nil, fmt.Errorf("missing )")
				}
				if r[0] == ")" {
					rest = r[1:]
					break
				}
				if r[0] != "|" {
					return nil, nil, fmt.Errorf("unexpected %q in alternation", r[0])
				}
				rest = r[1:]
			}
			seq = append(seq, elem{kind: elemChoice, alts: alts})
			toks = rest
		default:
			if strings.HasPrefix(t, "<") {
				e, err := parseCapture(t)
				if err != nil {
					return nil, nil, err
				}
				seq = append(seq, e)
			} else {
				seq = append(seq, elem{kind: elemLit, lit: strings.ToLower(t)})
			}
			toks = toks[1:]
		}
	}
	return seq, nil, nil
}

func parseCapture(t string) (elem, error) {
	e := elem{kind: elemCapture}
	if strings.HasSuffix(t, "...") {
		e.repeat = true
		t = strings.TrimSuffix(t, "...")
	}
	body := strings.TrimSuffix(strings.TrimPrefix(t, "<"), ">")
	name, typ, ok := strings.Cut(body, ":")
	if !ok || name == "" || typ == "" {
		return e, fmt.Errorf("bad capture %q", t)
	}
	e.name = name
	if strings.Contains(typ, "|") {
		e.typ = "enum"
		e.enum = strings.Split(typ, "|")
		return e, nil
	}
	if _, known := validators[typ]; !known && typ != "iface" && typ != "rest" && typ != "line" {
		return e, fmt.Errorf("unknown capture type %q", typ)
	}
	e.typ = typ
	return e, nil
}

var wellKnownCommunities = map[string]bool{
	"internet":     true,
	"local-as":     true,
	"no-advertise": true,
	"no-export":    true,
}

var validators = map[string]func(string) bool{
	"word":   func(s string) bool { return s != "" },
	"uint":   func(s string) bool { return isUint(s, 32) },
	"uint8":  func(s string) bool { return isUint(s, 8) },
	"uint16": func(s string) bool { return isUint(s, 16) },
	"uint32": func(s string) bool { return isUint(s, 32) },
	"ip":     util.IsValidIPv4,
	"ipv6": func(s string) bool {
		a, err := netip.ParseAddr(s)
		return err == nil && a.Is6()
	},
	"prefix": func(s string) bool {
		p, err := netip.ParsePrefix(s)
		return err == nil && p.Addr().Is4()
	},
	"prefix6": func(s string) bool {
		p, err := netip.ParsePrefix(s)
		return err == nil && p.Addr().Is6()
	},
	"asn": func(s string) bool {
		_, err := util.ParseASN(s)
		return err == nil
	},
	"area": func(s string) bool {
		_, err := util.ParseArea(s)
		return err == nil
	},
	"action": func(s string) bool {
		s = strings.ToLower(s)
		return s == "permit" || s == "deny"
	},
	"community": isCommunity,
	"peer": func(s string) bool {
		return s != "" && !strings.HasPrefix(s, "\"")
	},
}

func isUint(s string, bits int) bool {
	_, err := strconv.ParseUint(s, 10, bits)
	return err == nil
}

func isCommunity(s string) bool {
	if wellKnownCommunities[strings.ToLower(s)] {
		return true
	}
	if hi, lo, ok := strings.Cut(s, ":"); ok {
		return isUint(hi, 16) && isUint(lo, 16)
	}
	return isUint(s, 32)
}

func isAlpha(s string) bool {
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '-') {
			return false
		}
	}
	return s != ""
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// widths returns the candidate token counts a capture may consume at pos,
// longest first.
func widths(e *elem, toks []string, pos int) []int {
	remaining := len(toks) - pos
	switch e.typ {
	case "rest":
		if remaining > 0 {
			return []int{remaining}
		}
		return nil
	case "line":
		return []int{remaining}
	}
	if remaining == 0 {
		return nil
	}
	tok := toks[pos]
	switch e.typ {
	case "iface":
		if startsWithDigit(tok) || strings.HasPrefix(tok, "\"") {
			return nil
		}
		if isAlpha(tok) {
			if remaining > 1 && startsWithDigit(toks[pos+1]) {
				return []int{2}
			}
			return nil
		}
		return []int{1}
	case "enum":
		for _, v := range e.enum {
			if strings.EqualFold(v, tok) {
				return []int{1}
			}
		}
		return nil
	}
	if validators[e.typ](tok) {
		return []int{1}
	}
	return nil
}

// match reports whether toks match the pattern in full, returning captures.
func (p *pattern) match(toks []string) ([]arg, bool) {
	var caps []arg
	ok := matchSeq(p.seq, 0, toks, 0, &caps, func(pos int) bool { return pos == len(toks) })
	if !ok {
		return nil, false
	}
	return caps, true
}

func matchSeq(seq []elem, i int, toks []string, pos int, caps *[]arg, k func(int) bool) bool {
	if i == len(seq) {
		return k(pos)
	}
	e := &seq[i]
	next := func(p int) bool { return matchSeq(seq, i+1, toks, p, caps, k) }
	mark := len(*caps)

	switch e.kind {
	case elemLit:
		if pos < len(toks) && strings.EqualFold(toks[pos], e.lit) {
			*caps = append(*caps, arg{name: "+" + e.lit, value: e.lit})
			if next(pos + 1) {
				return true
			}
			*caps = (*caps)[:mark]
		}
		return false

	case elemCapture:
		if e.repeat {
			n := 0
			for pos+n < len(toks) {
				w := widths(e, toks, pos+n)
				if len(w) == 0 || w[0] != 1 {
					break
				}
				n++
			}
			for c := n; c >= 1; c-- {
				for j := 0; j < c; j++ {
					*caps = append(*caps, arg{name: e.name, value: toks[pos+j]})
				}
				if next(pos + c) {
					return true
				}
				*caps = (*caps)[:mark]
			}
			return false
		}
		for _, w := range widths(e, toks, pos) {
			*caps = append(*caps, arg{name: e.name, value: strings.Join(toks[pos:pos+w], " ")})
			if next(pos + w) {
				return true
			}
			*caps = (*caps)[:mark]
		}
		return false

	case elemOptional:
		if matchSeq(e.seq, 0, toks, pos, caps, next) {
			return true
		}
		*caps = (*caps)[:mark]
		return next(pos)

	case elemChoice:
		for _, alt := range e.alts {
			if matchSeq(alt, 0, toks, pos, caps, next) {
				return true
			}
			*caps = (*caps)[:mark]
		}
		return false
	}
	return false
}
