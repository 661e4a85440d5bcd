package grammar

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/util"
)

// Node is one parse-tree node: a recognized line, a block header with its
// children, or an error marker.
type Node struct {
	Rule     string
	Context  Context
	Line     int
	Text     string
	Silent   bool
	Children []*Node
	// Err is non-nil for lines that could not be parsed.
	Err *ErrorInfo

	args []arg
}

// ErrorInfo describes an unparsable line.
type ErrorInfo struct {
	// Unrecognized is set when the line tokenized cleanly but matched no rule
	// in its context. Otherwise the lexer itself failed.
	Unrecognized bool
	Reason       string
	// Absorbed holds the indented lines that followed an unrecognized
	// top-level line.
	Absorbed []string
}

// IsError reports whether n is an error marker.
func (n *Node) IsError() bool { return n.Err != nil }

// Has reports whether the capture or literal flag was matched.
func (n *Node) Has(name string) bool {
	for _, a := range n.args {
		if a.name == name {
			return true
		}
	}
	return false
}

// Flag reports whether the keyword appeared in the matched line.
func (n *Node) Flag(keyword string) bool {
	return n.Has("+" + strings.ToLower(keyword))
}

// Str returns the first value captured under name, or "".
func (n *Node) Str(name string) string {
	for _, a := range n.args {
		if a.name == name {
			return a.value
		}
	}
	return ""
}

// Strs returns every value captured under name.
func (n *Node) Strs(name string) []string {
	var out []string
	for _, a := range n.args {
		if a.name == name {
			out = append(out, a.value)
		}
	}
	return out
}

// The typed accessors below panic when the capture is missing or malformed.
// Captures are validated during parsing, so either case is a grammar defect.

func (n *Node) must(name string) string {
	for _, a := range n.args {
		if a.name == name {
			return a.value
		}
	}
	util.Invariantf("grammar", "rule %s line %d has no capture %q", n.Rule, n.Line, name)
	return ""
}

// Uint returns a numeric capture.
func (n *Node) Uint(name string) uint32 {
	v, err := strconv.ParseUint(n.must(name), 10, 32)
	if err != nil {
		util.Invariantf("grammar", "rule %s line %d: %v", n.Rule, n.Line, err)
	}
	return uint32(v)
}

// Int returns a numeric capture as an int.
func (n *Node) Int(name string) int {
	return int(n.Uint(name))
}

// Addr returns an address capture.
func (n *Node) Addr(name string) netip.Addr {
	a, err := netip.ParseAddr(n.must(name))
	if err != nil {
		util.Invariantf("grammar", "rule %s line %d: %v", n.Rule, n.Line, err)
	}
	return a
}

// Prefix returns a prefix capture exactly as written.
func (n *Node) Prefix(name string) netip.Prefix {
	p, err := netip.ParsePrefix(n.must(name))
	if err != nil {
		util.Invariantf("grammar", "rule %s line %d: %v", n.Rule, n.Line, err)
	}
	return p
}

// ASN returns an AS number capture.
func (n *Node) ASN(name string) uint32 {
	v, err := util.ParseASN(n.must(name))
	if err != nil {
		util.Invariantf("grammar", "rule %s line %d: %v", n.Rule, n.Line, err)
	}
	return v
}

// Area returns an OSPF area capture.
func (n *Node) Area(name string) uint32 {
	v, err := util.ParseArea(n.must(name))
	if err != nil {
		util.Invariantf("grammar", "rule %s line %d: %v", n.Rule, n.Line, err)
	}
	return v
}

// Tree is the result of parsing one configuration file.
type Tree struct {
	Root  *Node
	Lines int
}
