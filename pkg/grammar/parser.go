// Package grammar turns RGOS configuration text into a typed parse tree.
//
// Lines are matched against per-block rule tables. Indentation closes blocks
// when the file is indented; otherwise a line that does not fit the current
// block is tried against the enclosing ones. Lines that fit nowhere become
// error nodes and parsing resumes at the next line.
package grammar

import "strings"

type frame struct {
	ctx         Context
	node        *Node
	indent      int
	childIndent int
	absorb      bool
}

// Parse parses configuration text. It never fails; problems are reported as
// error nodes in the tree.
func Parse(text string) *Tree {
	lines := Lex(text)
	root := &Node{Rule: "config", Context: CtxRoot}
	p := &parser{stack: []*frame{{ctx: CtxRoot, node: root, indent: -1, childIndent: -1}}}
	for i := range lines {
		p.line(&lines[i])
	}
	n := 0
	if len(lines) > 0 {
		n = lines[len(lines)-1].Num
	}
	return &Tree{Root: root, Lines: n}
}

type parser struct {
	stack []*frame
}

func (p *parser) top() *frame { return p.stack[len(p.stack)-1] }

func (p *parser) popTo(depth int) { p.stack = p.stack[:depth] }

func (p *parser) line(l *Line) {
	if l.Err == "" && len(l.Tokens) > 0 && p.closes(l) {
		return
	}

	for len(p.stack) > 1 {
		t := p.top()
		if t.absorb && l.Indent <= t.indent {
			p.popTo(len(p.stack) - 1)
			continue
		}
		if !t.absorb && t.childIndent >= 0 && l.Indent < t.childIndent {
			p.popTo(len(p.stack) - 1)
			continue
		}
		break
	}

	if strings.HasPrefix(l.Text, "!") {
		if l.Indent == 0 {
			p.popTo(1)
		}
		return
	}

	if t := p.top(); t.absorb {
		if t.node.Err != nil {
			t.node.Err.Absorbed = append(t.node.Err.Absorbed, l.Text)
			return
		}
		t.node.Children = append(t.node.Children, &Node{
			Rule:    t.node.Rule,
			Context: CtxSilent,
			Line:    l.Num,
			Text:    l.Text,
			Silent:  true,
		})
		return
	}

	if l.Err != "" {
		t := p.top()
		t.node.Children = append(t.node.Children, &Node{
			Context: t.ctx,
			Line:    l.Num,
			Text:    l.Text,
			Err:     &ErrorInfo{Reason: l.Err},
		})
		return
	}

	for d := len(p.stack) - 1; d >= 0; d-- {
		f := p.stack[d]
		rule, caps := matchRules(f.ctx, l.Tokens)
		if rule == nil {
			continue
		}
		p.popTo(d + 1)
		if d > 0 && f.childIndent < 0 {
			f.childIndent = l.Indent
		}
		n := &Node{
			Rule:    rule.Name,
			Context: f.ctx,
			Line:    l.Num,
			Text:    l.Text,
			Silent:  rule.Silent,
			args:    caps,
		}
		f.node.Children = append(f.node.Children, n)
		if rule.Opens != "" {
			p.stack = append(p.stack, &frame{
				ctx:         rule.Opens,
				node:        n,
				indent:      l.Indent,
				childIndent: -1,
				absorb:      rule.Opens == CtxSilent,
			})
		}
		return
	}

	t := p.top()
	if len(p.stack) > 1 && t.childIndent < 0 {
		t.childIndent = l.Indent
	}
	n := &Node{
		Context: t.ctx,
		Line:    l.Num,
		Text:    l.Text,
		Err:     &ErrorInfo{Unrecognized: true, Reason: "no rule matched"},
	}
	t.node.Children = append(t.node.Children, n)
	if len(p.stack) == 1 {
		p.stack = append(p.stack, &frame{ctx: CtxSilent, node: n, indent: l.Indent, childIndent: -1, absorb: true})
	}
}

// closes handles exit and exit-address-family. It reports whether the line
// was consumed.
func (p *parser) closes(l *Line) bool {
	if len(l.Tokens) != 1 {
		return false
	}
	switch strings.ToLower(l.Tokens[0]) {
	case "exit-address-family":
		for d := len(p.stack) - 1; d > 0; d-- {
			if isAddressFamily(p.stack[d]) {
				p.popTo(d)
				return true
			}
		}
		return true
	case "exit":
		for d := len(p.stack) - 1; d > 0; d-- {
			if p.stack[d].indent >= l.Indent {
				p.popTo(d)
				return true
			}
		}
		if len(p.stack) > 1 {
			p.popTo(len(p.stack) - 1)
		}
		return true
	}
	return false
}

func isAddressFamily(f *frame) bool {
	switch {
	case f.ctx == CtxBgpAF, f.ctx == CtxVrfAF:
		return true
	case f.absorb && f.node.Err == nil:
		return f.node.Rule == "bgp_address_family_other" || f.node.Rule == "vrf_address_family_other"
	}
	return false
}
