// Package refs records where named configuration structures are defined and
// referenced so that undefined, unused and out-of-order uses can be reported.
package refs

import "sort"

// Definition is one definition site.
type Definition struct {
	Type StructureType `json:"type" yaml:"type"`
	Name string        `json:"name" yaml:"name"`
	Line int           `json:"line" yaml:"line"`
}

// Reference is one use site.
type Reference struct {
	Type  StructureType `json:"type" yaml:"type"`
	Name  string        `json:"name" yaml:"name"`
	Usage Usage         `json:"usage" yaml:"usage"`
	Line  int           `json:"line" yaml:"line"`
}

type key struct {
	t    StructureType
	name string
}

// Tracker accumulates definitions and references for one compilation unit.
// It never fails; it only records facts.
type Tracker struct {
	defs []Definition
	refs []Reference
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Define records a definition site. Repeated definitions are all kept.
func (t *Tracker) Define(typ StructureType, name string, line int) {
	t.defs = append(t.defs, Definition{Type: typ, Name: name, Line: line})
}

// Reference records a use site.
func (t *Tracker) Reference(typ StructureType, name string, usage Usage, line int) {
	t.refs = append(t.refs, Reference{Type: typ, Name: name, Usage: usage, Line: line})
}

// Definitions returns all definition sites in insertion order.
func (t *Tracker) Definitions() []Definition {
	return append([]Definition(nil), t.defs...)
}

// References returns all reference sites in insertion order.
func (t *Tracker) References() []Reference {
	return append([]Reference(nil), t.refs...)
}

// DefinitionCount returns how many times (typ, name) was defined.
func (t *Tracker) DefinitionCount(typ StructureType, name string) int {
	n := 0
	for _, d := range t.defs {
		if d.Type == typ && d.Name == name {
			n++
		}
	}
	return n
}

// ReferencesTo returns the references to (typ, name), optionally filtered by usage.
func (t *Tracker) ReferencesTo(typ StructureType, name string, usages ...Usage) []Reference {
	var out []Reference
	for _, r := range t.refs {
		if r.Type != typ || r.Name != name {
			continue
		}
		if len(usages) > 0 && !containsUsage(usages, r.Usage) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// IsDefined reports whether a reference of this type and name resolves.
func (t *Tracker) IsDefined(typ StructureType, name string) bool {
	_, ok := t.firstDefinition()[key{typ.Abstract(), name}]
	return ok
}

func (t *Tracker) firstDefinition() map[key]int {
	first := make(map[key]int)
	for _, d := range t.defs {
		k := key{d.Type.Abstract(), d.Name}
		if l, ok := first[k]; !ok || d.Line < l {
			first[k] = d.Line
		}
	}
	return first
}

// Undefined returns references that name a structure never defined in the
// unit, excluding self-references, sorted by line.
func (t *Tracker) Undefined() []Reference {
	first := t.firstDefinition()
	var out []Reference
	for _, r := range t.refs {
		if selfRefs[r.Usage] {
			continue
		}
		if _, ok := first[key{r.Type.Abstract(), r.Name}]; !ok {
			out = append(out, r)
		}
	}
	sortRefs(out)
	return out
}

// ForwardReferences returns references that precede the first definition of
// the structure they name.
func (t *Tracker) ForwardReferences() []Reference {
	first := t.firstDefinition()
	var out []Reference
	for _, r := range t.refs {
		if selfRefs[r.Usage] {
			continue
		}
		if l, ok := first[key{r.Type.Abstract(), r.Name}]; ok && r.Line < l {
			out = append(out, r)
		}
	}
	sortRefs(out)
	return out
}

// Unused returns the first definition of every structure that is never
// referenced other than by itself. Only types where this is meaningful are
// reported.
func (t *Tracker) Unused() []Definition {
	used := make(map[key]bool)
	for _, r := range t.refs {
		if !selfRefs[r.Usage] {
			used[key{r.Type.Abstract(), r.Name}] = true
		}
	}
	seen := make(map[key]bool)
	var out []Definition
	for _, d := range t.defs {
		k := key{d.Type.Abstract(), d.Name}
		if !reportUnused[k.t] || used[k] || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

func sortRefs(rs []Reference) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Line < rs[j].Line })
}

func containsUsage(us []Usage, u Usage) bool {
	for _, x := range us {
		if x == u {
			return true
		}
	}
	return false
}
