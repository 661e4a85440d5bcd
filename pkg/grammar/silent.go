package grammar

import "sort"

// SilentSyntaxCollection records syntax that parsed cleanly but is not
// modeled, for coverage reporting.
type SilentSyntaxCollection struct {
	entries map[string][]int
}

// NewSilentSyntaxCollection returns an empty collection.
func NewSilentSyntaxCollection() *SilentSyntaxCollection {
	return &SilentSyntaxCollection{entries: make(map[string][]int)}
}

// TryRecord records n if it is silent syntax and reports whether it did.
func (s *SilentSyntaxCollection) TryRecord(n *Node) bool {
	if !n.Silent {
		return false
	}
	s.entries[n.Rule] = append(s.entries[n.Rule], n.Line)
	return true
}

// Lines returns the lines on which rule was seen.
func (s *SilentSyntaxCollection) Lines(rule string) []int {
	return s.entries[rule]
}

// Rules returns the silent rules encountered, sorted.
func (s *SilentSyntaxCollection) Rules() []string {
	out := make([]string, 0, len(s.entries))
	for r := range s.entries {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of silent lines recorded.
func (s *SilentSyntaxCollection) Len() int {
	n := 0
	for _, l := range s.entries {
		n += len(l)
	}
	return n
}
