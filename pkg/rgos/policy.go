package rgos

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/util"
)

// Community is a standard 32-bit BGP community.
type Community uint32

const (
	CommunityInternet    Community = 0
	CommunityNoExport    Community = 0xFFFFFF01
	CommunityNoAdvertise Community = 0xFFFFFF02
	CommunityLocalAS     Community = 0xFFFFFF03
)

var wellKnownCommunities = map[string]Community{
	"internet":     CommunityInternet,
	"no-export":    CommunityNoExport,
	"no-advertise": CommunityNoAdvertise,
	"local-as":     CommunityLocalAS,
}

// ParseCommunity accepts "AA:NN", a plain 32-bit number or a well-known name.
func ParseCommunity(s string) (Community, error) {
	if c, ok := wellKnownCommunities[strings.ToLower(s)]; ok {
		return c, nil
	}
	if hi, lo, ok := strings.Cut(s, ":"); ok {
		h, err := strconv.ParseUint(hi, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid community %q", s)
		}
		l, err := strconv.ParseUint(lo, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid community %q", s)
		}
		return Community(h<<16 | l), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid community %q", s)
	}
	return Community(v), nil
}

func (c Community) String() string {
	switch c {
	case CommunityNoExport:
		return "no-export"
	case CommunityNoAdvertise:
		return "no-advertise"
	case CommunityLocalAS:
		return "local-as"
	}
	return fmt.Sprintf("%d:%d", uint32(c)>>16, uint32(c)&0xFFFF)
}

// SortCommunities orders cs numerically in place and drops duplicates.
func SortCommunities(cs []Community) []Community {
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	out := cs[:0]
	for i, c := range cs {
		if i == 0 || c != cs[i-1] {
			out = append(out, c)
		}
	}
	return out
}

// RouteMapClause is one "route-map NAME permit|deny SEQ" entry.
type RouteMapClause struct {
	Seq    int
	Action LineAction
	Line   int

	MatchPrefixLists    []string
	MatchAccessLists    []string
	MatchCommunityLists []string
	MatchCommunityExact bool
	MatchAsPathLists    []string
	MatchTags           []uint32
	MatchMetric         *uint32

	SetLocalPreference   *uint32
	SetMetric            *uint32
	SetTag               *uint32
	SetOrigin            string
	SetCommunities       []Community
	SetCommunityAdditive bool
	SetCommunityNone     bool
	DeleteCommunityList  string
	SetAsPathPrepend     []uint32
	SetNextHop           netip.Addr
	SetWeight            *uint32
	SetMetricType        string
}

// RouteMap is a named, sequence-ordered list of clauses.
type RouteMap struct {
	Name    string
	clauses map[int]*RouteMapClause
}

// NewRouteMap returns an empty route-map.
func NewRouteMap(name string) *RouteMap {
	return &RouteMap{Name: name, clauses: make(map[int]*RouteMapClause)}
}

// Clause returns the clause with seq, creating it with action if needed.
// Re-entering an existing clause updates its action.
func (m *RouteMap) Clause(seq int, action LineAction, line int) *RouteMapClause {
	c, ok := m.clauses[seq]
	if !ok {
		c = &RouteMapClause{Seq: seq, Line: line}
		m.clauses[seq] = c
	}
	c.Action = action
	return c
}

// Clauses returns the clauses in sequence order.
func (m *RouteMap) Clauses() []*RouteMapClause {
	out := make([]*RouteMapClause, 0, len(m.clauses))
	for _, c := range m.clauses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// CommunityListKind tells standard and expanded community-lists apart.
type CommunityListKind string

const (
	CommunityListStandard CommunityListKind = "standard"
	CommunityListExpanded CommunityListKind = "expanded"
)

// CommunityListLine is one permit/deny entry. Standard lines match routes
// carrying all of Communities; expanded lines match Regex.
type CommunityListLine struct {
	Action      LineAction
	Communities []Community
	Regex       string
}

// CommunityList is an "ip community-list".
type CommunityList struct {
	Name  string
	Kind  CommunityListKind
	Lines []CommunityListLine
	Line  int
}

// AsPathAccessListLine is one regex entry.
type AsPathAccessListLine struct {
	Action LineAction
	Regex  string
}

// AsPathAccessList is an "ip as-path access-list".
type AsPathAccessList struct {
	Name  string
	Lines []AsPathAccessListLine
	Line  int
}

// PrefixListLine is one entry of a prefix-list. Ge and Le are zero when
// absent.
type PrefixListLine struct {
	Seq    int
	Action LineAction
	Prefix netip.Prefix
	Ge     int
	Le     int
}

// LengthRange returns the matched prefix length interval.
func (l PrefixListLine) LengthRange() (lo, hi int) {
	lo, hi = l.Prefix.Bits(), l.Prefix.Bits()
	if l.Ge > 0 {
		lo = l.Ge
		hi = 32
	}
	if l.Le > 0 {
		hi = l.Le
	}
	return lo, hi
}

// PrefixList is an "ip prefix-list".
type PrefixList struct {
	Name  string
	Lines []*PrefixListLine
	Line  int
}

// AddLine inserts l ordered by sequence. A zero sequence is assigned 5 past
// the highest existing one; an existing sequence is replaced.
func (p *PrefixList) AddLine(l *PrefixListLine) {
	if l.Seq == 0 {
		l.Seq = 5
		if n := len(p.Lines); n > 0 {
			l.Seq = p.Lines[n-1].Seq + 5
		}
	}
	for i, old := range p.Lines {
		if old.Seq == l.Seq {
			p.Lines[i] = l
			return
		}
	}
	p.Lines = append(p.Lines, l)
	sort.Slice(p.Lines, func(i, j int) bool { return p.Lines[i].Seq < p.Lines[j].Seq })
}

// AccessListLine is one standard ACL entry.
type AccessListLine struct {
	Seq      int
	Action   LineAction
	Wildcard util.IPWildcard
}

// StandardAccessList is a numbered or named standard access-list.
type StandardAccessList struct {
	Name  string
	Lines []*AccessListLine
	Line  int
}

// AddLine appends l, assigning the next multiple of 10 when Seq is zero.
func (a *StandardAccessList) AddLine(l *AccessListLine) {
	if l.Seq == 0 {
		l.Seq = 10
		if n := len(a.Lines); n > 0 {
			l.Seq = (a.Lines[n-1].Seq/10 + 1) * 10
		}
	}
	a.Lines = append(a.Lines, l)
	sort.SliceStable(a.Lines, func(i, j int) bool { return a.Lines[i].Seq < a.Lines[j].Seq })
}
