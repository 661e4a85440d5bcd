package canonical

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"github.com/newtron-network/rgosc/pkg/util"
)

// LineAction is the verdict of a matching list line.
type LineAction string

const (
	Permit LineAction = "permit"
	Deny   LineAction = "deny"
)

// ============================================================================
// Route filter lists
// ============================================================================

// RouteFilterLine matches a route whose network address fits Wildcard and
// whose prefix length lies within [MinLength, MaxLength].
type RouteFilterLine struct {
	Action    LineAction
	Wildcard  util.IPWildcard
	MinLength int
	MaxLength int
}

// Matches reports whether p is selected by the line.
func (l RouteFilterLine) Matches(p netip.Prefix) bool {
	return l.Wildcard.Contains(p.Addr()) && p.Bits() >= l.MinLength && p.Bits() <= l.MaxLength
}

func (l RouteFilterLine) String() string {
	return fmt.Sprintf("%s %s %d-%d", l.Action, l.Wildcard, l.MinLength, l.MaxLength)
}

// RouteFilterList is built from a prefix-list or a standard access-list.
type RouteFilterList struct {
	Name  string
	Lines []RouteFilterLine
}

// Permits returns the action of the first matching line; no match denies.
func (l *RouteFilterList) Permits(p netip.Prefix) bool {
	for _, line := range l.Lines {
		if line.Matches(p) {
			return line.Action == Permit
		}
	}
	return false
}

func (l *RouteFilterList) render() []string {
	out := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		out[i] = line.String()
	}
	return out
}

// ============================================================================
// AS-path access-lists
// ============================================================================

// AsPathAccessListLine matches the space separated AS path against Regex.
type AsPathAccessListLine struct {
	Action LineAction
	Regex  string
	re     *regexp.Regexp
}

// NewAsPathAccessListLine compiles regex.
func NewAsPathAccessListLine(action LineAction, regex string) (AsPathAccessListLine, error) {
	re, err := regexp.Compile(regex)
	if err != nil {
		return AsPathAccessListLine{}, fmt.Errorf("as-path regex %q: %w", regex, err)
	}
	return AsPathAccessListLine{Action: action, Regex: regex, re: re}, nil
}

// AsPathAccessList is an ordered list of AS-path regexes.
type AsPathAccessList struct {
	Name  string
	Lines []AsPathAccessListLine
}

// Permits returns the action of the first line whose regex matches path.
func (l *AsPathAccessList) Permits(path string) bool {
	for _, line := range l.Lines {
		if line.re != nil && line.re.MatchString(path) {
			return line.Action == Permit
		}
	}
	return false
}

// ============================================================================
// Community-set ACLs
// ============================================================================

// CommunitySetAclLine matches either a literal community set (all of
// Communities must be present) or a regex. PerCommunity regexes are tried
// against each community on its own; others against the whole rendered set.
type CommunitySetAclLine struct {
	Action       LineAction
	Communities  []Community
	Regex        string
	PerCommunity bool
	re           *regexp.Regexp
}

// NewCommunityRegexLine compiles regex into a line.
func NewCommunityRegexLine(action LineAction, regex string, perCommunity bool) (CommunitySetAclLine, error) {
	re, err := regexp.Compile(regex)
	if err != nil {
		return CommunitySetAclLine{}, fmt.Errorf("community regex %q: %w", regex, err)
	}
	return CommunitySetAclLine{Action: action, Regex: regex, PerCommunity: perCommunity, re: re}, nil
}

func (l *CommunitySetAclLine) matches(r *Route) bool {
	if l.re == nil {
		for _, c := range l.Communities {
			if !r.HasCommunity(c) {
				return false
			}
		}
		return true
	}
	if !l.PerCommunity {
		return l.re.MatchString(r.CommunityString())
	}
	for _, c := range r.Communities {
		if l.re.MatchString(c.String()) {
			return true
		}
	}
	return false
}

// matchesExactly requires the route's community set to equal the line's.
func (l *CommunitySetAclLine) matchesExactly(r *Route) bool {
	if l.re != nil {
		return l.re.MatchString(r.CommunityString())
	}
	want := Route{}
	want.setCommunities(l.Communities)
	got := Route{}
	got.setCommunities(r.Communities)
	return want.CommunityString() == got.CommunityString()
}

func (l *CommunitySetAclLine) String() string {
	if l.re != nil {
		return fmt.Sprintf("%s regex %q", l.Action, l.Regex)
	}
	parts := make([]string, len(l.Communities))
	for i, c := range l.Communities {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s %s", l.Action, strings.Join(parts, " "))
}

// CommunitySetAcl is a converted community-list.
type CommunitySetAcl struct {
	Name  string
	Lines []CommunitySetAclLine
}

// Permits returns the action of the first matching line.
func (a *CommunitySetAcl) Permits(r *Route, exact bool) bool {
	for i := range a.Lines {
		l := &a.Lines[i]
		ok := l.matches(r)
		if exact {
			ok = l.matchesExactly(r)
		}
		if ok {
			return l.Action == Permit
		}
	}
	return false
}

// permitsCommunity tests a single community, as "set comm-list delete" does.
func (a *CommunitySetAcl) permitsCommunity(c Community) bool {
	single := Route{Communities: []Community{c}}
	return a.Permits(&single, false)
}
