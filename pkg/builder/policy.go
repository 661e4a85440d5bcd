package builder

import (
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

// ============================================================================
// Route-maps
// ============================================================================

// enterRouteMap opens "route-map NAME [permit|deny] [SEQ]". Action defaults
// to permit and sequence to 10.
func (b *Builder) enterRouteMap(n *grammar.Node) scope {
	s := *b.scope()
	name := n.Str("name")
	rm, ok := b.cfg.RouteMaps[name]
	if !ok {
		rm = rgos.NewRouteMap(name)
		b.cfg.RouteMaps[name] = rm
	}
	action := rgos.Permit
	if a := n.Str("action"); a != "" {
		action = rgos.ParseLineAction(a)
	}
	seq := 10
	if n.Has("seq") {
		seq = n.Int("seq")
	}
	b.refs.Define(refs.RouteMap, name, n.Line)
	s.rmName = name
	s.clause = rm.Clause(seq, action, n.Line)
	return s
}

func (b *Builder) clause(n *grammar.Node) *rgos.RouteMapClause {
	c := b.scope().clause
	if c == nil {
		util.Invariantf("builder", "%s outside route-map at line %d", n.Rule, n.Line)
	}
	return c
}

func (b *Builder) rmMatchPrefixList(n *grammar.Node) {
	c := b.clause(n)
	for _, name := range n.Strs("names") {
		c.MatchPrefixLists = append(c.MatchPrefixLists, name)
		b.refs.Reference(refs.PrefixList, name, refs.RouteMapMatchPrefixList, n.Line)
	}
}

func (b *Builder) rmMatchAccessList(n *grammar.Node) {
	c := b.clause(n)
	for _, name := range n.Strs("names") {
		c.MatchAccessLists = append(c.MatchAccessLists, name)
		b.refs.Reference(refs.AccessList, name, refs.RouteMapMatchAccessList, n.Line)
	}
}

// rmMatchCommunity handles "match community L1 [L2 ...] [exact-match]".
func (b *Builder) rmMatchCommunity(n *grammar.Node) {
	c := b.clause(n)
	names := n.Strs("names")
	if k := len(names); k > 1 && strings.EqualFold(names[k-1], "exact-match") {
		c.MatchCommunityExact = true
		names = names[:k-1]
	}
	for _, name := range names {
		c.MatchCommunityLists = append(c.MatchCommunityLists, name)
		b.refs.Reference(refs.CommunityList, name, refs.RouteMapMatchCommunityList, n.Line)
	}
}

func (b *Builder) rmMatchAsPath(n *grammar.Node) {
	c := b.clause(n)
	for _, name := range n.Strs("names") {
		c.MatchAsPathLists = append(c.MatchAsPathLists, name)
		b.refs.Reference(refs.AsPathAccessList, name, refs.RouteMapMatchAsPathAccessList, n.Line)
	}
}

func (b *Builder) rmMatchTag(n *grammar.Node) {
	c := b.clause(n)
	for _, t := range n.Strs("tags") {
		v, _ := strconv.ParseUint(t, 10, 32)
		c.MatchTags = append(c.MatchTags, uint32(v))
	}
}

func (b *Builder) rmMatchMetric(n *grammar.Node) {
	v := n.Uint("metric")
	b.clause(n).MatchMetric = &v
}

func (b *Builder) rmUnsupported(n *grammar.Node) {
	b.clause(n)
	b.w.Unimplementedf("Route-map %s: %q at line %d", b.scope().rmName, n.Text, n.Line)
}

func (b *Builder) rmSetLocalPreference(n *grammar.Node) {
	v := n.Uint("value")
	b.clause(n).SetLocalPreference = &v
}

func (b *Builder) rmSetMetric(n *grammar.Node) {
	v := n.Uint("value")
	b.clause(n).SetMetric = &v
}

func (b *Builder) rmSetTag(n *grammar.Node) {
	v := n.Uint("value")
	b.clause(n).SetTag = &v
}

func (b *Builder) rmSetOrigin(n *grammar.Node) {
	b.clause(n).SetOrigin = strings.ToLower(n.Str("origin"))
}

func (b *Builder) rmSetCommunityNone(n *grammar.Node) {
	c := b.clause(n)
	c.SetCommunityNone = true
	c.SetCommunities = nil
	c.SetCommunityAdditive = false
}

func (b *Builder) rmSetCommunity(n *grammar.Node) {
	c := b.clause(n)
	var comms []rgos.Community
	for _, s := range n.Strs("comms") {
		v, err := rgos.ParseCommunity(s)
		if err != nil {
			b.w.RedFlagf("Line %d: %v", n.Line, err)
			return
		}
		comms = append(comms, v)
	}
	c.SetCommunities = rgos.SortCommunities(comms)
	c.SetCommunityAdditive = n.Flag("additive")
	c.SetCommunityNone = false
}

func (b *Builder) rmSetCommListDelete(n *grammar.Node) {
	name := n.Str("name")
	b.clause(n).DeleteCommunityList = name
	b.refs.Reference(refs.CommunityList, name, refs.RouteMapDeleteCommunity, n.Line)
}

func (b *Builder) rmSetAsPathPrepend(n *grammar.Node) {
	c := b.clause(n)
	c.SetAsPathPrepend = nil
	for _, s := range n.Strs("asns") {
		v, _ := util.ParseASN(s)
		c.SetAsPathPrepend = append(c.SetAsPathPrepend, v)
	}
}

func (b *Builder) rmSetNextHop(n *grammar.Node) {
	b.clause(n).SetNextHop = n.Addr("addr")
}

func (b *Builder) rmSetWeight(n *grammar.Node) {
	v := n.Uint("value")
	b.clause(n).SetWeight = &v
}

func (b *Builder) rmSetMetricType(n *grammar.Node) {
	b.clause(n).SetMetricType = strings.ToLower(n.Str("type"))
}

// ============================================================================
// Prefix-lists and access-lists
// ============================================================================

func (b *Builder) prefixList(n *grammar.Node) {
	name := n.Str("name")
	pl, ok := b.cfg.PrefixLists[name]
	if !ok {
		pl = &rgos.PrefixList{Name: name, Line: n.Line}
		b.cfg.PrefixLists[name] = pl
	}
	b.refs.Define(refs.PrefixList, name, n.Line)

	line := &rgos.PrefixListLine{
		Action: rgos.ParseLineAction(n.Str("action")),
		Prefix: n.Prefix("prefix").Masked(),
	}
	if n.Has("seq") {
		line.Seq = n.Int("seq")
	}
	if n.Has("ge") {
		line.Ge = n.Int("ge")
	}
	if n.Has("le") {
		line.Le = n.Int("le")
	}
	bits := line.Prefix.Bits()
	if (line.Ge != 0 && (line.Ge <= bits || line.Ge > 32)) ||
		(line.Le != 0 && (line.Le < bits || line.Le > 32)) ||
		(line.Ge != 0 && line.Le != 0 && line.Ge > line.Le) {
		b.w.RedFlagf("Invalid prefix length range in prefix-list %s at line %d", name, n.Line)
		return
	}
	pl.AddLine(line)
}

func (b *Builder) accessList(name string, line int) *rgos.StandardAccessList {
	acl, ok := b.cfg.AccessLists[name]
	if !ok {
		acl = &rgos.StandardAccessList{Name: name, Line: line}
		b.cfg.AccessLists[name] = acl
	}
	b.refs.Define(refs.AccessList, name, line)
	return acl
}

// aclWildcard reads "any", "host A" or "A [W]" from a standard ACL line.
func aclWildcard(n *grammar.Node) (util.IPWildcard, error) {
	switch {
	case n.Flag("any"):
		return util.ParseIPWildcard("0.0.0.0", "255.255.255.255")
	case n.Has("host"):
		return util.ParseIPWildcard(n.Str("host"), "0.0.0.0")
	case n.Has("wildcard"):
		return util.ParseIPWildcard(n.Str("addr"), n.Str("wildcard"))
	}
	return util.ParseIPWildcard(n.Str("addr"), "0.0.0.0")
}

// numberedAccessList handles "access-list N permit|deny ...". Only standard
// numbers (1-99, 1300-1999) are modeled.
func (b *Builder) numberedAccessList(n *grammar.Node) {
	num := n.Int("num")
	if !isStandardACLNumber(num) {
		b.numberedExtendedAccessList(n)
		return
	}
	w, err := aclWildcard(n)
	if err != nil {
		b.w.RedFlagf("Invalid access-list entry at line %d: %v", n.Line, err)
		return
	}
	acl := b.accessList(n.Str("num"), n.Line)
	acl.AddLine(&rgos.AccessListLine{Action: rgos.ParseLineAction(n.Str("action")), Wildcard: w})
}

func isStandardACLNumber(num int) bool {
	return (num >= 1 && num <= 99) || (num >= 1300 && num <= 1999)
}

func (b *Builder) numberedExtendedAccessList(n *grammar.Node) {
	b.refs.Define(refs.AccessList, n.Str("num"), n.Line)
	b.w.Unimplementedf("Extended access-list %s at line %d", n.Str("num"), n.Line)
}

func (b *Builder) enterStandardAccessList(n *grammar.Node) scope {
	s := *b.scope()
	s.acl = b.accessList(n.Str("name"), n.Line)
	return s
}

func (b *Builder) enterExtendedAccessList(n *grammar.Node) scope {
	b.refs.Define(refs.AccessList, n.Str("name"), n.Line)
	b.w.Unimplementedf("Extended access-list %s at line %d", n.Str("name"), n.Line)
	return *b.scope()
}

func (b *Builder) accessListLine(n *grammar.Node) {
	acl := b.scope().acl
	if acl == nil {
		util.Invariantf("builder", "access-list entry outside access-list at line %d", n.Line)
	}
	w, err := aclWildcard(n)
	if err != nil {
		b.w.RedFlagf("Invalid access-list entry at line %d: %v", n.Line, err)
		return
	}
	line := &rgos.AccessListLine{Action: rgos.ParseLineAction(n.Str("action")), Wildcard: w}
	if n.Has("seq") {
		line.Seq = n.Int("seq")
	}
	acl.AddLine(line)
}

// ============================================================================
// Community-lists and as-path lists
// ============================================================================

func (b *Builder) communityList(name string, kind rgos.CommunityListKind, line int) *rgos.CommunityList {
	cl, ok := b.cfg.CommunityLists[name]
	if !ok || cl.Kind != kind {
		if ok {
			b.w.RedFlagf("Community-list %s redefined as %s at line %d", name, kind, line)
		}
		cl = &rgos.CommunityList{Name: name, Kind: kind, Line: line}
		b.cfg.CommunityLists[name] = cl
	}
	typ := refs.CommunityListStandard
	if kind == rgos.CommunityListExpanded {
		typ = refs.CommunityListExpanded
	}
	b.refs.Define(typ, name, line)
	return cl
}

func (b *Builder) communityListStandard(n *grammar.Node) {
	b.addStandardCommunityLine(n, n.Str("name"), n.Strs("comms"))
}

func (b *Builder) addStandardCommunityLine(n *grammar.Node, name string, tokens []string) {
	var comms []rgos.Community
	for _, s := range tokens {
		c, err := rgos.ParseCommunity(s)
		if err != nil {
			b.w.RedFlagf("Line %d: %v", n.Line, err)
			return
		}
		comms = append(comms, c)
	}
	cl := b.communityList(name, rgos.CommunityListStandard, n.Line)
	cl.Lines = append(cl.Lines, rgos.CommunityListLine{
		Action:      rgos.ParseLineAction(n.Str("action")),
		Communities: rgos.SortCommunities(comms),
	})
}

func (b *Builder) communityListExpanded(n *grammar.Node) {
	b.addExpandedCommunityLine(n, n.Str("name"), n.Str("regex"))
}

func (b *Builder) addExpandedCommunityLine(n *grammar.Node, name, regex string) {
	cl := b.communityList(name, rgos.CommunityListExpanded, n.Line)
	cl.Lines = append(cl.Lines, rgos.CommunityListLine{
		Action: rgos.ParseLineAction(n.Str("action")),
		Regex:  util.Unquote(regex),
	})
}

// communityListNumbered handles "ip community-list N": 1-99 are standard,
// 100-500 expanded.
func (b *Builder) communityListNumbered(n *grammar.Node) {
	num := n.Int("num")
	name := n.Str("num")
	switch {
	case num >= 1 && num <= 99:
		b.addStandardCommunityLine(n, name, strings.Fields(n.Str("rest")))
	case num >= 100 && num <= 500:
		b.addExpandedCommunityLine(n, name, n.Str("rest"))
	default:
		b.w.RedFlagf("Invalid community-list number %d at line %d", num, n.Line)
	}
}

func (b *Builder) asPathAccessList(n *grammar.Node) {
	name := n.Str("name")
	l, ok := b.cfg.AsPathAccessLists[name]
	if !ok {
		l = &rgos.AsPathAccessList{Name: name, Line: n.Line}
		b.cfg.AsPathAccessLists[name] = l
	}
	b.refs.Define(refs.AsPathAccessList, name, n.Line)
	l.Lines = append(l.Lines, rgos.AsPathAccessListLine{
		Action: rgos.ParseLineAction(n.Str("action")),
		Regex:  util.Unquote(n.Str("regex")),
	})
}
