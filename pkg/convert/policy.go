package convert

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

// UndefinedRouteMapPolicy stands in for a route-map that is referenced but
// never defined. It rejects everything.
const UndefinedRouteMapPolicy = "~BGP_UNDEFINED_ROUTE_MAP~"

// underscoreRegex is what the vendor "_" boundary token expands to.
const underscoreRegex = `(,|\{|\}|^|$| )`

// singleCommunityRegex recognizes expanded community-list regexes that can
// only ever match one community, so they are tested per community.
var singleCommunityRegex = regexp.MustCompile(`^(?:(_?\d+)?:?(\d+_?)?|_?\d+|\d+_?)$`)

// ToGoRegex converts a vendor AS-path or community regex to Go syntax.
func ToGoRegex(vendor string) string {
	return strings.ReplaceAll(util.Unquote(vendor), "_", underscoreRegex)
}

func lineAction(a rgos.LineAction) canonical.LineAction {
	if a == rgos.Deny {
		return canonical.Deny
	}
	return canonical.Permit
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// Lists
// ============================================================================

// convertLists lowers prefix-lists and standard access-lists into route
// filter lists, and as-path and community lists into their canonical
// forms. Prefix-lists and access-lists share one namespace; a prefix-list
// wins a name clash.
func (cv *converter) convertLists() {
	for _, name := range sortedKeys(cv.vc.PrefixLists) {
		pl := cv.vc.PrefixLists[name]
		l := &canonical.RouteFilterList{Name: name}
		for _, line := range pl.Lines {
			lo, hi := line.LengthRange()
			l.Lines = append(l.Lines, canonical.RouteFilterLine{
				Action:    lineAction(line.Action),
				Wildcard:  util.WildcardFromPrefix(line.Prefix),
				MinLength: lo,
				MaxLength: hi,
			})
		}
		cv.c.AddRouteFilterList(l)
	}

	for _, name := range sortedKeys(cv.vc.AccessLists) {
		if _, ok := cv.c.RouteFilterLists[name]; ok {
			cv.w.RedFlagf("Access-list %s has the same name as a prefix-list and is ignored", name)
			continue
		}
		acl := cv.vc.AccessLists[name]
		l := &canonical.RouteFilterList{Name: name}
		for _, line := range acl.Lines {
			l.Lines = append(l.Lines, canonical.RouteFilterLine{
				Action:    lineAction(line.Action),
				Wildcard:  line.Wildcard,
				MinLength: 0,
				MaxLength: 32,
			})
		}
		cv.c.AddRouteFilterList(l)
	}

	for _, name := range sortedKeys(cv.vc.AsPathAccessLists) {
		al := cv.vc.AsPathAccessLists[name]
		l := &canonical.AsPathAccessList{Name: name}
		for _, line := range al.Lines {
			cl, err := canonical.NewAsPathAccessListLine(lineAction(line.Action), ToGoRegex(line.Regex))
			if err != nil {
				cv.w.RedFlagf("as-path access-list %s: %v", name, err)
				continue
			}
			l.Lines = append(l.Lines, cl)
		}
		cv.c.AddAsPathAccessList(l)
	}

	for _, name := range sortedKeys(cv.vc.CommunityLists) {
		cv.c.AddCommunitySetAcl(cv.convertCommunityList(cv.vc.CommunityLists[name]))
	}
}

func (cv *converter) convertCommunityList(cl *rgos.CommunityList) *canonical.CommunitySetAcl {
	acl := &canonical.CommunitySetAcl{Name: cl.Name}
	for _, line := range cl.Lines {
		if cl.Kind == rgos.CommunityListStandard {
			acl.Lines = append(acl.Lines, canonical.CommunitySetAclLine{
				Action:      lineAction(line.Action),
				Communities: communities(line.Communities),
			})
			continue
		}
		single := singleCommunityRegex.MatchString(util.Unquote(line.Regex))
		l, err := canonical.NewCommunityRegexLine(lineAction(line.Action), ToGoRegex(line.Regex), single)
		if err != nil {
			cv.w.RedFlagf("community-list %s: %v", cl.Name, err)
			continue
		}
		acl.Lines = append(acl.Lines, l)
	}
	return acl
}

func communities(cs []rgos.Community) []canonical.Community {
	out := make([]canonical.Community, len(cs))
	for i, c := range cs {
		out[i] = canonical.Community(c)
	}
	return out
}

// ============================================================================
// Route-maps
// ============================================================================

// convertRouteMaps turns each route-map into a routing policy: one guarded
// statement per clause in sequence order, then a final reject.
func (cv *converter) convertRouteMaps() {
	for _, name := range sortedKeys(cv.vc.RouteMaps) {
		rm := cv.vc.RouteMaps[name]
		var stmts []canonical.Statement
		for _, cl := range rm.Clauses() {
			stmts = append(stmts, cv.convertClause(name, cl))
		}
		stmts = append(stmts, canonical.ExitReject)
		cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name, stmts...))
	}
}

func (cv *converter) convertClause(rm string, cl *rgos.RouteMapClause) canonical.Statement {
	var conj []canonical.BooleanExpr

	lists := append(append([]string(nil), cl.MatchPrefixLists...), cl.MatchAccessLists...)
	if len(lists) > 0 {
		var d []canonical.BooleanExpr
		for _, l := range lists {
			d = append(d, &canonical.MatchPrefixSet{List: l})
		}
		conj = append(conj, &canonical.Disjunction{Disjuncts: d})
	}
	if len(cl.MatchCommunityLists) > 0 {
		var d []canonical.BooleanExpr
		for _, l := range cl.MatchCommunityLists {
			d = append(d, &canonical.MatchCommunities{List: l, Exact: cl.MatchCommunityExact})
		}
		conj = append(conj, &canonical.Disjunction{Disjuncts: d})
	}
	if len(cl.MatchAsPathLists) > 0 {
		var d []canonical.BooleanExpr
		for _, l := range cl.MatchAsPathLists {
			d = append(d, &canonical.MatchAsPath{List: l})
		}
		conj = append(conj, &canonical.Disjunction{Disjuncts: d})
	}
	if len(cl.MatchTags) > 0 {
		conj = append(conj, &canonical.MatchTag{Tags: cl.MatchTags})
	}
	if cl.MatchMetric != nil {
		conj = append(conj, &canonical.MatchMetric{Metric: *cl.MatchMetric})
	}

	body := []canonical.Statement{canonical.ExitReject}
	if cl.Action == rgos.Permit {
		body = append(cv.clauseSets(rm, cl), canonical.ExitAccept)
	}
	return &canonical.If{
		Comment: fmt.Sprintf("%s %s %d", rm, cl.Action, cl.Seq),
		Guard:   &canonical.Conjunction{Conjuncts: conj},
		True:    body,
	}
}

func (cv *converter) clauseSets(rm string, cl *rgos.RouteMapClause) []canonical.Statement {
	var out []canonical.Statement
	if cl.SetLocalPreference != nil {
		out = append(out, &canonical.SetLocalPreference{Value: *cl.SetLocalPreference})
	}
	if cl.SetMetric != nil {
		out = append(out, &canonical.SetMetric{Value: *cl.SetMetric})
	}
	if cl.SetTag != nil {
		out = append(out, &canonical.SetTag{Value: *cl.SetTag})
	}
	if cl.SetWeight != nil {
		out = append(out, &canonical.SetWeight{Value: *cl.SetWeight})
	}
	switch cl.SetOrigin {
	case "":
	case "igp":
		out = append(out, &canonical.SetOrigin{Origin: canonical.OriginIgp})
	case "egp":
		out = append(out, &canonical.SetOrigin{Origin: canonical.OriginEgp})
	default:
		out = append(out, &canonical.SetOrigin{Origin: canonical.OriginIncomplete})
	}
	if cl.SetNextHop.IsValid() {
		out = append(out, &canonical.SetNextHop{Addr: cl.SetNextHop})
	}
	switch cl.SetMetricType {
	case "":
	case "type-1":
		out = append(out, &canonical.SetOspfMetricType{Type: canonical.OspfE1})
	case "type-2":
		out = append(out, &canonical.SetOspfMetricType{Type: canonical.OspfE2})
	default:
		cv.w.Unimplementedf("Route-map %s clause %d: set metric-type %s", rm, cl.Seq, cl.SetMetricType)
	}

	switch {
	case cl.SetCommunityNone:
		out = append(out, &canonical.SetCommunities{Op: canonical.CommunityNone})
	case len(cl.SetCommunities) > 0 && cl.SetCommunityAdditive:
		out = append(out, &canonical.SetCommunities{Op: canonical.CommunityAdd, Communities: communities(cl.SetCommunities)})
	case len(cl.SetCommunities) > 0:
		out = append(out, &canonical.SetCommunities{Op: canonical.CommunityReplace, Communities: communities(cl.SetCommunities)})
	}
	if cl.DeleteCommunityList != "" {
		out = append(out, &canonical.SetCommunities{Op: canonical.CommunityDelete, List: cl.DeleteCommunityList})
	}
	if len(cl.SetAsPathPrepend) > 0 {
		out = append(out, &canonical.PrependAsPath{Asns: cl.SetAsPathPrepend})
	}
	return out
}

// routeMapPolicy returns the policy for a route-map referenced by user, or
// the always-reject policy when it is undefined.
func (cv *converter) routeMapPolicy(name, user string) string {
	if _, ok := cv.c.RoutingPolicies[name]; ok {
		return name
	}
	cv.w.RedFlagf("%s references undefined route-map %s", user, name)
	return cv.undefinedRouteMapPolicy()
}

func (cv *converter) undefinedRouteMapPolicy() string {
	if _, ok := cv.c.RoutingPolicies[UndefinedRouteMapPolicy]; !ok {
		cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(UndefinedRouteMapPolicy, canonical.ExitReject))
	}
	return UndefinedRouteMapPolicy
}
