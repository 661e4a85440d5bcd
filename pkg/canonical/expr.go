package canonical

import (
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"

	"github.com/newtron-network/rgosc/pkg/util"
)

// maxCallDepth bounds CallExpr recursion between policies.
const maxCallDepth = 16

// BooleanExpr is a policy guard.
type BooleanExpr interface {
	Evaluate(env *Environment) bool
	String() string
}

// Environment is the state of one policy evaluation.
type Environment struct {
	Config *Configuration
	Route  Route
	depth  int
}

type constExpr bool

func (c constExpr) Evaluate(*Environment) bool { return bool(c) }

func (c constExpr) String() string {
	if c {
		return "true"
	}
	return "false"
}

// True and False are the constant guards.
var (
	True  BooleanExpr = constExpr(true)
	False BooleanExpr = constExpr(false)
)

// Conjunction is true when every conjunct is; an empty one is true.
type Conjunction struct {
	Conjuncts []BooleanExpr
}

func (c *Conjunction) Evaluate(env *Environment) bool {
	for _, e := range c.Conjuncts {
		if !e.Evaluate(env) {
			return false
		}
	}
	return true
}

func (c *Conjunction) String() string {
	if len(c.Conjuncts) == 0 {
		return "true"
	}
	return join(c.Conjuncts, " AND ")
}

// Disjunction is true when any disjunct is; an empty one is false.
type Disjunction struct {
	Disjuncts []BooleanExpr
}

func (d *Disjunction) Evaluate(env *Environment) bool {
	for _, e := range d.Disjuncts {
		if e.Evaluate(env) {
			return true
		}
	}
	return false
}

func (d *Disjunction) String() string {
	if len(d.Disjuncts) == 0 {
		return "false"
	}
	return join(d.Disjuncts, " OR ")
}

func join(es []BooleanExpr, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Not negates Expr.
type Not struct {
	Expr BooleanExpr
}

func (n *Not) Evaluate(env *Environment) bool { return !n.Expr.Evaluate(env) }
func (n *Not) String() string                 { return "NOT " + n.Expr.String() }

// MatchProtocol matches routes from any of Protocols.
type MatchProtocol struct {
	Protocols []Protocol
}

func (m *MatchProtocol) Evaluate(env *Environment) bool {
	for _, p := range m.Protocols {
		if env.Route.Protocol == p {
			return true
		}
	}
	return false
}

func (m *MatchProtocol) String() string {
	parts := make([]string, len(m.Protocols))
	for i, p := range m.Protocols {
		parts[i] = string(p)
	}
	return "protocol(" + strings.Join(parts, ",") + ")"
}

// PrefixRange selects prefixes under Prefix with length in
// [MinLength, MaxLength].
type PrefixRange struct {
	Prefix    netip.Prefix
	MinLength int
	MaxLength int
}

// ExactPrefix is the range holding only p.
func ExactPrefix(p netip.Prefix) PrefixRange {
	return PrefixRange{Prefix: p, MinLength: p.Bits(), MaxLength: p.Bits()}
}

// MoreSpecifics is the range of prefixes strictly inside p.
func MoreSpecifics(p netip.Prefix) PrefixRange {
	return PrefixRange{Prefix: p, MinLength: p.Bits() + 1, MaxLength: 32}
}

// Matches reports whether n lies inside Prefix with a length in range.
func (r PrefixRange) Matches(n netip.Prefix) bool {
	return n.Bits() >= r.MinLength && n.Bits() <= r.MaxLength &&
		n.Bits() >= r.Prefix.Bits() && r.Prefix.Contains(n.Addr())
}

func (r PrefixRange) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Prefix, r.MinLength, r.MaxLength)
}

// MatchPrefixSet matches the route network against a named route filter
// list, or against explicit ranges when List is empty.
type MatchPrefixSet struct {
	List     string
	Prefixes []PrefixRange

	// union of the ranges' prefixes; networks outside it cannot match
	space *netipx.IPSet
}

// NewPrefixSetMatch matches explicit ranges, rejecting networks outside
// their combined address space before testing each range.
func NewPrefixSetMatch(ranges ...PrefixRange) *MatchPrefixSet {
	ps := make([]netip.Prefix, len(ranges))
	for i, r := range ranges {
		ps[i] = r.Prefix
	}
	return &MatchPrefixSet{Prefixes: ranges, space: util.AddressSpace(ps...)}
}

func (m *MatchPrefixSet) Evaluate(env *Environment) bool {
	if m.List != "" {
		l, ok := env.Config.RouteFilterLists[m.List]
		return ok && l.Permits(env.Route.Network)
	}
	if m.space != nil && !m.space.ContainsPrefix(env.Route.Network) {
		return false
	}
	for _, r := range m.Prefixes {
		if r.Matches(env.Route.Network) {
			return true
		}
	}
	return false
}

func (m *MatchPrefixSet) String() string {
	if m.List != "" {
		return "prefix-set(" + m.List + ")"
	}
	parts := make([]string, len(m.Prefixes))
	for i, r := range m.Prefixes {
		parts[i] = r.String()
	}
	return "prefix-set[" + strings.Join(parts, ",") + "]"
}

// MatchDefaultRoute matches 0.0.0.0/0.
type MatchDefaultRoute struct{}

func (MatchDefaultRoute) Evaluate(env *Environment) bool {
	return env.Route.Network.Bits() == 0
}

func (MatchDefaultRoute) String() string { return "default-route" }

// MatchTag matches any of Tags.
type MatchTag struct {
	Tags []uint32
}

func (m *MatchTag) Evaluate(env *Environment) bool {
	for _, t := range m.Tags {
		if env.Route.Tag == t {
			return true
		}
	}
	return false
}

func (m *MatchTag) String() string { return fmt.Sprintf("tag%v", m.Tags) }

// MatchMetric matches an exact metric.
type MatchMetric struct {
	Metric uint32
}

func (m *MatchMetric) Evaluate(env *Environment) bool { return env.Route.Metric == m.Metric }
func (m *MatchMetric) String() string                 { return fmt.Sprintf("metric(%d)", m.Metric) }

// MatchCommunities evaluates a named community-set ACL.
type MatchCommunities struct {
	List  string
	Exact bool
}

func (m *MatchCommunities) Evaluate(env *Environment) bool {
	acl, ok := env.Config.CommunitySetAcls[m.List]
	return ok && acl.Permits(&env.Route, m.Exact)
}

func (m *MatchCommunities) String() string {
	if m.Exact {
		return "communities-exact(" + m.List + ")"
	}
	return "communities(" + m.List + ")"
}

// MatchAsPath evaluates a named AS-path access-list.
type MatchAsPath struct {
	List string
}

func (m *MatchAsPath) Evaluate(env *Environment) bool {
	l, ok := env.Config.AsPathAccessLists[m.List]
	return ok && l.Permits(env.Route.AsPathString())
}

func (m *MatchAsPath) String() string { return "as-path(" + m.List + ")" }

// CallExpr runs another policy against the same route and yields its
// verdict. Set statements in the callee apply to the route. An undefined
// policy yields false.
type CallExpr struct {
	Policy string
}

func (c *CallExpr) Evaluate(env *Environment) bool {
	p, ok := env.Config.RoutingPolicies[c.Policy]
	if !ok || env.depth >= maxCallDepth {
		return false
	}
	env.depth++
	defer func() { env.depth-- }()
	return p.call(env)
}

func (c *CallExpr) String() string { return "call(" + c.Policy + ")" }
