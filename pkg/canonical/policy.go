package canonical

import (
	"fmt"
	"net/netip"
	"strings"
)

type result int

const (
	fallThrough result = iota
	accepted
	rejected
)

// Statement is one step of a routing policy.
type Statement interface {
	execute(env *Environment) result
	render(indent string, out []string) []string
}

// StaticStatement ends evaluation of the current policy.
type StaticStatement string

const (
	ExitAccept  StaticStatement = "ExitAccept"
	ExitReject  StaticStatement = "ExitReject"
	ReturnTrue  StaticStatement = "ReturnTrue"
	ReturnFalse StaticStatement = "ReturnFalse"
)

func (s StaticStatement) execute(*Environment) result {
	if s == ExitAccept || s == ReturnTrue {
		return accepted
	}
	return rejected
}

func (s StaticStatement) render(indent string, out []string) []string {
	return append(out, indent+string(s))
}

// If runs True when Guard holds and False otherwise.
type If struct {
	Comment string
	Guard   BooleanExpr
	True    []Statement
	False   []Statement
}

func (s *If) execute(env *Environment) result {
	if s.Guard.Evaluate(env) {
		return executeAll(s.True, env)
	}
	return executeAll(s.False, env)
}

func (s *If) render(indent string, out []string) []string {
	if s.Comment != "" {
		out = append(out, indent+"# "+s.Comment)
	}
	out = append(out, indent+"if "+s.Guard.String()+":")
	for _, t := range s.True {
		out = t.render(indent+"  ", out)
	}
	if len(s.False) > 0 {
		out = append(out, indent+"else:")
		for _, f := range s.False {
			out = f.render(indent+"  ", out)
		}
	}
	return out
}

func executeAll(stmts []Statement, env *Environment) result {
	for _, s := range stmts {
		if r := s.execute(env); r != fallThrough {
			return r
		}
	}
	return fallThrough
}

// ============================================================================
// Set statements
// ============================================================================

type SetLocalPreference struct{ Value uint32 }

func (s *SetLocalPreference) execute(env *Environment) result {
	env.Route.LocalPreference = s.Value
	return fallThrough
}

func (s *SetLocalPreference) render(indent string, out []string) []string {
	return append(out, fmt.Sprintf("%sset local-preference %d", indent, s.Value))
}

type SetMetric struct{ Value uint32 }

func (s *SetMetric) execute(env *Environment) result {
	env.Route.Metric = s.Value
	return fallThrough
}

func (s *SetMetric) render(indent string, out []string) []string {
	return append(out, fmt.Sprintf("%sset metric %d", indent, s.Value))
}

type SetTag struct{ Value uint32 }

func (s *SetTag) execute(env *Environment) result {
	env.Route.Tag = s.Value
	return fallThrough
}

func (s *SetTag) render(indent string, out []string) []string {
	return append(out, fmt.Sprintf("%sset tag %d", indent, s.Value))
}

type SetOrigin struct{ Origin Origin }

func (s *SetOrigin) execute(env *Environment) result {
	env.Route.Origin = s.Origin
	return fallThrough
}

func (s *SetOrigin) render(indent string, out []string) []string {
	return append(out, indent+"set origin "+string(s.Origin))
}

type SetWeight struct{ Value uint32 }

func (s *SetWeight) execute(env *Environment) result {
	env.Route.Weight = s.Value
	return fallThrough
}

func (s *SetWeight) render(indent string, out []string) []string {
	return append(out, fmt.Sprintf("%sset weight %d", indent, s.Value))
}

type SetNextHop struct{ Addr netip.Addr }

func (s *SetNextHop) execute(env *Environment) result {
	env.Route.NextHop = s.Addr
	return fallThrough
}

func (s *SetNextHop) render(indent string, out []string) []string {
	return append(out, indent+"set next-hop "+s.Addr.String())
}

type SetOspfMetricType struct{ Type OspfMetricType }

func (s *SetOspfMetricType) execute(env *Environment) result {
	env.Route.OspfMetricType = s.Type
	return fallThrough
}

func (s *SetOspfMetricType) render(indent string, out []string) []string {
	return append(out, indent+"set ospf-metric-type "+string(s.Type))
}

// PrependAsPath puts Asns in front of the path, first element outermost.
type PrependAsPath struct{ Asns []uint32 }

func (s *PrependAsPath) execute(env *Environment) result {
	env.Route.AsPath = append(append([]uint32(nil), s.Asns...), env.Route.AsPath...)
	return fallThrough
}

func (s *PrependAsPath) render(indent string, out []string) []string {
	return append(out, fmt.Sprintf("%sprepend as-path %v", indent, s.Asns))
}

// CommunityOp selects how SetCommunities changes the route.
type CommunityOp string

const (
	CommunityAdd     CommunityOp = "add"
	CommunityReplace CommunityOp = "replace"
	// CommunityDelete removes every community List permits.
	CommunityDelete CommunityOp = "delete"
	CommunityNone   CommunityOp = "none"
)

type SetCommunities struct {
	Op          CommunityOp
	Communities []Community
	List        string
}

func (s *SetCommunities) execute(env *Environment) result {
	switch s.Op {
	case CommunityAdd:
		env.Route.setCommunities(append(env.Route.Communities, s.Communities...))
	case CommunityReplace:
		env.Route.setCommunities(s.Communities)
	case CommunityNone:
		env.Route.Communities = nil
	case CommunityDelete:
		acl, ok := env.Config.CommunitySetAcls[s.List]
		if !ok {
			break
		}
		var keep []Community
		for _, c := range env.Route.Communities {
			if !acl.permitsCommunity(c) {
				keep = append(keep, c)
			}
		}
		env.Route.Communities = keep
	}
	return fallThrough
}

func (s *SetCommunities) render(indent string, out []string) []string {
	if s.Op == CommunityDelete {
		return append(out, indent+"delete communities "+s.List)
	}
	parts := make([]string, len(s.Communities))
	for i, c := range s.Communities {
		parts[i] = c.String()
	}
	return append(out, fmt.Sprintf("%s%s communities [%s]", indent, s.Op, strings.Join(parts, " ")))
}

// ============================================================================
// Policies
// ============================================================================

// RoutingPolicy is a named statement list. Falling off the end rejects.
type RoutingPolicy struct {
	Name       string
	Statements []Statement
}

// NewRoutingPolicy returns a policy with stmts.
func NewRoutingPolicy(name string, stmts ...Statement) *RoutingPolicy {
	return &RoutingPolicy{Name: name, Statements: stmts}
}

// Process evaluates the policy against a copy of r. It returns whether the
// route was accepted and the route as transformed by set statements.
func (p *RoutingPolicy) Process(r Route, cfg *Configuration) (bool, Route) {
	env := &Environment{Config: cfg, Route: r.clone()}
	ok := p.call(env)
	return ok, env.Route
}

func (p *RoutingPolicy) call(env *Environment) bool {
	return executeAll(p.Statements, env) == accepted
}

// Lines renders the policy as indented pseudo-code.
func (p *RoutingPolicy) Lines() []string {
	var out []string
	for _, s := range p.Statements {
		out = s.render("", out)
	}
	return out
}
