package canonical

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/rgosc/pkg/util"
)

func mustWildcard(t *testing.T, p string) util.IPWildcard {
	t.Helper()
	return util.WildcardFromPrefix(netip.MustParsePrefix(p))
}

func testConfig(t *testing.T) *Configuration {
	t.Helper()
	c := NewConfiguration("r1")
	c.AddRouteFilterList(&RouteFilterList{Name: "PL", Lines: []RouteFilterLine{
		{Action: Deny, Wildcard: mustWildcard(t, "10.1.0.0/16"), MinLength: 16, MaxLength: 32},
		{Action: Permit, Wildcard: mustWildcard(t, "10.0.0.0/8"), MinLength: 8, MaxLength: 24},
	}})
	line, err := NewAsPathAccessListLine(Permit, "^65000( |$)")
	if err != nil {
		t.Fatal(err)
	}
	c.AddAsPathAccessList(&AsPathAccessList{Name: "AP", Lines: []AsPathAccessListLine{line}})
	re, err := NewCommunityRegexLine(Permit, "^65000:", true)
	if err != nil {
		t.Fatal(err)
	}
	c.AddCommunitySetAcl(&CommunitySetAcl{Name: "STD", Lines: []CommunitySetAclLine{
		{Action: Permit, Communities: []Community{65000<<16 | 1, 65000<<16 | 2}},
	}})
	c.AddCommunitySetAcl(&CommunitySetAcl{Name: "EXP", Lines: []CommunitySetAclLine{re}})
	return c
}

func TestMatchPrefixSetNamed(t *testing.T) {
	c := testConfig(t)
	p := NewRoutingPolicy("p",
		&If{Guard: &MatchPrefixSet{List: "PL"}, True: []Statement{ExitAccept}},
		ExitReject)
	tests := []struct {
		network string
		want    bool
	}{
		{"10.0.0.0/8", true},
		{"10.2.0.0/24", true},
		{"10.2.0.0/25", false},
		{"10.1.2.0/24", false},
		{"11.0.0.0/8", false},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			got, _ := p.Process(Route{Network: netip.MustParsePrefix(tt.network)}, c)
			if got != tt.want {
				t.Errorf("Process(%s) = %v, want %v", tt.network, got, tt.want)
			}
		})
	}
}

func TestMatchPrefixSetExplicit(t *testing.T) {
	c := testConfig(t)
	m := NewPrefixSetMatch(
		MoreSpecifics(netip.MustParsePrefix("172.16.0.0/12")),
		MoreSpecifics(netip.MustParsePrefix("172.16.4.0/22")),
		ExactPrefix(netip.MustParsePrefix("192.168.0.0/16")),
	)
	if m.space == nil {
		t.Fatal("NewPrefixSetMatch() built no address space")
	}
	tests := []struct {
		network string
		want    bool
	}{
		{"172.16.0.0/12", false},
		{"172.16.4.0/22", true},
		{"172.16.4.0/24", true},
		{"172.31.255.0/24", true},
		{"172.0.0.0/8", false},
		{"192.168.0.0/16", true},
		{"192.168.1.0/24", false},
		{"10.0.0.0/8", false},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			env := &Environment{Route: Route{Network: netip.MustParsePrefix(tt.network)}, Config: c}
			if got := m.Evaluate(env); got != tt.want {
				t.Errorf("Evaluate(%s) = %v, want %v", tt.network, got, tt.want)
			}
		})
	}
}

func TestFallingOffRejects(t *testing.T) {
	c := testConfig(t)
	p := NewRoutingPolicy("p", &SetTag{Value: 7})
	if ok, _ := p.Process(Route{Network: netip.MustParsePrefix("1.0.0.0/8")}, c); ok {
		t.Error("Process() = true, want false for a policy without exit")
	}
}

func TestSetStatementsTransformCopy(t *testing.T) {
	c := testConfig(t)
	p := NewRoutingPolicy("p",
		&SetLocalPreference{Value: 300},
		&SetMetric{Value: 20},
		&SetOrigin{Origin: OriginIgp},
		&PrependAsPath{Asns: []uint32{65000, 65000}},
		&SetCommunities{Op: CommunityAdd, Communities: []Community{NoExport, 1}},
		&SetNextHop{Addr: netip.MustParseAddr("192.0.2.1")},
		ExitAccept)
	in := Route{
		Network:     netip.MustParsePrefix("10.0.0.0/8"),
		AsPath:      []uint32{65010},
		Communities: []Community{5},
	}
	ok, out := p.Process(in, c)
	if !ok {
		t.Fatal("Process() = false, want true")
	}
	if out.LocalPreference != 300 || out.Metric != 20 || out.Origin != OriginIgp {
		t.Errorf("route = %+v", out)
	}
	if diff := cmp.Diff([]uint32{65000, 65000, 65010}, out.AsPath); diff != "" {
		t.Errorf("AsPath mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Community{1, 5, NoExport}, out.Communities); diff != "" {
		t.Errorf("Communities mismatch (-want +got):\n%s", diff)
	}
	if len(in.AsPath) != 1 || len(in.Communities) != 1 {
		t.Errorf("input route modified: %+v", in)
	}
}

func TestCommunityOperations(t *testing.T) {
	c := testConfig(t)
	base := Route{
		Network:     netip.MustParsePrefix("10.0.0.0/8"),
		Communities: []Community{65000<<16 | 1, 65000<<16 | 9, 65001<<16 | 1},
	}
	tests := []struct {
		name string
		stmt *SetCommunities
		want []Community
	}{
		{"replace", &SetCommunities{Op: CommunityReplace, Communities: []Community{3, 2}}, []Community{2, 3}},
		{"none", &SetCommunities{Op: CommunityNone}, nil},
		{"delete", &SetCommunities{Op: CommunityDelete, List: "EXP"}, []Community{65001<<16 | 1}},
		{"delete undefined list", &SetCommunities{Op: CommunityDelete, List: "NOPE"}, base.Communities},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := NewRoutingPolicy("p", tt.stmt, ExitAccept).Process(base, c)
			if diff := cmp.Diff(tt.want, out.Communities); diff != "" {
				t.Errorf("Communities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchCommunities(t *testing.T) {
	c := testConfig(t)
	tests := []struct {
		name  string
		expr  BooleanExpr
		comms []Community
		want  bool
	}{
		{"standard all present", &MatchCommunities{List: "STD"}, []Community{65000<<16 | 1, 65000<<16 | 2, 7}, true},
		{"standard one missing", &MatchCommunities{List: "STD"}, []Community{65000<<16 | 1}, false},
		{"standard exact extra", &MatchCommunities{List: "STD", Exact: true}, []Community{65000<<16 | 1, 65000<<16 | 2, 7}, false},
		{"standard exact", &MatchCommunities{List: "STD", Exact: true}, []Community{65000<<16 | 2, 65000<<16 | 1}, true},
		{"regex any community", &MatchCommunities{List: "EXP"}, []Community{1, 65000<<16 | 44}, true},
		{"regex no match", &MatchCommunities{List: "EXP"}, []Community{65001<<16 | 44}, false},
		{"undefined list", &MatchCommunities{List: "NOPE"}, []Community{1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Environment{Config: c, Route: Route{Communities: tt.comms}}
			if got := tt.expr.Evaluate(env); got != tt.want {
				t.Errorf("%s.Evaluate() = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestMatchAsPathAndProtocol(t *testing.T) {
	c := testConfig(t)
	guard := &Conjunction{Conjuncts: []BooleanExpr{
		&MatchAsPath{List: "AP"},
		&Not{Expr: &MatchProtocol{Protocols: []Protocol{ProtocolAggregate}}},
	}}
	p := NewRoutingPolicy("p", &If{Guard: guard, True: []Statement{ExitAccept}, False: []Statement{ExitReject}})
	tests := []struct {
		path  []uint32
		proto Protocol
		want  bool
	}{
		{[]uint32{65000, 3}, ProtocolBgp, true},
		{[]uint32{65000}, ProtocolBgp, true},
		{[]uint32{650001}, ProtocolBgp, false},
		{[]uint32{65000}, ProtocolAggregate, false},
	}
	for _, tt := range tests {
		got, _ := p.Process(Route{AsPath: tt.path, Protocol: tt.proto}, c)
		if got != tt.want {
			t.Errorf("Process(%v, %s) = %v, want %v", tt.path, tt.proto, got, tt.want)
		}
	}
}

func TestCallExpr(t *testing.T) {
	c := testConfig(t)
	c.AddRoutingPolicy(NewRoutingPolicy("RM",
		&If{Guard: &MatchTag{Tags: []uint32{5}}, True: []Statement{&SetMetric{Value: 99}, ExitAccept}},
		ExitReject))
	c.AddRoutingPolicy(NewRoutingPolicy("LOOP", &If{Guard: &CallExpr{Policy: "LOOP"}, True: []Statement{ReturnTrue}}))
	outer := NewRoutingPolicy("outer",
		&If{Guard: &CallExpr{Policy: "RM"}, True: []Statement{ExitAccept}},
		ExitReject)

	ok, out := outer.Process(Route{Tag: 5}, c)
	if !ok || out.Metric != 99 {
		t.Errorf("Process(tag 5) = %v metric %d, want true metric 99", ok, out.Metric)
	}
	if ok, _ := outer.Process(Route{Tag: 6}, c); ok {
		t.Error("Process(tag 6) = true, want false")
	}
	undefined := NewRoutingPolicy("u", &If{Guard: &CallExpr{Policy: "MISSING"}, True: []Statement{ExitAccept}}, ExitReject)
	if ok, _ := undefined.Process(Route{}, c); ok {
		t.Error("call to undefined policy accepted")
	}
	if ok, _ := c.RoutingPolicies["LOOP"].Process(Route{}, c); ok {
		t.Error("self-recursive policy accepted")
	}
}

func TestPrefixRanges(t *testing.T) {
	agg := netip.MustParsePrefix("10.0.0.0/16")
	tests := []struct {
		r    PrefixRange
		n    string
		want bool
	}{
		{ExactPrefix(agg), "10.0.0.0/16", true},
		{ExactPrefix(agg), "10.0.1.0/24", false},
		{MoreSpecifics(agg), "10.0.0.0/16", false},
		{MoreSpecifics(agg), "10.0.1.0/24", true},
		{MoreSpecifics(agg), "10.1.0.0/24", false},
	}
	for _, tt := range tests {
		if got := tt.r.Matches(netip.MustParsePrefix(tt.n)); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.r, tt.n, got, tt.want)
		}
	}
}

func TestPolicyLines(t *testing.T) {
	p := NewRoutingPolicy("p",
		&If{
			Comment: "clause 10",
			Guard:   &Conjunction{Conjuncts: []BooleanExpr{MatchDefaultRoute{}, &MatchProtocol{Protocols: []Protocol{ProtocolStatic}}}},
			True:    []Statement{&SetTag{Value: 1}, ExitAccept},
			False:   []Statement{ExitReject},
		})
	want := []string{
		"# clause 10",
		"if (default-route AND protocol(static)):",
		"  set tag 1",
		"  ExitAccept",
		"else:",
		"  ExitReject",
	}
	if diff := cmp.Diff(want, p.Lines()); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}
}
