package grammar

import (
	"reflect"
	"testing"
)

func ruleNames(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		if n.Err != nil {
			out = append(out, "!error")
			continue
		}
		out = append(out, n.Rule)
	}
	return out
}

func TestParseIndentedBlocks(t *testing.T) {
	text := `hostname r1
!
interface GigabitEthernet 0/1
 description "uplink to core"
 ip address 10.0.0.1 255.255.255.0
!
router bgp 65001
 neighbor 10.0.0.2 remote-as 65002
 address-family ipv4 vrf blue
  neighbor 10.1.0.2 remote-as 65003
 exit-address-family
 bgp router-id 1.1.1.1
`
	tree := Parse(text)
	root := tree.Root

	if got, want := ruleNames(root.Children), []string{"hostname", "interface", "router_bgp"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}

	iface := root.Children[1]
	if iface.Str("name") != "GigabitEthernet 0/1" {
		t.Errorf("interface name = %q", iface.Str("name"))
	}
	if got, want := ruleNames(iface.Children), []string{"if_description", "if_ip_address"}; !reflect.DeepEqual(got, want) {
		t.Errorf("interface children = %v, want %v", got, want)
	}
	if got := iface.Children[0].Str("text"); got != `"uplink to core"` {
		t.Errorf("description = %q", got)
	}

	bgp := root.Children[2]
	if got, want := ruleNames(bgp.Children), []string{"bgp_neighbor_remote_as", "bgp_address_family", "bgp_router_id"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("router bgp children = %v, want %v", got, want)
	}
	af := bgp.Children[1]
	if af.Str("vrf") != "blue" || len(af.Children) != 1 {
		t.Errorf("address-family vrf = %q with %d children", af.Str("vrf"), len(af.Children))
	}
	if af.Children[0].Context != CtxBgpAF {
		t.Errorf("af child context = %s, want %s", af.Children[0].Context, CtxBgpAF)
	}
	if bgp.ASN("asn") != 65001 {
		t.Errorf("ASN = %d", bgp.ASN("asn"))
	}
	if tree.Lines != 12 {
		t.Errorf("Lines = %d, want 12", tree.Lines)
	}
}

func TestParseUnindented(t *testing.T) {
	text := "interface Gi0/1\nip address 10.0.0.1 255.255.255.0\ninterface Gi0/2\nshutdown\n"
	root := Parse(text).Root

	if got, want := ruleNames(root.Children), []string{"interface", "interface"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}
	if got := ruleNames(root.Children[1].Children); !reflect.DeepEqual(got, []string{"if_shutdown"}) {
		t.Errorf("second interface children = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	text := `interface Gi0/1
 frobnicate now
 description "broken
foo bar
 baz
 qux
hostname r1
`
	root := Parse(text).Root
	if got, want := ruleNames(root.Children), []string{"interface", "!error", "hostname"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}

	iface := root.Children[0]
	if len(iface.Children) != 2 {
		t.Fatalf("interface children = %d, want 2", len(iface.Children))
	}
	unrec, lexErr := iface.Children[0], iface.Children[1]
	if !unrec.Err.Unrecognized || unrec.Context != CtxInterface || unrec.Line != 2 {
		t.Errorf("unrecognized node = %+v / %+v", unrec, unrec.Err)
	}
	if lexErr.Err.Unrecognized {
		t.Errorf("unterminated quote should be a lexer error, got %+v", lexErr.Err)
	}

	top := root.Children[1]
	if !reflect.DeepEqual(top.Err.Absorbed, []string{"baz", "qux"}) {
		t.Errorf("absorbed = %v", top.Err.Absorbed)
	}
}

func TestParseSilentBlocks(t *testing.T) {
	text := `vlan 10
 name users
ip access-list extended EXT
 10 permit ip any any
router bgp 1
 address-family l2vpn evpn
  neighbor 1.1.1.1 activate
 exit-address-family
 neighbor 2.2.2.2 remote-as 2
logging server 10.0.0.9
`
	root := Parse(text).Root
	if got, want := ruleNames(root.Children), []string{"vlan", "ip_access_list_extended", "router_bgp", "global_ignored"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}
	if !root.Children[0].Silent || !root.Children[0].Children[0].Silent {
		t.Error("vlan block should be silent")
	}
	if root.Children[1].Silent {
		t.Error("extended access-list header is not silent")
	}
	bgp := root.Children[2]
	if got, want := ruleNames(bgp.Children), []string{"bgp_address_family_other", "bgp_neighbor_remote_as"}; !reflect.DeepEqual(got, want) {
		t.Errorf("router bgp children = %v, want %v", got, want)
	}
}

func TestPatternCaptures(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		rule  string
		check func(t *testing.T, n *Node)
	}{
		{
			name: "static route via interface and gateway",
			text: "ip route vrf blue 0.0.0.0 0.0.0.0 GigabitEthernet 0/1 10.0.0.2 250 tag 7 track 3 name dflt",
			rule: "ip_route",
			check: func(t *testing.T, n *Node) {
				if n.Str("vrf") != "blue" || n.Str("iface") != "GigabitEthernet 0/1" || n.Str("gw") != "10.0.0.2" {
					t.Errorf("captures vrf=%q iface=%q gw=%q", n.Str("vrf"), n.Str("iface"), n.Str("gw"))
				}
				if n.Int("distance") != 250 || n.Uint("tag") != 7 || n.Int("track") != 3 || n.Str("rname") != "dflt" {
					t.Errorf("distance=%d tag=%d track=%d name=%q", n.Int("distance"), n.Uint("tag"), n.Int("track"), n.Str("rname"))
				}
			},
		},
		{
			name: "static route to null",
			text: "ip route 10.0.0.0 255.0.0.0 Null 0",
			rule: "ip_route",
			check: func(t *testing.T, n *Node) {
				if n.Str("iface") != "Null 0" || n.Has("gw") {
					t.Errorf("iface=%q gw=%v", n.Str("iface"), n.Has("gw"))
				}
			},
		},
		{
			name: "route-map header defaults",
			text: "route-map RM",
			rule: "route_map",
			check: func(t *testing.T, n *Node) {
				if n.Has("action") || n.Has("seq") {
					t.Error("bare route-map should capture nothing")
				}
			},
		},
		{
			name: "prefix-list with bounds",
			text: "ip prefix-list PL seq 5 permit 10.0.0.0/8 ge 16 le 24",
			rule: "ip_prefix_list",
			check: func(t *testing.T, n *Node) {
				if n.Prefix("prefix").String() != "10.0.0.0/8" || n.Int("ge") != 16 || n.Int("le") != 24 || n.Str("action") != "permit" {
					t.Errorf("prefix=%s ge=%d le=%d", n.Str("prefix"), n.Int("ge"), n.Int("le"))
				}
			},
		},
		{
			name: "standard community-list",
			text: "ip community-list standard CL permit 65000:1 no-export",
			rule: "community_list_standard",
			check: func(t *testing.T, n *Node) {
				if !reflect.DeepEqual(n.Strs("comms"), []string{"65000:1", "no-export"}) {
					t.Errorf("comms = %v", n.Strs("comms"))
				}
			},
		},
		{
			name: "numbered access-list host",
			text: "access-list 10 permit host 192.0.2.1",
			rule: "access_list",
			check: func(t *testing.T, n *Node) {
				if !n.Flag("host") || n.Str("host") != "192.0.2.1" {
					t.Errorf("host=%q", n.Str("host"))
				}
			},
		},
		{
			name: "extended access-list falls through",
			text: "access-list 101 permit ip any any",
			rule: "access_list_extended",
		},
		{
			name: "interface range",
			text: "interface range GigabitEthernet 0/1-4 , 0/6",
			rule: "interface_range",
			check: func(t *testing.T, n *Node) {
				if n.Str("spec") != "GigabitEthernet 0/1-4 , 0/6" {
					t.Errorf("spec = %q", n.Str("spec"))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := Parse(tt.text).Root
			if len(root.Children) != 1 {
				t.Fatalf("children = %d, want 1", len(root.Children))
			}
			n := root.Children[0]
			if n.Err != nil || n.Rule != tt.rule {
				t.Fatalf("rule = %q (err %+v), want %q", n.Rule, n.Err, tt.rule)
			}
			if tt.check != nil {
				tt.check(t, n)
			}
		})
	}
}

func TestRouteMapSetCommunity(t *testing.T) {
	root := Parse("route-map RM permit 10\n set community 65000:1 no-export additive\n set community none\n").Root
	rm := root.Children[0]
	if len(rm.Children) != 2 {
		t.Fatalf("route-map children = %d, want 2", len(rm.Children))
	}
	set := rm.Children[0]
	if set.Rule != "rm_set_community" || !set.Flag("additive") {
		t.Errorf("rule=%s additive=%v", set.Rule, set.Flag("additive"))
	}
	if !reflect.DeepEqual(set.Strs("comms"), []string{"65000:1", "no-export"}) {
		t.Errorf("comms = %v", set.Strs("comms"))
	}
	if rm.Children[1].Rule != "rm_set_community_none" {
		t.Errorf("second rule = %s", rm.Children[1].Rule)
	}
}

func TestCompilePatternErrors(t *testing.T) {
	for _, src := range []string{"a [b", "a ( b | c", "<x>", "<x:nosuchtype>", "a ]"} {
		if _, err := compilePattern(src); err == nil {
			t.Errorf("compilePattern(%q) should fail", src)
		}
	}
}

func TestRuleNames(t *testing.T) {
	names := RuleNames(false)
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range []string{"interface", "router_bgp", "ospf_network", "rm_set_community"} {
		if !seen[want] {
			t.Errorf("RuleNames() missing %s", want)
		}
	}
	if seen["global_ignored"] {
		t.Error("RuleNames(false) should exclude silent rules")
	}
}
