package grammar

import (
	"fmt"
	"sort"
)

// Context names the configuration block a line is parsed in.
type Context string

const (
	CtxRoot      Context = "root"
	CtxInterface Context = "interface"
	CtxBgp       Context = "router bgp"
	CtxBgpAF     Context = "router bgp address-family"
	CtxOspf      Context = "router ospf"
	CtxRouteMap  Context = "route-map"
	CtxVrf       Context = "vrf definition"
	CtxVrfAF     Context = "vrf address-family"
	CtxACL       Context = "ip access-list standard"
	// CtxSilent absorbs the indented body of a block nobody models.
	CtxSilent Context = "silent"
)

// Rule maps a line pattern onto a named parse-tree node.
type Rule struct {
	Name    string
	Pattern string
	// Opens is the context of the block this rule starts, if any.
	Opens Context
	// Silent marks syntax that is recognized but deliberately not modeled.
	Silent bool

	pat *pattern
}

func r(name, pat string) Rule { return Rule{Name: name, Pattern: pat} }

func block(name, pat string, ctx Context) Rule {
	return Rule{Name: name, Pattern: pat, Opens: ctx}
}

func silent(name, pat string) Rule { return Rule{Name: name, Pattern: pat, Silent: true} }

func silentBlock(name, pat string) Rule {
	return Rule{Name: name, Pattern: pat, Silent: true, Opens: CtxSilent}
}

var rootRules = []Rule{
	r("hostname", "hostname <name:word>"),
	block("interface_range", "interface range <spec:rest>", CtxInterface),
	block("interface", "interface <name:iface>", CtxInterface),
	block("vrf_definition", "( vrf definition | ip vrf ) <name:word>", CtxVrf),
	block("router_bgp", "router bgp <asn:asn>", CtxBgp),
	block("router_ospf", "router ospf <id:uint16> [vrf <vrf:word>]", CtxOspf),
	r("ip_route", "ip route [vrf <vrf:word>] <net:ip> <mask:ip> ( <gw:ip> | <iface:iface> [<gw:ip>] ) [<distance:uint8>] [tag <tag:uint32>] [track <track:uint16>] [name <rname:word>] [permanent]"),
	r("ipv6_route", "ipv6 route <rest:rest>"),
	silent("ip_prefix_list_description", "ip prefix-list <name:word> description <text:rest>"),
	r("ip_prefix_list", "ip prefix-list <name:word> [seq <seq:uint>] <action:action> <prefix:prefix> [ge <ge:uint8>] [le <le:uint8>]"),
	r("access_list", "access-list <num:uint> <action:action> ( any | host <host:ip> | <addr:ip> [<wildcard:ip>] )"),
	r("access_list_extended", "access-list <num:uint> <action:action> <rest:rest>"),
	block("ip_access_list_standard", "ip access-list standard <name:word>", CtxACL),
	block("ip_access_list_extended", "ip access-list extended <name:word>", CtxSilent),
	r("community_list_standard", "ip community-list standard <name:word> <action:action> <comms:community>..."),
	r("community_list_expanded", "ip community-list expanded <name:word> <action:action> <regex:rest>"),
	r("community_list_numbered", "ip community-list <num:uint16> <action:action> <rest:rest>"),
	r("as_path_access_list", "ip as-path access-list <name:word> <action:action> <regex:rest>"),
	block("route_map", "route-map <name:word> [<action:action>] [<seq:uint16>]", CtxRouteMap),
	r("track_interface", "track <id:uint16> interface <iface:iface> line-protocol"),
	silentBlock("vlan", "vlan <ids:rest>"),
	silentBlock("line", "line <rest:rest>"),
	silentBlock("nfpp", "nfpp"),
	silent("end", "end"),
	silent("global_ignored", "[no] ( logging | snmp-server | ntp | service | clock | username | enable | aaa | banner | spanning-tree | version | install | lldp | cpu-protect | sysmac | web-auth | ip domain-name | ip domain-lookup | ip name-server | ip ssh | ip routing | ip dhcp | ip http | ip source-route | ipv6 unicast-routing ) [<rest:rest>]"),
}

var interfaceRules = []Rule{
	r("if_description", "description <text:rest>"),
	r("if_ip_address", "ip address <addr:ip> <mask:ip> [secondary]"),
	r("if_ip_address", "ip address <prefix:prefix> [secondary]"),
	r("if_no_ip_address", "no ip address"),
	r("if_vrf", "( ip vrf forwarding | vrf forwarding ) <vrf:word>"),
	r("if_mtu", "mtu <mtu:uint16>"),
	r("if_shutdown", "shutdown"),
	r("if_no_shutdown", "no shutdown"),
	r("if_bandwidth", "bandwidth <kbps:uint32>"),
	r("if_speed", "speed <speed:word>"),
	r("if_switchport", "switchport"),
	r("if_no_switchport", "no switchport"),
	r("if_switchport_mode", "switchport mode <mode:access|trunk>"),
	r("if_access_vlan", "switchport access vlan <vlan:uint16>"),
	r("if_native_vlan", "switchport trunk native vlan <vlan:uint16>"),
	r("if_allowed_vlan", "switchport trunk allowed vlan [<op:only|add|remove|except>] <vlans:word>"),
	r("if_encapsulation", "encapsulation dot1q <vlan:uint16>"),
	r("if_standby", "( standby | vrrp ) <group:uint16> ip <addr:ip>"),
	r("if_ospf_area", "ip ospf <proc:uint16> area <area:area>"),
	r("if_ospf_cost", "ip ospf cost <cost:uint16>"),
	r("if_ospf_hello", "ip ospf hello-interval <seconds:uint16>"),
	r("if_ospf_dead", "ip ospf dead-interval <seconds:uint16>"),
	r("if_ospf_network", "ip ospf network <type:point-to-point|broadcast|non-broadcast|point-to-multipoint> [non-broadcast]"),
	r("if_ospf_passive", "ip ospf passive"),
	r("if_no_ospf_passive", "no ip ospf passive"),
	silent("if_ignored", "[no] ( ipv6 | lldp | spanning-tree | storm-control | port-group | flowcontrol | duplex | load-interval | medium-type | carrier-delay | arp | mac-address | service-policy | qos | mls | poe | ip helper-address | ip proxy-arp | ip redirects | ip unreachables | ip pim | ip igmp | ip dhcp ) [<rest:rest>]"),
}

var bgpNeighborRules = []Rule{
	r("bgp_neighbor_remote_as", "neighbor <peer:peer> remote-as <asn:asn>"),
	r("bgp_neighbor_alternate_as", "neighbor <peer:peer> alternate-as <asns:asn>..."),
	r("bgp_peer_group", "neighbor <name:word> peer-group"),
	r("bgp_neighbor_peer_group", "neighbor <peer:peer> peer-group <group:word>"),
	r("bgp_neighbor_local_as", "neighbor <peer:peer> local-as <asn:asn> [<opts:rest>]"),
	r("bgp_neighbor_update_source", "neighbor <peer:peer> update-source <iface:iface>"),
	r("bgp_neighbor_description", "neighbor <peer:peer> description <text:rest>"),
	r("bgp_neighbor_ebgp_multihop", "neighbor <peer:peer> ebgp-multihop [<hops:uint8>]"),
	r("bgp_neighbor_shutdown", "neighbor <peer:peer> shutdown"),
	r("bgp_neighbor_activate", "neighbor <peer:peer> activate"),
	r("bgp_neighbor_no_activate", "no neighbor <peer:peer> activate"),
	r("bgp_neighbor_route_map", "neighbor <peer:peer> route-map <map:word> <dir:in|out>"),
	r("bgp_neighbor_prefix_list", "neighbor <peer:peer> prefix-list <list:word> <dir:in|out>"),
	r("bgp_neighbor_distribute_list", "neighbor <peer:peer> distribute-list <list:word> <dir:in|out>"),
	r("bgp_neighbor_default_originate", "neighbor <peer:peer> default-originate [route-map <map:word>]"),
	r("bgp_neighbor_route_reflector_client", "neighbor <peer:peer> route-reflector-client"),
	r("bgp_neighbor_send_community", "neighbor <peer:peer> send-community [<kind:both|standard|extended|all>]"),
	r("bgp_neighbor_next_hop_self", "neighbor <peer:peer> next-hop-self"),
	silent("bgp_neighbor_ignored", "neighbor <peer:peer> ( password | timers | fall-over | bfd | advertisement-interval | version | soft-reconfiguration | allowas-in | remove-private-as | maximum-prefix | capability | weight ) [<rest:rest>]"),
}

var bgpAFRules = []Rule{
	r("bgp_network", "network <net:ip> [mask <mask:ip>] [route-map <map:word>]"),
	r("bgp_network", "network <prefix:prefix> [route-map <map:word>]"),
	r("bgp_aggregate", "aggregate-address <net:ip> <mask:ip> [<opts:rest>]"),
	r("bgp_aggregate", "aggregate-address <prefix:prefix> [<opts:rest>]"),
	r("bgp_redistribute", "redistribute <proto:connected|static|ospf|rip|isis> [<inst:uint16>] [<opts:rest>]"),
	r("bgp_default_information", "default-information originate"),
	r("bgp_maximum_paths", "maximum-paths [<kind:ebgp|ibgp>] <paths:uint16>"),
	silent("bgp_af_ignored", "[no] ( synchronization | auto-summary | distance | table-map | bgp dampening ) [<rest:rest>]"),
}

var bgpProcessRules = []Rule{
	r("bgp_router_id", "bgp router-id <id:ip>"),
	r("bgp_no_default_ipv4_unicast", "no bgp default ipv4-unicast"),
	r("bgp_listen_range", "bgp listen range <prefix:prefix> peer-group <group:word>"),
	block("bgp_address_family", "address-family ipv4 [unicast] [vrf <vrf:word>]", CtxBgpAF),
	block("bgp_address_family_ipv6", "address-family ipv6 [unicast] [vrf <vrf:word>]", CtxBgpAF),
	block("bgp_address_family_other", "address-family <rest:rest>", CtxSilent),
	silent("bgp_ignored", "[no] bgp ( log-neighbor-changes | graceful-restart | bestpath | fast-external-fallover | always-compare-med | deterministic-med ) [<rest:rest>]"),
	silent("bgp_timers", "timers bgp <rest:rest>"),
}

var ospfRules = []Rule{
	r("ospf_router_id", "router-id <id:ip>"),
	r("ospf_network", "network <addr:ip> <wildcard:ip> area <area:area>"),
	r("ospf_passive_default", "passive-interface default"),
	r("ospf_no_passive_default", "no passive-interface default"),
	r("ospf_passive_interface", "passive-interface <iface:iface>"),
	r("ospf_no_passive_interface", "no passive-interface <iface:iface>"),
	r("ospf_reference_bandwidth", "auto-cost reference-bandwidth <mbps:uint32>"),
	r("ospf_redistribute", "redistribute <proto:connected|static|bgp|rip|ospf> [<inst:uint32>] [<opts:rest>]"),
	r("ospf_default_information", "default-information originate [<opts:rest>]"),
	r("ospf_area_stub", "area <area:area> stub [no-summary]"),
	r("ospf_area_nssa", "area <area:area> nssa [<opts:rest>]"),
	r("ospf_area_range", "area <area:area> range <addr:ip> <mask:ip> [<opts:rest>]"),
	r("ospf_max_metric", "max-metric router-lsa [<opts:rest>]"),
	r("ospf_distribute_list", "distribute-list prefix <list:word> in [<iface:iface>]"),
	r("ospf_distribute_list", "distribute-list <list:word> in [<iface:iface>]"),
	silent("ospf_ignored", "[no] ( log-adjacency-changes | graceful-restart | timers | ispf | fast-reroute | bfd | area <area:area> authentication ) [<rest:rest>]"),
}

var vrfRules = []Rule{
	r("vrf_rd", "rd <rd:word>"),
	r("vrf_description", "description <text:rest>"),
	r("vrf_route_target", "route-target <dir:import|export|both> <rt:word>"),
	r("vrf_import_map", "import map <map:word>"),
	r("vrf_export_map", "export map <map:word>"),
	block("vrf_address_family", "address-family ipv4 [unicast]", CtxVrfAF),
	block("vrf_address_family_other", "address-family <rest:rest>", CtxSilent),
}

var vrfAFRules = []Rule{
	r("vrf_route_target", "route-target <dir:import|export|both> <rt:word>"),
	r("vrf_import_map", "import map <map:word>"),
	r("vrf_export_map", "export map <map:word>"),
}

var routeMapRules = []Rule{
	r("rm_match_prefix_list", "match ip address prefix-list <names:word>..."),
	r("rm_match_access_list", "match ip address <names:word>..."),
	r("rm_match_community", "match community <names:word>..."),
	r("rm_match_as_path", "match as-path <names:word>..."),
	r("rm_match_tag", "match tag <tags:uint32>..."),
	r("rm_match_metric", "match metric <metric:uint32>"),
	r("rm_match_unsupported", "match <rest:rest>"),
	r("rm_set_local_preference", "set local-preference <value:uint32>"),
	r("rm_set_metric", "set metric <value:uint32>"),
	r("rm_set_tag", "set tag <value:uint32>"),
	r("rm_set_origin", "set origin <origin:igp|egp|incomplete>"),
	r("rm_set_community_none", "set community none"),
	r("rm_set_community", "set community <comms:community>... [additive]"),
	r("rm_set_comm_list_delete", "set comm-list <name:word> delete"),
	r("rm_set_as_path_prepend", "set as-path prepend <asns:asn>..."),
	r("rm_set_next_hop", "set ip next-hop <addr:ip>"),
	r("rm_set_weight", "set weight <value:uint16>"),
	r("rm_set_metric_type", "set metric-type <type:type-1|type-2|external|internal>"),
	r("rm_set_unsupported", "set <rest:rest>"),
	silent("rm_description", "description <text:rest>"),
}

var aclRules = []Rule{
	r("acl_line", "[<seq:uint>] <action:action> ( any | host <host:ip> | <addr:ip> [<wildcard:ip>] )"),
	silent("acl_remark", "remark <text:rest>"),
}

var contextRules map[Context][]Rule

func init() {
	contextRules = map[Context][]Rule{
		CtxRoot:      rootRules,
		CtxInterface: interfaceRules,
		CtxBgp:       concatRules(bgpProcessRules, bgpNeighborRules, bgpAFRules),
		CtxBgpAF:     concatRules(bgpNeighborRules, bgpAFRules),
		CtxOspf:      ospfRules,
		CtxRouteMap:  routeMapRules,
		CtxVrf:       vrfRules,
		CtxVrfAF:     vrfAFRules,
		CtxACL:       aclRules,
		CtxSilent:    nil,
	}
	for ctx, rules := range contextRules {
		for i := range rules {
			p, err := compilePattern(rules[i].Pattern)
			if err != nil {
				panic(fmt.Sprintf("grammar: context %s rule %s: %v", ctx, rules[i].Name, err))
			}
			rules[i].pat = p
		}
	}
}

func concatRules(groups ...[]Rule) []Rule {
	var out []Rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// RuleNames returns the distinct rule names, sorted. Silent rules are
// included when withSilent is set.
func RuleNames(withSilent bool) []string {
	seen := make(map[string]bool)
	for _, rules := range contextRules {
		for _, rl := range rules {
			if rl.Silent && !withSilent {
				continue
			}
			seen[rl.Name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func matchRules(ctx Context, toks []string) (*Rule, []arg) {
	rules := contextRules[ctx]
	for i := range rules {
		if caps, ok := rules[i].pat.match(toks); ok {
			return &rules[i], caps
		}
	}
	return nil, nil
}
