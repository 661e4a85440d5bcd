// Package builder walks an RGOS parse tree and builds the vendor model.
//
// The builder is a grammar.Listener. Block rules push a scope value on enter
// and pop it on exit; statement rules mutate the model through the scope on
// top of the stack. Recoverable problems become warnings. Scope violations
// that the grammar should make impossible panic with *util.InvariantError.
package builder

import (
	"github.com/sirupsen/logrus"

	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
	"github.com/newtron-network/rgosc/pkg/warnings"
)

// scope is the block context a statement is applied in. A copy of the
// enclosing scope is pushed for each block, so popping restores it.
type scope struct {
	vrf        string
	interfaces []*rgos.Interface

	bgp      *rgos.BgpProcess
	dummyBgp bool
	peers    []*rgos.BgpPeerGroup
	inAF     bool
	ipv6     bool

	ospf   *rgos.OspfProcess
	clause *rgos.RouteMapClause
	rmName string
	acl    *rgos.StandardAccessList
	vrfAF  *rgos.VrfAddressFamily
}

// Builder accumulates the vendor model for one compilation unit.
type Builder struct {
	cfg    *rgos.Configuration
	refs   *refs.Tracker
	w      *warnings.Warnings
	silent *grammar.SilentSyntaxCollection

	scopes []scope

	// explicit interface definitions, for "altered more than once"
	ifaceDefs map[string]int
	// VRFs already warned about conflicting BGP ASNs
	asnConflict map[string]bool

	log *logrus.Entry
}

// New returns a builder writing into a fresh configuration. silent may be nil.
func New(w *warnings.Warnings, silent *grammar.SilentSyntaxCollection) *Builder {
	if silent == nil {
		silent = grammar.NewSilentSyntaxCollection()
	}
	return &Builder{
		cfg:         rgos.NewConfiguration(),
		refs:        refs.NewTracker(),
		w:           w,
		silent:      silent,
		scopes:      []scope{{vrf: rgos.DefaultVrfName}},
		ifaceDefs:   make(map[string]int),
		asnConflict: make(map[string]bool),
		log:         util.WithField("component", "builder"),
	}
}

// Build walks tree and returns the finished model and reference tracker.
func Build(tree *grammar.Tree, w *warnings.Warnings, silent *grammar.SilentSyntaxCollection) (*rgos.Configuration, *refs.Tracker) {
	b := New(w, silent)
	grammar.Walk(b, tree.Root)
	b.log.Debugf("built %d interfaces, %d vrfs, %d route-maps",
		len(b.cfg.Interfaces), len(b.cfg.Vrfs), len(b.cfg.RouteMaps))
	return b.Configuration(), b.Tracker()
}

// Configuration returns the model built so far.
func (b *Builder) Configuration() *rgos.Configuration { return b.cfg }

// Tracker returns the reference tracker.
func (b *Builder) Tracker() *refs.Tracker { return b.refs }

func (b *Builder) scope() *scope { return &b.scopes[len(b.scopes)-1] }

func (b *Builder) push(s scope) { b.scopes = append(b.scopes, s) }

func (b *Builder) pop() {
	if len(b.scopes) == 1 {
		util.Invariantf("builder", "scope stack underflow")
	}
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// EnterRule dispatches a node to its block or statement handler.
func (b *Builder) EnterRule(n *grammar.Node) {
	if n.Silent || n.Rule == rootRule {
		return
	}
	if open, ok := blockHandlers[n.Rule]; ok {
		b.push(open(b, n))
		return
	}
	if h, ok := neighborHandlers[n.Rule]; ok {
		g := b.enterPeer(n)
		h(b, n, g)
		return
	}
	if h, ok := statementHandlers[n.Rule]; ok {
		h(b, n)
		return
	}
	util.Invariantf("builder", "no handler for rule %s (line %d)", n.Rule, n.Line)
}

// ExitRule pops whatever EnterRule pushed for n.
func (b *Builder) ExitRule(n *grammar.Node) {
	if n.Silent {
		return
	}
	if _, ok := blockHandlers[n.Rule]; ok {
		b.pop()
		return
	}
	if _, ok := neighborHandlers[n.Rule]; ok {
		b.exitPeer()
	}
}

// ExitEveryRule offers n to the silent-syntax collection.
func (b *Builder) ExitEveryRule(n *grammar.Node) {
	b.silent.TryRecord(n)
}

// VisitErrorNode records an unparsable line and carries on.
func (b *Builder) VisitErrorNode(n *grammar.Node) {
	b.cfg.Unrecognized = true
	if n.Err.Unrecognized {
		b.w.AddParseWarning(n.Line, n.Text, string(n.Context), "This syntax is unrecognized")
		return
	}
	b.w.RedFlagf("Unrecognized Line: %d: %s SUBSEQUENT LINES MAY NOT BE PROCESSED CORRECTLY", n.Line, n.Text)
}

const rootRule = "config"

type (
	blockHandler     func(b *Builder, n *grammar.Node) scope
	statementHandler func(b *Builder, n *grammar.Node)
	neighborHandler  func(b *Builder, n *grammar.Node, g *rgos.BgpPeerGroup)
)

var (
	blockHandlers     map[string]blockHandler
	statementHandlers map[string]statementHandler
	neighborHandlers  map[string]neighborHandler
)

func init() {
	blockHandlers = map[string]blockHandler{
		"interface":                (*Builder).enterInterface,
		"interface_range":          (*Builder).enterInterfaceRange,
		"vrf_definition":           (*Builder).enterVrf,
		"vrf_address_family":       (*Builder).enterVrfAddressFamily,
		"vrf_address_family_other": (*Builder).enterUnsupportedAddressFamily,
		"router_bgp":               (*Builder).enterRouterBgp,
		"bgp_address_family":       (*Builder).enterBgpAddressFamily,
		"bgp_address_family_ipv6":  (*Builder).enterBgpAddressFamily,
		"bgp_address_family_other": (*Builder).enterUnsupportedAddressFamily,
		"router_ospf":              (*Builder).enterRouterOspf,
		"route_map":                (*Builder).enterRouteMap,
		"ip_access_list_standard":  (*Builder).enterStandardAccessList,
		"ip_access_list_extended":  (*Builder).enterExtendedAccessList,
	}

	statementHandlers = map[string]statementHandler{
		"hostname":                (*Builder).hostname,
		"ip_route":                (*Builder).ipRoute,
		"ipv6_route":              (*Builder).ipv6Route,
		"ip_prefix_list":          (*Builder).prefixList,
		"access_list":             (*Builder).numberedAccessList,
		"access_list_extended":    (*Builder).numberedExtendedAccessList,
		"acl_line":                (*Builder).accessListLine,
		"community_list_standard": (*Builder).communityListStandard,
		"community_list_expanded": (*Builder).communityListExpanded,
		"community_list_numbered": (*Builder).communityListNumbered,
		"as_path_access_list":     (*Builder).asPathAccessList,
		"track_interface":         (*Builder).trackInterface,

		"if_description":     (*Builder).ifDescription,
		"if_ip_address":      (*Builder).ifIPAddress,
		"if_no_ip_address":   (*Builder).ifNoIPAddress,
		"if_vrf":             (*Builder).ifVrf,
		"if_mtu":             (*Builder).ifMtu,
		"if_shutdown":        (*Builder).ifShutdown,
		"if_no_shutdown":     (*Builder).ifNoShutdown,
		"if_bandwidth":       (*Builder).ifBandwidth,
		"if_speed":           (*Builder).ifSpeed,
		"if_switchport":      (*Builder).ifSwitchport,
		"if_no_switchport":   (*Builder).ifNoSwitchport,
		"if_switchport_mode": (*Builder).ifSwitchportMode,
		"if_access_vlan":     (*Builder).ifAccessVlan,
		"if_native_vlan":     (*Builder).ifNativeVlan,
		"if_allowed_vlan":    (*Builder).ifAllowedVlan,
		"if_encapsulation":   (*Builder).ifEncapsulation,
		"if_standby":         (*Builder).ifStandby,
		"if_ospf_area":       (*Builder).ifOspfArea,
		"if_ospf_cost":       (*Builder).ifOspfCost,
		"if_ospf_hello":      (*Builder).ifOspfHello,
		"if_ospf_dead":       (*Builder).ifOspfDead,
		"if_ospf_network":    (*Builder).ifOspfNetwork,
		"if_ospf_passive":    (*Builder).ifOspfPassive,
		"if_no_ospf_passive": (*Builder).ifNoOspfPassive,

		"vrf_rd":           (*Builder).vrfRd,
		"vrf_description":  (*Builder).vrfDescription,
		"vrf_route_target": (*Builder).vrfRouteTarget,
		"vrf_import_map":   (*Builder).vrfImportMap,
		"vrf_export_map":   (*Builder).vrfExportMap,

		"bgp_router_id":               (*Builder).bgpRouterID,
		"bgp_no_default_ipv4_unicast": (*Builder).bgpNoDefaultIpv4Unicast,
		"bgp_listen_range":            (*Builder).bgpListenRange,
		"bgp_network":                 (*Builder).bgpNetwork,
		"bgp_aggregate":               (*Builder).bgpAggregate,
		"bgp_redistribute":            (*Builder).bgpRedistribute,
		"bgp_default_information":     (*Builder).bgpDefaultInformation,
		"bgp_maximum_paths":           (*Builder).bgpMaximumPaths,

		"ospf_router_id":            (*Builder).ospfRouterID,
		"ospf_network":              (*Builder).ospfNetwork,
		"ospf_passive_default":      (*Builder).ospfPassiveDefault,
		"ospf_no_passive_default":   (*Builder).ospfNoPassiveDefault,
		"ospf_passive_interface":    (*Builder).ospfPassiveInterface,
		"ospf_no_passive_interface": (*Builder).ospfNoPassiveInterface,
		"ospf_reference_bandwidth":  (*Builder).ospfReferenceBandwidth,
		"ospf_redistribute":         (*Builder).ospfRedistribute,
		"ospf_default_information":  (*Builder).ospfDefaultInformation,
		"ospf_area_stub":            (*Builder).ospfAreaStub,
		"ospf_area_nssa":            (*Builder).ospfAreaNssa,
		"ospf_area_range":           (*Builder).ospfAreaRange,
		"ospf_max_metric":           (*Builder).ospfMaxMetric,
		"ospf_distribute_list":      (*Builder).ospfDistributeList,

		"rm_match_prefix_list":    (*Builder).rmMatchPrefixList,
		"rm_match_access_list":    (*Builder).rmMatchAccessList,
		"rm_match_community":      (*Builder).rmMatchCommunity,
		"rm_match_as_path":        (*Builder).rmMatchAsPath,
		"rm_match_tag":            (*Builder).rmMatchTag,
		"rm_match_metric":         (*Builder).rmMatchMetric,
		"rm_match_unsupported":    (*Builder).rmUnsupported,
		"rm_set_local_preference": (*Builder).rmSetLocalPreference,
		"rm_set_metric":           (*Builder).rmSetMetric,
		"rm_set_tag":              (*Builder).rmSetTag,
		"rm_set_origin":           (*Builder).rmSetOrigin,
		"rm_set_community_none":   (*Builder).rmSetCommunityNone,
		"rm_set_community":        (*Builder).rmSetCommunity,
		"rm_set_comm_list_delete": (*Builder).rmSetCommListDelete,
		"rm_set_as_path_prepend":  (*Builder).rmSetAsPathPrepend,
		"rm_set_next_hop":         (*Builder).rmSetNextHop,
		"rm_set_weight":           (*Builder).rmSetWeight,
		"rm_set_metric_type":      (*Builder).rmSetMetricType,
		"rm_set_unsupported":      (*Builder).rmUnsupported,
	}

	neighborHandlers = map[string]neighborHandler{
		"bgp_neighbor_remote_as":              (*Builder).neighborRemoteAs,
		"bgp_neighbor_alternate_as":           (*Builder).neighborAlternateAs,
		"bgp_peer_group":                      (*Builder).peerGroup,
		"bgp_neighbor_peer_group":             (*Builder).neighborPeerGroup,
		"bgp_neighbor_local_as":               (*Builder).neighborLocalAs,
		"bgp_neighbor_update_source":          (*Builder).neighborUpdateSource,
		"bgp_neighbor_description":            (*Builder).neighborDescription,
		"bgp_neighbor_ebgp_multihop":          (*Builder).neighborEbgpMultihop,
		"bgp_neighbor_shutdown":               (*Builder).neighborShutdown,
		"bgp_neighbor_activate":               (*Builder).neighborActivate,
		"bgp_neighbor_no_activate":            (*Builder).neighborNoActivate,
		"bgp_neighbor_route_map":              (*Builder).neighborRouteMap,
		"bgp_neighbor_prefix_list":            (*Builder).neighborPrefixList,
		"bgp_neighbor_distribute_list":        (*Builder).neighborDistributeList,
		"bgp_neighbor_default_originate":      (*Builder).neighborDefaultOriginate,
		"bgp_neighbor_route_reflector_client": (*Builder).neighborRouteReflectorClient,
		"bgp_neighbor_send_community":         (*Builder).neighborSendCommunity,
		"bgp_neighbor_next_hop_self":          (*Builder).neighborNextHopSelf,
	}
}

// handledRules lists every rule the builder reacts to.
func handledRules() []string {
	var out []string
	for r := range blockHandlers {
		out = append(out, r)
	}
	for r := range statementHandlers {
		out = append(out, r)
	}
	for r := range neighborHandlers {
		out = append(out, r)
	}
	return out
}
