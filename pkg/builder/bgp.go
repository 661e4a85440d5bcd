package builder

import (
	"net/netip"
	"strings"

	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

// ============================================================================
// Process and address-family blocks
// ============================================================================

// enterRouterBgp opens the default VRF's process. A second "router bgp" with
// a different non-zero ASN is parsed into a throwaway process.
func (b *Builder) enterRouterBgp(n *grammar.Node) scope {
	s := *b.scope()
	s.vrf = rgos.DefaultVrfName
	asn := n.ASN("asn")
	vrf := b.cfg.Vrf(s.vrf)

	switch {
	case vrf.Bgp == nil:
		vrf.Bgp = rgos.NewBgpProcess(asn, s.vrf)
		s.bgp = vrf.Bgp
	case vrf.Bgp.ASN == 0:
		vrf.Bgp.ASN = asn
		s.bgp = vrf.Bgp
	case asn == 0 || asn == vrf.Bgp.ASN:
		b.log.Debugf("router bgp %d at line %d reopens the AS %d process", asn, n.Line, vrf.Bgp.ASN)
		s.bgp = vrf.Bgp
	default:
		b.log.Debugf("router bgp %d at line %d conflicts with AS %d, parsing into a discarded process", asn, n.Line, vrf.Bgp.ASN)
		b.asnMismatch(s.vrf)
		s.bgp = rgos.NewBgpProcess(asn, s.vrf)
		s.dummyBgp = true
	}
	s.peers = []*rgos.BgpPeerGroup{s.bgp.Master}
	s.inAF = false
	s.ipv6 = false
	return s
}

func (b *Builder) asnMismatch(vrf string) {
	if b.asnConflict[vrf] {
		return
	}
	b.asnConflict[vrf] = true
	b.w.RedFlagf("Multiple BGP processes with different ASNs in VRF %s", vrf)
}

// enterBgpAddressFamily handles "address-family ipv4|ipv6 [unicast] [vrf V]".
// A VRF family switches to that VRF's process, created with the enclosing ASN.
func (b *Builder) enterBgpAddressFamily(n *grammar.Node) scope {
	s := *b.scope()
	if s.bgp == nil {
		util.Invariantf("builder", "address-family outside router bgp at line %d", n.Line)
	}
	s.inAF = true
	s.ipv6 = n.Rule == "bgp_address_family_ipv6"
	if vrfName := n.Str("vrf"); vrfName != "" {
		b.refs.Reference(refs.Vrf, vrfName, refs.BgpAddressFamilyVrf, n.Line)
		asn := s.bgp.ASN
		if s.dummyBgp {
			s.bgp = rgos.NewBgpProcess(asn, vrfName)
		} else {
			vrf := b.cfg.Vrf(vrfName)
			if vrf.Bgp == nil {
				vrf.Bgp = rgos.NewBgpProcess(asn, vrfName)
			}
			s.bgp = vrf.Bgp
		}
		s.vrf = vrfName
		s.peers = []*rgos.BgpPeerGroup{s.bgp.Master}
	}
	return s
}

// enterUnsupportedAddressFamily covers families nobody converts; their
// bodies are recorded as silent syntax by the parser.
func (b *Builder) enterUnsupportedAddressFamily(n *grammar.Node) scope {
	b.w.Unimplementedf("Address family %q at line %d", n.Str("rest"), n.Line)
	return *b.scope()
}

// ============================================================================
// Peer-group stack
// ============================================================================

// peerCreates lists the statements that justify creating a missing peer.
var peerCreates = map[string]bool{
	"bgp_neighbor_remote_as":  true,
	"bgp_neighbor_peer_group": true,
	"bgp_peer_group":          true,
}

// enterPeer resolves the peer a neighbor statement targets and pushes it.
// Statements about an undeclared peer land on a throwaway group.
func (b *Builder) enterPeer(n *grammar.Node) *rgos.BgpPeerGroup {
	s := b.scope()
	if s.bgp == nil || len(s.peers) == 0 {
		util.Invariantf("builder", "neighbor statement outside router bgp at line %d", n.Line)
	}
	g := b.resolvePeer(n, s)
	s.peers = append(s.peers, g)
	return g
}

func (b *Builder) exitPeer() {
	s := b.scope()
	if len(s.peers) < 2 {
		util.Invariantf("builder", "peer-group stack underflow")
	}
	s.peers = s.peers[:len(s.peers)-1]
}

func (b *Builder) resolvePeer(n *grammar.Node, s *scope) *rgos.BgpPeerGroup {
	proc := s.bgp
	create := peerCreates[n.Rule]

	if n.Rule == "bgp_peer_group" {
		name := n.Str("name")
		b.refs.Define(refs.BgpPeerGroup, name, n.Line)
		b.refs.Reference(refs.BgpPeerGroup, name, refs.BgpPeerGroupSelfRef, n.Line)
		return proc.AddNamedGroup(name, n.Line)
	}

	raw := n.Str("peer")
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		g, ok := proc.NamedGroups[raw]
		if !ok {
			b.refs.Reference(refs.BgpPeerGroup, raw, refs.BgpPeerGroupReferencedBeforeDefined, n.Line)
			return &rgos.BgpPeerGroup{Kind: rgos.NamedPeer, Name: raw, Line: n.Line}
		}
		if s.ipv6 {
			return &rgos.BgpPeerGroup{Kind: rgos.NamedPeer, Name: raw, Line: n.Line}
		}
		return g
	}

	peers, kind := proc.IPPeers, rgos.IPPeer
	if addr.Is6() {
		peers, kind = proc.IPv6Peers, rgos.IPv6Peer
	}
	g, ok := peers[addr]
	switch {
	case !ok && create:
		if kind == rgos.IPv6Peer {
			g = proc.AddIPv6Peer(addr, n.Line)
		} else {
			g = proc.AddIPPeer(addr, n.Line)
		}
		b.refs.Define(refs.BgpNeighbor, addr.String(), n.Line)
		b.refs.Reference(refs.BgpNeighbor, addr.String(), refs.BgpNeighborSelfRef, n.Line)
	case !ok:
		b.refs.Reference(refs.BgpNeighbor, addr.String(), refs.BgpNeighborWithoutRemoteAs, n.Line)
		return &rgos.BgpPeerGroup{Kind: kind, Addr: addr, Line: n.Line}
	}
	// IPv4 session settings written inside an IPv6 family stay there.
	if s.ipv6 && kind == rgos.IPPeer && !create {
		return &rgos.BgpPeerGroup{Kind: kind, Addr: addr, Line: n.Line}
	}
	return g
}

// ============================================================================
// Neighbor statements
// ============================================================================

func (b *Builder) neighborRemoteAs(n *grammar.Node, g *rgos.BgpPeerGroup) {
	asn := n.ASN("asn")
	if err := util.ValidateASN(int64(asn)); err != nil {
		b.w.RedFlagf("Invalid remote-as for neighbor %s at line %d: %v", g.Key(), n.Line, err)
		return
	}
	g.RemoteAS = &asn
}

func (b *Builder) neighborAlternateAs(n *grammar.Node, g *rgos.BgpPeerGroup) {
	for _, s := range n.Strs("asns") {
		asn, err := util.ParseASN(s)
		if err == nil {
			err = util.ValidateASN(int64(asn))
		}
		if err != nil {
			b.w.RedFlagf("Invalid alternate-as for neighbor %s at line %d: %v", g.Key(), n.Line, err)
			continue
		}
		g.AlternateAS = append(g.AlternateAS, asn)
	}
}

func (b *Builder) peerGroup(*grammar.Node, *rgos.BgpPeerGroup) {}

// neighborPeerGroup makes a leaf inherit from a named group, creating the
// group if it has not been declared yet.
func (b *Builder) neighborPeerGroup(n *grammar.Node, g *rgos.BgpPeerGroup) {
	name := n.Str("group")
	if !g.IsLeaf() {
		b.w.Unimplementedf("Peer-group %s inheriting from peer-group %s at line %d", g.Key(), name, n.Line)
		return
	}
	proc := b.scope().bgp
	if _, ok := proc.NamedGroups[name]; ok {
		b.refs.Reference(refs.BgpPeerGroup, name, refs.BgpInheritedPeerGroup, n.Line)
	} else {
		b.refs.Reference(refs.BgpPeerGroup, name, refs.BgpPeerGroupReferencedBeforeDefined, n.Line)
		proc.AddNamedGroup(name, n.Line)
	}
	g.JoinGroup(name)
}

func (b *Builder) neighborLocalAs(n *grammar.Node, g *rgos.BgpPeerGroup) {
	asn := n.ASN("asn")
	g.LocalAS = &asn
}

func (b *Builder) neighborUpdateSource(n *grammar.Node, g *rgos.BgpPeerGroup) {
	g.UpdateSource = b.referenceInterface(n.Str("iface"), refs.BgpUpdateSourceInterface, n.Line)
}

func (b *Builder) neighborDescription(n *grammar.Node, g *rgos.BgpPeerGroup) {
	g.Description = util.Unquote(n.Str("text"))
}

func (b *Builder) neighborEbgpMultihop(_ *grammar.Node, g *rgos.BgpPeerGroup) {
	g.EbgpMultihop = boolPtr(true)
}

func (b *Builder) neighborShutdown(_ *grammar.Node, g *rgos.BgpPeerGroup) {
	g.Shutdown = boolPtr(true)
}

func (b *Builder) neighborActivate(_ *grammar.Node, g *rgos.BgpPeerGroup) {
	b.activate(g, true)
}

func (b *Builder) neighborNoActivate(_ *grammar.Node, g *rgos.BgpPeerGroup) {
	b.activate(g, false)
}

func (b *Builder) activate(g *rgos.BgpPeerGroup, on bool) {
	if g.Kind == rgos.NamedPeer {
		g.ActivateMembers(on)
		return
	}
	g.Activate(on)
}

func (b *Builder) neighborRouteMap(n *grammar.Node, g *rgos.BgpPeerGroup) {
	name := n.Str("map")
	if strings.EqualFold(n.Str("dir"), "in") {
		g.RouteMapIn = name
		b.refs.Reference(refs.RouteMap, name, refs.BgpNeighborRouteMapIn, n.Line)
		return
	}
	g.RouteMapOut = name
	b.refs.Reference(refs.RouteMap, name, refs.BgpNeighborRouteMapOut, n.Line)
}

func (b *Builder) neighborPrefixList(n *grammar.Node, g *rgos.BgpPeerGroup) {
	name := n.Str("list")
	if strings.EqualFold(n.Str("dir"), "in") {
		g.PrefixListIn = name
		b.refs.Reference(refs.PrefixList, name, refs.BgpNeighborPrefixListIn, n.Line)
		return
	}
	g.PrefixListOut = name
	b.refs.Reference(refs.PrefixList, name, refs.BgpNeighborPrefixListOut, n.Line)
}

func (b *Builder) neighborDistributeList(n *grammar.Node, g *rgos.BgpPeerGroup) {
	name := n.Str("list")
	if strings.EqualFold(n.Str("dir"), "in") {
		g.DistributeListIn = name
		b.refs.Reference(refs.AccessList, name, refs.BgpNeighborDistributeListIn, n.Line)
		return
	}
	g.DistributeListOut = name
	b.refs.Reference(refs.AccessList, name, refs.BgpNeighborDistributeListOut, n.Line)
}

func (b *Builder) neighborDefaultOriginate(n *grammar.Node, g *rgos.BgpPeerGroup) {
	g.DefaultOriginate = boolPtr(true)
	if m := n.Str("map"); m != "" {
		g.DefaultOriginateMap = m
		b.refs.Reference(refs.RouteMap, m, refs.BgpDefaultOriginateRouteMap, n.Line)
	}
}

func (b *Builder) neighborRouteReflectorClient(_ *grammar.Node, g *rgos.BgpPeerGroup) {
	g.RouteReflectorClient = boolPtr(true)
}

func (b *Builder) neighborSendCommunity(n *grammar.Node, g *rgos.BgpPeerGroup) {
	switch strings.ToLower(n.Str("kind")) {
	case "", "standard":
		g.SendCommunity = boolPtr(true)
	case "extended":
		g.SendExtendedCommunity = boolPtr(true)
	default:
		g.SendCommunity = boolPtr(true)
		g.SendExtendedCommunity = boolPtr(true)
	}
}

func (b *Builder) neighborNextHopSelf(_ *grammar.Node, g *rgos.BgpPeerGroup) {
	g.NextHopSelf = boolPtr(true)
}

// ============================================================================
// Process statements
// ============================================================================

func (b *Builder) bgpProcess(n *grammar.Node) *rgos.BgpProcess {
	s := b.scope()
	if s.bgp == nil {
		util.Invariantf("builder", "%s outside router bgp at line %d", n.Rule, n.Line)
	}
	return s.bgp
}

func (b *Builder) bgpRouterID(n *grammar.Node) {
	b.bgpProcess(n).RouterID = n.Addr("id")
}

func (b *Builder) bgpNoDefaultIpv4Unicast(n *grammar.Node) {
	b.bgpProcess(n).SetDefaultIpv4Unicast(false)
}

// bgpListenRange creates a dynamic peer for every session accepted from the
// prefix, inheriting from the named group.
func (b *Builder) bgpListenRange(n *grammar.Node) {
	proc := b.bgpProcess(n)
	pfx := n.Prefix("prefix").Masked()
	group := n.Str("group")

	g := proc.AddDynamicPeer(pfx, n.Line)
	b.refs.Define(refs.BgpListenRange, pfx.String(), n.Line)
	if _, ok := proc.NamedGroups[group]; ok {
		b.refs.Reference(refs.BgpPeerGroup, group, refs.BgpListenRangePeerGroup, n.Line)
	} else {
		b.refs.Reference(refs.BgpPeerGroup, group, refs.BgpPeerGroupReferencedBeforeDefined, n.Line)
		proc.AddNamedGroup(group, n.Line)
	}
	g.JoinGroup(group)
}

func (b *Builder) bgpNetwork(n *grammar.Node) {
	proc := b.bgpProcess(n)
	if b.scope().ipv6 {
		return
	}
	var pfx netip.Prefix
	switch {
	case n.Has("prefix"):
		pfx = n.Prefix("prefix").Masked()
	case n.Has("mask"):
		p, err := util.ParseNetworkMask(n.Str("net"), n.Str("mask"))
		if err != nil {
			b.w.RedFlagf("Invalid network statement at line %d: %v", n.Line, err)
			return
		}
		pfx = p
	default:
		pfx = util.ClassfulPrefix(n.Addr("net"))
	}
	nw := &rgos.BgpNetwork{Prefix: pfx}
	if m := n.Str("map"); m != "" {
		nw.RouteMap = m
		b.refs.Reference(refs.RouteMap, m, refs.BgpNetworkRouteMap, n.Line)
	}
	proc.Networks[pfx] = nw
}

func (b *Builder) bgpAggregate(n *grammar.Node) {
	proc := b.bgpProcess(n)
	var pfx netip.Prefix
	if n.Has("prefix") {
		pfx = n.Prefix("prefix").Masked()
	} else {
		p, err := util.ParseNetworkMask(n.Str("net"), n.Str("mask"))
		if err != nil {
			b.w.RedFlagf("Invalid aggregate-address at line %d: %v", n.Line, err)
			return
		}
		pfx = p
	}
	agg := &rgos.BgpAggregate{Prefix: pfx}
	opts := parseOptions(n.Str("opts"), "attribute-map", "suppress-map", "advertise-map")
	agg.AsSet = opts.flag("as-set")
	agg.SummaryOnly = opts.flag("summary-only")
	if m := opts.value("attribute-map"); m != "" {
		agg.AttributeMap = m
		b.refs.Reference(refs.RouteMap, m, refs.BgpAggregateAttributeMap, n.Line)
	}
	if m := opts.value("suppress-map"); m != "" {
		agg.SuppressMap = m
		b.refs.Reference(refs.RouteMap, m, refs.BgpAggregateSuppressMap, n.Line)
	}
	if m := opts.value("advertise-map"); m != "" {
		agg.AdvertiseMap = m
		b.refs.Reference(refs.RouteMap, m, refs.BgpAggregateAdvertiseMap, n.Line)
	}
	b.reportUnknownOptions(n, opts)
	if b.scope().ipv6 {
		return
	}
	proc.AddAggregate(agg)
}

func (b *Builder) bgpRedistribute(n *grammar.Node) {
	proc := b.bgpProcess(n)
	proto := rgos.RoutingProtocol(strings.ToLower(n.Str("proto")))
	opts := parseOptions(n.Str("opts"), "route-map", "metric")
	pol := &rgos.BgpRedistributionPolicy{Protocol: proto, Instance: n.Str("inst")}
	if m := opts.value("route-map"); m != "" {
		pol.RouteMap = m
		b.refs.Reference(refs.RouteMap, m, refs.BgpRedistributeRouteMap, n.Line)
	}
	if v, ok := opts.uint("metric"); ok {
		pol.Metric = &v
	}
	b.reportUnknownOptions(n, opts)
	if b.scope().ipv6 {
		return
	}
	proc.Redistribution[rgos.RedistributionKey{Protocol: proto, Instance: pol.Instance}] = pol
}

func (b *Builder) bgpDefaultInformation(n *grammar.Node) {
	if b.scope().ipv6 {
		return
	}
	b.bgpProcess(n).DefaultInformationOriginate = true
}

// bgpMaximumPaths stores process-level limits outside any family and
// IPv4-family limits inside "address-family ipv4".
func (b *Builder) bgpMaximumPaths(n *grammar.Node) {
	proc := b.bgpProcess(n)
	s := b.scope()
	if s.ipv6 {
		return
	}
	mp := &proc.MaximumPaths
	if s.inAF {
		mp = &proc.Ipv4MaximumPaths
	}
	paths := n.Int("paths")
	switch strings.ToLower(n.Str("kind")) {
	case "ebgp":
		mp.Ebgp = &paths
	case "ibgp":
		mp.Ibgp = &paths
	default:
		mp.Combined = &paths
	}
}

func boolPtr(v bool) *bool { return &v }
