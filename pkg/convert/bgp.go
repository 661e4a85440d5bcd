package convert

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

// Generated BGP policy names.
func BgpCommonExportPolicyName(vrf string) string {
	return fmt.Sprintf("~BGP_COMMON_EXPORT_POLICY:%s~", vrf)
}

func BgpRedistributionPolicyName(vrf string) string {
	return fmt.Sprintf("~BGP_REDISTRIBUTION_POLICY:%s~", vrf)
}

func BgpPeerImportPolicyName(vrf, peer string) string {
	return fmt.Sprintf("~BGP_PEER_IMPORT_POLICY:%s:%s~", vrf, peer)
}

func BgpPeerExportPolicyName(vrf, peer string) string {
	return fmt.Sprintf("~BGP_PEER_EXPORT_POLICY:%s:%s~", vrf, peer)
}

func BgpDefaultRouteExportPolicyName(vrf, peer string) string {
	return fmt.Sprintf("~BGP_DEFAULT_ROUTE_PEER_EXPORT_POLICY:%s:%s~", vrf, peer)
}

func AggregateGenerationPolicyName(vrf string, p netip.Prefix) string {
	return fmt.Sprintf("~AGGREGATE_ROUTE_GEN:%s:%s~", vrf, p)
}

var bgpProtocols = []canonical.Protocol{canonical.ProtocolBgp, canonical.ProtocolIbgp}

func (cv *converter) convertBgp(vrf string) {
	p := cv.vc.Vrfs[vrf].Bgp
	if p == nil {
		return
	}
	log := util.WithVRF(cv.vc.Hostname, vrf).WithField("asn", p.ASN)

	nb := canonical.NewBgpProcess(p.ASN, cv.bgpRouterID(vrf, p))
	ebgp, ibgp := p.MaximumPaths.Multipath()
	afEbgp, afIbgp := p.Ipv4MaximumPaths.Multipath()
	nb.MultipathEbgp = ebgp || afEbgp
	nb.MultipathIbgp = ibgp || afIbgp

	nv := cv.c.Vrf(vrf)
	for _, a := range p.Aggregates {
		nv.GeneratedRoutes = append(nv.GeneratedRoutes, cv.bgpAggregate(vrf, p, a))
	}
	nb.RedistributionPolicy = cv.bgpRedistributionPolicy(vrf, p)
	nb.CommonExportPolicy = cv.bgpCommonExportPolicy(vrf, p, nb.RedistributionPolicy)

	if n := len(p.IPv6Peers); n > 0 {
		cv.w.Unimplementedf("BGP process %d in VRF %s: %d IPv6 neighbors are not converted", p.ASN, vrf, n)
	}
	for _, g := range p.SortedIPPeers() {
		cv.convertPeer(vrf, p, nb, g)
	}
	for _, g := range p.SortedDynamicPeers() {
		cv.convertPeer(vrf, p, nb, g)
	}

	nv.Bgp = nb
	log.Debugf("converted BGP process: router-id %s, %d neighbors", nb.RouterID, len(nb.Neighbors))
}

// bgpRouterID falls back to the default VRF's BGP router-id, then the
// highest loopback address on the device, then the highest interface
// address on the device.
func (cv *converter) bgpRouterID(vrf string, p *rgos.BgpProcess) string {
	if p.RouterID.IsValid() {
		return p.RouterID.String()
	}
	if vrf != rgos.DefaultVrfName {
		if d := cv.vc.Vrfs[rgos.DefaultVrfName].Bgp; d != nil && d.RouterID.IsValid() {
			return d.RouterID.String()
		}
	}
	cands := cv.addressedInterfaces(func(*canonical.Interface) bool { return true })
	if id, ok := highestRouterID(cands); ok {
		return id
	}
	cv.w.RedFlagf("No candidates for BGP router-id in VRF %s", vrf)
	return "0.0.0.0"
}

// bgpAggregate turns an aggregate-address into a generated route that is
// active while any more-specific route exists.
func (cv *converter) bgpAggregate(vrf string, p *rgos.BgpProcess, a *rgos.BgpAggregate) *canonical.GeneratedRoute {
	name := AggregateGenerationPolicyName(vrf, a.Prefix)
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name,
		&canonical.If{
			Guard: canonical.NewPrefixSetMatch(canonical.MoreSpecifics(a.Prefix)),
			True:  []canonical.Statement{canonical.ExitAccept},
		},
		canonical.ExitReject))

	gr := &canonical.GeneratedRoute{
		Network:          a.Prefix,
		Discard:          true,
		AsSet:            a.AsSet,
		SummaryOnly:      a.SummaryOnly,
		GenerationPolicy: name,
	}
	if a.AttributeMap != "" {
		if _, ok := cv.c.RoutingPolicies[a.AttributeMap]; ok {
			gr.AttributePolicy = a.AttributeMap
		} else {
			cv.w.RedFlagf("Aggregate %s in VRF %s references undefined attribute-map %s", a.Prefix, vrf, a.AttributeMap)
		}
	}
	if a.SuppressMap != "" {
		cv.w.Unimplementedf("BGP process %d aggregate %s: suppress-map", p.ASN, a.Prefix)
	}
	if a.AdvertiseMap != "" {
		cv.w.Unimplementedf("BGP process %d aggregate %s: advertise-map", p.ASN, a.Prefix)
	}
	return gr
}

// bgpRedistributionProtocols maps a redistribute source onto the route
// protocols it injects.
func bgpRedistributionProtocols(proto rgos.RoutingProtocol) []canonical.Protocol {
	if proto == rgos.ProtocolBgp {
		return nil
	}
	return ospfProtocols(proto)
}

// bgpRedistributionPolicy selects the non-BGP routes a VRF's process
// originates: redistributed protocols, network statements and aggregates.
func (cv *converter) bgpRedistributionPolicy(vrf string, p *rgos.BgpProcess) string {
	var stmts []canonical.Statement

	for _, r := range p.SortedRedistribution() {
		protos := bgpRedistributionProtocols(r.Protocol)
		if len(protos) == 0 {
			cv.w.Unimplementedf("BGP process %d: redistribute %s", p.ASN, r.Protocol)
			continue
		}
		conj := []canonical.BooleanExpr{&canonical.MatchProtocol{Protocols: protos}}
		if !p.DefaultInformationOriginate {
			conj = append(conj, &canonical.Not{Expr: canonical.MatchDefaultRoute{}})
		}
		if r.RouteMap != "" {
			conj = append(conj, &canonical.CallExpr{Policy: cv.routeMapPolicy(r.RouteMap, fmt.Sprintf("BGP redistribute %s in VRF %s", r.Protocol, vrf))})
		}
		var body []canonical.Statement
		if r.Metric != nil {
			body = append(body, &canonical.SetMetric{Value: *r.Metric})
		}
		stmts = append(stmts, &canonical.If{
			Comment: "redistribute " + string(r.Protocol),
			Guard:   &canonical.Conjunction{Conjuncts: conj},
			True:    append(body, canonical.ExitAccept),
		})
	}

	for _, n := range p.SortedNetworks() {
		conj := []canonical.BooleanExpr{
			canonical.NewPrefixSetMatch(canonical.ExactPrefix(n.Prefix)),
			&canonical.Not{Expr: &canonical.MatchProtocol{Protocols: append(append([]canonical.Protocol(nil), bgpProtocols...), canonical.ProtocolAggregate)}},
		}
		if n.RouteMap != "" {
			conj = append(conj, &canonical.CallExpr{Policy: cv.routeMapPolicy(n.RouteMap, fmt.Sprintf("BGP network %s in VRF %s", n.Prefix, vrf))})
		}
		stmts = append(stmts, &canonical.If{
			Comment: "network " + n.Prefix.String(),
			Guard:   &canonical.Conjunction{Conjuncts: conj},
			True:    []canonical.Statement{&canonical.SetOrigin{Origin: canonical.OriginIgp}, canonical.ExitAccept},
		})
	}

	for _, a := range p.Aggregates {
		stmts = append(stmts, &canonical.If{
			Comment: "aggregate-address " + a.Prefix.String(),
			Guard: &canonical.Conjunction{Conjuncts: []canonical.BooleanExpr{
				canonical.NewPrefixSetMatch(canonical.ExactPrefix(a.Prefix)),
				&canonical.MatchProtocol{Protocols: []canonical.Protocol{canonical.ProtocolAggregate}},
			}},
			True: []canonical.Statement{&canonical.SetOrigin{Origin: canonical.OriginIgp}, canonical.ExitAccept},
		})
	}

	name := BgpRedistributionPolicyName(vrf)
	stmts = append(stmts, canonical.ExitReject)
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name, stmts...))
	return name
}

// bgpCommonExportPolicy is shared by every peer of the VRF: more-specifics
// of summary-only aggregates are suppressed, BGP routes pass, and anything
// the redistribution policy accepts passes.
func (cv *converter) bgpCommonExportPolicy(vrf string, p *rgos.BgpProcess, redistribution string) string {
	var stmts []canonical.Statement

	var suppressed []canonical.PrefixRange
	for _, a := range p.Aggregates {
		if a.SummaryOnly {
			suppressed = append(suppressed, canonical.MoreSpecifics(a.Prefix))
		}
	}
	if len(suppressed) > 0 {
		stmts = append(stmts, &canonical.If{
			Comment: "suppress summarized prefixes",
			Guard:   canonical.NewPrefixSetMatch(suppressed...),
			True:    []canonical.Statement{canonical.ExitReject},
		})
	}
	stmts = append(stmts,
		&canonical.If{
			Guard: &canonical.MatchProtocol{Protocols: bgpProtocols},
			True:  []canonical.Statement{canonical.ExitAccept},
		},
		&canonical.If{
			Guard: &canonical.CallExpr{Policy: redistribution},
			True:  []canonical.Statement{canonical.ExitAccept},
		},
		canonical.ExitReject)

	name := BgpCommonExportPolicyName(vrf)
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name, stmts...))
	return name
}

// ============================================================================
// Peers
// ============================================================================

func (cv *converter) convertPeer(vrf string, p *rgos.BgpProcess, nb *canonical.BgpProcess, g *rgos.BgpPeerGroup) {
	var named *rgos.BgpPeerGroup
	if g.Group != "" {
		named = p.NamedGroups[g.Group]
	}
	s := rgos.Resolve(g, named, p.Master)
	key := g.Key()

	if isSet(s.Shutdown) {
		cv.log.Debugf("dropping shutdown BGP neighbor %s in VRF %s", key, vrf)
		return
	}
	if s.RemoteAS == nil {
		cv.w.RedFlagf("No remote-as set for BGP neighbor %s in VRF %s", key, vrf)
		return
	}

	np := &canonical.BgpPeer{
		LocalAs:               p.ASN,
		RemoteAs:              *s.RemoteAS,
		AlternateAs:           s.AlternateAS,
		Description:           s.Description,
		Group:                 g.Group,
		UpdateSource:          s.UpdateSource,
		EbgpMultihop:          isSet(s.EbgpMultihop),
		RouteReflectorClient:  isSet(s.RouteReflectorClient),
		SendCommunity:         isSet(s.SendCommunity),
		SendExtendedCommunity: isSet(s.SendExtendedCommunity),
		NextHopSelf:           isSet(s.NextHopSelf),
	}
	if s.LocalAS != nil {
		np.LocalAs = *s.LocalAS
	}
	if g.Kind == rgos.DynamicPeer {
		np.PeerPrefix = key
	} else {
		np.PeerAddress = key
	}

	if s.Active == nil || *s.Active {
		np.Ipv4Unicast = &canonical.BgpAddressFamily{
			ImportPolicy: cv.bgpPeerImportPolicy(vrf, key, &s),
			ExportPolicy: cv.bgpPeerExportPolicy(vrf, key, &s, nb.CommonExportPolicy),
		}
	}
	nb.Neighbors[key] = np
}

func isSet(b *bool) bool { return b != nil && *b }

// peerFilter picks the one filter applied in a direction. A route-map wins
// over a prefix-list, which wins over a distribute-list.
func (cv *converter) peerFilter(vrf, peer, dir, routeMap, prefixList, distributeList string) canonical.BooleanExpr {
	var set []string
	for _, f := range []string{routeMap, prefixList, distributeList} {
		if f != "" {
			set = append(set, f)
		}
	}
	if len(set) > 1 {
		cv.w.RedFlagf("BGP neighbor %s in VRF %s has multiple %s filters (%s); using %s",
			peer, vrf, dir, strings.Join(set, ", "), set[0])
	}
	switch {
	case routeMap != "":
		return &canonical.CallExpr{Policy: cv.routeMapPolicy(routeMap, fmt.Sprintf("BGP neighbor %s in VRF %s (%s)", peer, vrf, dir))}
	case prefixList != "":
		return &canonical.MatchPrefixSet{List: prefixList}
	case distributeList != "":
		return &canonical.MatchPrefixSet{List: distributeList}
	}
	return nil
}

func (cv *converter) bgpPeerImportPolicy(vrf, peer string, s *rgos.BgpPeerSettings) string {
	f := cv.peerFilter(vrf, peer, "inbound", s.RouteMapIn, s.PrefixListIn, s.DistributeListIn)
	if f == nil {
		return ""
	}
	name := BgpPeerImportPolicyName(vrf, peer)
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name,
		&canonical.If{Guard: f, True: []canonical.Statement{canonical.ExitAccept}},
		canonical.ExitReject))
	return name
}

// bgpPeerExportPolicy advertises an originated default route first when
// default-originate is on, then whatever the common export policy and the
// outbound filter both accept.
func (cv *converter) bgpPeerExportPolicy(vrf, peer string, s *rgos.BgpPeerSettings, common string) string {
	var stmts []canonical.Statement

	if isSet(s.DefaultOriginate) {
		dname := BgpDefaultRouteExportPolicyName(vrf, peer)
		dstmts := []canonical.Statement{&canonical.SetOrigin{Origin: canonical.OriginIgp}}
		if s.DefaultOriginateMap != "" {
			dstmts = append(dstmts, &canonical.If{
				Guard: &canonical.CallExpr{Policy: cv.routeMapPolicy(s.DefaultOriginateMap, fmt.Sprintf("BGP neighbor %s in VRF %s default-originate", peer, vrf))},
				True:  []canonical.Statement{canonical.ExitAccept},
			}, canonical.ExitReject)
		} else {
			dstmts = append(dstmts, canonical.ExitAccept)
		}
		cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(dname, dstmts...))
		stmts = append(stmts, &canonical.If{
			Comment: "default-originate",
			Guard: &canonical.Conjunction{Conjuncts: []canonical.BooleanExpr{
				canonical.MatchDefaultRoute{},
				&canonical.MatchProtocol{Protocols: []canonical.Protocol{canonical.ProtocolAggregate}},
			}},
			True: []canonical.Statement{&canonical.If{
				Guard: &canonical.CallExpr{Policy: dname},
				True:  []canonical.Statement{canonical.ExitAccept},
				False: []canonical.Statement{canonical.ExitReject},
			}},
		})
	}

	accept := []canonical.Statement{canonical.ExitAccept}
	if f := cv.peerFilter(vrf, peer, "outbound", s.RouteMapOut, s.PrefixListOut, s.DistributeListOut); f != nil {
		accept = []canonical.Statement{&canonical.If{
			Guard: f,
			True:  []canonical.Statement{canonical.ExitAccept},
			False: []canonical.Statement{canonical.ExitReject},
		}}
	}
	stmts = append(stmts,
		&canonical.If{Guard: &canonical.CallExpr{Policy: common}, True: accept},
		canonical.ExitReject)

	name := BgpPeerExportPolicyName(vrf, peer)
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name, stmts...))
	return name
}
