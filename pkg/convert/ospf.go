package convert

import (
	"fmt"
	"net/netip"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

// defaultOspfDefaultRouteMetric is the metric of an originated default
// route without "metric".
const defaultOspfDefaultRouteMetric = 1

var defaultRoute = netip.MustParsePrefix("0.0.0.0/0")

// OspfExportPolicyName names the policy selecting routes redistributed into
// an OSPF process.
func OspfExportPolicyName(vrf, proc string) string {
	return fmt.Sprintf("~OSPF_EXPORT_POLICY:%s:%s~", vrf, proc)
}

// OspfDefaultRouteGenerationPolicyName names the condition under which a
// process originates a default route.
func OspfDefaultRouteGenerationPolicyName(vrf, proc string) string {
	return fmt.Sprintf("~OSPF_DEFAULT_ROUTE_GENERATION_POLICY:%s:%s~", vrf, proc)
}

// OspfDistributeListPolicyName names the inbound filter of one interface.
func OspfDistributeListPolicyName(vrf, proc, iface string) string {
	return fmt.Sprintf("~OSPF_DIST_LIST_%s_%s_%s~", vrf, proc, iface)
}

func (cv *converter) convertOspf(vrf string) {
	v := cv.vc.Vrfs[vrf]
	nv := cv.c.Vrf(vrf)
	for _, name := range v.OspfNames() {
		nv.Ospf[name] = cv.convertOspfProcess(vrf, v.Ospf[name])
	}
}

func (cv *converter) convertOspfProcess(vrf string, p *rgos.OspfProcess) *canonical.OspfProcess {
	log := util.WithVRF(cv.vc.Hostname, vrf).WithField("ospf", p.Name)

	np := canonical.NewOspfProcess(p.Name)
	np.ReferenceBandwidth = float64(p.ReferenceBandwidth) * 1e6
	np.RouterID = cv.ospfRouterID(vrf, p)

	for _, id := range p.AreaIDs() {
		a := p.Areas[id]
		na := np.Area(id)
		switch a.Type {
		case rgos.AreaStub:
			na.Type = canonical.OspfAreaStub
		case rgos.AreaNSSA:
			na.Type = canonical.OspfAreaNssa
		}
		na.NoSummary = a.NoSummary
		na.NssaDefaultOriginate = a.NssaDefaultOriginate
		na.NssaNoRedistribution = a.NssaNoRedistribution
		for pfx, r := range a.Ranges {
			if na.Summaries == nil {
				na.Summaries = make(map[string]*canonical.OspfSummary)
			}
			na.Summaries[pfx.String()] = &canonical.OspfSummary{Advertise: r.Advertise, Cost: r.Cost}
		}
	}

	globalFilter := cv.ospfFilter(p, p.DistributeListIn, "")
	for _, name := range cv.c.InterfaceNames() {
		ni := cv.c.Interfaces[name]
		if ni.Vrf != vrf {
			continue
		}
		vi := cv.vc.Interfaces[name]
		area, ok := ospfArea(p, vi)
		if !ok {
			continue
		}
		if ni.Ospf != nil {
			cv.w.RedFlagf("Interface %s is assigned to OSPF processes %s and %s; keeping %s",
				name, ni.Ospf.Process, p.Name, ni.Ospf.Process)
			continue
		}
		if prev, found := np.AreaOf(name); found && prev != area {
			util.Invariantf("convert", "interface %s placed in OSPF areas %d and %d", name, prev, area)
		}
		np.Area(area).AddInterface(name)
		ni.Ospf = cv.ospfInterfaceSettings(vrf, p, np, vi, ni, area, globalFilter)
	}

	if mm := p.MaxMetric; mm != nil {
		np.MaxMetric = &canonical.OspfMaxMetric{
			OnStartupSeconds: mm.OnStartup,
			IncludeStub:      mm.IncludeStub,
			SummaryLsa:       mm.SummaryLsa,
			ExternalLsa:      mm.ExternalLsa,
		}
	}

	np.ExportPolicy = cv.ospfExportPolicy(vrf, p, np)
	log.Debugf("converted OSPF process: router-id %s, %d areas", np.RouterID, len(np.Areas))
	return np
}

// ospfRouterID falls back to the highest loopback address in the VRF, then
// the highest interface address in the VRF.
func (cv *converter) ospfRouterID(vrf string, p *rgos.OspfProcess) string {
	if p.RouterID.IsValid() {
		return p.RouterID.String()
	}
	cands := cv.addressedInterfaces(func(i *canonical.Interface) bool { return i.Vrf == vrf })
	if id, ok := highestRouterID(cands); ok {
		return id
	}
	cv.w.RedFlagf("No candidates for OSPF router-id for process %s in VRF %s", p.Name, vrf)
	return "0.0.0.0"
}

// ospfArea finds the area of an interface: an explicit "ip ospf N area A"
// for this process, else the best matching network statement. An explicit
// assignment to another process excludes the interface.
func ospfArea(p *rgos.OspfProcess, i *rgos.Interface) (uint32, bool) {
	if i.Ospf.Process != nil && i.Ospf.Area != nil {
		if *i.Ospf.Process != p.Name {
			return 0, false
		}
		return *i.Ospf.Area, true
	}
	if !i.Address.IsValid() {
		return 0, false
	}
	return p.AreaFor(i.Address.Addr())
}

func (cv *converter) ospfInterfaceSettings(vrf string, p *rgos.OspfProcess, np *canonical.OspfProcess,
	vi *rgos.Interface, ni *canonical.Interface, area uint32, globalFilter canonical.BooleanExpr) *canonical.OspfInterfaceSettings {
	nt := ospfNetworkType(vi.Ospf.NetworkType)
	if nt == canonical.OspfPointToMultipoint {
		cv.w.Unimplementedf("OSPF network type point-to-multipoint on interface %s", vi.Name)
	}
	s := &canonical.OspfInterfaceSettings{
		Process:     p.Name,
		Area:        area,
		NetworkType: nt,
		Passive:     p.IsPassive(vi.Name),
	}
	if vi.Ospf.Passive != nil {
		s.Passive = *vi.Ospf.Passive
	}
	s.HelloInterval = DefaultHelloInterval(nt)
	if vi.Ospf.HelloInterval != nil {
		s.HelloInterval = *vi.Ospf.HelloInterval
	}
	s.DeadInterval = DefaultDeadInterval(s.HelloInterval)
	if vi.Ospf.DeadInterval != nil {
		s.DeadInterval = *vi.Ospf.DeadInterval
	}
	s.Cost = OspfCost(np.ReferenceBandwidth, ni.Bandwidth)
	if vi.Ospf.Cost != nil {
		s.Cost = *vi.Ospf.Cost
	}

	var conj []canonical.BooleanExpr
	if globalFilter != nil {
		conj = append(conj, globalFilter)
	}
	if f := cv.ospfFilter(p, p.InterfaceDistributeListsIn[vi.Name], vi.Name); f != nil {
		conj = append(conj, f)
	}
	if len(conj) > 0 {
		name := OspfDistributeListPolicyName(vrf, p.Name, vi.Name)
		cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name, &canonical.If{
			Guard: &canonical.Conjunction{Conjuncts: conj},
			True:  []canonical.Statement{canonical.ExitAccept},
			False: []canonical.Statement{canonical.ExitReject},
		}))
		s.InboundDistributeListPolicy = name
	}
	return s
}

// ospfFilter validates one distribute-list. Only defined prefix-lists can
// filter OSPF routes.
func (cv *converter) ospfFilter(p *rgos.OspfProcess, dl *rgos.DistributeList, iface string) canonical.BooleanExpr {
	if dl == nil {
		return nil
	}
	where := fmt.Sprintf("OSPF process %s", p.Name)
	if iface != "" {
		where += " interface " + iface
	}
	if dl.Type != rgos.PrefixListFilter {
		cv.w.RedFlagf("Distribute-list %s in %s is not a prefix-list and is ignored", dl.Name, where)
		return nil
	}
	if _, ok := cv.vc.PrefixLists[dl.Name]; !ok {
		cv.w.RedFlagf("Distribute-list %s in %s refers to an undefined prefix-list", dl.Name, where)
		return nil
	}
	return &canonical.MatchPrefixSet{List: dl.Name}
}

// ospfProtocols maps a redistributed source onto the route protocols it
// covers.
func ospfProtocols(proto rgos.RoutingProtocol) []canonical.Protocol {
	switch proto {
	case rgos.ProtocolConnected:
		return []canonical.Protocol{canonical.ProtocolConnected}
	case rgos.ProtocolStatic:
		return []canonical.Protocol{canonical.ProtocolStatic}
	case rgos.ProtocolBgp:
		return []canonical.Protocol{canonical.ProtocolBgp, canonical.ProtocolIbgp}
	case rgos.ProtocolOspf:
		return []canonical.Protocol{canonical.ProtocolOspf, canonical.ProtocolOspfIA, canonical.ProtocolOspfE1, canonical.ProtocolOspfE2}
	case rgos.ProtocolRip:
		return []canonical.Protocol{canonical.ProtocolRip}
	case rgos.ProtocolIsis:
		return []canonical.Protocol{canonical.ProtocolIsis}
	}
	return nil
}

func ospfMetricType(t int) canonical.OspfMetricType {
	if t == 1 {
		return canonical.OspfE1
	}
	return canonical.OspfE2
}

// ospfExportPolicy builds the redistribution policy of a process. Metric,
// metric-type and tag from the redistribute statement are applied before
// the route-map runs, so route-map sets take precedence.
func (cv *converter) ospfExportPolicy(vrf string, p *rgos.OspfProcess, np *canonical.OspfProcess) string {
	var stmts []canonical.Statement

	if d := p.DefaultInformation; d != nil {
		metric := uint32(defaultOspfDefaultRouteMetric)
		if d.Metric != nil {
			metric = *d.Metric
		}
		stmts = append(stmts, &canonical.If{
			Comment: "default-information originate",
			Guard: &canonical.Conjunction{Conjuncts: []canonical.BooleanExpr{
				canonical.MatchDefaultRoute{},
				&canonical.MatchProtocol{Protocols: []canonical.Protocol{canonical.ProtocolAggregate}},
			}},
			True: []canonical.Statement{
				&canonical.SetOspfMetricType{Type: ospfMetricType(d.MetricType)},
				&canonical.SetMetric{Value: metric},
				canonical.ExitAccept,
			},
		})
		gr := &canonical.GeneratedRoute{Network: defaultRoute, Discard: true}
		if !d.Always {
			gr.GenerationPolicy = cv.ospfDefaultGenerationPolicy(vrf, p.Name, d.RouteMap)
		}
		np.GeneratedRoutes = append(np.GeneratedRoutes, gr)
	}

	for _, r := range p.SortedRedistribution() {
		protos := ospfProtocols(r.Protocol)
		if len(protos) == 0 {
			cv.w.Unimplementedf("OSPF process %s: redistribute %s", p.Name, r.Protocol)
			continue
		}
		metric := uint32(defaultOspfMetric)
		if r.Metric != nil {
			metric = *r.Metric
		}
		body := []canonical.Statement{
			&canonical.SetOspfMetricType{Type: ospfMetricType(r.MetricType)},
			&canonical.SetMetric{Value: metric},
		}
		if r.Tag != nil {
			body = append(body, &canonical.SetTag{Value: *r.Tag})
		}
		if r.RouteMap != "" {
			body = append(body, &canonical.If{
				Guard: &canonical.CallExpr{Policy: cv.routeMapPolicy(r.RouteMap, fmt.Sprintf("OSPF %s redistribute %s in VRF %s", p.Name, r.Protocol, vrf))},
				True:  []canonical.Statement{canonical.ExitAccept},
			})
		} else {
			body = append(body, canonical.ExitAccept)
		}
		comment := "redistribute " + string(r.Protocol)
		if r.Instance != "" {
			comment += " " + r.Instance
		}
		stmts = append(stmts, &canonical.If{
			Comment: comment,
			Guard: &canonical.Conjunction{Conjuncts: []canonical.BooleanExpr{
				&canonical.MatchProtocol{Protocols: protos},
				&canonical.Not{Expr: canonical.MatchDefaultRoute{}},
			}},
			True: body,
		})
	}

	name := OspfExportPolicyName(vrf, p.Name)
	stmts = append(stmts, canonical.ExitReject)
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name, stmts...))
	return name
}

// ospfDefaultGenerationPolicy originates the default route only while some
// other default route exists, further restricted by routeMap if given.
func (cv *converter) ospfDefaultGenerationPolicy(vrf, proc, routeMap string) string {
	conj := []canonical.BooleanExpr{
		canonical.MatchDefaultRoute{},
		&canonical.Not{Expr: &canonical.MatchProtocol{Protocols: ospfProtocols(rgos.ProtocolOspf)}},
	}
	if routeMap != "" {
		conj = append(conj, &canonical.CallExpr{Policy: cv.routeMapPolicy(routeMap, fmt.Sprintf("OSPF %s default-information originate in VRF %s", proc, vrf))})
	}
	name := OspfDefaultRouteGenerationPolicyName(vrf, proc)
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(name,
		&canonical.If{
			Guard: &canonical.Conjunction{Conjuncts: conj},
			True:  []canonical.Statement{canonical.ExitAccept},
		},
		canonical.ExitReject))
	return name
}
