package builder

import (
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

func (b *Builder) enterRouterOspf(n *grammar.Node) scope {
	s := *b.scope()
	id := n.Str("id")
	s.vrf = rgos.DefaultVrfName
	if v := n.Str("vrf"); v != "" {
		s.vrf = v
		b.refs.Reference(refs.Vrf, v, refs.OspfProcessVrf, n.Line)
	}
	vrf := b.cfg.Vrf(s.vrf)
	proc, ok := vrf.Ospf[id]
	if !ok {
		proc = rgos.NewOspfProcess(id, s.vrf)
		proc.Line = n.Line
		vrf.Ospf[id] = proc
	}
	s.ospf = proc
	return s
}

func (b *Builder) ospfProcess(n *grammar.Node) *rgos.OspfProcess {
	p := b.scope().ospf
	if p == nil {
		util.Invariantf("builder", "%s outside router ospf at line %d", n.Rule, n.Line)
	}
	return p
}

func (b *Builder) ospfRouterID(n *grammar.Node) {
	b.ospfProcess(n).RouterID = n.Addr("id")
}

func (b *Builder) ospfNetwork(n *grammar.Node) {
	w, err := util.ParseIPWildcard(n.Str("addr"), n.Str("wildcard"))
	if err != nil {
		b.w.RedFlagf("Invalid OSPF network at line %d: %v", n.Line, err)
		return
	}
	b.ospfProcess(n).AddNetwork(rgos.OspfNetwork{Wildcard: w, Area: n.Area("area")})
}

func (b *Builder) ospfPassiveDefault(n *grammar.Node) {
	p := b.ospfProcess(n)
	p.PassiveDefault = true
	p.NonDefaultInterfaces = make(map[string]bool)
}

func (b *Builder) ospfNoPassiveDefault(n *grammar.Node) {
	p := b.ospfProcess(n)
	p.PassiveDefault = false
	p.NonDefaultInterfaces = make(map[string]bool)
}

func (b *Builder) ospfPassiveInterface(n *grammar.Node) {
	p := b.ospfProcess(n)
	p.SetPassive(b.referenceInterface(n.Str("iface"), refs.OspfPassiveInterface, n.Line), true)
}

func (b *Builder) ospfNoPassiveInterface(n *grammar.Node) {
	p := b.ospfProcess(n)
	p.SetPassive(b.referenceInterface(n.Str("iface"), refs.OspfPassiveInterface, n.Line), false)
}

func (b *Builder) ospfReferenceBandwidth(n *grammar.Node) {
	b.ospfProcess(n).ReferenceBandwidth = n.Int("mbps")
}

func metricType(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil || (v != 1 && v != 2) {
		return 0, false
	}
	return v, true
}

func (b *Builder) ospfRedistribute(n *grammar.Node) {
	p := b.ospfProcess(n)
	proto := rgos.RoutingProtocol(strings.ToLower(n.Str("proto")))
	opts := parseOptions(n.Str("opts"), "metric", "metric-type", "tag", "route-map")
	pol := &rgos.OspfRedistributionPolicy{Protocol: proto, Instance: n.Str("inst"), MetricType: 2}
	if v, ok := opts.uint("metric"); ok {
		pol.Metric = &v
	}
	if s := opts.value("metric-type"); s != "" {
		if t, ok := metricType(s); ok {
			pol.MetricType = t
		} else {
			b.w.RedFlagf("Invalid metric-type %q at line %d", s, n.Line)
		}
	}
	if v, ok := opts.uint("tag"); ok {
		pol.Tag = &v
	}
	pol.Subnets = opts.flag("subnets")
	if m := opts.value("route-map"); m != "" {
		pol.RouteMap = m
		b.refs.Reference(refs.RouteMap, m, refs.OspfRedistributeRouteMap, n.Line)
	}
	b.reportUnknownOptions(n, opts)
	p.Redistribution[rgos.RedistributionKey{Protocol: proto, Instance: pol.Instance}] = pol
}

func (b *Builder) ospfDefaultInformation(n *grammar.Node) {
	p := b.ospfProcess(n)
	opts := parseOptions(n.Str("opts"), "metric", "metric-type", "route-map")
	d := &rgos.OspfDefaultInformation{Always: opts.flag("always"), MetricType: 2}
	if v, ok := opts.uint("metric"); ok {
		d.Metric = &v
	}
	if s := opts.value("metric-type"); s != "" {
		if t, ok := metricType(s); ok {
			d.MetricType = t
		} else {
			b.w.RedFlagf("Invalid metric-type %q at line %d", s, n.Line)
		}
	}
	if m := opts.value("route-map"); m != "" {
		d.RouteMap = m
		b.refs.Reference(refs.RouteMap, m, refs.OspfDefaultOriginateRouteMap, n.Line)
	}
	b.reportUnknownOptions(n, opts)
	p.DefaultInformation = d
}

func (b *Builder) ospfAreaStub(n *grammar.Node) {
	a := b.ospfProcess(n).Area(n.Area("area"))
	a.Type = rgos.AreaStub
	a.NoSummary = n.Flag("no-summary")
}

func (b *Builder) ospfAreaNssa(n *grammar.Node) {
	a := b.ospfProcess(n).Area(n.Area("area"))
	opts := parseOptions(n.Str("opts"))
	a.Type = rgos.AreaNSSA
	a.NoSummary = opts.flag("no-summary")
	a.NssaDefaultOriginate = opts.flag("default-information-originate")
	a.NssaNoRedistribution = opts.flag("no-redistribution")
	b.reportUnknownOptions(n, opts)
}

func (b *Builder) ospfAreaRange(n *grammar.Node) {
	a := b.ospfProcess(n).Area(n.Area("area"))
	pfx, err := util.ParseNetworkMask(n.Str("addr"), n.Str("mask"))
	if err != nil {
		b.w.RedFlagf("Invalid area range at line %d: %v", n.Line, err)
		return
	}
	opts := parseOptions(n.Str("opts"), "cost")
	r := &rgos.OspfAreaRange{Prefix: pfx, Advertise: !opts.flag("not-advertise")}
	opts.flag("advertise")
	if v, ok := opts.uint("cost"); ok {
		r.Cost = &v
	}
	b.reportUnknownOptions(n, opts)
	a.Ranges[pfx] = r
}

func (b *Builder) ospfMaxMetric(n *grammar.Node) {
	p := b.ospfProcess(n)
	opts := parseOptions(n.Str("opts"), "on-startup?")
	m := &rgos.OspfMaxMetric{
		IncludeStub: opts.flag("include-stub"),
		SummaryLsa:  opts.flag("summary-lsa"),
		ExternalLsa: opts.flag("external-lsa"),
	}
	if opts.flag("on-startup") {
		secs := 0
		if v, ok := opts.uint("on-startup"); ok {
			secs = int(v)
		}
		m.OnStartup = &secs
	}
	b.reportUnknownOptions(n, opts)
	p.MaxMetric = m
}

// ospfDistributeList records an inbound filter, globally or for one interface.
func (b *Builder) ospfDistributeList(n *grammar.Node) {
	p := b.ospfProcess(n)
	d := &rgos.DistributeList{Name: n.Str("list"), Type: rgos.AccessListFilter, Line: n.Line}
	typ := refs.AccessList
	if n.Flag("prefix") {
		d.Type = rgos.PrefixListFilter
		typ = refs.PrefixList
	}
	b.refs.Reference(typ, d.Name, refs.OspfDistributeListIn, n.Line)
	if !n.Has("iface") {
		p.DistributeListIn = d
		return
	}
	iface := b.referenceInterface(n.Str("iface"), refs.OspfDistributeListIn, n.Line)
	p.InterfaceDistributeListsIn[iface] = d
}

