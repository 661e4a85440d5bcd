package builder

import (
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

func (b *Builder) hostname(n *grammar.Node) {
	b.cfg.Hostname = util.Unquote(n.Str("name"))
	b.log = util.WithUnit(b.cfg.Hostname).WithField("component", "builder")
}

// ipRoute handles
//
//	ip route [vrf V] NET MASK (GW | IFACE [GW]) [DIST] [tag T] [track N] [name X] [permanent]
//
// A later route for the same prefix replaces the earlier one.
func (b *Builder) ipRoute(n *grammar.Node) {
	pfx, err := util.ParseNetworkMask(n.Str("net"), n.Str("mask"))
	if err != nil {
		b.w.RedFlagf("Invalid static route at line %d: %v", n.Line, err)
		return
	}

	var nh rgos.NextHop
	switch {
	case n.Has("iface"):
		name := b.referenceInterface(n.Str("iface"), refs.IPRouteNextHopInterface, n.Line)
		if rgos.InterfaceTypeOf(name) == rgos.TypeNull {
			nh = rgos.NextHop{Kind: rgos.NextHopDiscard}
			break
		}
		nh = rgos.NextHop{Kind: rgos.NextHopInterface, Interface: name}
		if n.Has("gw") {
			nh.Gateway = n.Addr("gw")
		}
	default:
		nh = rgos.NextHop{Kind: rgos.NextHopGateway, Gateway: n.Addr("gw")}
	}

	r := rgos.NewStaticRoute(pfx, nh)
	r.Line = n.Line
	if n.Has("distance") {
		r.Distance = n.Int("distance")
	}
	if n.Has("tag") {
		t := n.Uint("tag")
		r.Tag = &t
	}
	if n.Has("track") {
		id := n.Int("track")
		r.Track = &id
		b.refs.Reference(refs.Track, strconv.Itoa(id), refs.IPRouteTrack, n.Line)
	}
	r.Name = util.Unquote(n.Str("rname"))
	r.Permanent = n.Flag("permanent")

	vrf := rgos.DefaultVrfName
	if v := n.Str("vrf"); v != "" {
		vrf = v
	}
	b.cfg.Vrf(vrf).AddStaticRoute(r)
}

func (b *Builder) ipv6Route(n *grammar.Node) {
	b.w.Unimplementedf("IPv6 static route at line %d", n.Line)
}

func (b *Builder) trackInterface(n *grammar.Node) {
	id := n.Int("id")
	iface := b.referenceInterface(n.Str("iface"), refs.TrackInterface, n.Line)
	b.cfg.Tracks[id] = &rgos.Track{ID: id, Interface: iface, Line: n.Line}
	b.refs.Define(refs.Track, strconv.Itoa(id), n.Line)
}

// ============================================================================
// VRF definitions
// ============================================================================

func (b *Builder) enterVrf(n *grammar.Node) scope {
	s := *b.scope()
	name := n.Str("name")
	v := b.cfg.Vrf(name)
	b.refs.Define(refs.Vrf, name, n.Line)
	s.vrf = name
	s.vrfAF = &v.Generic
	return s
}

func (b *Builder) enterVrfAddressFamily(n *grammar.Node) scope {
	s := *b.scope()
	s.vrfAF = &b.currentVrf(n).Ipv4Unicast
	return s
}

func (b *Builder) currentVrf(n *grammar.Node) *rgos.Vrf {
	s := b.scope()
	if s.vrfAF == nil {
		util.Invariantf("builder", "%s outside vrf definition at line %d", n.Rule, n.Line)
	}
	return b.cfg.Vrf(s.vrf)
}

func (b *Builder) vrfRd(n *grammar.Node) {
	b.currentVrf(n).RouteDistinguisher = n.Str("rd")
}

func (b *Builder) vrfDescription(n *grammar.Node) {
	b.currentVrf(n).Description = util.Unquote(n.Str("text"))
}

func (b *Builder) vrfRouteTarget(n *grammar.Node) {
	b.currentVrf(n)
	af := b.scope().vrfAF
	rt := n.Str("rt")
	switch strings.ToLower(n.Str("dir")) {
	case "import":
		af.ImportTargets = appendUnique(af.ImportTargets, rt)
	case "export":
		af.ExportTargets = appendUnique(af.ExportTargets, rt)
	default:
		af.ImportTargets = appendUnique(af.ImportTargets, rt)
		af.ExportTargets = appendUnique(af.ExportTargets, rt)
	}
}

func (b *Builder) vrfImportMap(n *grammar.Node) {
	b.currentVrf(n)
	m := n.Str("map")
	b.scope().vrfAF.ImportMap = m
	b.refs.Reference(refs.RouteMap, m, refs.VrfImportMap, n.Line)
}

func (b *Builder) vrfExportMap(n *grammar.Node) {
	b.currentVrf(n)
	m := n.Str("map")
	b.scope().vrfAF.ExportMap = m
	b.refs.Reference(refs.RouteMap, m, refs.VrfExportMap, n.Line)
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
