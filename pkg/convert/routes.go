package convert

import (
	"net/netip"
	"sort"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/rgos"
)

func sortPrefixes(ps []netip.Prefix) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Addr() != ps[j].Addr() {
			return ps[i].Addr().Less(ps[j].Addr())
		}
		return ps[i].Bits() < ps[j].Bits()
	})
}

// convertStaticRoutes copies the static routes of one VRF in prefix order.
// A route tracking an undefined object keeps its next hop but loses the
// track.
func (cv *converter) convertStaticRoutes(vrf string) {
	v := cv.vc.Vrfs[vrf]
	prefixes := make([]netip.Prefix, 0, len(v.StaticRoutes))
	for p := range v.StaticRoutes {
		prefixes = append(prefixes, p)
	}
	sortPrefixes(prefixes)

	nv := cv.c.Vrf(vrf)
	for _, p := range prefixes {
		r := v.StaticRoutes[p]
		sr := &canonical.StaticRoute{
			Network:       r.Prefix,
			NextHop:       nextHop(r.NextHop),
			AdminDistance: r.Distance,
			Tag:           r.Tag,
			Name:          r.Name,
		}
		if r.Track != nil {
			if _, ok := cv.vc.Tracks[*r.Track]; ok {
				id := *r.Track
				sr.Track = &id
			} else {
				cv.w.RedFlagf("Static route %s in VRF %s references undefined track %d", r.Prefix, vrf, *r.Track)
			}
		}
		nv.StaticRoutes = append(nv.StaticRoutes, sr)
	}
}

func nextHop(n rgos.NextHop) canonical.NextHop {
	switch n.Kind {
	case rgos.NextHopDiscard:
		return canonical.NextHop{Kind: canonical.NextHopDiscard}
	case rgos.NextHopGateway:
		gw := n.Gateway
		return canonical.NextHop{Kind: canonical.NextHopIP, IP: &gw}
	}
	nh := canonical.NextHop{Kind: canonical.NextHopInterface, Interface: n.Interface}
	if n.Gateway.IsValid() {
		gw := n.Gateway
		nh.IP = &gw
	}
	return nh
}
