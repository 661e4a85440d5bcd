// Package convert lowers the RGOS vendor model into the canonical
// configuration.
//
// Conversion runs in fixed passes: lists and route-maps, VRFs and tracks,
// interfaces, static routes, then OSPF and BGP for each VRF. Later passes
// read what earlier ones produced, so the order matters. Problems in the
// input are reported through the warnings collection; a violated internal
// invariant fails the whole conversion.
package convert

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
	"github.com/newtron-network/rgosc/pkg/warnings"
)

type converter struct {
	vc  *rgos.Configuration
	c   *canonical.Configuration
	w   *warnings.Warnings
	log *logrus.Entry
}

// Convert builds the canonical configuration for vc. Warnings are appended
// to w. The returned error is non-nil only for an internal invariant
// violation.
func Convert(vc *rgos.Configuration, w *warnings.Warnings) (c *canonical.Configuration, err error) {
	defer util.RecoverInvariant(&err)

	cv := &converter{
		vc:  vc,
		c:   canonical.NewConfiguration(vc.Hostname),
		w:   w,
		log: util.WithUnit(vc.Hostname),
	}
	cv.c.NormalVlanRange = NormalVlanRange

	cv.convertLists()
	cv.convertRouteMaps()
	cv.convertVrfs()
	cv.convertTracks()
	cv.convertInterfaces()
	for _, name := range vc.VrfNames() {
		cv.convertStaticRoutes(name)
	}
	for _, name := range vc.VrfNames() {
		cv.convertOspf(name)
	}
	for _, name := range vc.VrfNames() {
		cv.convertBgp(name)
	}

	cv.log.Debugf("converted %d interfaces, %d vrfs, %d routing policies",
		len(cv.c.Interfaces), len(cv.c.Vrfs), len(cv.c.RoutingPolicies))
	return cv.c, nil
}

// convertVrfs creates every canonical VRF with its route targets. The ipv4
// unicast family inherits unset fields from the generic one.
func (cv *converter) convertVrfs() {
	cv.c.AddRoutingPolicy(canonical.NewRoutingPolicy(canonical.ResolutionPolicyName,
		&canonical.If{
			Guard: canonical.MatchDefaultRoute{},
			True:  []canonical.Statement{canonical.ReturnFalse},
			False: []canonical.Statement{canonical.ReturnTrue},
		}))

	for _, name := range cv.vc.VrfNames() {
		v := cv.vc.Vrfs[name]
		nv := cv.c.Vrf(name)
		nv.Description = v.Description
		nv.RouteDistinguisher = v.RouteDistinguisher
		nv.ResolutionPolicy = canonical.ResolutionPolicyName

		af := v.Ipv4Unicast.Inherit(v.Generic)
		nv.ImportTargets = af.ImportTargets
		nv.ExportTargets = af.ExportTargets
		nv.ImportPolicy = cv.vrfMapPolicy(name, "import", af.ImportMap)
		nv.ExportPolicy = cv.vrfMapPolicy(name, "export", af.ExportMap)
	}
}

func (cv *converter) vrfMapPolicy(vrf, dir, routeMap string) string {
	if routeMap == "" {
		return ""
	}
	if _, ok := cv.c.RoutingPolicies[routeMap]; !ok {
		cv.w.RedFlagf("VRF %s %s map %s is not defined", vrf, dir, routeMap)
		return cv.undefinedRouteMapPolicy()
	}
	return routeMap
}

func (cv *converter) convertTracks() {
	ids := make([]int, 0, len(cv.vc.Tracks))
	for id := range cv.vc.Tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t := cv.vc.Tracks[id]
		cv.c.Tracks[id] = &canonical.Track{ID: id, Interface: t.Interface}
	}
}
