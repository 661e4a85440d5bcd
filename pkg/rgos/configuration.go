// Package rgos holds the vendor-specific model built from an RGOS
// configuration before it is converted to the canonical form.
package rgos

import (
	"net/netip"
	"sort"
	"strings"
)

// DefaultVrfName is the name of the global routing table.
const DefaultVrfName = "default"

// Configuration is the complete vendor model of one device.
type Configuration struct {
	Hostname          string
	Interfaces        map[string]*Interface
	Vrfs              map[string]*Vrf
	PrefixLists       map[string]*PrefixList
	AccessLists       map[string]*StandardAccessList
	RouteMaps         map[string]*RouteMap
	CommunityLists    map[string]*CommunityList
	AsPathAccessLists map[string]*AsPathAccessList
	Tracks            map[int]*Track
	// Unrecognized is set when any line could not be parsed.
	Unrecognized bool
}

// NewConfiguration returns an empty model with the default VRF in place.
func NewConfiguration() *Configuration {
	c := &Configuration{
		Interfaces:        make(map[string]*Interface),
		Vrfs:              make(map[string]*Vrf),
		PrefixLists:       make(map[string]*PrefixList),
		AccessLists:       make(map[string]*StandardAccessList),
		RouteMaps:         make(map[string]*RouteMap),
		CommunityLists:    make(map[string]*CommunityList),
		AsPathAccessLists: make(map[string]*AsPathAccessList),
		Tracks:            make(map[int]*Track),
	}
	c.Vrfs[DefaultVrfName] = NewVrf(DefaultVrfName)
	return c
}

// Vrf returns the named VRF, creating it on first use.
func (c *Configuration) Vrf(name string) *Vrf {
	if name == "" {
		name = DefaultVrfName
	}
	v, ok := c.Vrfs[name]
	if !ok {
		v = NewVrf(name)
		c.Vrfs[name] = v
	}
	return v
}

// VrfNames returns VRF names sorted, with the default VRF first.
func (c *Configuration) VrfNames() []string {
	names := make([]string, 0, len(c.Vrfs))
	for n := range c.Vrfs {
		if n != DefaultVrfName {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return append([]string{DefaultVrfName}, names...)
}

// InterfaceNames returns interface names sorted.
func (c *Configuration) InterfaceNames() []string {
	names := make([]string, 0, len(c.Interfaces))
	for n := range c.Interfaces {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Vrf is one routing context.
type Vrf struct {
	Name               string
	Description        string
	RouteDistinguisher string
	// Generic holds settings written directly under the VRF; Ipv4Unicast
	// holds those under "address-family ipv4".
	Generic      VrfAddressFamily
	Ipv4Unicast  VrfAddressFamily
	Bgp          *BgpProcess
	Ospf         map[string]*OspfProcess
	StaticRoutes map[netip.Prefix]*StaticRoute
}

// NewVrf returns an empty VRF.
func NewVrf(name string) *Vrf {
	return &Vrf{
		Name:         name,
		Ospf:         make(map[string]*OspfProcess),
		StaticRoutes: make(map[netip.Prefix]*StaticRoute),
	}
}

// AddStaticRoute stores r, replacing any route for the same prefix.
func (v *Vrf) AddStaticRoute(r *StaticRoute) {
	v.StaticRoutes[r.Prefix] = r
}

// OspfNames returns OSPF process names sorted.
func (v *Vrf) OspfNames() []string {
	names := make([]string, 0, len(v.Ospf))
	for n := range v.Ospf {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// VrfAddressFamily carries route targets and VRF import/export maps.
type VrfAddressFamily struct {
	ImportTargets []string
	ExportTargets []string
	ImportMap     string
	ExportMap     string
}

// Inherit fills unset fields of af from parent.
func (af VrfAddressFamily) Inherit(parent VrfAddressFamily) VrfAddressFamily {
	if af.ImportTargets == nil {
		af.ImportTargets = parent.ImportTargets
	}
	if af.ExportTargets == nil {
		af.ExportTargets = parent.ExportTargets
	}
	if af.ImportMap == "" {
		af.ImportMap = parent.ImportMap
	}
	if af.ExportMap == "" {
		af.ExportMap = parent.ExportMap
	}
	return af
}

// LineAction is the verdict of a list line.
type LineAction string

const (
	Permit LineAction = "permit"
	Deny   LineAction = "deny"
)

// ParseLineAction maps "permit"/"deny" onto a LineAction.
func ParseLineAction(s string) LineAction {
	if strings.EqualFold(s, "deny") {
		return Deny
	}
	return Permit
}

// RoutingProtocol names a route source.
type RoutingProtocol string

const (
	ProtocolConnected RoutingProtocol = "connected"
	ProtocolStatic    RoutingProtocol = "static"
	ProtocolOspf      RoutingProtocol = "ospf"
	ProtocolRip       RoutingProtocol = "rip"
	ProtocolIsis      RoutingProtocol = "isis"
	ProtocolBgp       RoutingProtocol = "bgp"
)

func ptr[T any](v T) *T { return &v }
