// Package canonical defines the vendor-independent configuration produced by
// the converter, including the routing-policy language and its evaluator.
package canonical

import "sort"

// FormatRGOS is the configuration format of every converted device.
const FormatRGOS = "RGOS"

// DefaultVrfName is the name of the global routing table.
const DefaultVrfName = "default"

// Configuration is one converted device.
type Configuration struct {
	Hostname          string
	Format            string
	NormalVlanRange   string
	Interfaces        map[string]*Interface
	Vrfs              map[string]*Vrf
	RoutingPolicies   map[string]*RoutingPolicy
	RouteFilterLists  map[string]*RouteFilterList
	AsPathAccessLists map[string]*AsPathAccessList
	CommunitySetAcls  map[string]*CommunitySetAcl
	Tracks            map[int]*Track
}

// NewConfiguration returns an empty configuration with the default VRF.
func NewConfiguration(hostname string) *Configuration {
	c := &Configuration{
		Hostname:          hostname,
		Format:            FormatRGOS,
		Interfaces:        make(map[string]*Interface),
		Vrfs:              make(map[string]*Vrf),
		RoutingPolicies:   make(map[string]*RoutingPolicy),
		RouteFilterLists:  make(map[string]*RouteFilterList),
		AsPathAccessLists: make(map[string]*AsPathAccessList),
		CommunitySetAcls:  make(map[string]*CommunitySetAcl),
		Tracks:            make(map[int]*Track),
	}
	c.Vrf(DefaultVrfName)
	return c
}

// Vrf returns the named VRF, creating it if needed.
func (c *Configuration) Vrf(name string) *Vrf {
	v, ok := c.Vrfs[name]
	if !ok {
		v = NewVrf(name)
		c.Vrfs[name] = v
	}
	return v
}

// DefaultVrf returns the global routing table.
func (c *Configuration) DefaultVrf() *Vrf {
	return c.Vrf(DefaultVrfName)
}

// AddInterface stores i and binds it to its VRF.
func (c *Configuration) AddInterface(i *Interface) {
	c.Interfaces[i.Name] = i
	c.Vrf(i.Vrf).AddInterface(i.Name)
}

// AddRoutingPolicy stores p, replacing a policy with the same name.
func (c *Configuration) AddRoutingPolicy(p *RoutingPolicy) {
	c.RoutingPolicies[p.Name] = p
}

// AddRouteFilterList stores l.
func (c *Configuration) AddRouteFilterList(l *RouteFilterList) {
	c.RouteFilterLists[l.Name] = l
}

// AddAsPathAccessList stores l.
func (c *Configuration) AddAsPathAccessList(l *AsPathAccessList) {
	c.AsPathAccessLists[l.Name] = l
}

// AddCommunitySetAcl stores a.
func (c *Configuration) AddCommunitySetAcl(a *CommunitySetAcl) {
	c.CommunitySetAcls[a.Name] = a
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

// VrfNames returns VRF names sorted.
func (c *Configuration) VrfNames() []string {
	names := make([]string, 0, len(c.Vrfs))
	for n := range c.Vrfs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PolicyNames returns routing-policy names sorted.
func (c *Configuration) PolicyNames() []string {
	names := make([]string, 0, len(c.RoutingPolicies))
	for n := range c.RoutingPolicies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Track follows the line protocol of an interface.
type Track struct {
	ID        int    `json:"id" yaml:"id"`
	Interface string `json:"interface" yaml:"interface"`
}
