package canonical

import (
	"net/netip"
	"sort"
)

// ResolutionPolicyName is the policy deciding which routes may resolve next
// hops. The default route may not.
const ResolutionPolicyName = "~RESOLUTION_POLICY~"

// Vrf represents a Virtual Routing and Forwarding instance
type Vrf struct {
	Name               string   `json:"name" yaml:"name"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	RouteDistinguisher string   `json:"rd,omitempty" yaml:"rd,omitempty"`
	ImportTargets      []string `json:"import_rt,omitempty" yaml:"import_rt,omitempty"`
	ExportTargets      []string `json:"export_rt,omitempty" yaml:"export_rt,omitempty"`
	ImportPolicy       string   `json:"import_policy,omitempty" yaml:"import_policy,omitempty"`
	ExportPolicy       string   `json:"export_policy,omitempty" yaml:"export_policy,omitempty"`
	ResolutionPolicy   string   `json:"resolution_policy,omitempty" yaml:"resolution_policy,omitempty"`

	// Interfaces bound to this VRF
	Interfaces []string `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`

	StaticRoutes    []*StaticRoute          `json:"static_routes,omitempty" yaml:"static_routes,omitempty"`
	GeneratedRoutes []*GeneratedRoute       `json:"generated_routes,omitempty" yaml:"generated_routes,omitempty"`
	Bgp             *BgpProcess             `json:"bgp,omitempty" yaml:"bgp,omitempty"`
	Ospf            map[string]*OspfProcess `json:"ospf,omitempty" yaml:"ospf,omitempty"`
}

// NewVrf returns an empty VRF.
func NewVrf(name string) *Vrf {
	return &Vrf{Name: name, Ospf: make(map[string]*OspfProcess)}
}

// AddInterface adds an interface to the VRF
func (v *Vrf) AddInterface(iface string) {
	for _, i := range v.Interfaces {
		if i == iface {
			return
		}
	}
	v.Interfaces = append(v.Interfaces, iface)
	sort.Strings(v.Interfaces)
}

// HasInterface returns true if the interface is in this VRF
func (v *Vrf) HasInterface(iface string) bool {
	for _, i := range v.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

// NextHopKind distinguishes static-route next hops.
type NextHopKind string

const (
	NextHopDiscard   NextHopKind = "discard"
	NextHopIP        NextHopKind = "ip"
	NextHopInterface NextHopKind = "interface"
)

// NextHop is where a static route forwards.
type NextHop struct {
	Kind      NextHopKind `json:"kind" yaml:"kind"`
	IP        *netip.Addr `json:"ip,omitempty" yaml:"ip,omitempty"`
	Interface string      `json:"interface,omitempty" yaml:"interface,omitempty"`
}

// StaticRoute is a converted "ip route".
type StaticRoute struct {
	Network       netip.Prefix `json:"network" yaml:"network"`
	NextHop       NextHop      `json:"next_hop" yaml:"next_hop"`
	AdminDistance int          `json:"admin_distance" yaml:"admin_distance"`
	Metric        int          `json:"metric" yaml:"metric"`
	Tag           *uint32      `json:"tag,omitempty" yaml:"tag,omitempty"`
	Track         *int         `json:"track,omitempty" yaml:"track,omitempty"`
	Name          string       `json:"name,omitempty" yaml:"name,omitempty"`
}

// GeneratedRoute is installed when its generation policy accepts some
// contributing route. A nil policy means always.
type GeneratedRoute struct {
	Network          netip.Prefix `json:"network" yaml:"network"`
	Discard          bool         `json:"discard" yaml:"discard"`
	AsSet            bool         `json:"as_set,omitempty" yaml:"as_set,omitempty"`
	SummaryOnly      bool         `json:"summary_only,omitempty" yaml:"summary_only,omitempty"`
	GenerationPolicy string       `json:"generation_policy,omitempty" yaml:"generation_policy,omitempty"`
	AttributePolicy  string       `json:"attribute_policy,omitempty" yaml:"attribute_policy,omitempty"`
}
