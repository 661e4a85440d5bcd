package canonical

import (
	"net/netip"
	"strings"
)

// InterfaceType classifies interfaces.
type InterfaceType string

const (
	InterfacePhysical   InterfaceType = "PHYSICAL"
	InterfaceAggregated InterfaceType = "AGGREGATED"
	InterfaceLoopback   InterfaceType = "LOOPBACK"
	InterfaceVlan       InterfaceType = "VLAN"
	InterfaceTunnel     InterfaceType = "TUNNEL"
	InterfaceNull       InterfaceType = "NULL"
	InterfaceManagement InterfaceType = "MANAGEMENT"
	InterfaceUnknown    InterfaceType = "UNKNOWN"
)

// SwitchportMode is the layer-2 mode of a port.
type SwitchportMode string

const (
	SwitchportNone   SwitchportMode = "NONE"
	SwitchportAccess SwitchportMode = "ACCESS"
	SwitchportTrunk  SwitchportMode = "TRUNK"
)

// DefaultMtu applies when no "mtu" is configured.
const DefaultMtu = 1500

// Interface is a converted interface. Speed and Bandwidth are in bits per
// second.
type Interface struct {
	Name        string        `json:"name" yaml:"name"`
	Type        InterfaceType `json:"type" yaml:"type"`
	Vrf         string        `json:"vrf" yaml:"vrf"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	AdminUp     bool          `json:"admin_up" yaml:"admin_up"`
	Mtu         int           `json:"mtu" yaml:"mtu"`
	Speed       *float64      `json:"speed,omitempty" yaml:"speed,omitempty"`
	Bandwidth   *float64      `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty"`

	// L3
	Address           *netip.Prefix  `json:"address,omitempty" yaml:"address,omitempty"`
	AllAddresses      []netip.Prefix `json:"all_addresses,omitempty" yaml:"all_addresses,omitempty"`
	StandbyAddress    *netip.Addr    `json:"standby_address,omitempty" yaml:"standby_address,omitempty"`
	Vlan              *int           `json:"vlan,omitempty" yaml:"vlan,omitempty"`
	EncapsulationVlan *int           `json:"encapsulation_vlan,omitempty" yaml:"encapsulation_vlan,omitempty"`

	// L2
	Switchport     bool           `json:"switchport" yaml:"switchport"`
	SwitchportMode SwitchportMode `json:"switchport_mode" yaml:"switchport_mode"`
	AccessVlan     *int           `json:"access_vlan,omitempty" yaml:"access_vlan,omitempty"`
	NativeVlan     *int           `json:"native_vlan,omitempty" yaml:"native_vlan,omitempty"`
	AllowedVlans   string         `json:"allowed_vlans,omitempty" yaml:"allowed_vlans,omitempty"`

	Ospf          *OspfInterfaceSettings `json:"ospf,omitempty" yaml:"ospf,omitempty"`
	DeclaredNames []string               `json:"declared_names,omitempty" yaml:"declared_names,omitempty"`
}

// NewInterface returns an admin-up interface in the default VRF.
func NewInterface(name string, typ InterfaceType) *Interface {
	return &Interface{
		Name:           name,
		Type:           typ,
		Vrf:            DefaultVrfName,
		AdminUp:        true,
		Mtu:            DefaultMtu,
		SwitchportMode: SwitchportNone,
	}
}

// IsLoopback returns true if this is a loopback interface
func (i *Interface) IsLoopback() bool {
	return i.Type == InterfaceLoopback
}

// HasIPAddress returns true if the interface has a primary address
func (i *Interface) HasIPAddress() bool {
	return i.Address != nil
}

// IsRouted returns true if this is a routed (L3) interface
func (i *Interface) IsRouted() bool {
	return !i.Switchport
}

// IsSwitched returns true if this is a switched (L2) interface
func (i *Interface) IsSwitched() bool {
	return i.Switchport
}

// VlanSuffix returns the text after the "VLAN" type prefix.
func VlanSuffix(name string) string {
	if len(name) < 4 || !strings.EqualFold(name[:4], "vlan") {
		return ""
	}
	return strings.TrimSpace(name[4:])
}

// OspfNetworkType is the per-interface OSPF network type.
type OspfNetworkType string

const (
	OspfPointToPoint      OspfNetworkType = "POINT_TO_POINT"
	OspfBroadcast         OspfNetworkType = "BROADCAST"
	OspfNonBroadcast      OspfNetworkType = "NON_BROADCAST_MULTI_ACCESS"
	OspfPointToMultipoint OspfNetworkType = "POINT_TO_MULTIPOINT"
)

// OspfInterfaceSettings attach an interface to one OSPF process.
type OspfInterfaceSettings struct {
	Process       string          `json:"process" yaml:"process"`
	Area          uint32          `json:"area" yaml:"area"`
	Cost          int             `json:"cost" yaml:"cost"`
	HelloInterval int             `json:"hello_interval" yaml:"hello_interval"`
	DeadInterval  int             `json:"dead_interval" yaml:"dead_interval"`
	NetworkType   OspfNetworkType `json:"network_type" yaml:"network_type"`
	Passive       bool            `json:"passive" yaml:"passive"`
	// InboundDistributeListPolicy names the routing policy filtering routes
	// learned on this interface.
	InboundDistributeListPolicy string `json:"inbound_distribute_list_policy,omitempty" yaml:"inbound_distribute_list_policy,omitempty"`
}
