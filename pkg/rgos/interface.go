package rgos

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
)

// SwitchportMode is the layer-2 mode of a port.
type SwitchportMode string

const (
	SwitchportNone   SwitchportMode = "NONE"
	SwitchportAccess SwitchportMode = "ACCESS"
	SwitchportTrunk  SwitchportMode = "TRUNK"
)

// OspfNetworkType is the per-interface OSPF network type.
type OspfNetworkType string

const (
	OspfPointToPoint      OspfNetworkType = "point-to-point"
	OspfBroadcast         OspfNetworkType = "broadcast"
	OspfNonBroadcast      OspfNetworkType = "non-broadcast"
	OspfPointToMultipoint OspfNetworkType = "point-to-multipoint"
)

// Interface is a physical or logical interface.
type Interface struct {
	Name               string
	Vrf                string
	Description        string
	Mtu                *int
	Active             bool
	Address            netip.Prefix
	SecondaryAddresses []netip.Prefix
	StandbyAddress     netip.Addr
	// BandwidthKbps and SpeedMbps are explicit overrides.
	BandwidthKbps     *uint32
	SpeedMbps         *uint32
	Switchport        bool
	SwitchportMode    SwitchportMode
	AccessVlan        *int
	NativeVlan        *int
	AllowedVlans      []int
	EncapsulationVlan *int
	Ospf              InterfaceOspf
	DeclaredNames     []string
}

// InterfaceOspf carries per-interface OSPF overrides. Nil means unset.
type InterfaceOspf struct {
	Process       *string
	Area          *uint32
	Cost          *int
	HelloInterval *int
	DeadInterval  *int
	NetworkType   OspfNetworkType
	Passive       *bool
	// Line is where the area assignment was written.
	Line int
}

// NewInterface returns an admin-up routed interface in the default VRF.
func NewInterface(name string) *Interface {
	return &Interface{
		Name:           name,
		Vrf:            DefaultVrfName,
		Active:         true,
		SwitchportMode: SwitchportNone,
	}
}

// AddDeclaredName records a spelling that resolved to this interface.
func (i *Interface) AddDeclaredName(n string) {
	idx := sort.SearchStrings(i.DeclaredNames, n)
	if idx < len(i.DeclaredNames) && i.DeclaredNames[idx] == n {
		return
	}
	i.DeclaredNames = append(i.DeclaredNames, "")
	copy(i.DeclaredNames[idx+1:], i.DeclaredNames[idx:])
	i.DeclaredNames[idx] = n
}

// AllAddresses returns the primary address followed by secondaries.
func (i *Interface) AllAddresses() []netip.Prefix {
	var out []netip.Prefix
	if i.Address.IsValid() {
		out = append(out, i.Address)
	}
	return append(out, i.SecondaryAddresses...)
}

// SetOspfPassive records an explicit passive override.
func (i *Interface) SetOspfPassive(v bool) {
	i.Ospf.Passive = ptr(v)
}

// InterfaceType classifies interfaces for defaulting.
type InterfaceType string

const (
	TypePhysical   InterfaceType = "PHYSICAL"
	TypeAggregated InterfaceType = "AGGREGATED"
	TypeLoopback   InterfaceType = "LOOPBACK"
	TypeVlan       InterfaceType = "VLAN"
	TypeTunnel     InterfaceType = "TUNNEL"
	TypeNull       InterfaceType = "NULL"
	TypeManagement InterfaceType = "MANAGEMENT"
	TypeUnknown    InterfaceType = "UNKNOWN"
)

type interfacePrefix struct {
	canonical string
	typ       InterfaceType
}

// Ordered: an abbreviation resolves to the first entry it prefixes.
var interfacePrefixes = []interfacePrefix{
	{"GigabitEthernet", TypePhysical},
	{"TenGigabitEthernet", TypePhysical},
	{"TFGigabitEthernet", TypePhysical},
	{"FortyGigabitEthernet", TypePhysical},
	{"HundredGigabitEthernet", TypePhysical},
	{"FastEthernet", TypePhysical},
	{"AggregatePort", TypeAggregated},
	{"Loopback", TypeLoopback},
	{"VLAN", TypeVlan},
	{"Tunnel", TypeTunnel},
	{"Null", TypeNull},
	{"Mgmt", TypeManagement},
}

// CanonicalInterfacePrefix expands an abbreviated interface type.
func CanonicalInterfacePrefix(prefix string) (string, bool) {
	p := strings.ToLower(prefix)
	if p == "" {
		return "", false
	}
	for _, ip := range interfacePrefixes {
		if strings.HasPrefix(strings.ToLower(ip.canonical), p) {
			return ip.canonical, true
		}
	}
	return "", false
}

// SplitInterfaceName separates the type letters from the port numbering.
// "gi0/1" and "GigabitEthernet 0/1" both yield ("gi"/"GigabitEthernet", "0/1").
func SplitInterfaceName(name string) (string, string) {
	name = strings.TrimSpace(name)
	i := strings.IndexFunc(name, func(r rune) bool {
		return r >= '0' && r <= '9' || r == ' '
	})
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.ReplaceAll(name[i:], " ", "")
}

// CanonicalInterfaceName normalizes an interface reference to the
// "Type slot/port" spelling RGOS prints.
func CanonicalInterfaceName(name string) (string, error) {
	prefix, port := SplitInterfaceName(name)
	canonical, ok := CanonicalInterfacePrefix(prefix)
	if !ok {
		return "", fmt.Errorf("invalid interface name prefix: %q", prefix)
	}
	if port == "" {
		return "", fmt.Errorf("interface name %q has no port number", name)
	}
	return canonical + " " + port, nil
}

// InterfaceTypeOf classifies a canonical interface name.
func InterfaceTypeOf(name string) InterfaceType {
	prefix, _ := SplitInterfaceName(name)
	for _, ip := range interfacePrefixes {
		if strings.EqualFold(ip.canonical, prefix) {
			return ip.typ
		}
	}
	return TypeUnknown
}
