package convert

import (
	"math"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/rgos"
)

// NormalVlanRange is the VLAN id space RGOS treats as normal.
const NormalVlanRange = "2-4096"

// Switchport defaults.
const (
	defaultAccessVlan   = 1
	defaultNativeVlan   = 1
	defaultAllowedVlans = "1-4094"
)

// OSPF defaults.
const (
	defaultOspfMetric      = 20
	defaultOspfCost        = 1
	deadIntervalMultiplier = 4
)

// defaultSpeedMbps maps an interface type prefix onto its nominal speed.
var defaultSpeedMbps = map[string]float64{
	"FastEthernet":           100,
	"GigabitEthernet":        1000,
	"TenGigabitEthernet":     10000,
	"TFGigabitEthernet":      25000,
	"FortyGigabitEthernet":   40000,
	"HundredGigabitEthernet": 100000,
	"Mgmt":                   1000,
}

// defaultBandwidthBps applies to interfaces without a speed.
var defaultBandwidthBps = map[rgos.InterfaceType]float64{
	rgos.TypeLoopback:   8e9,
	rgos.TypeTunnel:     1e5,
	rgos.TypeVlan:       1e9,
	rgos.TypeAggregated: 1e9,
}

// DefaultSpeed returns the speed in bits per second implied by name, or nil.
func DefaultSpeed(name string) *float64 {
	prefix, _ := rgos.SplitInterfaceName(name)
	if mbps, ok := defaultSpeedMbps[prefix]; ok {
		bps := mbps * 1e6
		return &bps
	}
	return nil
}

// DefaultBandwidth returns the bandwidth in bits per second used when neither
// an explicit bandwidth nor a speed is known, or nil.
func DefaultBandwidth(name string) *float64 {
	if bw, ok := defaultBandwidthBps[rgos.InterfaceTypeOf(name)]; ok {
		return &bw
	}
	return nil
}

// interfaceType maps the vendor classification onto the canonical one.
func interfaceType(name string) canonical.InterfaceType {
	switch rgos.InterfaceTypeOf(name) {
	case rgos.TypePhysical:
		return canonical.InterfacePhysical
	case rgos.TypeAggregated:
		return canonical.InterfaceAggregated
	case rgos.TypeLoopback:
		return canonical.InterfaceLoopback
	case rgos.TypeVlan:
		return canonical.InterfaceVlan
	case rgos.TypeTunnel:
		return canonical.InterfaceTunnel
	case rgos.TypeNull:
		return canonical.InterfaceNull
	case rgos.TypeManagement:
		return canonical.InterfaceManagement
	}
	return canonical.InterfaceUnknown
}

// DefaultHelloInterval is 10 seconds on point-to-point and broadcast
// networks and 30 elsewhere.
func DefaultHelloInterval(t canonical.OspfNetworkType) int {
	switch t {
	case canonical.OspfPointToPoint, canonical.OspfBroadcast:
		return 10
	}
	return 30
}

// DefaultDeadInterval is four hello intervals.
func DefaultDeadInterval(hello int) int {
	return deadIntervalMultiplier * hello
}

// OspfCost derives the interface cost from the reference bandwidth. Both
// arguments are in bits per second; an unknown bandwidth costs 1.
func OspfCost(referenceBps float64, bandwidth *float64) int {
	if bandwidth == nil || *bandwidth <= 0 {
		return defaultOspfCost
	}
	cost := int(math.Floor(referenceBps / *bandwidth))
	if cost < defaultOspfCost {
		return defaultOspfCost
	}
	return cost
}

func ospfNetworkType(t rgos.OspfNetworkType) canonical.OspfNetworkType {
	switch t {
	case rgos.OspfPointToPoint:
		return canonical.OspfPointToPoint
	case rgos.OspfNonBroadcast:
		return canonical.OspfNonBroadcast
	case rgos.OspfPointToMultipoint:
		return canonical.OspfPointToMultipoint
	}
	return canonical.OspfBroadcast
}
