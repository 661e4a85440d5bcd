package convert

import (
	"strconv"

	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

func (cv *converter) convertInterfaces() {
	for _, name := range cv.vc.InterfaceNames() {
		cv.c.AddInterface(cv.convertInterface(cv.vc.Interfaces[name]))
	}
}

func (cv *converter) convertInterface(i *rgos.Interface) *canonical.Interface {
	ni := canonical.NewInterface(i.Name, interfaceType(i.Name))
	ni.Vrf = i.Vrf
	if ni.Vrf == "" {
		ni.Vrf = canonical.DefaultVrfName
	}
	ni.Description = i.Description
	ni.AdminUp = i.Active
	if i.Mtu != nil {
		ni.Mtu = *i.Mtu
	}
	ni.DeclaredNames = append([]string(nil), i.DeclaredNames...)

	if i.SpeedMbps != nil {
		bps := float64(*i.SpeedMbps) * 1e6
		ni.Speed = &bps
	} else {
		ni.Speed = DefaultSpeed(i.Name)
	}
	switch {
	case i.BandwidthKbps != nil:
		bps := float64(*i.BandwidthKbps) * 1e3
		ni.Bandwidth = &bps
	case ni.Speed != nil:
		bps := *ni.Speed
		ni.Bandwidth = &bps
	default:
		ni.Bandwidth = DefaultBandwidth(i.Name)
	}

	ni.Switchport = i.Switchport
	if i.Switchport {
		cv.convertSwitchport(i, ni)
		return ni
	}

	ni.SwitchportMode = canonical.SwitchportNone
	if ni.Type == canonical.InterfaceVlan {
		vlan, err := strconv.Atoi(canonical.VlanSuffix(i.Name))
		if err != nil {
			cv.w.RedFlagf("Unable assign vlan for interface %s", i.Name)
		} else {
			ni.Vlan = &vlan
		}
	}
	if i.Address.IsValid() {
		addr := i.Address
		ni.Address = &addr
	}
	ni.AllAddresses = i.AllAddresses()
	if i.StandbyAddress.IsValid() {
		sa := i.StandbyAddress
		ni.StandbyAddress = &sa
	}
	ni.EncapsulationVlan = i.EncapsulationVlan
	return ni
}

func (cv *converter) convertSwitchport(i *rgos.Interface, ni *canonical.Interface) {
	switch i.SwitchportMode {
	case rgos.SwitchportAccess:
		ni.SwitchportMode = canonical.SwitchportAccess
		vlan := defaultAccessVlan
		if i.AccessVlan != nil {
			vlan = *i.AccessVlan
		}
		ni.AccessVlan = &vlan
	case rgos.SwitchportTrunk:
		ni.SwitchportMode = canonical.SwitchportTrunk
		ni.AllowedVlans = defaultAllowedVlans
		if i.AllowedVlans != nil {
			ni.AllowedVlans = util.CompactRange(i.AllowedVlans)
		}
		native := defaultNativeVlan
		if i.NativeVlan != nil {
			native = *i.NativeVlan
		}
		ni.NativeVlan = &native
	default:
		ni.SwitchportMode = canonical.SwitchportNone
	}
}

// addressedInterfaces returns the admin-up interfaces with a primary
// address that keep accepts, in name order.
func (cv *converter) addressedInterfaces(keep func(*canonical.Interface) bool) []*canonical.Interface {
	var out []*canonical.Interface
	for _, name := range cv.c.InterfaceNames() {
		i := cv.c.Interfaces[name]
		if i.AdminUp && i.Address != nil && keep(i) {
			out = append(out, i)
		}
	}
	return out
}

// highestRouterID picks a router-id: the highest loopback address among
// candidates, else the highest address of any candidate.
func highestRouterID(cands []*canonical.Interface) (string, bool) {
	pick := func(loopbackOnly bool) (string, bool) {
		var best *canonical.Interface
		for _, i := range cands {
			if loopbackOnly && !i.IsLoopback() {
				continue
			}
			if best == nil || best.Address.Addr().Less(i.Address.Addr()) {
				best = i
			}
		}
		if best == nil {
			return "", false
		}
		return best.Address.Addr().String(), true
	}
	if id, ok := pick(true); ok {
		return id, true
	}
	return pick(false)
}
