package convert

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/rgosc/pkg/canonical"
)

func ptrFloat(f float64) *float64 { return &f }

func TestConvertInterfaceBasics(t *testing.T) {
	c, _ := convert(t, `interface GigabitEthernet 0/1
 description uplink
 ip address 10.0.0.1 255.255.255.0
 ip address 10.0.1.1 255.255.255.0 secondary
 standby 1 ip 10.0.0.254
 mtu 9000
interface GigabitEthernet 0/2
 ip vrf forwarding blue
 shutdown
`)
	g1 := c.Interfaces["GigabitEthernet 0/1"]
	if g1 == nil {
		t.Fatal("GigabitEthernet 0/1 missing")
	}
	if g1.Type != canonical.InterfacePhysical || g1.Vrf != canonical.DefaultVrfName || !g1.AdminUp {
		t.Errorf("Type, Vrf, AdminUp = %s, %s, %v", g1.Type, g1.Vrf, g1.AdminUp)
	}
	if g1.Description != "uplink" || g1.Mtu != 9000 {
		t.Errorf("Description, Mtu = %q, %d", g1.Description, g1.Mtu)
	}
	if g1.Address == nil || *g1.Address != netip.MustParsePrefix("10.0.0.1/24") {
		t.Errorf("Address = %v, want 10.0.0.1/24", g1.Address)
	}
	wantAll := []netip.Prefix{netip.MustParsePrefix("10.0.0.1/24"), netip.MustParsePrefix("10.0.1.1/24")}
	if diff := cmp.Diff(wantAll, g1.AllAddresses, cmp.Comparer(func(a, b netip.Prefix) bool { return a == b })); diff != "" {
		t.Errorf("AllAddresses mismatch (-want +got):\n%s", diff)
	}
	if g1.StandbyAddress == nil || g1.StandbyAddress.String() != "10.0.0.254" {
		t.Errorf("StandbyAddress = %v", g1.StandbyAddress)
	}

	g2 := c.Interfaces["GigabitEthernet 0/2"]
	if g2.AdminUp || g2.Vrf != "blue" || g2.Mtu != canonical.DefaultMtu {
		t.Errorf("GigabitEthernet 0/2 = %+v", g2)
	}
	if g2.Address != nil || len(g2.AllAddresses) != 0 {
		t.Errorf("unaddressed interface has addresses %v %v", g2.Address, g2.AllAddresses)
	}
	if !c.Vrfs["blue"].HasInterface("GigabitEthernet 0/2") {
		t.Error("GigabitEthernet 0/2 not bound to VRF blue")
	}
}

func TestConvertInterfaceSpeedAndBandwidth(t *testing.T) {
	c, _ := convert(t, `interface GigabitEthernet 0/1
interface GigabitEthernet 0/2
 speed 100
interface GigabitEthernet 0/3
 bandwidth 5000
interface TenGigabitEthernet 0/1
 speed auto
interface Loopback 0
interface Tunnel 1
interface VLAN 10
interface AggregatePort 1
`)
	tests := []struct {
		name      string
		speed     *float64
		bandwidth *float64
	}{
		{"GigabitEthernet 0/1", ptrFloat(1e9), ptrFloat(1e9)},
		{"GigabitEthernet 0/2", ptrFloat(100e6), ptrFloat(100e6)},
		{"GigabitEthernet 0/3", ptrFloat(1e9), ptrFloat(5e6)},
		{"TenGigabitEthernet 0/1", ptrFloat(10e9), ptrFloat(10e9)},
		{"Loopback 0", nil, ptrFloat(8e9)},
		{"Tunnel 1", nil, ptrFloat(1e5)},
		{"VLAN 10", nil, ptrFloat(1e9)},
		{"AggregatePort 1", nil, ptrFloat(1e9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := c.Interfaces[tt.name]
			if i == nil {
				t.Fatalf("%s missing", tt.name)
			}
			if diff := cmp.Diff(tt.speed, i.Speed); diff != "" {
				t.Errorf("Speed mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.bandwidth, i.Bandwidth); diff != "" {
				t.Errorf("Bandwidth mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertVlanInterface(t *testing.T) {
	c, w := convert(t, `interface VLAN 10
 ip address 10.10.0.1 255.255.255.0
interface VLAN 1/2
 ip address 10.12.0.1 255.255.255.0
interface GigabitEthernet 0/2
 encapsulation dot1q 100
 ip address 10.100.0.1 255.255.255.0
`)
	v := c.Interfaces["VLAN 10"]
	if v.Type != canonical.InterfaceVlan || v.Vlan == nil || *v.Vlan != 10 {
		t.Errorf("VLAN 10: Type = %s, Vlan = %v", v.Type, v.Vlan)
	}
	if bad := c.Interfaces["VLAN 1/2"]; bad == nil || bad.Vlan != nil {
		t.Errorf("VLAN 1/2 = %+v, want no vlan id", bad)
	}
	if n := countContaining(w.RedFlags, "Unable assign vlan for interface VLAN 1/2"); n != 1 {
		t.Errorf("vlan red flags = %d, want 1: %v", n, w.RedFlags)
	}
	sub := c.Interfaces["GigabitEthernet 0/2"]
	if sub.EncapsulationVlan == nil || *sub.EncapsulationVlan != 100 {
		t.Errorf("EncapsulationVlan = %v, want 100", sub.EncapsulationVlan)
	}
}

func TestConvertSwitchport(t *testing.T) {
	c, _ := convert(t, `interface GigabitEthernet 0/1
 switchport
interface GigabitEthernet 0/2
 switchport
 switchport mode access
 switchport access vlan 20
interface GigabitEthernet 0/3
 switchport
 switchport mode trunk
interface GigabitEthernet 0/4
 switchport
 switchport mode trunk
 switchport trunk native vlan 99
 switchport trunk allowed vlan only 10,12,20
interface GigabitEthernet 0/5
 switchport
 switchport mode trunk
 switchport trunk allowed vlan none
`)
	intp := func(v int) *int { return &v }
	tests := []struct {
		name    string
		mode    canonical.SwitchportMode
		access  *int
		native  *int
		allowed string
	}{
		{"GigabitEthernet 0/1", canonical.SwitchportAccess, intp(1), nil, ""},
		{"GigabitEthernet 0/2", canonical.SwitchportAccess, intp(20), nil, ""},
		{"GigabitEthernet 0/3", canonical.SwitchportTrunk, nil, intp(1), "1-4094"},
		{"GigabitEthernet 0/4", canonical.SwitchportTrunk, nil, intp(99), "10,12,20"},
		{"GigabitEthernet 0/5", canonical.SwitchportTrunk, nil, intp(1), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := c.Interfaces[tt.name]
			if !i.Switchport || !i.IsSwitched() {
				t.Fatalf("Switchport = false")
			}
			if i.SwitchportMode != tt.mode {
				t.Errorf("SwitchportMode = %s, want %s", i.SwitchportMode, tt.mode)
			}
			if diff := cmp.Diff(tt.access, i.AccessVlan); diff != "" {
				t.Errorf("AccessVlan mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.native, i.NativeVlan); diff != "" {
				t.Errorf("NativeVlan mismatch (-want +got):\n%s", diff)
			}
			if i.AllowedVlans != tt.allowed {
				t.Errorf("AllowedVlans = %q, want %q", i.AllowedVlans, tt.allowed)
			}
		})
	}
}

func TestHighestRouterID(t *testing.T) {
	mk := func(name string, typ canonical.InterfaceType, addr string) *canonical.Interface {
		i := canonical.NewInterface(name, typ)
		p := netip.MustParsePrefix(addr)
		i.Address = &p
		return i
	}
	tests := []struct {
		name  string
		cands []*canonical.Interface
		want  string
		ok    bool
	}{
		{"none", nil, "", false},
		{
			name: "loopback beats higher physical",
			cands: []*canonical.Interface{
				mk("GigabitEthernet 0/1", canonical.InterfacePhysical, "192.168.1.1/24"),
				mk("Loopback 0", canonical.InterfaceLoopback, "1.1.1.1/32"),
				mk("Loopback 1", canonical.InterfaceLoopback, "2.2.2.2/32"),
			},
			want: "2.2.2.2",
			ok:   true,
		},
		{
			name: "highest physical",
			cands: []*canonical.Interface{
				mk("GigabitEthernet 0/1", canonical.InterfacePhysical, "10.0.0.1/24"),
				mk("GigabitEthernet 0/2", canonical.InterfacePhysical, "10.0.0.9/24"),
			},
			want: "10.0.0.9",
			ok:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := highestRouterID(tt.cands)
			if got != tt.want || ok != tt.ok {
				t.Errorf("highestRouterID() = %q, %v, want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
