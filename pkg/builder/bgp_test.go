package builder

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
)

func TestNeighborRemoteAsCreatesPeer(t *testing.T) {
	cfg, tr, _ := build(t, `router bgp 65001
 neighbor 10.0.0.2 remote-as 65002
 neighbor 10.0.0.2 description core
`)
	proc := cfg.Vrfs[rgos.DefaultVrfName].Bgp
	if len(proc.IPPeers) != 1 {
		t.Fatalf("IPPeers = %d, want 1", len(proc.IPPeers))
	}
	g := proc.IPPeers[netip.MustParseAddr("10.0.0.2")]
	if g.RemoteAS == nil || *g.RemoteAS != 65002 || g.Description != "core" {
		t.Errorf("peer = %+v", g.BgpPeerSettings)
	}
	if n := tr.DefinitionCount(refs.BgpNeighbor, "10.0.0.2"); n != 1 {
		t.Errorf("BgpNeighbor definitions = %d, want 1", n)
	}
	if got := tr.ReferencesTo(refs.BgpNeighbor, "10.0.0.2", refs.BgpNeighborWithoutRemoteAs); len(got) != 0 {
		t.Errorf("undeclared references = %v, want none", got)
	}
}

func TestNeighborBeforeRemoteAs(t *testing.T) {
	cfg, tr, _ := build(t, `router bgp 65001
 neighbor 10.0.0.2 description early
 neighbor 10.0.0.2 route-map IN in
`)
	proc := cfg.Vrfs[rgos.DefaultVrfName].Bgp
	if len(proc.IPPeers) != 0 {
		t.Errorf("IPPeers = %d, want 0", len(proc.IPPeers))
	}
	if n := tr.DefinitionCount(refs.BgpNeighbor, "10.0.0.2"); n != 0 {
		t.Errorf("BgpNeighbor definitions = %d, want 0", n)
	}
	if got := tr.ReferencesTo(refs.BgpNeighbor, "10.0.0.2", refs.BgpNeighborWithoutRemoteAs); len(got) != 2 {
		t.Errorf("undeclared references = %d, want 2", len(got))
	}
	if got := tr.ReferencesTo(refs.RouteMap, "IN", refs.BgpNeighborRouteMapIn); len(got) != 1 {
		t.Errorf("route-map references = %d, want 1 even for an undeclared peer", len(got))
	}
}

func TestConflictingAsn(t *testing.T) {
	cfg, _, w := build(t, `router bgp 65001
 neighbor 10.0.0.1 remote-as 1
router bgp 65002
 neighbor 10.0.0.2 remote-as 2
 bgp router-id 9.9.9.9
router bgp 65003
 neighbor 10.0.0.3 remote-as 3
router bgp 65001
 neighbor 10.0.0.4 remote-as 4
`)
	proc := cfg.Vrfs[rgos.DefaultVrfName].Bgp
	if proc.ASN != 65001 {
		t.Errorf("ASN = %d, want 65001", proc.ASN)
	}
	for _, a := range []string{"10.0.0.2", "10.0.0.3"} {
		if _, ok := proc.IPPeers[netip.MustParseAddr(a)]; ok {
			t.Errorf("peer %s from conflicting block was applied", a)
		}
	}
	for _, a := range []string{"10.0.0.1", "10.0.0.4"} {
		if _, ok := proc.IPPeers[netip.MustParseAddr(a)]; !ok {
			t.Errorf("peer %s missing", a)
		}
	}
	if proc.RouterID.IsValid() {
		t.Errorf("RouterID = %v, want unset", proc.RouterID)
	}
	if n := countContaining(w.RedFlags, "Multiple BGP processes with different ASNs in VRF default"); n != 1 {
		t.Errorf("ASN warnings = %d, want 1", n)
	}
}

func TestRouterBgpReopen(t *testing.T) {
	tests := []struct {
		name   string
		second string
	}{
		{"zero asn", "router bgp 0"},
		{"same asn", "router bgp 65001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, w := build(t, "router bgp 65001\n neighbor 10.0.0.1 remote-as 1\n"+
				tt.second+"\n neighbor 10.0.0.2 remote-as 2\n")
			proc := cfg.Vrfs[rgos.DefaultVrfName].Bgp
			if proc.ASN != 65001 {
				t.Errorf("ASN = %d, want 65001", proc.ASN)
			}
			for _, a := range []string{"10.0.0.1", "10.0.0.2"} {
				if _, ok := proc.IPPeers[netip.MustParseAddr(a)]; !ok {
					t.Errorf("peer %s missing", a)
				}
			}
			if len(w.RedFlags) != 0 {
				t.Errorf("RedFlags = %v, want none", w.RedFlags)
			}
		})
	}
}

func TestNeighborAsnValidation(t *testing.T) {
	cfg, _, w := build(t, `router bgp 65001
 neighbor 10.0.0.1 remote-as 0
 neighbor 10.0.0.2 remote-as 65002
 neighbor 10.0.0.2 alternate-as 0 65003
`)
	proc := cfg.Vrfs[rgos.DefaultVrfName].Bgp
	if g := proc.IPPeers[netip.MustParseAddr("10.0.0.1")]; g == nil || g.RemoteAS != nil {
		t.Errorf("10.0.0.1 = %+v, want peer without remote-as", g)
	}
	g := proc.IPPeers[netip.MustParseAddr("10.0.0.2")]
	if g == nil || g.RemoteAS == nil || *g.RemoteAS != 65002 {
		t.Fatalf("10.0.0.2 = %+v, want remote-as 65002", g)
	}
	if diff := cmp.Diff([]uint32{65003}, g.AlternateAS); diff != "" {
		t.Errorf("AlternateAS mismatch (-want +got):\n%s", diff)
	}
	for _, want := range []string{"Invalid remote-as for neighbor 10.0.0.1", "Invalid alternate-as for neighbor 10.0.0.2"} {
		if n := countContaining(w.RedFlags, want); n != 1 {
			t.Errorf("red flags containing %q = %d, want 1: %v", want, n, w.RedFlags)
		}
	}
}

func TestPeerGroupMembership(t *testing.T) {
	cfg, tr, _ := build(t, `router bgp 65001
 neighbor 10.0.0.9 peer-group LATE
 neighbor SPINE peer-group
 neighbor SPINE remote-as 65100
 neighbor SPINE route-map SPINE-IN in
 neighbor 10.0.0.1 peer-group SPINE
 bgp listen range 10.2.0.0/16 peer-group SPINE
`)
	proc := cfg.Vrfs[rgos.DefaultVrfName].Bgp
	leaf := proc.IPPeers[netip.MustParseAddr("10.0.0.1")]
	if leaf == nil || leaf.Group != "SPINE" {
		t.Fatalf("leaf = %+v, want member of SPINE", leaf)
	}
	got := rgos.Resolve(leaf, proc.NamedGroups["SPINE"], proc.Master)
	if got.RemoteAS == nil || *got.RemoteAS != 65100 || got.RouteMapIn != "SPINE-IN" {
		t.Errorf("resolved = %+v", got)
	}
	if dyn := proc.DynamicPeers[netip.MustParsePrefix("10.2.0.0/16")]; dyn == nil || dyn.Group != "SPINE" {
		t.Errorf("dynamic peer = %+v", dyn)
	}
	if got := tr.ReferencesTo(refs.BgpPeerGroup, "LATE", refs.BgpPeerGroupReferencedBeforeDefined); len(got) != 1 {
		t.Errorf("LATE references = %v, want 1", got)
	}
	if _, ok := proc.NamedGroups["LATE"]; !ok {
		t.Error("group referenced for inheritance was not created")
	}
	if n := len(tr.ReferencesTo(refs.BgpPeerGroup, "SPINE", refs.BgpInheritedPeerGroup)); n != 1 {
		t.Errorf("SPINE inheritance references = %d, want 1", n)
	}
}

func TestActivateAndDefaultIpv4Unicast(t *testing.T) {
	cfg, _, _ := build(t, `router bgp 65001
 no bgp default ipv4-unicast
 neighbor PG peer-group
 neighbor 10.0.0.1 remote-as 1
 neighbor 10.0.0.2 remote-as 2
 neighbor 10.0.0.2 peer-group PG
 address-family ipv4
  neighbor 10.0.0.1 activate
  neighbor PG activate
  maximum-paths ibgp 4
 exit-address-family
 maximum-paths 2
 address-family ipv6
  neighbor 10.0.0.1 route-map V6 out
  neighbor 10.0.0.2 activate
 exit-address-family
 neighbor 10.0.0.1 route-map V4 out
`)
	proc := cfg.Vrfs[rgos.DefaultVrfName].Bgp
	if proc.Master.Active == nil || *proc.Master.Active {
		t.Errorf("master Active = %v, want false", proc.Master.Active)
	}
	p1 := proc.IPPeers[netip.MustParseAddr("10.0.0.1")]
	if p1.Active == nil || !*p1.Active {
		t.Errorf("10.0.0.1 Active = %v, want true", p1.Active)
	}
	if p1.RouteMapOut != "V4" {
		t.Errorf("RouteMapOut = %q, want V4 (ipv6 family settings do not leak)", p1.RouteMapOut)
	}
	p2 := proc.IPPeers[netip.MustParseAddr("10.0.0.2")]
	if p2.Active != nil {
		t.Errorf("10.0.0.2 Active = %v, want unset (activated only in ipv6)", *p2.Active)
	}
	pg := proc.NamedGroups["PG"]
	r := rgos.Resolve(p2, pg, proc.Master)
	if r.Active == nil || !*r.Active {
		t.Errorf("resolved 10.0.0.2 Active = %v, want true from group", r.Active)
	}
	if proc.Ipv4MaximumPaths.Ibgp == nil || *proc.Ipv4MaximumPaths.Ibgp != 4 {
		t.Errorf("Ipv4MaximumPaths = %+v", proc.Ipv4MaximumPaths)
	}
	if proc.MaximumPaths.Combined == nil || *proc.MaximumPaths.Combined != 2 {
		t.Errorf("MaximumPaths = %+v, want combined 2 at process level", proc.MaximumPaths)
	}
}

func TestBgpVrfAddressFamily(t *testing.T) {
	cfg, _, _ := build(t, `router bgp 65001
 address-family ipv4 vrf blue
  neighbor 10.1.0.2 remote-as 65003
  network 10.1.0.0 mask 255.255.255.0 route-map NET
  network 172.16.0.0
  redistribute connected route-map CONN
  aggregate-address 10.1.0.0 255.255.0.0 summary-only as-set
 exit-address-family
 neighbor 10.0.0.2 remote-as 65002
`)
	def := cfg.Vrfs[rgos.DefaultVrfName].Bgp
	blue := cfg.Vrfs["blue"].Bgp
	if blue == nil || blue.ASN != 65001 {
		t.Fatalf("blue process = %+v", blue)
	}
	if _, ok := blue.IPPeers[netip.MustParseAddr("10.1.0.2")]; !ok {
		t.Error("vrf peer missing")
	}
	if _, ok := def.IPPeers[netip.MustParseAddr("10.0.0.2")]; !ok {
		t.Error("default peer missing after exit-address-family")
	}
	if len(def.IPPeers) != 1 {
		t.Errorf("default IPPeers = %d, want 1", len(def.IPPeers))
	}
	nw := blue.Networks[netip.MustParsePrefix("10.1.0.0/24")]
	if nw == nil || nw.RouteMap != "NET" {
		t.Errorf("network = %+v", nw)
	}
	if _, ok := blue.Networks[netip.MustParsePrefix("172.16.0.0/16")]; !ok {
		t.Error("classful network missing")
	}
	key := rgos.RedistributionKey{Protocol: rgos.ProtocolConnected}
	if r := blue.Redistribution[key]; r == nil || r.RouteMap != "CONN" {
		t.Errorf("redistribution = %+v", r)
	}
	if len(blue.Aggregates) != 1 || !blue.Aggregates[0].SummaryOnly || !blue.Aggregates[0].AsSet {
		t.Errorf("aggregates = %+v", blue.Aggregates)
	}
}
