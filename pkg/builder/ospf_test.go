package builder

import (
	"net/netip"
	"testing"

	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
)

func TestOspfProcess(t *testing.T) {
	cfg, tr, w := build(t, `interface GigabitEthernet 0/1
 ip address 10.0.0.1 255.255.255.0
router ospf 1
 router-id 1.1.1.1
 network 10.0.0.0 0.0.0.255 area 0
 network 10.0.0.0 0.0.0.255 area 0
 network 172.16.0.0 0.0.255.255 area 0.0.0.5
 passive-interface default
 no passive-interface GigabitEthernet 0/1
 auto-cost reference-bandwidth 10000
 redistribute static subnets metric 20 metric-type 1 tag 7 route-map STATIC
 redistribute connected metric-type 3
 default-information originate always metric 5
 area 5 nssa no-summary default-information-originate
 area 5 range 172.16.0.0 255.255.0.0 not-advertise
 area 7 stub no-summary
 max-metric router-lsa on-startup include-stub
 distribute-list prefix BLOCK in
 distribute-list 10 in GigabitEthernet 0/1
router ospf 2 vrf blue
 network 192.168.0.0 0.0.255.255 area 1
`)
	p := cfg.Vrfs[rgos.DefaultVrfName].Ospf["1"]
	if p == nil {
		t.Fatal("process 1 missing")
	}
	if p.RouterID != netip.MustParseAddr("1.1.1.1") || p.ReferenceBandwidth != 10000 {
		t.Errorf("process = router-id %v bw %d", p.RouterID, p.ReferenceBandwidth)
	}
	if len(p.Networks) != 2 {
		t.Errorf("networks = %d, want 2 after dedup", len(p.Networks))
	}
	if a, ok := p.AreaFor(netip.MustParseAddr("172.16.3.4")); !ok || a != 5 {
		t.Errorf("AreaFor(172.16.3.4) = %d, %v, want 5", a, ok)
	}
	if p.IsPassive("GigabitEthernet 0/1") {
		t.Error("GigabitEthernet 0/1 passive, want active")
	}
	if !p.IsPassive("GigabitEthernet 0/2") {
		t.Error("GigabitEthernet 0/2 not passive under passive default")
	}

	st := p.Redistribution[rgos.RedistributionKey{Protocol: rgos.ProtocolStatic}]
	if st == nil || !st.Subnets || st.MetricType != 1 || *st.Metric != 20 || *st.Tag != 7 || st.RouteMap != "STATIC" {
		t.Errorf("static redistribution = %+v", st)
	}
	conn := p.Redistribution[rgos.RedistributionKey{Protocol: rgos.ProtocolConnected}]
	if conn == nil || conn.MetricType != 2 {
		t.Errorf("connected redistribution = %+v, want default metric-type", conn)
	}
	if n := countContaining(w.RedFlags, `Invalid metric-type "3"`); n != 1 {
		t.Errorf("metric-type warnings = %d, want 1", n)
	}
	if d := p.DefaultInformation; d == nil || !d.Always || *d.Metric != 5 {
		t.Errorf("default-information = %+v", d)
	}

	a5 := p.Areas[5]
	if a5.Type != rgos.AreaNSSA || !a5.NoSummary || !a5.NssaDefaultOriginate {
		t.Errorf("area 5 = %+v", a5)
	}
	if r := a5.Ranges[netip.MustParsePrefix("172.16.0.0/16")]; r == nil || r.Advertise {
		t.Errorf("area 5 range = %+v, want not-advertise", r)
	}
	if a7 := p.Areas[7]; a7.Type != rgos.AreaStub || !a7.NoSummary {
		t.Errorf("area 7 = %+v", a7)
	}
	if m := p.MaxMetric; m == nil || m.OnStartup == nil || !m.IncludeStub {
		t.Errorf("max-metric = %+v", m)
	}
	if d := p.DistributeListIn; d == nil || d.Type != rgos.PrefixListFilter || d.Name != "BLOCK" {
		t.Errorf("global distribute-list = %+v", d)
	}
	if d := p.InterfaceDistributeListsIn["GigabitEthernet 0/1"]; d == nil || d.Type != rgos.AccessListFilter {
		t.Errorf("interface distribute-list = %+v", d)
	}
	if got := tr.ReferencesTo(refs.PrefixList, "BLOCK", refs.OspfDistributeListIn); len(got) != 1 {
		t.Errorf("BLOCK references = %d, want 1", len(got))
	}

	blue := cfg.Vrfs["blue"]
	if blue == nil || blue.Ospf["2"] == nil || blue.Ospf["2"].Vrf != "blue" {
		t.Fatalf("vrf process missing: %+v", blue)
	}
	if got := tr.ReferencesTo(refs.Vrf, "blue", refs.OspfProcessVrf); len(got) != 1 {
		t.Errorf("vrf references = %d, want 1", len(got))
	}
}

func TestInterfaceOspfSettings(t *testing.T) {
	cfg, _, _ := build(t, `interface GigabitEthernet 0/3
 ip address 10.9.0.1 255.255.255.252
 ip ospf 1 area 0.0.0.9
 ip ospf cost 40
 ip ospf network point-to-point
 ip ospf passive
`)
	o := cfg.Interfaces["GigabitEthernet 0/3"].Ospf
	if o.Process == nil || *o.Process != "1" || o.Area == nil || *o.Area != 9 {
		t.Errorf("ospf process/area = %v/%v", o.Process, o.Area)
	}
	if o.Cost == nil || *o.Cost != 40 || o.NetworkType != rgos.OspfPointToPoint {
		t.Errorf("ospf = %+v", o)
	}
	if o.Passive == nil || !*o.Passive {
		t.Errorf("Passive = %v, want true", o.Passive)
	}
}
