package refs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefineKeepsEveryDefinition(t *testing.T) {
	tr := NewTracker()
	tr.Define(Interface, "GigabitEthernet 0/1", 3)
	tr.Define(Interface, "GigabitEthernet 0/1", 9)

	if got := tr.DefinitionCount(Interface, "GigabitEthernet 0/1"); got != 2 {
		t.Errorf("DefinitionCount() = %d, want 2", got)
	}
	if got := len(tr.Definitions()); got != 2 {
		t.Errorf("len(Definitions()) = %d, want 2", got)
	}
}

func TestUndefined(t *testing.T) {
	tr := NewTracker()
	tr.Define(RouteMap, "RM-IN", 20)
	tr.Define(CommunityListExpanded, "CL", 30)
	tr.Reference(RouteMap, "RM-IN", BgpNeighborRouteMapIn, 5)
	tr.Reference(RouteMap, "RM-OUT", BgpNeighborRouteMapOut, 6)
	tr.Reference(CommunityList, "CL", RouteMapMatchCommunityList, 40)
	tr.Reference(Interface, "Loopback 0", InterfaceSelfRef, 1)

	want := []Reference{{Type: RouteMap, Name: "RM-OUT", Usage: BgpNeighborRouteMapOut, Line: 6}}
	if diff := cmp.Diff(want, tr.Undefined()); diff != "" {
		t.Errorf("Undefined() mismatch (-want +got):\n%s", diff)
	}
	if !tr.IsDefined(CommunityList, "CL") {
		t.Error("expanded community-list should satisfy a community-list reference")
	}
}

func TestForwardReferences(t *testing.T) {
	tr := NewTracker()
	tr.Reference(BgpPeerGroup, "PG", BgpPeerGroupReferencedBeforeDefined, 4)
	tr.Define(BgpPeerGroup, "PG", 7)
	tr.Reference(BgpPeerGroup, "PG", BgpInheritedPeerGroup, 8)

	got := tr.ForwardReferences()
	if len(got) != 1 || got[0].Line != 4 {
		t.Errorf("ForwardReferences() = %+v, want one reference at line 4", got)
	}
}

func TestUnused(t *testing.T) {
	tr := NewTracker()
	tr.Define(RouteMap, "USED", 1)
	tr.Define(RouteMap, "UNUSED", 2)
	tr.Define(RouteMap, "UNUSED", 3)
	tr.Define(Interface, "GigabitEthernet 0/1", 4)
	tr.Define(BgpPeerGroup, "PG", 5)
	tr.Reference(BgpPeerGroup, "PG", BgpPeerGroupSelfRef, 5)
	tr.Reference(RouteMap, "USED", BgpNetworkRouteMap, 10)

	want := []Definition{
		{Type: RouteMap, Name: "UNUSED", Line: 2},
		{Type: BgpPeerGroup, Name: "PG", Line: 5},
	}
	if diff := cmp.Diff(want, tr.Unused()); diff != "" {
		t.Errorf("Unused() mismatch (-want +got):\n%s", diff)
	}
}

func TestReferencesTo(t *testing.T) {
	tr := NewTracker()
	tr.Reference(BgpNeighbor, "10.0.0.1", BgpNeighborWithoutRemoteAs, 3)
	tr.Reference(BgpNeighbor, "10.0.0.1", BgpNeighborSelfRef, 4)

	if got := len(tr.ReferencesTo(BgpNeighbor, "10.0.0.1")); got != 2 {
		t.Errorf("ReferencesTo() = %d refs, want 2", got)
	}
	if got := len(tr.ReferencesTo(BgpNeighbor, "10.0.0.1", BgpNeighborWithoutRemoteAs)); got != 1 {
		t.Errorf("ReferencesTo(filtered) = %d refs, want 1", got)
	}
}
