package refs

// StructureType names a kind of named configuration object.
type StructureType string

const (
	Interface             StructureType = "interface"
	BgpNeighbor           StructureType = "bgp neighbor"
	BgpPeerGroup          StructureType = "bgp peer-group"
	BgpListenRange        StructureType = "bgp listen range"
	RouteMap              StructureType = "route-map"
	PrefixList            StructureType = "ip prefix-list"
	AccessList            StructureType = "ip access-list"
	CommunityList         StructureType = "ip community-list"
	CommunityListStandard StructureType = "ip community-list standard"
	CommunityListExpanded StructureType = "ip community-list expanded"
	AsPathAccessList      StructureType = "ip as-path access-list"
	Track                 StructureType = "track"
	Vrf                   StructureType = "vrf"
)

// parents maps concrete definition types onto the abstract type that
// references use, e.g. "match community X" matches either list flavor.
var parents = map[StructureType]StructureType{
	CommunityListStandard: CommunityList,
	CommunityListExpanded: CommunityList,
}

// Abstract returns the type references are matched against.
func (t StructureType) Abstract() StructureType {
	if p, ok := parents[t]; ok {
		return p
	}
	return t
}

// reportUnused lists the types for which an unreferenced definition is worth
// reporting. Interfaces and VRFs are routinely defined and never referenced.
var reportUnused = map[StructureType]bool{
	BgpPeerGroup:     true,
	RouteMap:         true,
	PrefixList:       true,
	AccessList:       true,
	CommunityList:    true,
	AsPathAccessList: true,
	Track:            true,
}

// Usage classifies why a structure was referenced.
type Usage string

const (
	InterfaceSelfRef                    Usage = "interface"
	InterfaceVrf                        Usage = "interface vrf"
	BgpNeighborSelfRef                  Usage = "bgp neighbor"
	BgpNeighborWithoutRemoteAs          Usage = "bgp neighbor without remote-as"
	BgpPeerGroupReferencedBeforeDefined Usage = "bgp peer-group referenced before defined"
	BgpPeerGroupSelfRef                 Usage = "bgp peer-group"
	BgpInheritedPeerGroup               Usage = "bgp inherited peer-group"
	BgpListenRangePeerGroup             Usage = "bgp listen range peer-group"
	BgpUpdateSourceInterface            Usage = "bgp neighbor update-source"
	BgpNeighborRouteMapIn               Usage = "bgp neighbor route-map in"
	BgpNeighborRouteMapOut              Usage = "bgp neighbor route-map out"
	BgpNeighborPrefixListIn             Usage = "bgp neighbor prefix-list in"
	BgpNeighborPrefixListOut            Usage = "bgp neighbor prefix-list out"
	BgpNeighborDistributeListIn         Usage = "bgp neighbor distribute-list in"
	BgpNeighborDistributeListOut        Usage = "bgp neighbor distribute-list out"
	BgpDefaultOriginateRouteMap         Usage = "bgp neighbor default-originate route-map"
	BgpNetworkRouteMap                  Usage = "bgp network route-map"
	BgpRedistributeRouteMap             Usage = "bgp redistribute route-map"
	BgpAggregateAttributeMap            Usage = "bgp aggregate-address attribute-map"
	BgpAggregateSuppressMap             Usage = "bgp aggregate-address suppress-map"
	BgpAggregateAdvertiseMap            Usage = "bgp aggregate-address advertise-map"
	OspfRedistributeRouteMap            Usage = "ospf redistribute route-map"
	OspfDefaultOriginateRouteMap        Usage = "ospf default-information originate route-map"
	OspfDistributeListIn                Usage = "ospf distribute-list in"
	OspfPassiveInterface                Usage = "ospf passive-interface"
	RouteMapMatchPrefixList             Usage = "route-map match ip address prefix-list"
	RouteMapMatchAccessList             Usage = "route-map match ip address"
	RouteMapMatchCommunityList          Usage = "route-map match community"
	RouteMapMatchAsPathAccessList       Usage = "route-map match as-path"
	RouteMapDeleteCommunity             Usage = "route-map set comm-list delete"
	IPRouteNextHopInterface             Usage = "ip route next-hop interface"
	IPRouteTrack                        Usage = "ip route track"
	TrackInterface                      Usage = "track interface"
	VrfImportMap                        Usage = "vrf import map"
	VrfExportMap                        Usage = "vrf export map"
	BgpAddressFamilyVrf                 Usage = "router bgp address-family vrf"
	OspfProcessVrf                      Usage = "router ospf vrf"
)

// selfRefs are usages that only echo a definition site.
var selfRefs = map[Usage]bool{
	InterfaceSelfRef:    true,
	BgpNeighborSelfRef:  true,
	BgpPeerGroupSelfRef: true,
}
