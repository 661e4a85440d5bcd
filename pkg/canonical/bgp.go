package canonical

// BgpProcess represents BGP configuration of one VRF
type BgpProcess struct {
	LocalAs       uint32 `json:"local_as" yaml:"local_as"`
	RouterID      string `json:"router_id" yaml:"router_id"`
	MultipathEbgp bool   `json:"multipath_ebgp" yaml:"multipath_ebgp"`
	MultipathIbgp bool   `json:"multipath_ibgp" yaml:"multipath_ibgp"`

	// CommonExportPolicy is consulted by every peer's export policy;
	// RedistributionPolicy selects the non-BGP routes injected into BGP.
	CommonExportPolicy   string `json:"common_export_policy" yaml:"common_export_policy"`
	RedistributionPolicy string `json:"redistribution_policy" yaml:"redistribution_policy"`

	// Neighbors is keyed by peer address, or by prefix for listen ranges.
	Neighbors map[string]*BgpPeer `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
}

// NewBgpProcess creates a new BGP configuration
func NewBgpProcess(localAs uint32, routerID string) *BgpProcess {
	return &BgpProcess{
		LocalAs:   localAs,
		RouterID:  routerID,
		Neighbors: make(map[string]*BgpPeer),
	}
}

// BgpPeer represents a BGP peer configuration
type BgpPeer struct {
	PeerAddress string   `json:"peer_address,omitempty" yaml:"peer_address,omitempty"`
	PeerPrefix  string   `json:"peer_prefix,omitempty" yaml:"peer_prefix,omitempty"`
	LocalAs     uint32   `json:"local_as" yaml:"local_as"`
	RemoteAs    uint32   `json:"remote_as" yaml:"remote_as"`
	AlternateAs []uint32 `json:"alternate_as,omitempty" yaml:"alternate_as,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Group       string   `json:"peer_group,omitempty" yaml:"peer_group,omitempty"`
	// UpdateSource is the source interface for the session
	UpdateSource string `json:"update_source,omitempty" yaml:"update_source,omitempty"`

	EbgpMultihop          bool `json:"ebgp_multihop,omitempty" yaml:"ebgp_multihop,omitempty"`
	RouteReflectorClient  bool `json:"route_reflector_client,omitempty" yaml:"route_reflector_client,omitempty"`
	SendCommunity         bool `json:"send_community,omitempty" yaml:"send_community,omitempty"`
	SendExtendedCommunity bool `json:"send_extended_community,omitempty" yaml:"send_extended_community,omitempty"`
	NextHopSelf           bool `json:"next_hop_self,omitempty" yaml:"next_hop_self,omitempty"`

	// Ipv4Unicast is nil when the session is not activated for IPv4.
	Ipv4Unicast *BgpAddressFamily `json:"ipv4_unicast,omitempty" yaml:"ipv4_unicast,omitempty"`
}

// IsDynamic reports whether the peer is a listen range.
func (p *BgpPeer) IsDynamic() bool {
	return p.PeerPrefix != ""
}

// IsIBGP returns true if neighbor is iBGP (same AS)
func (p *BgpPeer) IsIBGP() bool {
	return p.RemoteAs == p.LocalAs
}

// BgpAddressFamily holds per-family session policies.
type BgpAddressFamily struct {
	ImportPolicy string `json:"import_policy,omitempty" yaml:"import_policy,omitempty"`
	ExportPolicy string `json:"export_policy" yaml:"export_policy"`
}
