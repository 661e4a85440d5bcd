package rgos

import (
	"net/netip"
	"sort"

	"github.com/newtron-network/rgosc/pkg/util"
)

// PeerKind tags the BgpPeerGroup variants.
type PeerKind int

const (
	MasterPeer PeerKind = iota
	NamedPeer
	IPPeer
	IPv6Peer
	DynamicPeer
)

func (k PeerKind) String() string {
	switch k {
	case MasterPeer:
		return "master"
	case NamedPeer:
		return "peer-group"
	case IPPeer:
		return "ipv4"
	case IPv6Peer:
		return "ipv6"
	case DynamicPeer:
		return "dynamic"
	}
	return "unknown"
}

// BgpPeerSettings are the inheritable, optional session settings. The zero
// value of every field means "unset".
type BgpPeerSettings struct {
	RemoteAS              *uint32
	AlternateAS           []uint32
	LocalAS               *uint32
	UpdateSource          string
	Description           string
	RouteMapIn            string
	RouteMapOut           string
	PrefixListIn          string
	PrefixListOut         string
	DistributeListIn      string
	DistributeListOut     string
	DefaultOriginate      *bool
	DefaultOriginateMap   string
	RouteReflectorClient  *bool
	SendCommunity         *bool
	SendExtendedCommunity *bool
	NextHopSelf           *bool
	EbgpMultihop          *bool
	Shutdown              *bool
	Active                *bool
}

// inherit fills every unset field of s from parent.
func (s *BgpPeerSettings) inherit(parent *BgpPeerSettings) {
	if s.RemoteAS == nil {
		s.RemoteAS = parent.RemoteAS
	}
	if s.AlternateAS == nil {
		s.AlternateAS = parent.AlternateAS
	}
	if s.LocalAS == nil {
		s.LocalAS = parent.LocalAS
	}
	if s.UpdateSource == "" {
		s.UpdateSource = parent.UpdateSource
	}
	if s.Description == "" {
		s.Description = parent.Description
	}
	if s.RouteMapIn == "" {
		s.RouteMapIn = parent.RouteMapIn
	}
	if s.RouteMapOut == "" {
		s.RouteMapOut = parent.RouteMapOut
	}
	if s.PrefixListIn == "" {
		s.PrefixListIn = parent.PrefixListIn
	}
	if s.PrefixListOut == "" {
		s.PrefixListOut = parent.PrefixListOut
	}
	if s.DistributeListIn == "" {
		s.DistributeListIn = parent.DistributeListIn
	}
	if s.DistributeListOut == "" {
		s.DistributeListOut = parent.DistributeListOut
	}
	if s.DefaultOriginate == nil {
		s.DefaultOriginate = parent.DefaultOriginate
	}
	if s.DefaultOriginateMap == "" {
		s.DefaultOriginateMap = parent.DefaultOriginateMap
	}
	if s.RouteReflectorClient == nil {
		s.RouteReflectorClient = parent.RouteReflectorClient
	}
	if s.SendCommunity == nil {
		s.SendCommunity = parent.SendCommunity
	}
	if s.SendExtendedCommunity == nil {
		s.SendExtendedCommunity = parent.SendExtendedCommunity
	}
	if s.NextHopSelf == nil {
		s.NextHopSelf = parent.NextHopSelf
	}
	if s.EbgpMultihop == nil {
		s.EbgpMultihop = parent.EbgpMultihop
	}
	if s.Shutdown == nil {
		s.Shutdown = parent.Shutdown
	}
	if s.Active == nil {
		s.Active = parent.Active
	}
}

// BgpPeerGroup is one member of the peer-group hierarchy. Key fields depend
// on Kind: Name for named groups, Addr for IP and IPv6 peers, Prefix for
// dynamic listen ranges.
type BgpPeerGroup struct {
	Kind   PeerKind
	Name   string
	Addr   netip.Addr
	Prefix netip.Prefix
	// Group is the named peer-group a leaf inherits from.
	Group string
	Line  int
	BgpPeerSettings
}

// IsLeaf reports whether g describes actual sessions.
func (g *BgpPeerGroup) IsLeaf() bool {
	return g.Kind == IPPeer || g.Kind == IPv6Peer || g.Kind == DynamicPeer
}

// Key returns the string the group is referenced by.
func (g *BgpPeerGroup) Key() string {
	switch g.Kind {
	case IPPeer, IPv6Peer:
		return g.Addr.String()
	case DynamicPeer:
		return g.Prefix.String()
	}
	return g.Name
}

// Activate enables the session in the IPv4 unicast family.
func (g *BgpPeerGroup) Activate(on bool) {
	if !g.IsLeaf() {
		util.Invariantf("rgos", "activate on %s %q", g.Kind, g.Key())
	}
	g.Active = ptr(on)
}

// ActivateMembers sets the activation inherited by the members of a named group.
func (g *BgpPeerGroup) ActivateMembers(on bool) {
	if g.Kind != NamedPeer {
		util.Invariantf("rgos", "activate members on %s %q", g.Kind, g.Key())
	}
	g.Active = ptr(on)
}

// JoinGroup makes a leaf inherit from the named group.
func (g *BgpPeerGroup) JoinGroup(name string) {
	if !g.IsLeaf() {
		util.Invariantf("rgos", "peer-group membership on %s %q", g.Kind, g.Key())
	}
	g.Group = name
}

// Resolve merges a leaf with its named group and the process master group.
// Fields set on the leaf are never overwritten. named may be nil.
func Resolve(leaf, named, master *BgpPeerGroup) BgpPeerSettings {
	out := leaf.BgpPeerSettings
	if named != nil {
		out.inherit(&named.BgpPeerSettings)
	}
	if master != nil {
		out.inherit(&master.BgpPeerSettings)
	}
	return out
}

// BgpNetwork is an advertised "network" statement.
type BgpNetwork struct {
	Prefix   netip.Prefix
	RouteMap string
}

// BgpAggregate is an "aggregate-address" statement.
type BgpAggregate struct {
	Prefix       netip.Prefix
	AsSet        bool
	SummaryOnly  bool
	AttributeMap string
	SuppressMap  string
	AdvertiseMap string
}

// RedistributionKey identifies one redistribution source.
type RedistributionKey struct {
	Protocol RoutingProtocol
	Instance string
}

// BgpRedistributionPolicy is a "redistribute" statement under BGP.
type BgpRedistributionPolicy struct {
	Protocol RoutingProtocol
	Instance string
	RouteMap string
	Metric   *uint32
}

// MaximumPaths holds combined and per-type multipath limits.
type MaximumPaths struct {
	Combined *int
	Ebgp     *int
	Ibgp     *int
}

// Multipath reports whether eBGP and iBGP multipath are enabled.
func (m MaximumPaths) Multipath() (ebgp, ibgp bool) {
	gt1 := func(p *int) bool { return p != nil && *p > 1 }
	return gt1(m.Combined) || gt1(m.Ebgp), gt1(m.Combined) || gt1(m.Ibgp)
}

// BgpProcess is one "router bgp" instance in a VRF.
type BgpProcess struct {
	ASN          uint32
	Vrf          string
	RouterID     netip.Addr
	Master       *BgpPeerGroup
	IPPeers      map[netip.Addr]*BgpPeerGroup
	IPv6Peers    map[netip.Addr]*BgpPeerGroup
	NamedGroups  map[string]*BgpPeerGroup
	DynamicPeers map[netip.Prefix]*BgpPeerGroup
	Networks     map[netip.Prefix]*BgpNetwork
	Aggregates   []*BgpAggregate
	// Redistribution is keyed by source protocol and instance.
	Redistribution              map[RedistributionKey]*BgpRedistributionPolicy
	DefaultInformationOriginate bool
	// MaximumPaths is written outside any address family, Ipv4MaximumPaths
	// inside "address-family ipv4".
	MaximumPaths     MaximumPaths
	Ipv4MaximumPaths MaximumPaths
}

// NewBgpProcess returns an empty process. The master group activates
// neighbors in IPv4 unicast unless "no bgp default ipv4-unicast" is given.
func NewBgpProcess(asn uint32, vrf string) *BgpProcess {
	return &BgpProcess{
		ASN:            asn,
		Vrf:            vrf,
		Master:         &BgpPeerGroup{Kind: MasterPeer, BgpPeerSettings: BgpPeerSettings{Active: ptr(true)}},
		IPPeers:        make(map[netip.Addr]*BgpPeerGroup),
		IPv6Peers:      make(map[netip.Addr]*BgpPeerGroup),
		NamedGroups:    make(map[string]*BgpPeerGroup),
		DynamicPeers:   make(map[netip.Prefix]*BgpPeerGroup),
		Networks:       make(map[netip.Prefix]*BgpNetwork),
		Redistribution: make(map[RedistributionKey]*BgpRedistributionPolicy),
	}
}

// SetDefaultIpv4Unicast toggles the master activation default.
func (p *BgpProcess) SetDefaultIpv4Unicast(on bool) {
	p.Master.Active = ptr(on)
}

// AddIPPeer returns the IPv4 peer, creating it if needed.
func (p *BgpProcess) AddIPPeer(a netip.Addr, line int) *BgpPeerGroup {
	g, ok := p.IPPeers[a]
	if !ok {
		g = &BgpPeerGroup{Kind: IPPeer, Addr: a, Line: line}
		p.IPPeers[a] = g
	}
	return g
}

// AddIPv6Peer returns the IPv6 peer, creating it if needed.
func (p *BgpProcess) AddIPv6Peer(a netip.Addr, line int) *BgpPeerGroup {
	g, ok := p.IPv6Peers[a]
	if !ok {
		g = &BgpPeerGroup{Kind: IPv6Peer, Addr: a, Line: line}
		p.IPv6Peers[a] = g
	}
	return g
}

// AddNamedGroup returns the named peer-group, creating it if needed.
func (p *BgpProcess) AddNamedGroup(name string, line int) *BgpPeerGroup {
	g, ok := p.NamedGroups[name]
	if !ok {
		g = &BgpPeerGroup{Kind: NamedPeer, Name: name, Line: line}
		p.NamedGroups[name] = g
	}
	return g
}

// AddDynamicPeer returns the listen-range peer, creating it if needed.
func (p *BgpProcess) AddDynamicPeer(pfx netip.Prefix, line int) *BgpPeerGroup {
	g, ok := p.DynamicPeers[pfx]
	if !ok {
		g = &BgpPeerGroup{Kind: DynamicPeer, Prefix: pfx, Line: line}
		p.DynamicPeers[pfx] = g
	}
	return g
}

// AddAggregate stores a, replacing an aggregate for the same prefix.
func (p *BgpProcess) AddAggregate(a *BgpAggregate) {
	for i, old := range p.Aggregates {
		if old.Prefix == a.Prefix {
			p.Aggregates[i] = a
			return
		}
	}
	p.Aggregates = append(p.Aggregates, a)
}

// SortedIPPeers returns IPv4 peers ordered by address.
func (p *BgpProcess) SortedIPPeers() []*BgpPeerGroup {
	out := make([]*BgpPeerGroup, 0, len(p.IPPeers))
	for _, g := range p.IPPeers {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr.Less(out[j].Addr) })
	return out
}

// SortedDynamicPeers returns listen ranges ordered by prefix.
func (p *BgpProcess) SortedDynamicPeers() []*BgpPeerGroup {
	out := make([]*BgpPeerGroup, 0, len(p.DynamicPeers))
	for _, g := range p.DynamicPeers {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Prefix, out[j].Prefix
		if a.Addr() != b.Addr() {
			return a.Addr().Less(b.Addr())
		}
		return a.Bits() < b.Bits()
	})
	return out
}

// SortedNetworks returns network statements ordered by prefix.
func (p *BgpProcess) SortedNetworks() []*BgpNetwork {
	out := make([]*BgpNetwork, 0, len(p.Networks))
	for _, n := range p.Networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Prefix, out[j].Prefix
		if a.Addr() != b.Addr() {
			return a.Addr().Less(b.Addr())
		}
		return a.Bits() < b.Bits()
	})
	return out
}

// SortedRedistribution returns redistribution policies ordered by protocol
// and instance.
func (p *BgpProcess) SortedRedistribution() []*BgpRedistributionPolicy {
	out := make([]*BgpRedistributionPolicy, 0, len(p.Redistribution))
	for _, r := range p.Redistribution {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Protocol != out[j].Protocol {
			return out[i].Protocol < out[j].Protocol
		}
		return out[i].Instance < out[j].Instance
	})
	return out
}
