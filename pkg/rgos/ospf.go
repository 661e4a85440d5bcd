package rgos

import (
	"net/netip"
	"sort"

	"github.com/newtron-network/rgosc/pkg/util"
)

// DefaultReferenceBandwidthMbps is used when "auto-cost reference-bandwidth"
// is absent.
const DefaultReferenceBandwidthMbps = 100

// FilterType is the kind of list a distribute-list names.
type FilterType string

const (
	PrefixListFilter FilterType = "PREFIX_LIST"
	AccessListFilter FilterType = "ACCESS_LIST"
)

// DistributeList is an inbound OSPF route filter.
type DistributeList struct {
	Name string
	Type FilterType
	Line int
}

// OspfNetwork assigns interfaces matching Wildcard to Area.
type OspfNetwork struct {
	Wildcard util.IPWildcard
	Area     uint32
}

// OspfRedistributionPolicy is a "redistribute" statement under OSPF.
type OspfRedistributionPolicy struct {
	Protocol   RoutingProtocol
	Instance   string
	Metric     *uint32
	MetricType int
	Tag        *uint32
	Subnets    bool
	RouteMap   string
}

// OspfDefaultInformation is "default-information originate".
type OspfDefaultInformation struct {
	Always     bool
	Metric     *uint32
	MetricType int
	RouteMap   string
}

// AreaType distinguishes normal, stub and NSSA areas.
type AreaType string

const (
	AreaNormal AreaType = "NORMAL"
	AreaStub   AreaType = "STUB"
	AreaNSSA   AreaType = "NSSA"
)

// OspfAreaRange is an "area A range" summary.
type OspfAreaRange struct {
	Prefix    netip.Prefix
	Advertise bool
	Cost      *uint32
}

// OspfArea holds per-area settings.
type OspfArea struct {
	ID                   uint32
	Type                 AreaType
	NoSummary            bool
	NssaDefaultOriginate bool
	NssaNoRedistribution bool
	Ranges               map[netip.Prefix]*OspfAreaRange
}

// OspfMaxMetric is "max-metric router-lsa".
type OspfMaxMetric struct {
	OnStartup   *int
	IncludeStub bool
	SummaryLsa  bool
	ExternalLsa bool
}

// OspfProcess is one "router ospf" instance.
type OspfProcess struct {
	Name                 string
	Vrf                  string
	RouterID             netip.Addr
	ReferenceBandwidth   int
	Networks             []OspfNetwork
	PassiveDefault       bool
	PassiveInterfaces    map[string]bool
	NonDefaultInterfaces map[string]bool
	Redistribution       map[RedistributionKey]*OspfRedistributionPolicy
	DefaultInformation   *OspfDefaultInformation
	Areas                map[uint32]*OspfArea
	MaxMetric            *OspfMaxMetric
	// DistributeListIn applies to every interface of the process;
	// InterfaceDistributeListsIn only to the named interface.
	DistributeListIn           *DistributeList
	InterfaceDistributeListsIn map[string]*DistributeList
	Line                       int
}

// NewOspfProcess returns a process with default reference bandwidth.
func NewOspfProcess(name, vrf string) *OspfProcess {
	return &OspfProcess{
		Name:                       name,
		Vrf:                        vrf,
		ReferenceBandwidth:         DefaultReferenceBandwidthMbps,
		PassiveInterfaces:          make(map[string]bool),
		NonDefaultInterfaces:       make(map[string]bool),
		Redistribution:             make(map[RedistributionKey]*OspfRedistributionPolicy),
		Areas:                      make(map[uint32]*OspfArea),
		InterfaceDistributeListsIn: make(map[string]*DistributeList),
	}
}

// AddNetwork appends a network statement unless an identical one exists.
func (p *OspfProcess) AddNetwork(n OspfNetwork) {
	for _, old := range p.Networks {
		if old == n {
			return
		}
	}
	p.Networks = append(p.Networks, n)
}

// Area returns the area settings, creating them if needed.
func (p *OspfProcess) Area(id uint32) *OspfArea {
	a, ok := p.Areas[id]
	if !ok {
		a = &OspfArea{ID: id, Type: AreaNormal, Ranges: make(map[netip.Prefix]*OspfAreaRange)}
		p.Areas[id] = a
	}
	return a
}

// SetPassive records an explicit "passive-interface" or its negation.
func (p *OspfProcess) SetPassive(iface string, passive bool) {
	if passive {
		p.PassiveInterfaces[iface] = true
		delete(p.NonDefaultInterfaces, iface)
		if !p.PassiveDefault {
			p.NonDefaultInterfaces[iface] = true
		}
		return
	}
	delete(p.PassiveInterfaces, iface)
	if p.PassiveDefault {
		p.NonDefaultInterfaces[iface] = true
	} else {
		delete(p.NonDefaultInterfaces, iface)
	}
}

// IsPassive reports whether iface is passive by process configuration.
func (p *OspfProcess) IsPassive(iface string) bool {
	if p.PassiveInterfaces[iface] {
		return true
	}
	return p.PassiveDefault != p.NonDefaultInterfaces[iface]
}

// AreaFor finds the area whose network statement best matches addr: the
// longest care-bit match, then the lower network start, then the lower area.
func (p *OspfProcess) AreaFor(addr netip.Addr) (uint32, bool) {
	var best *OspfNetwork
	for i := range p.Networks {
		n := &p.Networks[i]
		if !n.Wildcard.Contains(addr) {
			continue
		}
		if best == nil || betterNetwork(n, best) {
			best = n
		}
	}
	if best == nil {
		return 0, false
	}
	return best.Area, true
}

func betterNetwork(a, b *OspfNetwork) bool {
	if a.Wildcard.CareBits() != b.Wildcard.CareBits() {
		return a.Wildcard.CareBits() > b.Wildcard.CareBits()
	}
	if a.Wildcard.Start() != b.Wildcard.Start() {
		return a.Wildcard.Start().Less(b.Wildcard.Start())
	}
	return a.Area < b.Area
}

// SortedRedistribution returns redistribution policies ordered by protocol
// and instance.
func (p *OspfProcess) SortedRedistribution() []*OspfRedistributionPolicy {
	out := make([]*OspfRedistributionPolicy, 0, len(p.Redistribution))
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

// AreaIDs returns the configured area ids in ascending order.
func (p *OspfProcess) AreaIDs() []uint32 {
	ids := make([]uint32, 0, len(p.Areas))
	for id := range p.Areas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
