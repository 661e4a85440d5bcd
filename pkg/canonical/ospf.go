package canonical

import "sort"

// OspfAreaType distinguishes normal, stub and NSSA areas.
type OspfAreaType string

const (
	OspfAreaNormal OspfAreaType = "NONE"
	OspfAreaStub   OspfAreaType = "STUB"
	OspfAreaNssa   OspfAreaType = "NSSA"
)

// OspfProcess is one converted "router ospf".
type OspfProcess struct {
	Name     string `json:"name" yaml:"name"`
	RouterID string `json:"router_id" yaml:"router_id"`
	// ReferenceBandwidth is in bits per second.
	ReferenceBandwidth float64              `json:"reference_bandwidth" yaml:"reference_bandwidth"`
	Areas              map[uint32]*OspfArea `json:"areas" yaml:"areas"`
	ExportPolicy       string               `json:"export_policy" yaml:"export_policy"`
	GeneratedRoutes    []*GeneratedRoute    `json:"generated_routes,omitempty" yaml:"generated_routes,omitempty"`
	MaxMetric          *OspfMaxMetric       `json:"max_metric,omitempty" yaml:"max_metric,omitempty"`
}

// NewOspfProcess returns a process without areas.
func NewOspfProcess(name string) *OspfProcess {
	return &OspfProcess{Name: name, Areas: make(map[uint32]*OspfArea)}
}

// Area returns the area, creating it if needed.
func (p *OspfProcess) Area(id uint32) *OspfArea {
	a, ok := p.Areas[id]
	if !ok {
		a = &OspfArea{ID: id, Type: OspfAreaNormal}
		p.Areas[id] = a
	}
	return a
}

// AreaOf returns the area holding iface.
func (p *OspfProcess) AreaOf(iface string) (uint32, bool) {
	for id, a := range p.Areas {
		if a.HasInterface(iface) {
			return id, true
		}
	}
	return 0, false
}

// OspfArea lists member interfaces and area-wide settings.
type OspfArea struct {
	ID         uint32       `json:"id" yaml:"id"`
	Type       OspfAreaType `json:"type" yaml:"type"`
	Interfaces []string     `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	// NoSummary suppresses type-3 LSAs into a stub or NSSA area.
	NoSummary            bool                    `json:"no_summary,omitempty" yaml:"no_summary,omitempty"`
	NssaDefaultOriginate bool                    `json:"nssa_default_originate,omitempty" yaml:"nssa_default_originate,omitempty"`
	NssaNoRedistribution bool                    `json:"nssa_no_redistribution,omitempty" yaml:"nssa_no_redistribution,omitempty"`
	Summaries            map[string]*OspfSummary `json:"summaries,omitempty" yaml:"summaries,omitempty"`
}

// AddInterface adds iface keeping the list sorted.
func (a *OspfArea) AddInterface(iface string) {
	if a.HasInterface(iface) {
		return
	}
	a.Interfaces = append(a.Interfaces, iface)
	sort.Strings(a.Interfaces)
}

// HasInterface reports whether iface belongs to the area.
func (a *OspfArea) HasInterface(iface string) bool {
	for _, i := range a.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

// OspfSummary is an area range.
type OspfSummary struct {
	Advertise bool    `json:"advertise" yaml:"advertise"`
	Cost      *uint32 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// OspfMaxMetric advertises the router as a last-resort transit.
type OspfMaxMetric struct {
	OnStartupSeconds *int `json:"on_startup_seconds,omitempty" yaml:"on_startup_seconds,omitempty"`
	IncludeStub      bool `json:"include_stub" yaml:"include_stub"`
	SummaryLsa       bool `json:"summary_lsa" yaml:"summary_lsa"`
	ExternalLsa      bool `json:"external_lsa" yaml:"external_lsa"`
}
