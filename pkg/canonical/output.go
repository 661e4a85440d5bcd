package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/rgosc/pkg/util"
)

// document is the serialized shape of a Configuration. Policies and lists
// are rendered as text lines.
type document struct {
	Hostname          string                `json:"hostname" yaml:"hostname"`
	Format            string                `json:"configuration_format" yaml:"configuration_format"`
	NormalVlanRange   string                `json:"normal_vlan_range,omitempty" yaml:"normal_vlan_range,omitempty"`
	Interfaces        map[string]*Interface `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Vrfs              map[string]*Vrf       `json:"vrfs" yaml:"vrfs"`
	RoutingPolicies   map[string][]string   `json:"routing_policies,omitempty" yaml:"routing_policies,omitempty"`
	RouteFilterLists  map[string][]string   `json:"route_filter_lists,omitempty" yaml:"route_filter_lists,omitempty"`
	AsPathAccessLists map[string][]string   `json:"as_path_access_lists,omitempty" yaml:"as_path_access_lists,omitempty"`
	CommunitySetAcls  map[string][]string   `json:"community_set_acls,omitempty" yaml:"community_set_acls,omitempty"`
	Tracks            map[int]*Track        `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

func (c *Configuration) document() *document {
	d := &document{
		Hostname:          c.Hostname,
		Format:            c.Format,
		NormalVlanRange:   c.NormalVlanRange,
		Interfaces:        c.Interfaces,
		Vrfs:              c.Vrfs,
		RoutingPolicies:   make(map[string][]string, len(c.RoutingPolicies)),
		RouteFilterLists:  make(map[string][]string, len(c.RouteFilterLists)),
		AsPathAccessLists: make(map[string][]string, len(c.AsPathAccessLists)),
		CommunitySetAcls:  make(map[string][]string, len(c.CommunitySetAcls)),
		Tracks:            c.Tracks,
	}
	for name, p := range c.RoutingPolicies {
		d.RoutingPolicies[name] = p.Lines()
	}
	for name, l := range c.RouteFilterLists {
		d.RouteFilterLists[name] = l.render()
	}
	for name, l := range c.AsPathAccessLists {
		lines := make([]string, len(l.Lines))
		for i, line := range l.Lines {
			lines[i] = fmt.Sprintf("%s %q", line.Action, line.Regex)
		}
		d.AsPathAccessLists[name] = lines
	}
	for name, a := range c.CommunitySetAcls {
		lines := make([]string, len(a.Lines))
		for i := range a.Lines {
			lines[i] = a.Lines[i].String()
		}
		d.CommunitySetAcls[name] = lines
	}
	return d
}

// Marshal renders c as "yaml" or "json".
func Marshal(c *Configuration, format string) ([]byte, error) {
	switch format {
	case "yaml", "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c.document()); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	case "json":
		data, err := json.MarshalIndent(c.document(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("output format %q: %w", format, util.ErrUnsupported)
}
