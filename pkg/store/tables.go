package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/canonical"
)

// Table names written by Publish.
const (
	TableDeviceMetadata = "DEVICE_METADATA"
	TableInterface      = "INTERFACE"
	TableVrf            = "VRF"
	TableStaticRoute    = "STATIC_ROUTE"
	TableBgpProcess     = "BGP_PROCESS"
	TableBgpNeighbor    = "BGP_NEIGHBOR"
	TableOspfProcess    = "OSPF_PROCESS"
	TableOspfInterface  = "OSPF_INTERFACE"
	TableRoutingPolicy  = "ROUTING_POLICY"
)

// Tables lists every table in publish order.
var Tables = []string{
	TableDeviceMetadata,
	TableInterface,
	TableVrf,
	TableStaticRoute,
	TableBgpProcess,
	TableBgpNeighbor,
	TableOspfProcess,
	TableOspfInterface,
	TableRoutingPolicy,
}

// Row is one hash. Key excludes the table and hostname.
type Row struct {
	Table  string
	Key    string
	Fields map[string]string
}

// RedisKey returns TABLE|hostname|key.
func (r Row) RedisKey(hostname string) string {
	return fmt.Sprintf("%s|%s|%s", r.Table, hostname, r.Key)
}

// Rows flattens c into table rows, ordered by table and key.
func Rows(c *canonical.Configuration) []Row {
	var rows []Row
	add := func(table, key string, fields map[string]string) {
		rows = append(rows, Row{Table: table, Key: key, Fields: fields})
	}

	add(TableDeviceMetadata, "localhost", map[string]string{
		"hostname":          c.Hostname,
		"format":            c.Format,
		"normal_vlan_range": c.NormalVlanRange,
	})

	for _, name := range c.InterfaceNames() {
		i := c.Interfaces[name]
		add(TableInterface, name, interfaceFields(i))
		if i.Ospf != nil {
			add(TableOspfInterface, name, map[string]string{
				"process":        i.Ospf.Process,
				"area":           strconv.FormatUint(uint64(i.Ospf.Area), 10),
				"cost":           strconv.Itoa(i.Ospf.Cost),
				"hello_interval": strconv.Itoa(i.Ospf.HelloInterval),
				"dead_interval":  strconv.Itoa(i.Ospf.DeadInterval),
				"network_type":   string(i.Ospf.NetworkType),
				"passive":        strconv.FormatBool(i.Ospf.Passive),
			})
		}
	}

	for _, name := range c.VrfNames() {
		v := c.Vrfs[name]
		add(TableVrf, name, vrfFields(v))
		for _, sr := range v.StaticRoutes {
			add(TableStaticRoute, staticRouteKey(name, sr), staticRouteFields(sr))
		}
		if v.Bgp != nil {
			add(TableBgpProcess, name, map[string]string{
				"local_as":              strconv.FormatUint(uint64(v.Bgp.LocalAs), 10),
				"router_id":             v.Bgp.RouterID,
				"multipath_ebgp":        strconv.FormatBool(v.Bgp.MultipathEbgp),
				"multipath_ibgp":        strconv.FormatBool(v.Bgp.MultipathIbgp),
				"common_export_policy":  v.Bgp.CommonExportPolicy,
				"redistribution_policy": v.Bgp.RedistributionPolicy,
			})
			for _, peer := range sortedKeys(v.Bgp.Neighbors) {
				add(TableBgpNeighbor, name+"|"+peer, neighborFields(v.Bgp.Neighbors[peer]))
			}
		}
		for _, pname := range sortedKeys(v.Ospf) {
			p := v.Ospf[pname]
			areas := make([]string, 0, len(p.Areas))
			for id := range p.Areas {
				areas = append(areas, strconv.FormatUint(uint64(id), 10))
			}
			sort.Strings(areas)
			add(TableOspfProcess, name+"|"+pname, map[string]string{
				"router_id":           p.RouterID,
				"reference_bandwidth": strconv.FormatFloat(p.ReferenceBandwidth, 'f', -1, 64),
				"export_policy":       p.ExportPolicy,
				"areas":               strings.Join(areas, ","),
			})
		}
	}

	for _, name := range c.PolicyNames() {
		add(TableRoutingPolicy, name, map[string]string{
			"lines": strings.Join(c.RoutingPolicies[name].Lines(), "\n"),
		})
	}
	return rows
}

func interfaceFields(i *canonical.Interface) map[string]string {
	f := map[string]string{
		"type":       string(i.Type),
		"vrf":        i.Vrf,
		"admin_up":   strconv.FormatBool(i.AdminUp),
		"mtu":        strconv.Itoa(i.Mtu),
		"switchport": strconv.FormatBool(i.Switchport),
	}
	if i.Description != "" {
		f["description"] = i.Description
	}
	if i.Address != nil {
		f["address"] = i.Address.String()
	}
	if i.Bandwidth != nil {
		f["bandwidth"] = strconv.FormatFloat(*i.Bandwidth, 'f', -1, 64)
	}
	if i.Speed != nil {
		f["speed"] = strconv.FormatFloat(*i.Speed, 'f', -1, 64)
	}
	if i.Vlan != nil {
		f["vlan"] = strconv.Itoa(*i.Vlan)
	}
	if i.Switchport {
		f["switchport_mode"] = string(i.SwitchportMode)
		if i.AccessVlan != nil {
			f["access_vlan"] = strconv.Itoa(*i.AccessVlan)
		}
		if i.NativeVlan != nil {
			f["native_vlan"] = strconv.Itoa(*i.NativeVlan)
		}
		f["allowed_vlans"] = i.AllowedVlans
	}
	return f
}

func vrfFields(v *canonical.Vrf) map[string]string {
	f := map[string]string{
		"interfaces": strings.Join(v.Interfaces, ","),
	}
	if v.RouteDistinguisher != "" {
		f["rd"] = v.RouteDistinguisher
	}
	if len(v.ImportTargets) > 0 {
		f["import_rt"] = strings.Join(v.ImportTargets, ",")
	}
	if len(v.ExportTargets) > 0 {
		f["export_rt"] = strings.Join(v.ExportTargets, ",")
	}
	if v.ImportPolicy != "" {
		f["import_policy"] = v.ImportPolicy
	}
	if v.ExportPolicy != "" {
		f["export_policy"] = v.ExportPolicy
	}
	return f
}

func staticRouteKey(vrf string, sr *canonical.StaticRoute) string {
	hop := string(sr.NextHop.Kind)
	switch {
	case sr.NextHop.IP != nil && sr.NextHop.Interface != "":
		hop = sr.NextHop.Interface + "@" + sr.NextHop.IP.String()
	case sr.NextHop.IP != nil:
		hop = sr.NextHop.IP.String()
	case sr.NextHop.Interface != "":
		hop = sr.NextHop.Interface
	}
	return vrf + "|" + sr.Network.String() + "|" + hop
}

func staticRouteFields(sr *canonical.StaticRoute) map[string]string {
	f := map[string]string{
		"next_hop_kind":  string(sr.NextHop.Kind),
		"admin_distance": strconv.Itoa(sr.AdminDistance),
	}
	if sr.NextHop.IP != nil {
		f["next_hop_ip"] = sr.NextHop.IP.String()
	}
	if sr.NextHop.Interface != "" {
		f["next_hop_interface"] = sr.NextHop.Interface
	}
	if sr.Tag != nil {
		f["tag"] = strconv.FormatUint(uint64(*sr.Tag), 10)
	}
	if sr.Track != nil {
		f["track"] = strconv.Itoa(*sr.Track)
	}
	if sr.Name != "" {
		f["name"] = sr.Name
	}
	return f
}

func neighborFields(p *canonical.BgpPeer) map[string]string {
	f := map[string]string{
		"local_as":  strconv.FormatUint(uint64(p.LocalAs), 10),
		"remote_as": strconv.FormatUint(uint64(p.RemoteAs), 10),
		"dynamic":   strconv.FormatBool(p.IsDynamic()),
	}
	if p.Group != "" {
		f["peer_group"] = p.Group
	}
	if p.UpdateSource != "" {
		f["update_source"] = p.UpdateSource
	}
	if p.Description != "" {
		f["description"] = p.Description
	}
	if p.Ipv4Unicast != nil {
		f["import_policy"] = p.Ipv4Unicast.ImportPolicy
		f["export_policy"] = p.Ipv4Unicast.ExportPolicy
	}
	return f
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
