package canonical

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"
)

// Protocol is the source of a route.
type Protocol string

const (
	ProtocolConnected Protocol = "connected"
	ProtocolStatic    Protocol = "static"
	ProtocolOspf      Protocol = "ospf"
	ProtocolOspfIA    Protocol = "ospfIA"
	ProtocolOspfE1    Protocol = "ospfE1"
	ProtocolOspfE2    Protocol = "ospfE2"
	ProtocolBgp       Protocol = "bgp"
	ProtocolIbgp      Protocol = "ibgp"
	ProtocolAggregate Protocol = "aggregate"
	ProtocolRip       Protocol = "rip"
	ProtocolIsis      Protocol = "isis"
)

// Origin is the BGP origin attribute.
type Origin string

const (
	OriginIgp        Origin = "igp"
	OriginEgp        Origin = "egp"
	OriginIncomplete Origin = "incomplete"
)

// OspfMetricType is the external metric type of a redistributed route.
type OspfMetricType string

const (
	OspfE1 OspfMetricType = "E1"
	OspfE2 OspfMetricType = "E2"
)

// Community is a standard 32-bit BGP community.
type Community uint32

// Well-known communities.
const (
	NoExport    Community = 0xFFFFFF01
	NoAdvertise Community = 0xFFFFFF02
	LocalAS     Community = 0xFFFFFF03
)

// String renders the community as "high:low".
func (c Community) String() string {
	return fmt.Sprintf("%d:%d", uint32(c)>>16, uint32(c)&0xFFFF)
}

// Route is the subject of policy evaluation. Process works on a copy, so
// set statements never modify the caller's route.
type Route struct {
	Network         netip.Prefix
	Protocol        Protocol
	NextHop         netip.Addr
	Metric          uint32
	Tag             uint32
	LocalPreference uint32
	Weight          uint32
	Origin          Origin
	OspfMetricType  OspfMetricType
	Communities     []Community
	AsPath          []uint32
}

func (r Route) clone() Route {
	r.Communities = append([]Community(nil), r.Communities...)
	r.AsPath = append([]uint32(nil), r.AsPath...)
	return r
}

// HasCommunity reports whether c is attached to the route.
func (r *Route) HasCommunity(c Community) bool {
	for _, x := range r.Communities {
		if x == c {
			return true
		}
	}
	return false
}

// CommunityString renders the community set ascending, space separated.
func (r *Route) CommunityString() string {
	cs := append([]Community(nil), r.Communities...)
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// AsPathString renders the AS path space separated.
func (r *Route) AsPathString() string {
	parts := make([]string, len(r.AsPath))
	for i, a := range r.AsPath {
		parts[i] = strconv.FormatUint(uint64(a), 10)
	}
	return strings.Join(parts, " ")
}

func (r *Route) setCommunities(cs []Community) {
	seen := make(map[Community]bool, len(cs))
	out := make([]Community, 0, len(cs))
	for _, c := range cs {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	r.Communities = out
}
