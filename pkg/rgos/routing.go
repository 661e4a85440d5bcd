package rgos

import (
	"fmt"
	"net/netip"
)

// DefaultStaticDistance is the administrative distance of a static route
// without an explicit distance.
const DefaultStaticDistance = 1

// NextHopKind distinguishes static-route next hops.
type NextHopKind string

const (
	NextHopDiscard   NextHopKind = "DISCARD"
	NextHopGateway   NextHopKind = "GATEWAY"
	NextHopInterface NextHopKind = "INTERFACE"
)

// NextHop is where a static route forwards. Interface routes may also carry
// a gateway.
type NextHop struct {
	Kind      NextHopKind
	Gateway   netip.Addr
	Interface string
}

func (n NextHop) String() string {
	switch n.Kind {
	case NextHopDiscard:
		return "discard"
	case NextHopGateway:
		return n.Gateway.String()
	}
	if n.Gateway.IsValid() {
		return fmt.Sprintf("%s %s", n.Interface, n.Gateway)
	}
	return n.Interface
}

// StaticRoute is an "ip route" statement.
type StaticRoute struct {
	Prefix    netip.Prefix
	NextHop   NextHop
	Distance  int
	Tag       *uint32
	Track     *int
	Name      string
	Permanent bool
	Line      int
}

// NewStaticRoute returns a route with the default distance.
func NewStaticRoute(p netip.Prefix, nh NextHop) *StaticRoute {
	return &StaticRoute{Prefix: p, NextHop: nh, Distance: DefaultStaticDistance}
}

// Track is a "track N interface X line-protocol" object.
type Track struct {
	ID        int
	Interface string
	Line      int
}
