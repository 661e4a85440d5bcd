package builder

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/rgos"
	"github.com/newtron-network/rgosc/pkg/util"
)

// defineInterface creates or reopens an interface from an explicit stanza.
func (b *Builder) defineInterface(name, declared string, line int) *rgos.Interface {
	iface, ok := b.cfg.Interfaces[name]
	if !ok {
		iface = rgos.NewInterface(name)
		b.cfg.Interfaces[name] = iface
	}
	iface.AddDeclaredName(declared)
	b.ifaceDefs[name]++
	if b.ifaceDefs[name] > 1 {
		b.w.RedFlagf("Interface %s altered more than once", name)
	}
	b.refs.Define(refs.Interface, name, line)
	b.refs.Reference(refs.Interface, name, refs.InterfaceSelfRef, line)
	return iface
}

// referenceInterface resolves an interface named inside another stanza,
// creating it when it does not exist yet. It returns the canonical name, or
// the raw name when it cannot be canonicalized.
func (b *Builder) referenceInterface(raw string, usage refs.Usage, line int) string {
	name, err := rgos.CanonicalInterfaceName(raw)
	if err != nil {
		b.w.RedFlagf("Invalid interface reference %q at line %d: %v", raw, line, err)
		b.refs.Reference(refs.Interface, raw, usage, line)
		return raw
	}
	if rgos.InterfaceTypeOf(name) == rgos.TypeNull {
		return name
	}
	iface, ok := b.cfg.Interfaces[name]
	if !ok {
		iface = rgos.NewInterface(name)
		b.cfg.Interfaces[name] = iface
	}
	iface.AddDeclaredName(raw)
	b.refs.Reference(refs.Interface, name, usage, line)
	return name
}

func (b *Builder) enterInterface(n *grammar.Node) scope {
	s := *b.scope()
	s.interfaces = nil
	raw := n.Str("name")
	name, err := rgos.CanonicalInterfaceName(raw)
	if err != nil {
		b.w.RedFlagf("Invalid interface name at line %d: %v", n.Line, err)
		return s
	}
	s.interfaces = []*rgos.Interface{b.defineInterface(name, raw, n.Line)}
	return s
}

// maxRangeInterfaces bounds how many interfaces one "interface range" stanza
// may open.
const maxRangeInterfaces = 1024

// enterInterfaceRange expands "interface range Gi 0/1-4, 0/6" into one
// interface per port. Later comma-separated items may restate the type.
// Overlapping items open each interface once.
func (b *Builder) enterInterfaceRange(n *grammar.Node) scope {
	s := *b.scope()
	s.interfaces = nil
	spec := n.Str("spec")

	var names []string
	seen := make(map[string]bool)
	var canonical string
	for i, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		prefix, ports := rgos.SplitInterfaceName(item)
		if prefix != "" {
			p, ok := rgos.CanonicalInterfacePrefix(prefix)
			if !ok {
				b.w.RedFlagf("Invalid interface name prefix %q in range at line %d", prefix, n.Line)
				return s
			}
			canonical = p
		} else if i == 0 {
			b.w.RedFlagf("Interface range at line %d has no interface type", n.Line)
			return s
		}
		expanded, err := util.ExpandPortRange(ports)
		if err != nil {
			b.w.RedFlagf("Invalid interface range at line %d: %v", n.Line, err)
			return s
		}
		for _, port := range expanded {
			name := canonical + " " + port
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
		if len(names) > maxRangeInterfaces {
			b.w.RedFlagf("Interface range at line %d expands to more than %d interfaces", n.Line, maxRangeInterfaces)
			return s
		}
	}

	for _, name := range names {
		s.interfaces = append(s.interfaces, b.defineInterface(name, name, n.Line))
	}
	b.log.Debugf("interface range at line %d opened %d interfaces", n.Line, len(names))
	return s
}

func (b *Builder) eachInterface(f func(*rgos.Interface)) {
	for _, iface := range b.scope().interfaces {
		f(iface)
	}
}

func (b *Builder) ifDescription(n *grammar.Node) {
	d := util.Unquote(n.Str("text"))
	b.eachInterface(func(i *rgos.Interface) { i.Description = d })
}

func (b *Builder) ifIPAddress(n *grammar.Node) {
	var p netip.Prefix
	var err error
	if n.Has("prefix") {
		p = n.Prefix("prefix")
	} else {
		p, err = util.ParseAddrMask(n.Str("addr"), n.Str("mask"))
	}
	if err != nil {
		b.w.RedFlagf("Invalid interface address at line %d: %v", n.Line, err)
		return
	}
	secondary := n.Flag("secondary")
	b.eachInterface(func(i *rgos.Interface) {
		if secondary {
			for _, old := range i.SecondaryAddresses {
				if old == p {
					return
				}
			}
			i.SecondaryAddresses = append(i.SecondaryAddresses, p)
			return
		}
		i.Address = p
	})
}

func (b *Builder) ifNoIPAddress(*grammar.Node) {
	b.eachInterface(func(i *rgos.Interface) {
		i.Address = netip.Prefix{}
		i.SecondaryAddresses = nil
	})
}

func (b *Builder) ifVrf(n *grammar.Node) {
	vrf := n.Str("vrf")
	b.cfg.Vrf(vrf)
	b.refs.Reference(refs.Vrf, vrf, refs.InterfaceVrf, n.Line)
	b.eachInterface(func(i *rgos.Interface) { i.Vrf = vrf })
}

func (b *Builder) ifMtu(n *grammar.Node) {
	mtu := n.Int("mtu")
	b.eachInterface(func(i *rgos.Interface) { i.Mtu = &mtu })
}

func (b *Builder) ifShutdown(*grammar.Node) {
	b.eachInterface(func(i *rgos.Interface) { i.Active = false })
}

func (b *Builder) ifNoShutdown(*grammar.Node) {
	b.eachInterface(func(i *rgos.Interface) { i.Active = true })
}

func (b *Builder) ifBandwidth(n *grammar.Node) {
	kbps := n.Uint("kbps")
	b.eachInterface(func(i *rgos.Interface) { i.BandwidthKbps = &kbps })
}

// ifSpeed accepts a numeric Mbps value; "auto" clears the override.
func (b *Builder) ifSpeed(n *grammar.Node) {
	word := strings.ToLower(n.Str("speed"))
	if word == "auto" {
		b.eachInterface(func(i *rgos.Interface) { i.SpeedMbps = nil })
		return
	}
	v, err := strconv.ParseUint(strings.TrimSuffix(word, "m"), 10, 32)
	if err != nil {
		b.w.Unimplementedf("Interface speed %q at line %d", word, n.Line)
		return
	}
	mbps := uint32(v)
	b.eachInterface(func(i *rgos.Interface) { i.SpeedMbps = &mbps })
}

func (b *Builder) ifSwitchport(*grammar.Node) {
	b.eachInterface(func(i *rgos.Interface) {
		i.Switchport = true
		if i.SwitchportMode == rgos.SwitchportNone {
			i.SwitchportMode = rgos.SwitchportAccess
		}
	})
}

func (b *Builder) ifNoSwitchport(*grammar.Node) {
	b.eachInterface(func(i *rgos.Interface) {
		i.Switchport = false
		i.SwitchportMode = rgos.SwitchportNone
	})
}

func (b *Builder) ifSwitchportMode(n *grammar.Node) {
	mode := rgos.SwitchportAccess
	if strings.EqualFold(n.Str("mode"), "trunk") {
		mode = rgos.SwitchportTrunk
	}
	b.eachInterface(func(i *rgos.Interface) {
		i.Switchport = true
		i.SwitchportMode = mode
	})
}

func (b *Builder) vlanID(n *grammar.Node, capture string) (int, bool) {
	v := n.Int(capture)
	if err := util.ValidateVLANID(v); err != nil {
		b.w.RedFlagf("Line %d: %v", n.Line, err)
		return 0, false
	}
	return v, true
}

func (b *Builder) ifAccessVlan(n *grammar.Node) {
	if v, ok := b.vlanID(n, "vlan"); ok {
		b.eachInterface(func(i *rgos.Interface) { i.AccessVlan = &v })
	}
}

func (b *Builder) ifNativeVlan(n *grammar.Node) {
	if v, ok := b.vlanID(n, "vlan"); ok {
		b.eachInterface(func(i *rgos.Interface) { i.NativeVlan = &v })
	}
}

func (b *Builder) ifEncapsulation(n *grammar.Node) {
	if v, ok := b.vlanID(n, "vlan"); ok {
		b.eachInterface(func(i *rgos.Interface) { i.EncapsulationVlan = &v })
	}
}

// ifAllowedVlan handles "switchport trunk allowed vlan [only|add|remove|except] LIST".
func (b *Builder) ifAllowedVlan(n *grammar.Node) {
	list := strings.ToLower(n.Str("vlans"))
	var vlans []int
	switch list {
	case "all":
		vlans, _ = util.ExpandVLANRange("1-4094")
	case "none":
		vlans = []int{}
	default:
		var err error
		vlans, err = util.ExpandVLANRange(list)
		if err != nil {
			b.w.RedFlagf("Invalid allowed VLAN list at line %d: %v", n.Line, err)
			return
		}
	}
	op := strings.ToLower(n.Str("op"))
	b.eachInterface(func(i *rgos.Interface) {
		i.AllowedVlans = applyVlanOp(i.AllowedVlans, vlans, op)
	})
}

func applyVlanOp(cur, vlans []int, op string) []int {
	switch op {
	case "add":
		if cur == nil {
			cur, _ = util.ExpandVLANRange("1-4094")
		}
		return mergeVlans(cur, vlans)
	case "remove":
		if cur == nil {
			cur, _ = util.ExpandVLANRange("1-4094")
		}
		return subtractVlans(cur, vlans)
	case "except":
		all, _ := util.ExpandVLANRange("1-4094")
		return subtractVlans(all, vlans)
	}
	return vlans
}

func mergeVlans(a, b []int) []int {
	out, _ := util.ExpandRange(util.CompactRange(append(append([]int(nil), a...), b...)))
	return out
}

func subtractVlans(a, b []int) []int {
	drop := make(map[int]bool, len(b))
	for _, v := range b {
		drop[v] = true
	}
	out := []int{}
	for _, v := range a {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}

func (b *Builder) ifStandby(n *grammar.Node) {
	a := n.Addr("addr")
	b.eachInterface(func(i *rgos.Interface) { i.StandbyAddress = a })
}

func (b *Builder) ifOspfArea(n *grammar.Node) {
	proc := n.Str("proc")
	area := n.Area("area")
	b.eachInterface(func(i *rgos.Interface) {
		i.Ospf.Process = &proc
		i.Ospf.Area = &area
		i.Ospf.Line = n.Line
	})
}

func (b *Builder) ifOspfCost(n *grammar.Node) {
	v := n.Int("cost")
	b.eachInterface(func(i *rgos.Interface) { i.Ospf.Cost = &v })
}

func (b *Builder) ifOspfHello(n *grammar.Node) {
	v := n.Int("seconds")
	b.eachInterface(func(i *rgos.Interface) { i.Ospf.HelloInterval = &v })
}

func (b *Builder) ifOspfDead(n *grammar.Node) {
	v := n.Int("seconds")
	b.eachInterface(func(i *rgos.Interface) { i.Ospf.DeadInterval = &v })
}

func (b *Builder) ifOspfNetwork(n *grammar.Node) {
	t := rgos.OspfNetworkType(strings.ToLower(n.Str("type")))
	b.eachInterface(func(i *rgos.Interface) { i.Ospf.NetworkType = t })
}

func (b *Builder) ifOspfPassive(*grammar.Node) {
	b.eachInterface(func(i *rgos.Interface) { i.SetOspfPassive(true) })
}

func (b *Builder) ifNoOspfPassive(*grammar.Node) {
	b.eachInterface(func(i *rgos.Interface) { i.SetOspfPassive(false) })
}
