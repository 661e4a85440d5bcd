package util

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net/netip"
	"strconv"
	"strings"

	"go4.org/netipx"
)

// IsValidIPv4 checks if a string is a valid IPv4 address
func IsValidIPv4(ipStr string) bool {
	a, err := netip.ParseAddr(ipStr)
	return err == nil && a.Is4()
}

// ParseIPv4 parses a dotted-quad IPv4 address.
func ParseIPv4(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return netip.Addr{}, fmt.Errorf("invalid IPv4 address: %s", s)
	}
	return a, nil
}

// ParseMask converts a dotted subnet mask into a prefix length.
// Non-contiguous masks are rejected.
func ParseMask(mask string) (int, error) {
	a, err := ParseIPv4(mask)
	if err != nil {
		return 0, fmt.Errorf("invalid subnet mask: %s", mask)
	}
	v := addrToUint32(a)
	ones := bits.LeadingZeros32(^v)
	if ones != bits.OnesCount32(v) {
		return 0, fmt.Errorf("non-contiguous subnet mask: %s", mask)
	}
	return ones, nil
}

// MaskString renders a prefix length as a dotted subnet mask.
func MaskString(length int) string {
	var v uint32
	if length > 0 {
		v = ^uint32(0) << (32 - length)
	}
	return uint32ToAddr(v).String()
}

// ParseAddrMask combines an address and a dotted mask into a prefix that keeps
// the host bits, as interface addresses do.
func ParseAddrMask(addr, mask string) (netip.Prefix, error) {
	a, err := ParseIPv4(addr)
	if err != nil {
		return netip.Prefix{}, err
	}
	l, err := ParseMask(mask)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(a, l), nil
}

// ParseNetworkMask is ParseAddrMask with the host bits cleared.
func ParseNetworkMask(addr, mask string) (netip.Prefix, error) {
	p, err := ParseAddrMask(addr, mask)
	if err != nil {
		return netip.Prefix{}, err
	}
	return p.Masked(), nil
}

// ClassfulPrefix returns the classful network that contains addr.
func ClassfulPrefix(addr netip.Addr) netip.Prefix {
	first := addr.As4()[0]
	switch {
	case first < 128:
		return netip.PrefixFrom(addr, 8).Masked()
	case first < 192:
		return netip.PrefixFrom(addr, 16).Masked()
	default:
		return netip.PrefixFrom(addr, 24).Masked()
	}
}

// AddressSpace returns the union of the address ranges of ps, or nil when
// any prefix is invalid.
func AddressSpace(ps ...netip.Prefix) *netipx.IPSet {
	var b netipx.IPSetBuilder
	for _, p := range ps {
		if !p.IsValid() {
			return nil
		}
		b.AddPrefix(p.Masked())
	}
	set, err := b.IPSet()
	if err != nil {
		return nil
	}
	return set
}

// IPWildcard is an address plus an inverse mask, where set wildcard bits are
// "don't care". Wildcards need not be contiguous.
type IPWildcard struct {
	Addr     netip.Addr
	Wildcard netip.Addr
}

// ParseIPWildcard parses an address and an inverse mask.
func ParseIPWildcard(addr, wildcard string) (IPWildcard, error) {
	a, err := ParseIPv4(addr)
	if err != nil {
		return IPWildcard{}, err
	}
	w, err := ParseIPv4(wildcard)
	if err != nil {
		return IPWildcard{}, fmt.Errorf("invalid wildcard: %s", wildcard)
	}
	return IPWildcard{Addr: a, Wildcard: w}, nil
}

// WildcardFromPrefix builds the wildcard equivalent of a prefix.
func WildcardFromPrefix(p netip.Prefix) IPWildcard {
	var care uint32
	if p.Bits() > 0 {
		care = ^uint32(0) << (32 - p.Bits())
	}
	return IPWildcard{Addr: p.Masked().Addr(), Wildcard: uint32ToAddr(^care)}
}

// Start returns the lowest address the wildcard matches.
func (w IPWildcard) Start() netip.Addr {
	return uint32ToAddr(addrToUint32(w.Addr) &^ addrToUint32(w.Wildcard))
}

// Contains reports whether a is matched by the wildcard.
func (w IPWildcard) Contains(a netip.Addr) bool {
	if !a.Is4() {
		return false
	}
	care := ^addrToUint32(w.Wildcard)
	return addrToUint32(a)&care == addrToUint32(w.Addr)&care
}

// Prefix returns the prefix equivalent of a contiguous wildcard.
func (w IPWildcard) Prefix() (netip.Prefix, bool) {
	care := ^addrToUint32(w.Wildcard)
	ones := bits.LeadingZeros32(^care)
	if ones != bits.OnesCount32(care) {
		return netip.Prefix{}, false
	}
	return netip.PrefixFrom(w.Start(), ones), true
}

// CareBits is the number of bits the wildcard compares. For a contiguous
// wildcard it equals the prefix length.
func (w IPWildcard) CareBits() int {
	return bits.OnesCount32(^addrToUint32(w.Wildcard))
}

func (w IPWildcard) String() string {
	if p, ok := w.Prefix(); ok {
		return p.String()
	}
	return w.Addr.String() + ":" + w.Wildcard.String()
}

func addrToUint32(a netip.Addr) uint32 {
	b := a.As4()
	return binary.BigEndian.Uint32(b[:])
}

func uint32ToAddr(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

const maxASN = 4294967295 // max uint32, 4-byte ASN range

// ValidateASN checks if an AS number is valid (1 to 4294967295).
func ValidateASN(asn int64) error {
	if asn < 1 || asn > maxASN {
		return fmt.Errorf("AS number must be between 1 and %d, got %d", maxASN, asn)
	}
	return nil
}

// ParseASN parses plain ("65001") or asdot ("1.10") AS numbers.
// Zero is accepted; callers treat it as "unset".
func ParseASN(s string) (uint32, error) {
	if hi, lo, ok := strings.Cut(s, "."); ok {
		h, err1 := strconv.ParseUint(hi, 10, 16)
		l, err2 := strconv.ParseUint(lo, 10, 16)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid asdot AS number: %s", s)
		}
		return uint32(h)<<16 | uint32(l), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid AS number: %s", s)
	}
	return uint32(v), nil
}

// ParseArea parses an OSPF area written as a number or a dotted quad.
func ParseArea(s string) (uint32, error) {
	if strings.Contains(s, ".") {
		a, err := ParseIPv4(s)
		if err != nil {
			return 0, fmt.Errorf("invalid OSPF area: %s", s)
		}
		return addrToUint32(a), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid OSPF area: %s", s)
	}
	return uint32(v), nil
}
