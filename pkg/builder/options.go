package builder

import (
	"sort"
	"strconv"
	"strings"

	"github.com/newtron-network/rgosc/pkg/grammar"
)

// options holds the keyword arguments trailing a statement, such as
// "route-map X metric 10 subnets".
type options struct {
	values map[string]string
	flags  map[string]bool
	used   map[string]bool
}

// parseOptions splits s into flags and key/value pairs. Keys listed in
// valued take the following token as their value; a key ending in "?"
// takes it only when it is numeric.
func parseOptions(s string, valued ...string) *options {
	o := &options{values: map[string]string{}, flags: map[string]bool{}, used: map[string]bool{}}
	required := map[string]bool{}
	numeric := map[string]bool{}
	for _, v := range valued {
		if k, ok := strings.CutSuffix(v, "?"); ok {
			numeric[k] = true
		} else {
			required[v] = true
		}
	}
	toks := strings.Fields(s)
	for i := 0; i < len(toks); i++ {
		k := strings.ToLower(toks[i])
		switch {
		case required[k] && i+1 < len(toks):
			o.values[k] = toks[i+1]
			i++
		case numeric[k] && i+1 < len(toks) && isNumber(toks[i+1]):
			o.values[k] = toks[i+1]
			o.flags[k] = true
			i++
		default:
			o.flags[k] = true
		}
	}
	return o
}

func isNumber(s string) bool {
	_, err := strconv.ParseUint(s, 10, 32)
	return err == nil
}

func (o *options) flag(k string) bool {
	o.used[k] = true
	return o.flags[k]
}

func (o *options) value(k string) string {
	o.used[k] = true
	return o.values[k]
}

func (o *options) uint(k string) (uint32, bool) {
	v := o.value(k)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// unknown returns the keywords nobody asked about, sorted.
func (o *options) unknown() []string {
	var out []string
	for k := range o.flags {
		if !o.used[k] {
			out = append(out, k)
		}
	}
	for k := range o.values {
		if !o.used[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (b *Builder) reportUnknownOptions(n *grammar.Node, o *options) {
	for _, k := range o.unknown() {
		b.w.Unimplementedf("Option %q of %q at line %d", k, n.Text, n.Line)
	}
}
