package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/newtron-network/rgosc/pkg/builder"
	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/convert"
	"github.com/newtron-network/rgosc/pkg/grammar"
	"github.com/newtron-network/rgosc/pkg/util"
	"github.com/newtron-network/rgosc/pkg/warnings"
)

const edge = `hostname edge1
interface Loopback 0
 ip address 1.1.1.1 255.255.255.255
interface GigabitEthernet 0/1
 ip address 10.0.0.1 255.255.255.252
ip route 0.0.0.0 0.0.0.0 10.0.0.2
router ospf 1
 network 10.0.0.0 0.0.0.3 area 0
router bgp 65000
 neighbor 10.0.0.2 remote-as 65001
route-map RM permit 10
`

func compile(t *testing.T, text string) *canonical.Configuration {
	t.Helper()
	w := warnings.New()
	vc, _ := builder.Build(grammar.Parse(text), w, nil)
	c, err := convert.Convert(vc, w)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	return c
}

func newPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p := NewPublisher(mr.Addr(), 0)
	t.Cleanup(func() { p.Close() })
	return p, mr
}

func TestPublishAndLoad(t *testing.T) {
	p, mr := newPublisher(t)
	ctx := context.Background()
	if err := p.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	n, err := p.Publish(ctx, compile(t, edge))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if n == 0 {
		t.Fatal("Publish() wrote no rows")
	}

	if got := mr.HGet("INTERFACE|edge1|GigabitEthernet 0/1", "address"); got != "10.0.0.1/30" {
		t.Errorf("interface address = %q, want 10.0.0.1/30", got)
	}
	if got := mr.HGet("BGP_NEIGHBOR|edge1|default|10.0.0.2", "remote_as"); got != "65001" {
		t.Errorf("neighbor remote_as = %q, want 65001", got)
	}
	if got := mr.HGet("BGP_PROCESS|edge1|default", "router_id"); got != "1.1.1.1" {
		t.Errorf("bgp router_id = %q, want 1.1.1.1", got)
	}
	if got := mr.HGet("OSPF_INTERFACE|edge1|GigabitEthernet 0/1", "area"); got != "0" {
		t.Errorf("ospf area = %q, want 0", got)
	}
	if got := mr.HGet("STATIC_ROUTE|edge1|default|0.0.0.0/0|10.0.0.2", "next_hop_kind"); got != "ip" {
		t.Errorf("static route next_hop_kind = %q, want ip", got)
	}

	rows, err := p.Load(ctx, "edge1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rows) != n {
		t.Errorf("Load() returned %d rows, want %d", len(rows), n)
	}
	meta, ok := rows["DEVICE_METADATA|localhost"]
	if !ok || meta["hostname"] != "edge1" {
		t.Errorf("DEVICE_METADATA = %v", meta)
	}
	if _, ok := rows["ROUTING_POLICY|RM"]; !ok {
		t.Error("ROUTING_POLICY|RM missing")
	}
}

func TestPublishReplacesSnapshot(t *testing.T) {
	p, mr := newPublisher(t)
	ctx := context.Background()

	if _, err := p.Publish(ctx, compile(t, edge)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Publish(ctx, compile(t, "hostname other\ninterface Loopback 0\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Publish(ctx, compile(t, "hostname edge1\ninterface Loopback 0\n")); err != nil {
		t.Fatal(err)
	}

	if mr.Exists("INTERFACE|edge1|GigabitEthernet 0/1") {
		t.Error("stale interface row survived republish")
	}
	if mr.Exists("BGP_PROCESS|edge1|default") {
		t.Error("stale bgp row survived republish")
	}
	if !mr.Exists("INTERFACE|edge1|Loopback 0") {
		t.Error("new interface row missing")
	}
	if !mr.Exists("INTERFACE|other|Loopback 0") {
		t.Error("other host's rows were touched")
	}

	n, err := p.Delete(ctx, "edge1")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n == 0 || mr.Exists("INTERFACE|edge1|Loopback 0") {
		t.Errorf("Delete() = %d, rows remain", n)
	}
	if !mr.Exists("INTERFACE|other|Loopback 0") {
		t.Error("Delete() removed another host's rows")
	}
}

func TestPublishRequiresHostname(t *testing.T) {
	p, _ := newPublisher(t)
	_, err := p.Publish(context.Background(), canonical.NewConfiguration(""))
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("Publish() error = %v, want ErrInvalidConfig", err)
	}
}

func TestPublishUnreachable(t *testing.T) {
	p, mr := newPublisher(t)
	mr.Close()
	if err := p.Ping(context.Background()); err == nil {
		t.Error("Ping() against closed server succeeded")
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"edge1", "edge1"},
		{"a*b", `a\*b`},
		{"r[1]?", `r\[1\]\?`},
	}
	for _, tt := range tests {
		if got := escapeGlob(tt.in); got != tt.want {
			t.Errorf("escapeGlob(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
