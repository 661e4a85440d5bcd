package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/newtron-network/rgosc/pkg/util"
	"github.com/newtron-network/rgosc/pkg/warnings"
)

const sample = `hostname edge1
interface Loopback 0
 ip address 1.1.1.1 255.255.255.255
interface GigabitEthernet 0/1
 ip address 10.0.0.1 255.255.255.252
 ip ospf network point-to-multipoint
router ospf 1
 network 10.0.0.0 0.0.0.3 area 0
router bgp 65000
 neighbor 10.0.0.2 remote-as 65001
 neighbor 10.0.0.2 route-map MISSING in
`

func TestCompile(t *testing.T) {
	res := Compile(context.Background(), Unit{Name: "edge1.cfg", Text: sample})
	if res.Err != nil {
		t.Fatalf("Compile() error = %v", res.Err)
	}
	if res.Hostname() != "edge1" {
		t.Errorf("Hostname() = %q, want edge1", res.Hostname())
	}
	if res.Config == nil || res.Vendor == nil || res.Refs == nil {
		t.Fatalf("Result = %+v, want config, vendor model and refs", res)
	}
	if _, ok := res.Config.Interfaces["GigabitEthernet 0/1"]; !ok {
		t.Error("GigabitEthernet 0/1 missing from canonical config")
	}
	if len(res.Warnings.Unimplemented) == 0 {
		t.Error("expected an unimplemented warning for point-to-multipoint")
	}
	if len(res.Refs.Undefined()) == 0 {
		t.Error("expected an undefined reference to route-map MISSING")
	}
	if res.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", res.Duration)
	}
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Compile(ctx, Unit{Name: "x", Text: sample})
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if res.Hostname() != "x" {
		t.Errorf("Hostname() = %q, want unit name", res.Hostname())
	}
}

func TestCompileAllIsolatesFailures(t *testing.T) {
	orig := runPipeline
	defer func() { runPipeline = orig }()
	runPipeline = func(u Unit, res *Result) (err error) {
		if u.Name == "bad" {
			defer util.RecoverInvariant(&err)
			util.Invariantf("builder", "stack underflow")
		}
		return orig(u, res)
	}

	units := []Unit{
		{Name: "a", Text: "hostname a\n"},
		{Name: "bad", Text: "hostname bad\n"},
		{Name: "c", Text: "hostname c\n"},
	}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	results := CompileAll(context.Background(), units, Options{Workers: 2, Metrics: m})

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, want := range []string{"a", "bad", "c"} {
		if results[i].Unit.Name != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Unit.Name, want)
		}
	}
	if !errors.Is(results[1].Err, util.ErrInvariant) {
		t.Errorf("bad unit Err = %v, want ErrInvariant", results[1].Err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("sibling errors = %v, %v", results[0].Err, results[2].Err)
	}
	if got := Failed(results); got != 1 {
		t.Errorf("Failed() = %d, want 1", got)
	}
	if got := m.UnitCount(StatusOK); got != 2 {
		t.Errorf("units{ok} = %v, want 2", got)
	}
	if got := m.UnitCount(StatusFailed); got != 1 {
		t.Errorf("units{failed} = %v, want 1", got)
	}
}

func TestMetricsWarnings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	CompileAll(context.Background(), []Unit{{Name: "s", Text: sample}}, Options{Metrics: m})
	if got := m.WarningCount(warnings.KindUnimplemented); got < 1 {
		t.Errorf("warnings{unimplemented} = %v, want >= 1", got)
	}

	path := filepath.Join(t.TempDir(), "rgosc.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"rgosc_units_total", "rgosc_warnings_total", "rgosc_unit_duration_seconds"} {
		if !strings.Contains(string(data), name) {
			t.Errorf("textfile missing %s", name)
		}
	}
}

func TestReadUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r1.cfg")
	if err := os.WriteFile(path, []byte("hostname r1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	u, err := ReadUnit(path)
	if err != nil {
		t.Fatalf("ReadUnit() error = %v", err)
	}
	if u.Name != path || u.Text != "hostname r1\n" {
		t.Errorf("ReadUnit() = %+v", u)
	}
	if _, err := ReadUnit(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}
