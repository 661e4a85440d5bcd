package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/newtron-network/rgosc/pkg/audit"
	"github.com/newtron-network/rgosc/pkg/cli"
	"github.com/newtron-network/rgosc/pkg/compiler"
	"github.com/newtron-network/rgosc/pkg/settings"
)

const edge = `hostname edge1
interface Loopback 0
 ip address 1.1.1.1 255.255.255.255
router bgp 65000
 neighbor 10.0.0.2 remote-as 65001
 neighbor 10.0.0.2 route-map MISSING in
ip prefix-list IDLE permit 10.0.0.0/8
`

func testApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cli.SetColor(false)
	var out, errOut bytes.Buffer
	dir := t.TempDir()
	a := &App{
		settings:     &settings.Settings{AuditLog: filepath.Join(dir, "history.log")},
		settingsPath: filepath.Join(dir, "settings.json"),
		out:          &out,
		errOut:       &errOut,
	}
	return a, &out, &errOut
}

func TestRunCompile(t *testing.T) {
	a, out, errOut := testApp(t)
	units := []compiler.Unit{{Name: "edge1.cfg", Text: edge}, {Name: "core.cfg", Text: "hostname core1\n"}}

	if err := a.run(context.Background(), units, audit.CommandCompile, compileOptions{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "edge1") || !strings.Contains(out.String(), "\n---\n") {
		t.Errorf("stdout missing YAML documents:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "route-map MISSING") && !strings.Contains(errOut.String(), "red-flag") {
		t.Errorf("stderr missing warnings table:\n%s", errOut.String())
	}

	l, err := audit.NewFileLogger(a.settings.GetAuditLog(), audit.RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	events, err := l.Query(audit.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("history has %d events, want 2", len(events))
	}
	if events[0].Hostname != "edge1" || !events[0].Success || events[0].Command != audit.CommandCompile {
		t.Errorf("first event = %+v", events[0])
	}
	if events[0].Run == "" || events[1].Run != events[0].Run {
		t.Errorf("Run IDs = %q, %q, want one run", events[0].Run, events[1].Run)
	}
}

func TestRunStrict(t *testing.T) {
	a, _, _ := testApp(t)
	units := []compiler.Unit{{Name: "edge1.cfg", Text: edge}}
	err := a.run(context.Background(), units, audit.CommandCompile, compileOptions{strict: true, noHistory: true})
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 3 {
		t.Errorf("run(strict) error = %v, want exit code 3", err)
	}
	if exitCode(err) != 3 {
		t.Errorf("exitCode() = %d, want 3", exitCode(err))
	}

	a, _, _ = testApp(t)
	clean := []compiler.Unit{{Name: "c.cfg", Text: "hostname c\n"}}
	if err := a.run(context.Background(), clean, audit.CommandCompile, compileOptions{strict: true, noHistory: true}); err != nil {
		t.Errorf("run(strict) on clean unit error = %v", err)
	}
}

func TestRunJSONAndMetrics(t *testing.T) {
	a, out, _ := testApp(t)
	metrics := filepath.Join(t.TempDir(), "rgosc.prom")
	o := compileOptions{format: "json", metricsOut: metrics, noWarnings: true, noHistory: true}
	if err := a.run(context.Background(), []compiler.Unit{{Name: "c.cfg", Text: "hostname c\n"}}, audit.CommandCompile, o); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "{") {
		t.Errorf("stdout is not JSON:\n%s", out.String())
	}
	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `rgosc_units_total{status="ok"} 1`) {
		t.Errorf("metrics textfile:\n%s", data)
	}

	if err := a.run(context.Background(), nil, audit.CommandCompile, compileOptions{format: "xml"}); err == nil {
		t.Error("run() with unknown format should fail")
	}
}

func TestRunPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	a, _, errOut := testApp(t)
	o := compileOptions{publish: true, redisAddr: mr.Addr(), redisDB: -1, noWarnings: true}
	if err := a.run(context.Background(), []compiler.Unit{{Name: "edge1.cfg", Text: edge}}, audit.CommandCompile, o); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !mr.Exists("DEVICE_METADATA|edge1|localhost") {
		t.Error("DEVICE_METADATA row not published")
	}
	if !strings.Contains(errOut.String(), "published") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestWriteRefs(t *testing.T) {
	a, out, _ := testApp(t)
	res := compiler.Compile(context.Background(), compiler.Unit{Name: "edge1.cfg", Text: edge})
	if err := a.writeRefs(res.Refs, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Undefined references", "MISSING", "Unused definitions", "IDLE"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("refs output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := a.writeRefs(res.Refs, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"undefined"`) {
		t.Errorf("refs JSON = %s", out.String())
	}
}

func TestWriteHistory(t *testing.T) {
	a, out, _ := testApp(t)
	if err := a.writeHistory(nil, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No compile history") {
		t.Errorf("empty history output = %q", out.String())
	}

	out.Reset()
	e := audit.NewEvent("alice", audit.CommandFetch, "10.0.0.1").WithHostname("edge1").WithSuccess().WithPublished(true)
	if err := a.writeHistory([]*audit.Event{e}, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"alice", "fetch", "edge1", "ok (published)", "clean"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("history output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSanitizeHost(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"edge1", "edge1"},
		{"10.0.0.1:2222", "10.0.0.1_2222"},
		{"[2001:db8::1]:22", "_2001_db8__1__22"},
	}
	for _, tt := range tests {
		if got := sanitizeHost(tt.in); got != tt.want {
			t.Errorf("sanitizeHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
