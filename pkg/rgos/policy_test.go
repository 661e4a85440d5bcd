package rgos

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommunity(t *testing.T) {
	tests := []struct {
		in      string
		want    Community
		wantStr string
		wantErr bool
	}{
		{"65000:100", Community(65000<<16 | 100), "65000:100", false},
		{"4259840100", Community(4259840100), "65000:100", false},
		{"no-export", CommunityNoExport, "no-export", false},
		{"NO-ADVERTISE", CommunityNoAdvertise, "no-advertise", false},
		{"local-as", CommunityLocalAS, "local-as", false},
		{"internet", CommunityInternet, "0:0", false},
		{"70000:1", 0, "", true},
		{"abc", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommunity(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommunity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("ParseCommunity(%q) = %d, want %d", tt.in, got, tt.want)
			}
			if got.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantStr)
			}
		})
	}
}

func TestSortCommunities(t *testing.T) {
	got := SortCommunities([]Community{3, 1, 3, 2, 1})
	if diff := cmp.Diff([]Community{1, 2, 3}, got); diff != "" {
		t.Errorf("SortCommunities() mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteMapClauses(t *testing.T) {
	m := NewRouteMap("RM")
	m.Clause(20, Deny, 5)
	m.Clause(10, Permit, 1).SetTag = u32(7)
	c := m.Clause(10, Deny, 9)

	if c.SetTag == nil || *c.SetTag != 7 {
		t.Error("re-entered clause lost its set lines")
	}
	if c.Action != Deny {
		t.Errorf("Action = %s, want deny", c.Action)
	}
	if c.Line != 1 {
		t.Errorf("Line = %d, want first definition line 1", c.Line)
	}

	var seqs []int
	for _, cl := range m.Clauses() {
		seqs = append(seqs, cl.Seq)
	}
	if diff := cmp.Diff([]int{10, 20}, seqs); diff != "" {
		t.Errorf("Clauses() order mismatch (-want +got):\n%s", diff)
	}
}

func TestPrefixListAddLine(t *testing.T) {
	p := &PrefixList{Name: "PL"}
	pfx := netip.MustParsePrefix("10.0.0.0/8")
	p.AddLine(&PrefixListLine{Action: Permit, Prefix: pfx})
	p.AddLine(&PrefixListLine{Seq: 3, Action: Deny, Prefix: pfx})
	p.AddLine(&PrefixListLine{Action: Permit, Prefix: pfx, Le: 24})
	p.AddLine(&PrefixListLine{Seq: 5, Action: Deny, Prefix: pfx})

	var seqs []int
	for _, l := range p.Lines {
		seqs = append(seqs, l.Seq)
	}
	if diff := cmp.Diff([]int{3, 5, 10}, seqs); diff != "" {
		t.Errorf("seqs mismatch (-want +got):\n%s", diff)
	}
	if p.Lines[1].Action != Deny {
		t.Errorf("seq 5 action = %s, want deny (replaced)", p.Lines[1].Action)
	}
}

func TestPrefixListLengthRange(t *testing.T) {
	pfx := netip.MustParsePrefix("10.0.0.0/8")
	tests := []struct {
		name string
		line PrefixListLine
		lo, hi int
	}{
		{"exact", PrefixListLine{Prefix: pfx}, 8, 8},
		{"ge", PrefixListLine{Prefix: pfx, Ge: 16}, 16, 32},
		{"le", PrefixListLine{Prefix: pfx, Le: 24}, 8, 24},
		{"ge le", PrefixListLine{Prefix: pfx, Ge: 16, Le: 24}, 16, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.line.LengthRange()
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("LengthRange() = %d, %d, want %d, %d", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestStandardAccessListSeq(t *testing.T) {
	a := &StandardAccessList{Name: "10"}
	a.AddLine(&AccessListLine{Action: Permit})
	a.AddLine(&AccessListLine{Seq: 5, Action: Deny})
	a.AddLine(&AccessListLine{Action: Permit})

	var seqs []int
	for _, l := range a.Lines {
		seqs = append(seqs, l.Seq)
	}
	if diff := cmp.Diff([]int{5, 10, 20}, seqs); diff != "" {
		t.Errorf("seqs mismatch (-want +got):\n%s", diff)
	}
}
