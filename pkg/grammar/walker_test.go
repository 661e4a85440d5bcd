package grammar

import (
	"reflect"
	"testing"
)

type recorder struct {
	events []string
	silent *SilentSyntaxCollection
}

func (r *recorder) EnterRule(n *Node) { r.events = append(r.events, "enter "+n.Rule) }
func (r *recorder) ExitRule(n *Node)  { r.events = append(r.events, "exit "+n.Rule) }
func (r *recorder) ExitEveryRule(n *Node) {
	r.silent.TryRecord(n)
}
func (r *recorder) VisitErrorNode(n *Node) { r.events = append(r.events, "error "+n.Text) }

func TestWalk(t *testing.T) {
	text := `interface Gi0/1
 shutdown
 bogus line
logging on
`
	rec := &recorder{silent: NewSilentSyntaxCollection()}
	Walk(rec, Parse(text).Root)

	want := []string{
		"enter config",
		"enter interface",
		"enter if_shutdown",
		"exit if_shutdown",
		"error bogus line",
		"exit interface",
		"enter global_ignored",
		"exit global_ignored",
		"exit config",
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %v\nwant %v", rec.events, want)
	}
	if got := rec.silent.Rules(); !reflect.DeepEqual(got, []string{"global_ignored"}) {
		t.Errorf("silent rules = %v", got)
	}
	if rec.silent.Len() != 1 || rec.silent.Lines("global_ignored")[0] != 4 {
		t.Errorf("silent lines = %v", rec.silent.Lines("global_ignored"))
	}
}

func TestWalkDeepTree(t *testing.T) {
	root := &Node{Rule: "config"}
	cur := root
	for i := 0; i < 100000; i++ {
		c := &Node{Rule: "nested"}
		cur.Children = []*Node{c}
		cur = c
	}
	count := 0
	Walk(countingListener{n: &count}, root)
	if count != 100001 {
		t.Errorf("visited %d nodes, want 100001", count)
	}
}

type countingListener struct {
	BaseListener
	n *int
}

func (c countingListener) EnterRule(*Node) { *c.n++ }
