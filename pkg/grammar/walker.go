package grammar

// Listener receives parse-tree events. Enter and exit calls are paired.
type Listener interface {
	EnterRule(n *Node)
	ExitRule(n *Node)
	// ExitEveryRule is called after ExitRule for every node, silent ones included.
	ExitEveryRule(n *Node)
	VisitErrorNode(n *Node)
}

// BaseListener implements Listener with no-ops.
type BaseListener struct{}

func (BaseListener) EnterRule(*Node)      {}
func (BaseListener) ExitRule(*Node)       {}
func (BaseListener) ExitEveryRule(*Node)  {}
func (BaseListener) VisitErrorNode(*Node) {}

// Walk visits the tree depth-first with an explicit stack, so nesting depth
// is bounded by memory rather than the goroutine stack.
func Walk(l Listener, root *Node) {
	type visit struct {
		n    *Node
		next int
	}
	l.EnterRule(root)
	stack := []visit{{n: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.n.Children) {
			c := top.n.Children[top.next]
			top.next++
			if c.Err != nil {
				l.VisitErrorNode(c)
				continue
			}
			l.EnterRule(c)
			stack = append(stack, visit{n: c})
			continue
		}
		l.ExitRule(top.n)
		l.ExitEveryRule(top.n)
		stack = stack[:len(stack)-1]
	}
}
