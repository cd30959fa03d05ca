// Package scene is the structural parent/child graph that spawned boids and
// formation markers hang from. Callers hold direct handles to the nodes they
// own; there is no lookup by name.
package scene

import (
	"errors"

	"github.com/flockgo/flockd/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNilNode = errors.New("scene: nil node")
	ErrCycle   = errors.New("scene: attach would create a cycle")
)

// Node is a named grouping point with a position relative to its parent.
// Accessed only from the host loop goroutine.
type Node struct {
	Name   string
	Local  mgl64.Vec3
	Entity ecs.EntityID // zero for pure containers

	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{Name: name}
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list in attach order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) ChildCount() int { return len(n.children) }

// Attach reparents child under n, detaching it from any previous parent.
func (n *Node) Attach(child *Node) error {
	if n == nil || child == nil {
		return ErrNilNode
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}
	if child.parent == n {
		return nil
	}
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Detach removes n from its parent. A root node is left untouched.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// WorldPosition sums local offsets up to the root.
func (n *Node) WorldPosition() mgl64.Vec3 {
	var pos mgl64.Vec3
	for p := n; p != nil; p = p.parent {
		pos = pos.Add(p.Local)
	}
	return pos
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}
