package models

import (
	"fmt"
	"strings"
)

// VirtualMode describes where a tree node takes its content from.
type VirtualMode int

const (
	VirtualNone VirtualMode = iota
	VirtualLinked
	VirtualMirror
)

func (m VirtualMode) String() string {
	switch m {
	case VirtualLinked:
		return "linked"
	case VirtualMirror:
		return "mirror"
	}
	return "none"
}

// ParseVirtualMode accepts the names produced by String and the numeric
// codes 0, 1, 2.
func ParseVirtualMode(s string) (VirtualMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "0", "":
		return VirtualNone, true
	case "linked", "link", "1":
		return VirtualLinked, true
	case "mirror", "2":
		return VirtualMirror, true
	}
	return VirtualNone, false
}

// NodeID indexes a node inside its Tree.
type NodeID int

// NoParent is the parent of root nodes.
const NoParent NodeID = -1

// TreeNode is one node of a tree note. Parent is a back-reference used for
// traversal only; the Tree owns every node.
type TreeNode struct {
	ID            NodeID
	Name          string
	Content       string
	Level         int
	Virtual       VirtualMode
	VirtualSource string
	Parent        NodeID
	Children      []NodeID
	Extra         map[string]string
}

// IsVirtual reports whether the node refers to content stored elsewhere.
func (n *TreeNode) IsVirtual() bool {
	return n.Virtual != VirtualNone
}

// VirtualResolver supplies the content of a virtual node from its source.
type VirtualResolver interface {
	Resolve(source string) (content string, ok bool)
}

// ResolverFunc adapts a function to VirtualResolver.
type ResolverFunc func(source string) (string, bool)

// Resolve implements VirtualResolver.
func (f ResolverFunc) Resolve(source string) (string, bool) { return f(source) }

// Tree is the arena of nodes owned by a tree note.
type Tree struct {
	nodes []TreeNode
	roots []NodeID
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Add stores node under parent (NoParent for a root) and returns its id.
// Level is derived from the parent. A virtual node without a source is
// stored as a plain node.
func (t *Tree) Add(parent NodeID, node TreeNode) (NodeID, error) {
	if parent != NoParent && !t.valid(parent) {
		return 0, fmt.Errorf("tree: parent %d does not exist", parent)
	}
	id := NodeID(len(t.nodes))
	node.ID = id
	node.Parent = parent
	node.Children = nil
	if node.Virtual != VirtualNone && strings.TrimSpace(node.VirtualSource) == "" {
		node.Virtual = VirtualNone
		node.VirtualSource = ""
	}
	if parent == NoParent {
		node.Level = 0
		t.roots = append(t.roots, id)
	} else {
		node.Level = t.nodes[parent].Level + 1
	}
	t.nodes = append(t.nodes, node)
	if parent != NoParent {
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	}
	return id, nil
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id NodeID) *TreeNode {
	if !t.valid(id) {
		return nil
	}
	return &t.nodes[id]
}

// Roots returns the root nodes in order.
func (t *Tree) Roots() []*TreeNode {
	return t.collect(t.roots)
}

// Children returns the children of id in order.
func (t *Tree) Children(id NodeID) []*TreeNode {
	if !t.valid(id) {
		return nil
	}
	return t.collect(t.nodes[id].Children)
}

// Parent returns the parent of id.
func (t *Tree) Parent(id NodeID) (*TreeNode, bool) {
	if !t.valid(id) || t.nodes[id].Parent == NoParent {
		return nil, false
	}
	return &t.nodes[t.nodes[id].Parent], true
}

func (t *Tree) collect(ids []NodeID) []*TreeNode {
	out := make([]*TreeNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, &t.nodes[id])
	}
	return out
}

// Walk visits every node depth-first in document order.
func (t *Tree) Walk(fn func(n *TreeNode, depth int)) {
	var visit func(ids []NodeID, depth int)
	visit = func(ids []NodeID, depth int) {
		for _, id := range ids {
			fn(&t.nodes[id], depth)
			visit(t.nodes[id].Children, depth+1)
		}
	}
	visit(t.roots, 0)
}

// FindByName returns the first node, in walk order, whose name matches
// case-insensitively.
func (t *Tree) FindByName(name string) *TreeNode {
	var found *TreeNode
	t.Walk(func(n *TreeNode, _ int) {
		if found == nil && strings.EqualFold(n.Name, name) {
			found = n
		}
	})
	return found
}

// EffectiveContent returns the content to display for id. Virtual nodes ask
// the resolver and fall back to their stored content when it has none.
func (t *Tree) EffectiveContent(id NodeID, r VirtualResolver) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	if n.IsVirtual() && r != nil {
		if content, ok := r.Resolve(n.VirtualSource); ok {
			return content
		}
	}
	return n.Content
}

// Validate checks that parent and child links agree and that every virtual
// node carries a source.
func (t *Tree) Validate() error {
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.IsVirtual() && n.VirtualSource == "" {
			return fmt.Errorf("tree: node %d is %s without a source", n.ID, n.Virtual)
		}
		if n.Parent != NoParent && (!t.valid(n.Parent) || n.Parent >= n.ID) {
			return fmt.Errorf("tree: node %d has invalid parent %d", n.ID, n.Parent)
		}
		for _, c := range n.Children {
			if !t.valid(c) || t.nodes[c].Parent != n.ID {
				return fmt.Errorf("tree: node %d lists foreign child %d", n.ID, c)
			}
		}
	}
	return nil
}
