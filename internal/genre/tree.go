// Package genre holds the whole-taxonomy logic that no single genre can
// check on its own: the hierarchy overlay used for cycle detection and
// reparenting, relevance consensus, and the default taxonomy.
package genre

import (
	"context"
	"fmt"
	"slices"

	"github.com/genrewiki/genrewiki-server/internal/domain"
)

// Node is one genre's place in the hierarchy.
type Node struct {
	ID      string
	Name    string
	Parents []string
}

// SnapshotSource loads every genre's id, name and parent edges.
type SnapshotSource interface {
	FindTreeSnapshot(ctx context.Context) ([]Node, error)
}

// Tree is an in-memory overlay of the entire genre hierarchy. It is built
// fresh for each command, mutated with the candidate change, and discarded.
// Iteration follows insertion order so the reported cycle is deterministic.
type Tree struct {
	order []string
	nodes map[string]*Node
}

// NewTree builds a tree from nodes in the given order.
func NewTree(nodes []Node) *Tree {
	t := &Tree{
		order: make([]string, 0, len(nodes)),
		nodes: make(map[string]*Node, len(nodes)),
	}
	for _, n := range nodes {
		t.put(n.ID, n.Name, n.Parents)
	}
	return t
}

// LoadTree reads the current hierarchy from src.
func LoadTree(ctx context.Context, src SnapshotSource) (*Tree, error) {
	nodes, err := src.FindTreeSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load genre tree: %w", err)
	}
	return NewTree(nodes), nil
}

func (t *Tree) put(id, name string, parents []string) {
	n, ok := t.nodes[id]
	if !ok {
		n = &Node{ID: id}
		t.nodes[id] = n
		t.order = append(t.order, id)
	}
	n.Name = name
	n.Parents = slices.Clone(parents)
}

// Len returns the number of genres in the tree.
func (t *Tree) Len() int {
	return len(t.order)
}

// Has reports whether id is a genre in the tree.
func (t *Tree) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Node returns a copy of the node for id.
func (t *Tree) Node(id string) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return Node{ID: n.ID, Name: n.Name, Parents: slices.Clone(n.Parents)}, true
}

// Nodes returns copies of every node in insertion order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.order))
	for _, id := range t.order {
		n, _ := t.Node(id)
		out = append(out, n)
	}
	return out
}

// Parents returns the parent ids of id.
func (t *Tree) Parents(id string) []string {
	if n, ok := t.nodes[id]; ok {
		return slices.Clone(n.Parents)
	}
	return nil
}

// Children returns the ids of every genre with id as a parent, in tree order.
func (t *Tree) Children(id string) []string {
	var children []string
	for _, cid := range t.order {
		if slices.Contains(t.nodes[cid].Parents, id) {
			children = append(children, cid)
		}
	}
	return children
}

// Roots returns the ids of genres without parents, in tree order.
func (t *Tree) Roots() []string {
	var roots []string
	for _, id := range t.order {
		if len(t.nodes[id].Parents) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// FirstMissing returns the first id in refs that is not in the tree.
func (t *Tree) FirstMissing(refs ...[]string) (string, bool) {
	for _, ids := range refs {
		for _, id := range ids {
			if !t.Has(id) {
				return id, true
			}
		}
	}
	return "", false
}

// Insert adds a candidate genre and validates the whole hierarchy.
func (t *Tree) Insert(id, name string, parents []string) error {
	t.put(id, name, parents)
	return t.Validate()
}

// Update replaces a genre's name and parents and validates the whole
// hierarchy. An unknown id is inserted.
func (t *Tree) Update(id, name string, parents []string) error {
	t.put(id, name, parents)
	return t.Validate()
}

// Delete removes id after reparenting its children: each child loses id and
// gains id's own parents, so no ancestry is lost and no edge dangles. It
// returns the reparented children in tree order.
func (t *Tree) Delete(id string) []string {
	deleted, ok := t.nodes[id]
	if !ok {
		return nil
	}

	var children []string
	for _, cid := range t.order {
		child := t.nodes[cid]
		if cid == id || !slices.Contains(child.Parents, id) {
			continue
		}
		next := make([]string, 0, len(child.Parents)+len(deleted.Parents))
		for _, p := range child.Parents {
			if p != id {
				next = append(next, p)
			}
		}
		for _, p := range deleted.Parents {
			if !slices.Contains(next, p) {
				next = append(next, p)
			}
		}
		child.Parents = next
		children = append(children, cid)
	}

	delete(t.nodes, id)
	t.order = slices.DeleteFunc(t.order, func(o string) bool { return o == id })
	return children
}

// Validate returns a *domain.GenreCycleError for the first cycle found, or nil.
func (t *Tree) Validate() error {
	path := t.FindCycle()
	if path == nil {
		return nil
	}
	return &domain.GenreCycleError{IDs: path, Names: t.names(path)}
}

// FindCycle walks parent edges depth-first from every genre in insertion
// order and returns the first cycle met as a path that starts and ends at
// the repeated genre, or nil when the hierarchy is acyclic.
//
// Genres already fully explored without meeting a cycle are skipped, which
// keeps the walk linear in genres plus edges.
func (t *Tree) FindCycle() []string {
	done := make(map[string]bool, len(t.order))
	for _, start := range t.order {
		if done[start] {
			continue
		}
		if path := t.findCycleFrom(start, done); path != nil {
			return path
		}
	}
	return nil
}

// frame is one level of the explicit DFS stack: a genre and the index of
// the next parent to visit.
type frame struct {
	id   string
	next int
}

func (t *Tree) findCycleFrom(start string, done map[string]bool) []string {
	stack := []frame{{id: start}}
	depth := map[string]int{start: 0}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		var parents []string
		if n, ok := t.nodes[top.id]; ok {
			parents = n.Parents
		}

		if top.next == len(parents) {
			done[top.id] = true
			delete(depth, top.id)
			stack = stack[:len(stack)-1]
			continue
		}

		parent := parents[top.next]
		top.next++

		if i, onStack := depth[parent]; onStack {
			path := make([]string, 0, len(stack)-i+1)
			for _, f := range stack[i:] {
				path = append(path, f.id)
			}
			return append(path, parent)
		}
		if done[parent] {
			continue
		}
		depth[parent] = len(stack)
		stack = append(stack, frame{id: parent})
	}
	return nil
}

func (t *Tree) names(ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		if n, ok := t.nodes[id]; ok && n.Name != "" {
			names[i] = n.Name
		} else {
			names[i] = id
		}
	}
	return names
}
