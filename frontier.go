package plsbb

import "sort"

// frontier is the ordered set of open nodes from spec.md §3/§4.6,
// kept sorted ascending by lb so the front element is always the
// current global lower bound. There is no analogous container in the
// teacher repo (its enumeration-tree search file was not present in
// the retrieved pack) -- this is new code, written in the idiom of a
// sorted slice with binary-search insertion that gonum itself favors
// for small ordered collections.
type frontier struct {
	nodes []*node
}

func newFrontier() *frontier {
	return &frontier{}
}

func (f *frontier) empty() bool {
	return len(f.nodes) == 0
}

func (f *frontier) len() int {
	return len(f.nodes)
}

// front returns the node with the smallest lb, or nil if the frontier
// is empty.
func (f *frontier) front() *node {
	if f.empty() {
		return nil
	}
	return f.nodes[0]
}

// insert places n at the correct sorted position. Secondary order
// among equal lb values is implementation-defined (spec.md §4.6): ties
// are placed after existing entries with the same lb.
func (f *frontier) insert(n *node) {
	pos := sort.Search(len(f.nodes), func(i int) bool { return f.nodes[i].lb > n.lb })
	f.nodes = append(f.nodes, nil)
	copy(f.nodes[pos+1:], f.nodes[pos:])
	f.nodes[pos] = n
}

// popFront removes and returns the node with the smallest lb.
func (f *frontier) popFront() *node {
	n := f.nodes[0]
	f.nodes = f.nodes[1:]
	return n
}

// truncate drops every node whose lb >= globalUB (spec.md §4.6/§4.7
// step g): since nodes are sorted ascending, this is a single binary
// search plus a slice truncation. Dropped nodes' LP models are freed,
// matching the teacher's subProblem lifecycle of releasing a node's
// model once it is fathomed.
func (f *frontier) truncate(globalUB float64) {
	cut := sort.Search(len(f.nodes), func(i int) bool { return f.nodes[i].lb >= globalUB })
	for _, n := range f.nodes[cut:] {
		n.model.Delete()
	}
	f.nodes = f.nodes[:cut]
}

// drain releases every remaining node's LP model, used once the sBB
// loop has terminated and any surviving frontier nodes are no longer
// needed.
func (f *frontier) drain() {
	for _, n := range f.nodes {
		n.model.Delete()
	}
	f.nodes = nil
}

// sorted reports whether the frontier is ascending by lb, used by
// tests to check the frontier-ordering invariant (spec.md §8.7).
func (f *frontier) sorted() bool {
	for i := 1; i < len(f.nodes); i++ {
		if f.nodes[i].lb < f.nodes[i-1].lb {
			return false
		}
	}
	return true
}
