// Package dsu implements a disjoint-set (union-find) structure over the
// integers 0..n-1.
package dsu

import "fmt"

// DSU tracks a partition of 0..n-1. Find compresses the whole path onto
// the root and Union attaches the smaller tree under the larger root.
type DSU struct {
	parent     []int
	size       []int
	components int
}

// New creates n singleton sets.
func New(n int) *DSU {
	d := &DSU{
		parent:     make([]int, n),
		size:       make([]int, n),
		components: n,
	}
	for i := range d.parent {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

func (d *DSU) check(i int) {
	if i < 0 || i >= len(d.parent) {
		panic(fmt.Sprintf("dsu: index %d out of range [0, %d)", i, len(d.parent)))
	}
}

// Find returns the representative of the set containing i.
func (d *DSU) Find(i int) int {
	d.check(i)
	root := i
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[i] != root {
		d.parent[i], i = root, d.parent[i]
	}
	return root
}

// Union merges the sets of a and b and reports whether they were distinct.
func (d *DSU) Union(a, b int) bool {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return false
	}
	if d.size[ra] < d.size[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	d.size[ra] += d.size[rb]
	d.components--
	return true
}

// Connected reports whether a and b are in the same set.
func (d *DSU) Connected(a, b int) bool {
	return d.Find(a) == d.Find(b)
}

// Components returns the number of disjoint sets.
func (d *DSU) Components() int {
	return d.components
}

// Size returns the number of elements in the set containing i.
func (d *DSU) Size(i int) int {
	return d.size[d.Find(i)]
}

// Len returns the number of elements.
func (d *DSU) Len() int {
	return len(d.parent)
}
