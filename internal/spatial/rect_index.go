package spatial

// RectEntry is an axis-aligned rectangle stored in a RectIndex.
type RectEntry[S Scalar, T comparable] struct {
	XMin, YMin, XMax, YMax S
	Object                 T
}

func (e RectEntry[S, T]) containsPoint(x, y S) bool {
	return x >= e.XMin && x <= e.XMax && y >= e.YMin && y <= e.YMax
}

func (e RectEntry[S, T]) overlaps(o RectEntry[S, T]) bool {
	return e.XMax > o.XMin && e.XMin < o.XMax && e.YMax > o.YMin && e.YMin < o.YMax
}

// RectIndex registers each rectangle in every bin its box covers. A payload
// may be registered at most once.
type RectIndex[S Scalar, T comparable] struct {
	grid[S]
	bins    [][]RectEntry[S, T]
	covered map[T][]int
	order   map[T]int
	seq     int
}

// NewRectIndex creates an index over [xmin, xmax] × [ymin, ymax].
func NewRectIndex[S Scalar, T comparable](binSize, xmin, ymin, xmax, ymax S) *RectIndex[S, T] {
	g := newGrid(binSize, xmin, ymin, xmax, ymax)
	return &RectIndex[S, T]{
		grid:    g,
		bins:    make([][]RectEntry[S, T], g.cols*g.rows),
		covered: make(map[T][]int),
		order:   make(map[T]int),
	}
}

// Insert registers a rectangle. It returns false for a duplicate payload, an
// inverted rectangle or one entirely outside the domain. Rectangles crossing
// the domain edge are kept and registered in the bins they touch.
func (ri *RectIndex[S, T]) Insert(xmin, ymin, xmax, ymax S, obj T) bool {
	if _, dup := ri.covered[obj]; dup {
		return false
	}
	c0, r0, c1, r1, ok := ri.span(xmin, ymin, xmax, ymax)
	if !ok {
		return false
	}
	e := RectEntry[S, T]{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax, Object: obj}
	idx := make([]int, 0, (c1-c0+1)*(r1-r0+1))
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			b := r*ri.cols + c
			ri.bins[b] = append(ri.bins[b], e)
			idx = append(idx, b)
		}
	}
	ri.covered[obj] = idx
	ri.order[obj] = ri.seq
	ri.seq++
	return true
}

// Remove unregisters obj from every bin it covers.
func (ri *RectIndex[S, T]) Remove(obj T) bool {
	idx, ok := ri.covered[obj]
	if !ok {
		return false
	}
	for _, b := range idx {
		kept := ri.bins[b][:0]
		for _, e := range ri.bins[b] {
			if e.Object != obj {
				kept = append(kept, e)
			}
		}
		ri.bins[b] = kept
	}
	delete(ri.covered, obj)
	delete(ri.order, obj)
	return true
}

// Contains reports whether obj is registered.
func (ri *RectIndex[S, T]) Contains(obj T) bool {
	_, ok := ri.covered[obj]
	return ok
}

// Len returns the number of registered rectangles.
func (ri *RectIndex[S, T]) Len() int {
	return len(ri.covered)
}

// QueryPoint returns the payloads whose rectangle contains (x, y), boundary
// inclusive.
func (ri *RectIndex[S, T]) QueryPoint(x, y S) []T {
	if !ri.inDomain(x, y) {
		return nil
	}
	var out []T
	for _, e := range ri.bins[ri.bin(x, y)] {
		if e.containsPoint(x, y) {
			out = append(out, e.Object)
		}
	}
	return out
}

// ReportOverlap returns every unordered pair of registered rectangles that
// share interior area. Rectangles that only touch are not reported. Pairs
// are ordered by insertion.
func (ri *RectIndex[S, T]) ReportOverlap() [][2]T {
	seen := make(map[[2]T]struct{})
	var out [][2]T
	for _, bin := range ri.bins {
		for i := range bin {
			for j := i + 1; j < len(bin); j++ {
				a, b := bin[i], bin[j]
				if a.Object == b.Object || !a.overlaps(b) {
					continue
				}
				pair := [2]T{a.Object, b.Object}
				if ri.order[pair[0]] > ri.order[pair[1]] {
					pair[0], pair[1] = pair[1], pair[0]
				}
				if _, dup := seen[pair]; dup {
					continue
				}
				seen[pair] = struct{}{}
				out = append(out, pair)
			}
		}
	}
	return out
}

// Clear removes every rectangle.
func (ri *RectIndex[S, T]) Clear() {
	for i := range ri.bins {
		ri.bins[i] = ri.bins[i][:0]
	}
	ri.covered = make(map[T][]int)
	ri.order = make(map[T]int)
	ri.seq = 0
}
