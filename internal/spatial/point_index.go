package spatial

// PointEntry is a point stored in a PointIndex together with its payload.
type PointEntry[S Scalar, T comparable] struct {
	X, Y   S
	Object T
}

// Neighbor is a PointEntry paired with its distance to a query point.
type Neighbor[S Scalar, T comparable] struct {
	PointEntry[S, T]
	Distance S
}

// PointIndex bins points on a uniform grid. It is not safe for concurrent
// mutation; concurrent readers are fine once it is built.
type PointIndex[S Scalar, T comparable] struct {
	grid[S]
	bins  [][]PointEntry[S, T]
	count int
}

// NewPointIndex creates an index over [xmin, xmax] × [ymin, ymax].
func NewPointIndex[S Scalar, T comparable](binSize, xmin, ymin, xmax, ymax S) *PointIndex[S, T] {
	g := newGrid(binSize, xmin, ymin, xmax, ymax)
	return &PointIndex[S, T]{
		grid: g,
		bins: make([][]PointEntry[S, T], g.cols*g.rows),
	}
}

// Insert adds a point. Points outside the domain are dropped and reported
// as false.
func (pi *PointIndex[S, T]) Insert(x, y S, obj T) bool {
	if !pi.inDomain(x, y) {
		return false
	}
	b := pi.bin(x, y)
	pi.bins[b] = append(pi.bins[b], PointEntry[S, T]{X: x, Y: y, Object: obj})
	pi.count++
	return true
}

// Remove deletes the first entry matching both the point and the payload.
func (pi *PointIndex[S, T]) Remove(x, y S, obj T) bool {
	if !pi.inDomain(x, y) {
		return false
	}
	b := pi.bin(x, y)
	for i, e := range pi.bins[b] {
		if e.X == x && e.Y == y && e.Object == obj {
			pi.bins[b] = deleteAt(pi.bins[b], i)
			pi.count--
			return true
		}
	}
	return false
}

// RemoveAt deletes every entry at exactly (x, y) and reports whether any
// entry was removed.
func (pi *PointIndex[S, T]) RemoveAt(x, y S) bool {
	if !pi.inDomain(x, y) {
		return false
	}
	b := pi.bin(x, y)
	kept := pi.bins[b][:0]
	removed := 0
	for _, e := range pi.bins[b] {
		if e.X == x && e.Y == y {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	pi.bins[b] = kept
	pi.count -= removed
	return removed > 0
}

func deleteAt[E any](s []E, i int) []E {
	last := len(s) - 1
	s[i] = s[last]
	return s[:last]
}

// Clear removes every entry but keeps the allocated bins.
func (pi *PointIndex[S, T]) Clear() {
	for i := range pi.bins {
		pi.bins[i] = pi.bins[i][:0]
	}
	pi.count = 0
}

// Len returns the number of stored entries.
func (pi *PointIndex[S, T]) Len() int {
	return pi.count
}

// Query returns the entries inside the box, boundary inclusive. The box is
// clipped to the domain.
func (pi *PointIndex[S, T]) Query(xmin, ymin, xmax, ymax S) []PointEntry[S, T] {
	return pi.QueryFunc(xmin, ymin, xmax, ymax, nil)
}

// QueryFunc is Query with an additional filter; a nil keep accepts all.
func (pi *PointIndex[S, T]) QueryFunc(xmin, ymin, xmax, ymax S, keep func(obj T, x, y S) bool) []PointEntry[S, T] {
	c0, r0, c1, r1, ok := pi.span(xmin, ymin, xmax, ymax)
	if !ok {
		return nil
	}
	var out []PointEntry[S, T]
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, e := range pi.bins[r*pi.cols+c] {
				if e.X < xmin || e.X > xmax || e.Y < ymin || e.Y > ymax {
					continue
				}
				if keep != nil && !keep(e.Object, e.X, e.Y) {
					continue
				}
				out = append(out, e)
			}
		}
	}
	return out
}

// Radius returns the entries strictly closer than r to (x, y).
func (pi *PointIndex[S, T]) Radius(x, y, r S) []Neighbor[S, T] {
	if r <= 0 {
		return nil
	}
	var out []Neighbor[S, T]
	for _, e := range pi.Query(x-r, y-r, x+r, y+r) {
		if d := dist(x, y, e.X, e.Y); d < r {
			out = append(out, Neighbor[S, T]{PointEntry: e, Distance: d})
		}
	}
	return out
}

// Nearest returns the closest entry to (x, y), ignoring entries located
// exactly at the query point. The search window starts at one bin and
// doubles until a hit inside the window is found or the window exceeds the
// domain diagonal.
func (pi *PointIndex[S, T]) Nearest(x, y S) (Neighbor[S, T], bool) {
	var best Neighbor[S, T]
	found := false
	limit := pi.diagonal()
	for r := pi.binSize; ; r *= 2 {
		for _, e := range pi.Query(x-r, y-r, x+r, y+r) {
			d := dist(x, y, e.X, e.Y)
			if d == 0 {
				continue
			}
			if !found || d < best.Distance {
				best = Neighbor[S, T]{PointEntry: e, Distance: d}
				found = true
			}
		}
		// everything outside the window is farther than r
		if found && best.Distance <= r {
			return best, true
		}
		if r > limit {
			return best, found
		}
	}
}
