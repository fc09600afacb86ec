// Package spatial provides uniform-grid bin indexes for points and
// axis-aligned rectangles.
package spatial

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Scalar is the coordinate type of an index.
type Scalar interface {
	constraints.Float
}

// grid maps coordinates to bins of a fixed size over a bounded domain.
type grid[S Scalar] struct {
	binSize    S
	xmin, ymin S
	xmax, ymax S
	cols, rows int
}

func newGrid[S Scalar](binSize, xmin, ymin, xmax, ymax S) grid[S] {
	if binSize <= 0 {
		panic("spatial: bin size must be positive")
	}
	if xmax < xmin {
		xmin, xmax = xmax, xmin
	}
	if ymax < ymin {
		ymin, ymax = ymax, ymin
	}
	cols := int(math.Ceil(float64((xmax - xmin) / binSize)))
	rows := int(math.Ceil(float64((ymax - ymin) / binSize)))
	return grid[S]{
		binSize: binSize,
		xmin:    xmin, ymin: ymin,
		xmax: xmax, ymax: ymax,
		cols: max(cols, 1),
		rows: max(rows, 1),
	}
}

func (g grid[S]) inDomain(x, y S) bool {
	return x >= g.xmin && x <= g.xmax && y >= g.ymin && y <= g.ymax
}

// column returns the bin column of x, clamped so the domain's upper edge
// falls in the last bin.
func (g grid[S]) column(x S) int {
	ix := int(math.Floor(float64((x - g.xmin) / g.binSize)))
	return min(max(ix, 0), g.cols-1)
}

func (g grid[S]) row(y S) int {
	iy := int(math.Floor(float64((y - g.ymin) / g.binSize)))
	return min(max(iy, 0), g.rows-1)
}

func (g grid[S]) bin(x, y S) int {
	return g.row(y)*g.cols + g.column(x)
}

// span returns the inclusive bin range covered by a box, clipped to the
// domain. ok is false when the box misses the domain entirely.
func (g grid[S]) span(xmin, ymin, xmax, ymax S) (c0, r0, c1, r1 int, ok bool) {
	if xmax < g.xmin || xmin > g.xmax || ymax < g.ymin || ymin > g.ymax || xmin > xmax || ymin > ymax {
		return 0, 0, 0, 0, false
	}
	return g.column(xmin), g.row(ymin), g.column(xmax), g.row(ymax), true
}

func (g grid[S]) diagonal() S {
	return S(math.Hypot(float64(g.xmax-g.xmin), float64(g.ymax-g.ymin)))
}

func dist[S Scalar](x0, y0, x1, y1 S) S {
	return S(math.Hypot(float64(x1-x0), float64(y1-y0)))
}
