package dsu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSU_Singletons(t *testing.T) {
	d := New(5)
	assert.Equal(t, 5, d.Components())
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, d.Find(i))
		assert.Equal(t, 1, d.Size(i))
	}
}

func TestDSU_UnionIdempotent(t *testing.T) {
	d := New(4)
	assert.True(t, d.Union(0, 1))
	assert.False(t, d.Union(1, 0))
	assert.False(t, d.Union(0, 0))
	assert.Equal(t, 3, d.Components())
	assert.True(t, d.Connected(0, 1))
	assert.Equal(t, 2, d.Size(1))
}

func TestDSU_ComponentCountMatchesDistinctRoots(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 200
	d := New(n)
	merges := 0
	for k := 0; k < 150; k++ {
		if d.Union(rng.Intn(n), rng.Intn(n)) {
			merges++
		}
	}
	roots := make(map[int]struct{})
	for i := 0; i < n; i++ {
		roots[d.Find(i)] = struct{}{}
	}
	assert.Equal(t, len(roots), d.Components())
	assert.Equal(t, n-merges, d.Components())

	total := 0
	for r := range roots {
		total += d.Size(r)
	}
	assert.Equal(t, n, total)
}

func TestDSU_FindCompressesPath(t *testing.T) {
	d := New(5)
	// chain 4 -> 3 -> 2 -> 1 -> 0
	for i := 1; i < 5; i++ {
		d.parent[i] = i - 1
	}
	assert.Equal(t, 0, d.Find(4))
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, d.parent[i], "node %d", i)
	}
}

func TestDSU_Transitive(t *testing.T) {
	d := New(6)
	d.Union(0, 1)
	d.Union(2, 3)
	d.Union(1, 3)
	assert.True(t, d.Connected(0, 2))
	assert.False(t, d.Connected(0, 4))
	assert.Equal(t, 3, d.Components())
}

func TestDSU_OutOfRangePanics(t *testing.T) {
	d := New(3)
	require.Panics(t, func() { d.Find(3) })
	require.Panics(t, func() { d.Union(-1, 0) })
}
