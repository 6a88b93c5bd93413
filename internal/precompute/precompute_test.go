package precompute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navpath/internal/navmesh"
	"github.com/udisondev/navpath/internal/pathcache"
	"github.com/udisondev/navpath/internal/pathfind"
	"github.com/udisondev/navpath/internal/testutil"
	"github.com/udisondev/navpath/internal/workpool"
)

func setup(t *testing.T, m navmesh.Mesh, capacity int) (*pathfind.Searcher, *pathcache.Cache, *workpool.Pool) {
	t.Helper()
	g, err := navmesh.Build(m)
	require.NoError(t, err)
	return pathfind.NewSearcher(g), pathcache.New(capacity), workpool.New(4)
}

func assertAccounted(t *testing.T, r Report) {
	t.Helper()
	assert.Equal(t, r.Attempts, r.Solved+r.Failed+r.Duplicates+r.NoCandidate)
	assert.Equal(t, r.Scheduled, r.Solved+r.Failed)
}

func TestRunZeroPairs(t *testing.T) {
	s, cache, pool := setup(t, testutil.Grid(5, 5, 1), 100)

	r, err := Run(context.Background(), pool, s, cache, Params{Radius: 3, Pairs: 0, Seed: 1})
	require.NoError(t, err)
	assert.Zero(t, cache.Len())
	assert.Zero(t, r.Attempts)
	assert.Equal(t, uint64(1), r.Seed)
}

func TestRunWithinRadius(t *testing.T) {
	const (
		pairs  = 200
		radius = 4.0
	)
	s, cache, pool := setup(t, testutil.Terrain(20, 20, 1, 1, 8), 1000)
	g := s.Graph()

	r, err := Run(context.Background(), pool, s, cache, Params{Radius: radius, Pairs: pairs, Seed: 99})
	require.NoError(t, err)
	assertAccounted(t, r)

	assert.Equal(t, pairs, r.Attempts)
	assert.LessOrEqual(t, cache.Len(), pairs)
	assert.Equal(t, r.Solved, cache.Len())
	assert.Positive(t, r.Solved)

	for _, k := range cache.Keys() {
		assert.NotEqual(t, k.Start, k.Goal)
		assert.LessOrEqual(t, g.Pos(k.Start).Dist(g.Pos(k.Goal)), radius)

		got, ok := cache.Get(k)
		require.True(t, ok)
		want, _ := testutil.ShortestCost(g, k.Start, k.Goal)
		assert.InDelta(t, want, got.Cost, 1e-9)
	}
}

func TestRunDeterministicSeed(t *testing.T) {
	m := testutil.Terrain(15, 15, 1, 1, 3)
	params := Params{Radius: 3, Pairs: 150, Seed: 12345}

	s1, c1, p1 := setup(t, m, 1000)
	r1, err := Run(context.Background(), p1, s1, c1, params)
	require.NoError(t, err)

	s2, c2, p2 := setup(t, m, 1000)
	r2, err := Run(context.Background(), p2, s2, c2, params)
	require.NoError(t, err)

	assert.ElementsMatch(t, c1.Keys(), c2.Keys())
	assert.Equal(t, r1.Solved, r2.Solved)
	assert.Equal(t, r1.Duplicates, r2.Duplicates)
}

func TestRunRandomSeedReported(t *testing.T) {
	s, cache, pool := setup(t, testutil.Grid(5, 5, 1), 100)

	r, err := Run(context.Background(), pool, s, cache, Params{Radius: 2, Pairs: 10})
	require.NoError(t, err)
	assert.NotZero(t, r.Seed)
}

func TestRunSkipsCachedPairs(t *testing.T) {
	s, cache, pool := setup(t, testutil.Grid(6, 6, 1), 1000)
	params := Params{Radius: 2, Pairs: 100, Seed: 7}

	first, err := Run(context.Background(), pool, s, cache, params)
	require.NoError(t, err)
	require.Positive(t, first.Solved)

	second, err := Run(context.Background(), pool, s, cache, params)
	require.NoError(t, err)
	assertAccounted(t, second)
	assert.Zero(t, second.Solved)
	assert.Equal(t, first.Solved, cache.Len())
}

func TestRunNoCandidates(t *testing.T) {
	s, cache, pool := setup(t, testutil.Grid(4, 4, 1), 100)

	r, err := Run(context.Background(), pool, s, cache, Params{Radius: 0.5, Pairs: 20, Seed: 2})
	require.NoError(t, err)
	assert.Equal(t, 20, r.NoCandidate)
	assert.Zero(t, cache.Len())
}

func TestRunDisconnectedPairsNotCached(t *testing.T) {
	s, cache, pool := setup(t, testutil.TwoIslands(), 100)
	g := s.Graph()

	r, err := Run(context.Background(), pool, s, cache, Params{Radius: 20, Pairs: 200, Seed: 4})
	require.NoError(t, err)
	assertAccounted(t, r)

	assert.Positive(t, r.Failed, "cross-island pairs must fail")
	for _, k := range cache.Keys() {
		assert.True(t, g.Connected(k.Start, k.Goal))
	}
}

func TestRunRespectsCacheCapacity(t *testing.T) {
	s, cache, pool := setup(t, testutil.Grid(10, 10, 1), 5)

	r, err := Run(context.Background(), pool, s, cache, Params{Radius: 3, Pairs: 100, Seed: 5})
	require.NoError(t, err)
	assert.Greater(t, r.Solved, 5)
	assert.Equal(t, 5, cache.Len())
}

func TestRunCancelled(t *testing.T) {
	s, cache, pool := setup(t, testutil.Grid(10, 10, 1), 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, pool, s, cache, Params{Radius: 3, Pairs: 50, Seed: 5})
	assert.ErrorIs(t, err, context.Canceled)
}
