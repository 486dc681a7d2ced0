package clustering

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns three tight, well separated groups of four points each.
func blobs() [][]float64 {
	return [][]float64{
		{0.00, 0.00}, {0.01, 0.02}, {0.02, 0.01}, {0.01, 0.00},
		{0.50, 0.50}, {0.51, 0.49}, {0.49, 0.51}, {0.50, 0.52},
		{1.00, 0.00}, {0.99, 0.01}, {0.98, 0.02}, {1.00, 0.01},
	}
}

func TestKMeans_SeparatesBlobs(t *testing.T) {
	km := NewKMeans()
	km.K = 3

	res, err := km.Fit(context.Background(), blobs())
	require.NoError(t, err)
	require.Len(t, res.Labels, 12)
	require.Len(t, res.Centroids, 3)

	for g := 0; g < 3; g++ {
		first := res.Labels[g*4]
		for i := 1; i < 4; i++ {
			assert.Equal(t, first, res.Labels[g*4+i], "group %d point %d", g, i)
		}
	}
	assert.NotEqual(t, res.Labels[0], res.Labels[4])
	assert.NotEqual(t, res.Labels[0], res.Labels[8])
	assert.NotEqual(t, res.Labels[4], res.Labels[8])

	assert.Less(t, res.Inertia, 0.01)
	assert.GreaterOrEqual(t, res.Iterations, 1)
}

func TestKMeans_LabelsInRange(t *testing.T) {
	km := NewKMeans()

	res, err := km.Fit(context.Background(), blobs())
	require.NoError(t, err)
	for _, l := range res.Labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, km.K)
	}
}

func TestKMeans_DeterministicAcrossRunsAndWorkers(t *testing.T) {
	x := blobs()
	x = append(x, []float64{0.3, 0.7}, []float64{0.7, 0.3}, []float64{0.2, 0.2})

	base := NewKMeans()
	want, err := base.Fit(context.Background(), x)
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 4, 16} {
		km := NewKMeans()
		km.Workers = workers
		got, err := km.Fit(context.Background(), x)
		require.NoError(t, err)
		assert.Equal(t, want.Labels, got.Labels, "workers=%d", workers)
		assert.Equal(t, want.Inertia, got.Inertia, "workers=%d", workers)
		assert.Equal(t, want.Restart, got.Restart, "workers=%d", workers)
	}
}

func TestKMeans_BestRestartHasLowestInertia(t *testing.T) {
	x := blobs()
	km := NewKMeans()
	km.K = 3

	best, err := km.Fit(context.Background(), x)
	require.NoError(t, err)

	tol := km.Tolerance * meanVariance(x, 2)
	for r := 0; r < km.Restarts; r++ {
		rng := rand.New(rand.NewPCG(uint64(km.Seed), uint64(r)))
		res, err := km.lloyd(context.Background(), x, 2, km.initPlusPlus(x, rng), km.MaxIterations, tol)
		require.NoError(t, err)
		assert.LessOrEqual(t, best.Inertia, res.Inertia)
		if res.Inertia == best.Inertia {
			assert.LessOrEqual(t, best.Restart, r)
		}
	}
}

func TestKMeans_ExactlyKSamples(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}, {4}}
	km := NewKMeans()

	res, err := km.Fit(context.Background(), x)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, l := range res.Labels {
		seen[l] = true
	}
	assert.Len(t, seen, 5)
	assert.InDelta(t, 0, res.Inertia, 1e-12)
}

func TestKMeans_DuplicatePointsStillLabelEverySample(t *testing.T) {
	// fewer distinct points than clusters
	x := [][]float64{{0, 0}, {0, 0}, {0, 0}, {1, 1}, {1, 1}, {1, 1}}
	km := NewKMeans()

	res, err := km.Fit(context.Background(), x)
	require.NoError(t, err)
	require.Len(t, res.Labels, 6)
	assert.InDelta(t, 0, res.Inertia, 1e-12)
	assert.NotEqual(t, res.Labels[0], res.Labels[3])
}

func TestKMeans_ConstantInput(t *testing.T) {
	x := make([][]float64, 8)
	for i := range x {
		x[i] = []float64{0, 0, 0}
	}

	res, err := NewKMeans().Fit(context.Background(), x)
	require.NoError(t, err)
	assert.Len(t, res.Labels, 8)
	assert.Zero(t, res.Inertia)
}

func TestKMeans_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewKMeans().Fit(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = NewKMeans().Fit(ctx, [][]float64{{1}, {2}, {3}})
	assert.ErrorIs(t, err, ErrTooFewSamples)

	_, err = NewKMeans().Fit(ctx, [][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	km := NewKMeans()
	km.K = 0
	_, err = km.Fit(ctx, blobs())
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestKMeans_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKMeans().Fit(ctx, blobs())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpdateCenters_RelocatesEmptyCluster(t *testing.T) {
	km := &KMeans{K: 2}
	x := [][]float64{{0}, {1}, {10}}
	centers := [][]float64{{0}, {100}}
	labels := []int{0, 0, 0}

	next := km.updateCenters(x, 1, centers, labels)

	// point 10 is farthest from centre 0 and seeds cluster 1
	assert.Equal(t, []float64{10}, next[1])
	assert.Equal(t, []float64{0.5}, next[0])
}

func TestAssign_TiesGoToLowestIndex(t *testing.T) {
	labels := make([]int, 1)
	assign([][]float64{{1}}, [][]float64{{0}, {2}}, labels)
	assert.Equal(t, 0, labels[0])
}
