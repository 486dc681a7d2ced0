// Package clustering provides min-max scaling and seeded k-means.
package clustering

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Defaults match the reference scoring run.
const (
	DefaultK             = 5
	DefaultSeed          = 42
	DefaultRestarts      = 10
	DefaultMaxIterations = 300
	DefaultTolerance     = 1e-4
)

// KMeans partitions samples into K clusters minimizing within-cluster
// squared distance. Results depend only on Seed and the input order:
// restart r is seeded with (Seed, r) and the lowest-inertia restart wins,
// the lowest index breaking ties, so Workers never changes the outcome.
type KMeans struct {
	K             int
	Seed          int64
	Restarts      int
	MaxIterations int
	Tolerance     float64 // relative to the mean per-column variance
	Workers       int     // concurrent restarts, <= 0 means 1
}

// NewKMeans returns a KMeans with the default parameters.
func NewKMeans() *KMeans {
	return &KMeans{
		K:             DefaultK,
		Seed:          DefaultSeed,
		Restarts:      DefaultRestarts,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Workers:       1,
	}
}

// Result is the best restart of a Fit.
type Result struct {
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
	Restart    int
}

// Fit clusters x and returns one label in [0, K) per row.
func (km *KMeans) Fit(ctx context.Context, x [][]float64) (*Result, error) {
	if km.K <= 0 {
		return nil, ErrInvalidK
	}
	dim, err := dimensions(x)
	if err != nil {
		return nil, err
	}
	if len(x) < km.K {
		return nil, ErrTooFewSamples
	}

	restarts := max(km.Restarts, 1)
	maxIter := km.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	tol := km.Tolerance * meanVariance(x, dim)

	results := make([]*Result, restarts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(km.Workers, 1))
	for r := 0; r < restarts; r++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(km.Seed), uint64(r)))
			res, err := km.lloyd(gctx, x, dim, km.initPlusPlus(x, rng), maxIter, tol)
			if err != nil {
				return err
			}
			res.Restart = r
			results[r] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// initPlusPlus picks K initial centres with greedy k-means++: each step
// samples 2+ln(K) candidates proportional to squared distance and keeps
// the one that most reduces the potential.
func (km *KMeans) initPlusPlus(x [][]float64, rng *rand.Rand) [][]float64 {
	n := len(x)
	trials := 2 + int(math.Log(float64(km.K)))

	centers := make([][]float64, 0, km.K)
	first := rng.IntN(n)
	centers = append(centers, clone(x[first]))

	closest := make([]float64, n)
	for i, row := range x {
		closest[i] = sqDist(row, x[first])
	}
	potential := floats.Sum(closest)

	cumulative := make([]float64, n)
	candidateDist := make([]float64, n)
	bestDist := make([]float64, n)

	for c := 1; c < km.K; c++ {
		floats.CumSum(cumulative, closest)

		bestCandidate := -1
		bestPotential := math.Inf(1)
		for t := 0; t < trials; t++ {
			var candidate int
			if potential > 0 {
				target := rng.Float64() * potential
				candidate = sort.SearchFloat64s(cumulative, target)
				if candidate >= n {
					candidate = n - 1
				}
			} else {
				// every point coincides with a centre
				candidate = rng.IntN(n)
			}

			for i, row := range x {
				candidateDist[i] = math.Min(closest[i], sqDist(row, x[candidate]))
			}
			if pot := floats.Sum(candidateDist); pot < bestPotential {
				bestPotential = pot
				bestCandidate = candidate
				copy(bestDist, candidateDist)
			}
		}

		centers = append(centers, clone(x[bestCandidate]))
		copy(closest, bestDist)
		potential = bestPotential
	}

	return centers
}

// lloyd iterates assignment and centre updates until labels stop changing,
// the total squared centre shift drops to tol, or maxIter is reached.
func (km *KMeans) lloyd(ctx context.Context, x [][]float64, dim int, centers [][]float64, maxIter int, tol float64) (*Result, error) {
	n := len(x)
	labels := make([]int, n)
	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}

	strict := false
	iter := 0
	for iter < maxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		assign(x, centers, labels)
		next := km.updateCenters(x, dim, centers, labels)

		shift := 0.0
		for j := range centers {
			shift += sqDist(centers[j], next[j])
		}
		centers = next
		iter++

		if equalLabels(labels, prev) {
			strict = true
			break
		}
		if shift <= tol {
			break
		}
		copy(prev, labels)
	}

	// Labels must match the final centres.
	if !strict {
		assign(x, centers, labels)
	}

	inertia := 0.0
	for i, row := range x {
		inertia += sqDist(row, centers[labels[i]])
	}

	return &Result{
		Labels:     labels,
		Centroids:  centers,
		Inertia:    inertia,
		Iterations: iter,
	}, nil
}

// updateCenters returns the mean of each cluster. Empty clusters take the
// points farthest from their current centre, which leave their own cluster.
func (km *KMeans) updateCenters(x [][]float64, dim int, centers [][]float64, labels []int) [][]float64 {
	sums := make([][]float64, km.K)
	counts := make([]int, km.K)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	for i, row := range x {
		floats.Add(sums[labels[i]], row)
		counts[labels[i]]++
	}

	var empty []int
	for j, c := range counts {
		if c == 0 {
			empty = append(empty, j)
		}
	}
	if len(empty) > 0 {
		far := farthestPoints(x, centers, labels, len(empty))
		for e, j := range empty {
			p := far[e]
			from := labels[p]
			floats.Sub(sums[from], x[p])
			counts[from]--
			copy(sums[j], x[p])
			counts[j] = 1
		}
	}

	next := make([][]float64, km.K)
	for j := range sums {
		if counts[j] == 0 {
			next[j] = clone(centers[j])
			continue
		}
		floats.Scale(1/float64(counts[j]), sums[j])
		next[j] = sums[j]
	}
	return next
}

// farthestPoints returns the m points with the largest distance to their
// assigned centre, farthest first, lower index first on ties.
func farthestPoints(x [][]float64, centers [][]float64, labels []int, m int) []int {
	idx := make([]int, len(x))
	dist := make([]float64, len(x))
	for i, row := range x {
		idx[i] = i
		dist[i] = sqDist(row, centers[labels[i]])
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return dist[idx[a]] > dist[idx[b]]
	})
	return idx[:m]
}

// assign sets labels[i] to the nearest centre, lowest index on ties.
func assign(x [][]float64, centers [][]float64, labels []int) {
	for i, row := range x {
		best := 0
		bestDist := sqDist(row, centers[0])
		for j := 1; j < len(centers); j++ {
			if d := sqDist(row, centers[j]); d < bestDist {
				best = j
				bestDist = d
			}
		}
		labels[i] = best
	}
}

// meanVariance is the mean population variance over columns.
func meanVariance(x [][]float64, dim int) float64 {
	col := make([]float64, len(x))
	total := 0.0
	for j := 0; j < dim; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		total += stat.PopVariance(col, nil)
	}
	return total / float64(dim)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func equalLabels(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
