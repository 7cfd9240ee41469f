package clustering

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// kmeansResult is one band's raw fit: a centroid per cluster and a cluster
// index per input row, in the same row order the caller supplied.
type kmeansResult struct {
	Assignments []int
	Centroids   [][]float64
}

// squaredEuclidean is the distance metric spec.md §4.2 names explicitly:
// squared Euclidean via gonum/floats.Distance rather than a hand-rolled
// sum-of-squares loop.
func squaredEuclidean(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// runKMeans is Lloyd's algorithm with a fixed seed, per spec.md §4.2's
// "Run K-means with fixed random seed." Centroids are seeded by sampling k
// distinct rows; an empty cluster after reassignment is reseeded to the
// point furthest from its nearest centroid, the simplest deterministic escape
// from a degenerate fit.
func runKMeans(data [][]float64, k int, seed int64, maxIter int) (*kmeansResult, error) {
	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("kmeans: empty input")
	}
	if k <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	if k > n {
		k = n
	}
	dims := len(data[0])

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), data[perm[i]]...)
	}

	assignments := make([]int, n)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range data {
			best, bestDist := 0, squaredEuclidean(row, centroids[0])
			for c := 1; c < k; c++ {
				if d := squaredEuclidean(row, centroids[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, row := range data {
			c := assignments[i]
			floats.Add(sums[c], row)
			counts[c]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				centroids[c] = reseedEmptyCluster(data, centroids)
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}

		if !changed && iter > 0 {
			break
		}
	}

	return &kmeansResult{Assignments: assignments, Centroids: centroids}, nil
}

// reseedEmptyCluster relocates a centroid with no members to the data
// point currently furthest from its nearest centroid, nudging the fit
// toward using all k clusters instead of collapsing.
func reseedEmptyCluster(data, centroids [][]float64) []float64 {
	var farthest []float64
	var farthestDist float64 = -1
	for _, row := range data {
		nearest := squaredEuclidean(row, centroids[0])
		for _, c := range centroids[1:] {
			if d := squaredEuclidean(row, c); d < nearest {
				nearest = d
			}
		}
		if nearest > farthestDist {
			farthestDist = nearest
			farthest = row
		}
	}
	return append([]float64(nil), farthest...)
}
