package clustering

import (
	"retail-assortment-optimizer/pkg/config"
)

// rebalance implements spec.md §4.2 step 4: repeatedly move the single
// member of an oversized cluster nearest to an undersized (or merely
// non-full) cluster's centroid into that cluster, until every cluster in
// the band sits within [min_size, max_size] or a fixed point /
// MaxRebalanceIterations is reached. Operates on row indices local to one
// band's kmeansResult.
func rebalance(data [][]float64, result *kmeansResult, cfg config.ClusteringConfig) {
	k := len(result.Centroids)
	if k == 0 {
		return
	}

	for iter := 0; iter < cfg.MaxRebalanceIterations; iter++ {
		members := clusterMembers(result.Assignments, k)

		o, hasOver := mostOversized(members, cfg.MaxClusterSize)
		if !hasOver {
			break // no cluster exceeds max_size; nothing left to fix
		}

		u, hasDest := bestDestination(members, cfg.MinClusterSize, cfg.MaxClusterSize, o)
		if !hasDest {
			break // no cluster has room; can't shrink o without violating another's max
		}

		nearest := nearestMember(data, result.Centroids[u], members[o])
		result.Assignments[nearest] = u
		recomputeCentroids(data, result, k)
	}
}

func clusterMembers(assignments []int, k int) [][]int {
	members := make([][]int, k)
	for i, c := range assignments {
		members[c] = append(members[c], i)
	}
	return members
}

// mostOversized returns the cluster furthest above max_size, if any.
func mostOversized(members [][]int, maxSize int) (int, bool) {
	best, bestExcess := -1, 0
	for c, idx := range members {
		if excess := len(idx) - maxSize; excess > bestExcess {
			best, bestExcess = c, excess
		}
	}
	return best, best >= 0
}

// bestDestination prefers a cluster below min_size (to fix its deficiency
// first); failing that, any cluster with room below max_size, picking the
// one furthest below max_size so a single move helps the most.
func bestDestination(members [][]int, minSize, maxSize, exclude int) (int, bool) {
	best, bestRoom := -1, -1
	for c, idx := range members {
		if c == exclude || len(idx) >= maxSize {
			continue
		}
		room := maxSize - len(idx)
		deficient := len(idx) < minSize
		if best == -1 {
			best, bestRoom = c, room
			continue
		}
		bestDeficient := len(members[best]) < minSize
		switch {
		case deficient && !bestDeficient:
			best, bestRoom = c, room
		case deficient == bestDeficient && room > bestRoom:
			best, bestRoom = c, room
		}
	}
	return best, best >= 0
}

func nearestMember(data [][]float64, target []float64, candidates []int) int {
	best, bestDist := candidates[0], squaredEuclidean(data[candidates[0]], target)
	for _, idx := range candidates[1:] {
		if d := squaredEuclidean(data[idx], target); d < bestDist {
			best, bestDist = idx, d
		}
	}
	return best
}

func recomputeCentroids(data [][]float64, result *kmeansResult, k int) {
	if len(data) == 0 {
		return
	}
	dims := len(data[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, row := range data {
		c := result.Assignments[i]
		for j, v := range row {
			sums[c][j] += v
		}
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
		result.Centroids[c] = sums[c]
	}
}
