package clustering

import (
	"testing"

	"retail-assortment-optimizer/pkg/config"
)

func TestRebalance_MovesMembersFromOversizedToUndersized(t *testing.T) {
	// Cluster 0 has 5 members, cluster 1 has 1 — min=2, max=3 forces a move.
	data := [][]float64{
		{0, 0}, {0.1, 0}, {0.2, 0}, {0.3, 0}, {0.4, 0}, // cluster 0, in a line toward cluster 1's centroid
		{5, 5},
	}
	result := &kmeansResult{
		Assignments: []int{0, 0, 0, 0, 0, 1},
		Centroids:   [][]float64{{0.2, 0}, {5, 5}},
	}
	cfg := config.ClusteringConfig{MinClusterSize: 2, MaxClusterSize: 3, MaxRebalanceIterations: 20}
	rebalance(data, result, cfg)

	counts := map[int]int{}
	for _, c := range result.Assignments {
		counts[c]++
	}
	if counts[0] > cfg.MaxClusterSize {
		t.Errorf("expected cluster 0 to shrink to at most %d, got %d", cfg.MaxClusterSize, counts[0])
	}
	if counts[1] < cfg.MinClusterSize {
		t.Errorf("expected cluster 1 to grow to at least %d, got %d", cfg.MinClusterSize, counts[1])
	}
}

func TestRebalance_NoOpWhenAlreadyBalanced(t *testing.T) {
	data := [][]float64{{0, 0}, {1, 0}, {5, 5}, {6, 5}}
	result := &kmeansResult{
		Assignments: []int{0, 0, 1, 1},
		Centroids:   [][]float64{{0.5, 0}, {5.5, 5}},
	}
	cfg := config.ClusteringConfig{MinClusterSize: 2, MaxClusterSize: 3, MaxRebalanceIterations: 20}
	before := append([]int(nil), result.Assignments...)
	rebalance(data, result, cfg)
	for i := range before {
		if before[i] != result.Assignments[i] {
			t.Fatalf("expected no change when already within bounds, got %v vs %v", before, result.Assignments)
		}
	}
}
