package clustering

import (
	"gonum.org/v1/gonum/floats"

	"retail-assortment-optimizer/pkg/domain"
)

func euclidean(a, b []float64) float64 { return floats.Distance(a, b, 2) }

// silhouette computes the mean silhouette coefficient over every row, per
// spec.md §4.2's quality-metrics list. Rows in a singleton cluster score 0
// (there is no "other member" to average against).
func silhouette(data [][]float64, assignments []int, k int) float64 {
	n := len(data)
	if n < 2 || k < 2 {
		return 0
	}
	members := make([][]int, k)
	for i, c := range assignments {
		members[c] = append(members[c], i)
	}

	var total float64
	for i, row := range data {
		own := assignments[i]
		if len(members[own]) < 2 {
			continue // singleton cluster: silhouette is 0 by definition
		}
		a := meanDistanceTo(row, data, members[own], i)

		b := -1.0
		for c := 0; c < k; c++ {
			if c == own || len(members[c]) == 0 {
				continue
			}
			d := meanDistanceTo(row, data, members[c], -1)
			if b < 0 || d < b {
				b = d
			}
		}
		if b < 0 {
			continue // no other non-empty cluster to compare against
		}
		maxAB := a
		if b > maxAB {
			maxAB = b
		}
		if maxAB == 0 {
			continue
		}
		total += (b - a) / maxAB
	}
	return total / float64(n)
}

func meanDistanceTo(row []float64, data [][]float64, indices []int, exclude int) float64 {
	var sum float64
	count := 0
	for _, j := range indices {
		if j == exclude {
			continue
		}
		sum += euclidean(row, data[j])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// calinskiHarabasz is the between-cluster/within-cluster dispersion ratio,
// scaled by the usual (n-k)/(k-1) degrees-of-freedom factor.
func calinskiHarabasz(data [][]float64, assignments []int, centroids [][]float64, k int) float64 {
	n := len(data)
	if n <= k || k < 2 {
		return 0
	}
	dims := len(data[0])
	overall := make([]float64, dims)
	for _, row := range data {
		floats.Add(overall, row)
	}
	floats.Scale(1/float64(n), overall)

	counts := make([]int, k)
	for _, c := range assignments {
		counts[c]++
	}

	var between, within float64
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		d := euclidean(centroids[c], overall)
		between += float64(counts[c]) * d * d
	}
	for i, row := range data {
		d := euclidean(row, centroids[assignments[i]])
		within += d * d
	}
	if within == 0 {
		return 0
	}
	return (between / within) * (float64(n-k) / float64(k-1))
}

// daviesBouldin is the average worst-case similarity between each cluster
// and its closest neighbor, lower is better (spec.md §4.2 names it without
// a direction convention of its own; this follows the standard definition).
func daviesBouldin(data [][]float64, assignments []int, centroids [][]float64, k int) float64 {
	if k < 2 {
		return 0
	}
	dispersion := make([]float64, k)
	counts := make([]int, k)
	for i, row := range data {
		c := assignments[i]
		dispersion[c] += euclidean(row, centroids[c])
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			dispersion[c] /= float64(counts[c])
		}
	}

	var total float64
	activeClusters := 0
	for i := 0; i < k; i++ {
		if counts[i] == 0 {
			continue
		}
		activeClusters++
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j || counts[j] == 0 {
				continue
			}
			sep := euclidean(centroids[i], centroids[j])
			if sep == 0 {
				continue
			}
			r := (dispersion[i] + dispersion[j]) / sep
			if r > worst {
				worst = r
			}
		}
		total += worst
	}
	if activeClusters == 0 {
		return 0
	}
	return total / float64(activeClusters)
}

// merchandisingCoherence returns the fraction of members matching the
// cluster's modal style and the fraction matching its modal size tier,
// per spec.md §4.2 step 5. The caller averages the two into one combined
// score (see coherence.go), since spec.md describes them as jointly
// determining a single "combined coherence score."
func merchandisingCoherence(stores []domain.Store, memberIdx []int, storeIDs []string) (styleFrac, sizeFrac float64) {
	if len(memberIdx) == 0 {
		return 0, 0
	}
	storeByID := make(map[string]domain.Store, len(stores))
	for _, s := range stores {
		storeByID[s.StoreID] = s
	}

	styleCounts := make(map[domain.StoreStyle]int)
	sizeCounts := make(map[domain.SizeTier]int)
	for _, idx := range memberIdx {
		s := storeByID[storeIDs[idx]]
		styleCounts[s.Style]++
		sizeCounts[s.SizeTier]++
	}
	modalStyle := modeStyle(styleCounts)
	modalSize := modeSize(sizeCounts)

	var styleMatches, sizeMatches int
	for _, idx := range memberIdx {
		s := storeByID[storeIDs[idx]]
		if s.Style == modalStyle {
			styleMatches++
		}
		if s.SizeTier == modalSize {
			sizeMatches++
		}
	}
	n := float64(len(memberIdx))
	return float64(styleMatches) / n, float64(sizeMatches) / n
}

func modeStyle(counts map[domain.StoreStyle]int) domain.StoreStyle {
	var best domain.StoreStyle
	bestCount := -1
	for style, c := range counts {
		if c > bestCount {
			best, bestCount = style, c
		}
	}
	return best
}

func modeSize(counts map[domain.SizeTier]int) domain.SizeTier {
	var best domain.SizeTier
	bestCount := -1
	for tier, c := range counts {
		if c > bestCount {
			best, bestCount = tier, c
		}
	}
	return best
}
