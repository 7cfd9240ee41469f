// Package clustering implements the Clustering Engine (C2): PCA
// dimensionality reduction, hard temperature-band partitioning, per-band
// K-means with balance enforcement and merchandising-coherence
// re-weighting, and the quality metrics that gate the
// Unfitted -> Fitted -> Balanced -> Validated state machine.
package clustering

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/logger"
)

// State is one stage of the clustering state machine (spec.md §4.2).
type State int

const (
	StateUnfitted State = iota
	StateFitted
	StateBalanced
	StateValidated
)

func (s State) String() string {
	switch s {
	case StateUnfitted:
		return "Unfitted"
	case StateFitted:
		return "Fitted"
	case StateBalanced:
		return "Balanced"
	case StateValidated:
		return "Validated"
	default:
		return "Unknown"
	}
}

// bandFit is one temperature band's working state between Fit and
// Balance: the reduced rows belonging to the band, their store IDs in the
// same order, and the current K-means assignment/centroids.
type bandFit struct {
	band     domain.TemperatureBand
	storeIDs []string
	data     [][]float64
	result   *kmeansResult
}

// Engine runs the Clustering Engine's state machine. Only Validated
// clusters are consumable downstream; a freshly constructed Engine starts
// Unfitted.
type Engine struct {
	cfg config.ClusteringConfig
	log *logger.Logger

	state    State
	bandFits []bandFit
	clusters []domain.Cluster
	stores   []domain.Store
}

// NewEngine builds an Unfitted Engine.
func NewEngine(cfg config.ClusteringConfig, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, log: log.WithComponent("clustering"), state: StateUnfitted}
}

// State returns the engine's current lifecycle stage.
func (e *Engine) State() State { return e.state }

// Fit runs PCA, partitions stores by temperature band, and runs per-band
// K-means with the merchandising-coherence re-weighting loop (spec.md
// §4.2 steps 1-3 and 5). Per-band fits run concurrently; results
// accumulate into per-band slices with no shared mutable state and merge
// serially afterward, mirroring the teacher's accumulate-then-merge
// pattern for parallel work.
func (e *Engine) Fit(ctx context.Context, matrix *domain.FeatureMatrix, stores []domain.Store, weather map[string]domain.StoreWeatherProfile) error {
	if e.state != StateUnfitted {
		return &errs.ClusteringQualityError{Detail: fmt.Sprintf("Fit called from state %s, expected Unfitted", e.state)}
	}

	reduced, err := ReduceFeatures(matrix, e.cfg.PCAComponentsSPU, e.cfg.PCAComponentsSubcategory, e.cfg.PCAComponentsCategory)
	if err != nil {
		return &errs.ClusteringQualityError{Detail: err.Error()}
	}

	members := partitionByBand(matrix.StoreIDs, weather)
	bands := members.sortedBands()

	type bandOutcome struct {
		fit bandFit
		err error
	}
	outcomes := make([]bandOutcome, len(bands))
	var wg sync.WaitGroup
	for i, band := range bands {
		wg.Add(1)
		go func(i int, band domain.TemperatureBand) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				outcomes[i] = bandOutcome{err: ctx.Err()}
				return
			default:
			}
			fit, err := e.fitBand(band, members[band], matrix.StoreIDs, stores, reduced)
			outcomes[i] = bandOutcome{fit: fit, err: err}
		}(i, band)
	}
	wg.Wait()

	var fits []bandFit
	for _, o := range outcomes {
		if o.err != nil {
			return &errs.ClusteringQualityError{Detail: o.err.Error()}
		}
		fits = append(fits, o.fit)
	}

	e.bandFits = fits
	e.stores = stores
	e.state = StateFitted
	e.log.Infof("fit complete: %d bands", len(fits))
	return nil
}

// fitBand runs the per-band K-means + merchandising-coherence loop
// (spec.md §4.2 steps 3 and 5). It does not rebalance; that is Balance's
// job, run once across all bands after Fit completes.
func (e *Engine) fitBand(band domain.TemperatureBand, rowIdx []int, allStoreIDs []string, stores []domain.Store, reduced *reducedBlocks) (bandFit, error) {
	bandData := make([][]float64, len(rowIdx))
	bandStoreIDs := make([]string, len(rowIdx))
	for i, idx := range rowIdx {
		bandData[i] = reduced.Data[idx]
		bandStoreIDs[i] = allStoreIDs[idx]
	}

	n := len(bandData)
	numClusters := int(math.Round(float64(n) / float64(e.cfg.TargetClusterSize)))
	if numClusters < 1 {
		numClusters = 1
	}

	multiplier := 1.0
	data := bandData
	var result *kmeansResult
	for attempt := 0; attempt <= e.cfg.MaxCoherenceReclusterAttempts; attempt++ {
		var err error
		result, err = runKMeans(data, numClusters, e.cfg.RandomSeed, 100)
		if err != nil {
			return bandFit{}, fmt.Errorf("band %s: %w", band, err)
		}

		if e.bandCoherence(result, bandStoreIDs, stores) >= e.cfg.MerchandisingCoherenceThreshold {
			break
		}
		if attempt == e.cfg.MaxCoherenceReclusterAttempts {
			break // accept the last attempt; Validate surfaces any remaining quality problem
		}
		multiplier = nextMultiplier(multiplier, e.cfg)
		data = reweightForCoherence(bandData, reduced.CategoryOffset, reduced.CategoryWidth, multiplier)
	}

	return bandFit{band: band, storeIDs: bandStoreIDs, data: data, result: result}, nil
}

func (e *Engine) bandCoherence(result *kmeansResult, storeIDs []string, stores []domain.Store) float64 {
	k := len(result.Centroids)
	members := clusterMembers(result.Assignments, k)
	var total float64
	active := 0
	for _, idx := range members {
		if len(idx) == 0 {
			continue
		}
		styleFrac, sizeFrac := merchandisingCoherence(stores, idx, storeIDs)
		total += (clusterCoherence{StyleFraction: styleFrac, SizeFraction: sizeFrac}).combined()
		active++
	}
	if active == 0 {
		return 0
	}
	return total / float64(active)
}

// Balance runs the rebalancing loop (spec.md §4.2 step 4) over every
// band's fit and computes each resulting cluster's quality metrics. The
// transition is idempotent at the fixed point: calling Balance again
// after clusters already satisfy [min_size, max_size] changes nothing.
func (e *Engine) Balance(ctx context.Context) error {
	if e.state != StateFitted && e.state != StateBalanced {
		return &errs.ClusteringQualityError{Detail: fmt.Sprintf("Balance called from state %s, expected Fitted or Balanced", e.state)}
	}

	var clusters []domain.Cluster
	nextID := 0
	for _, bf := range e.bandFits {
		rebalance(bf.data, bf.result, e.cfg)

		k := len(bf.result.Centroids)
		members := clusterMembers(bf.result.Assignments, k)
		for c := 0; c < k; c++ {
			idx := members[c]
			if len(idx) == 0 {
				continue
			}
			memberStoreIDs := make([]string, len(idx))
			for i, rowIdx := range idx {
				memberStoreIDs[i] = bf.storeIDs[rowIdx]
			}
			styleFrac, sizeFrac := merchandisingCoherence(e.stores, idx, bf.storeIDs)
			coherence := (clusterCoherence{StyleFraction: styleFrac, SizeFraction: sizeFrac}).combined()

			metrics := domain.QualityMetrics{
				Silhouette:             silhouette(bf.data, bf.result.Assignments, k),
				CalinskiHarabasz:       calinskiHarabasz(bf.data, bf.result.Assignments, bf.result.Centroids, k),
				DaviesBouldin:          daviesBouldin(bf.data, bf.result.Assignments, bf.result.Centroids, k),
				MerchandisingCoherence: coherence,
				TemperatureCompliant:   true, // band partitioning makes this structurally true
			}
			clusters = append(clusters, domain.Cluster{
				ClusterID:       nextID,
				MemberStoreIDs:  memberStoreIDs,
				Centroid:        append([]float64(nil), bf.result.Centroids[c]...),
				TemperatureBand: bf.band,
				Metrics:         metrics,
				Rating:          domain.RatingFromSilhouette(metrics.Silhouette),
			})
			nextID++
		}
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ClusterID < clusters[j].ClusterID })
	e.clusters = clusters
	e.state = StateBalanced
	e.log.Infof("balance complete: %d clusters", len(clusters))
	return nil
}

// Validate compares the already-computed per-cluster metrics against the
// configured thresholds (spec.md §4.2's re-architecture note: statistics
// are computed once, in Balance, and never recomputed here). On failure
// the engine stays Balanced rather than regressing, and the caller
// receives a *errs.ClusteringQualityError to surface to the orchestrator.
func (e *Engine) Validate(ctx context.Context) error {
	if e.state != StateBalanced {
		return &errs.ClusteringQualityError{Detail: fmt.Sprintf("Validate called from state %s, expected Balanced", e.state)}
	}

	var weightedSilhouette float64
	totalMembers := 0
	for _, c := range e.clusters {
		weightedSilhouette += c.Metrics.Silhouette * float64(len(c.MemberStoreIDs))
		totalMembers += len(c.MemberStoreIDs)
		if len(c.MemberStoreIDs) < e.cfg.MinClusterSize {
			return &errs.ClusteringQualityError{Detail: fmt.Sprintf("cluster %d has %d members, below min_size %d after rebalancing", c.ClusterID, len(c.MemberStoreIDs), e.cfg.MinClusterSize)}
		}
		if !c.Metrics.TemperatureCompliant {
			return &errs.ClusteringQualityError{Detail: fmt.Sprintf("cluster %d violates the temperature-band constraint", c.ClusterID)}
		}
	}
	if totalMembers == 0 {
		return &errs.ClusteringQualityError{Detail: "no clusters to validate"}
	}
	overall := weightedSilhouette / float64(totalMembers)
	if overall < e.cfg.MinOverallSilhouette {
		return &errs.ClusteringQualityError{Detail: fmt.Sprintf("overall silhouette %.3f below minimum %.3f", overall, e.cfg.MinOverallSilhouette)}
	}

	e.state = StateValidated
	e.log.Infof("validate complete: overall silhouette %.3f across %d clusters", overall, len(e.clusters))
	return nil
}

// Clusters returns the fitted clusters. Only callable once Validated,
// enforcing that downstream components never consume an unvalidated fit.
func (e *Engine) Clusters() ([]domain.Cluster, error) {
	if e.state != StateValidated {
		return nil, &errs.ClusteringQualityError{Detail: fmt.Sprintf("Clusters requested from state %s, expected Validated", e.state)}
	}
	return e.clusters, nil
}

