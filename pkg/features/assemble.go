// Package features implements Feature Assembly (C1): it turns raw
// per-store sales facts, weather samples, and store attributes into the
// FeatureMatrix and StoreWeatherProfile entities the Clustering Engine
// consumes.
//
// Every public entry point takes a context.Context for cooperative
// cancellation and a *logger.Logger already scoped to
// component=feature-assembly, following the teacher's WithFields
// convention. Numerical reductions (row sums, min/max normalization) run
// through gonum.org/v1/gonum/floats rather than hand-rolled loops, except
// row-wise matrix normalization itself, which gonum has no primitive for
// and is hand-written over plain [][]float64 (see normalize.go).
package features

import (
	"context"
	"fmt"
	"sort"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/logger"
)

// AssembleResult bundles the FeatureMatrix with the ancillary per-store
// products (weather profiles, fashion shares) downstream components
// (the Cluster Profiler) need but that aren't themselves matrix columns.
type AssembleResult struct {
	Matrix          *domain.FeatureMatrix
	WeatherProfiles map[string]domain.StoreWeatherProfile
	Shares          map[string]StoreShare
	DroppedStores   []string
}

// AssembleFeatures runs the full Feature Assembly pipeline: per-store
// InsufficientDataError screening, sales/subcategory matrix construction,
// weather profile construction, and assemble_features' final weighted
// concatenation. It aborts with an *errs.InputError if dropped stores
// exceed cfg.MaxStoreDropoutFraction of the input; otherwise dropped
// stores are reported but the run continues (spec.md §4.1).
func AssembleFeatures(
	ctx context.Context,
	log *logger.Logger,
	cfg config.FeatureConfig,
	stores []domain.Store,
	sales []domain.SalesFact,
	spus map[string]domain.SPU,
	weatherSamples []domain.WeatherSample,
	elevations map[string]float64,
	weights map[domain.FeatureGroup]float64,
) (*AssembleResult, error) {
	log = log.WithComponent("feature-assembly")
	if len(stores) == 0 {
		return nil, &errs.InputError{Comp: "feature-assembly", Detail: "no stores supplied"}
	}

	shares := ComputeFashionShare(sales, spus)
	weatherProfiles, weatherDropped, err := ComputeFeelsLike(ctx, log, weatherSamples, elevations, cfg.MinWeatherDays)
	if err != nil {
		return nil, err
	}

	dropped := make(map[string]struct{}, len(weatherDropped))
	for _, id := range weatherDropped {
		dropped[id] = struct{}{}
	}

	storeByID := make(map[string]domain.Store, len(stores))
	for _, s := range stores {
		storeByID[s.StoreID] = s
	}

	for _, s := range stores {
		if _, alreadyDropped := dropped[s.StoreID]; alreadyDropped {
			continue
		}
		share, ok := shares[s.StoreID]
		switch {
		case !ok || share.TotalSales == 0:
			log.Warnf("dropping store %s: all-zero sales", s.StoreID)
			dropped[s.StoreID] = struct{}{}
		case share.SKUCount < cfg.MinSKUs:
			log.Warnf("dropping store %s: %d SKUs, need %d", s.StoreID, share.SKUCount, cfg.MinSKUs)
			dropped[s.StoreID] = struct{}{}
		}
	}

	if frac := float64(len(dropped)) / float64(len(stores)); frac > cfg.MaxStoreDropoutFraction {
		return nil, &errs.InputError{
			Comp:   "feature-assembly",
			Detail: fmt.Sprintf("%d/%d stores dropped (%.1f%%), exceeds max dropout fraction %.1f%%", len(dropped), len(stores), frac*100, cfg.MaxStoreDropoutFraction*100),
		}
	}

	var survivingStores []domain.Store
	var survivingIDs []string
	for _, s := range stores {
		if _, isDropped := dropped[s.StoreID]; isDropped {
			continue
		}
		survivingStores = append(survivingStores, s)
		survivingIDs = append(survivingIDs, s.StoreID)
	}
	sort.Strings(survivingIDs)

	survivingSales := make([]domain.SalesFact, 0, len(sales))
	for _, f := range sales {
		if _, isDropped := dropped[f.StoreID]; !isDropped {
			survivingSales = append(survivingSales, f)
		}
	}

	salesMatrix, err := BuildSalesMatrix(ctx, log, survivingSales, cfg.TopNSPUs)
	if err != nil {
		return nil, err
	}
	subcatMatrix, err := BuildSubcategoryMatrix(ctx, log, survivingSales, spus)
	if err != nil {
		return nil, err
	}

	matrix, err := assembleMatrix(survivingIDs, storeByID, salesMatrix, subcatMatrix, shares, weatherProfiles, weights)
	if err != nil {
		return nil, err
	}

	droppedList := make([]string, 0, len(dropped))
	for id := range dropped {
		droppedList = append(droppedList, id)
	}
	sort.Strings(droppedList)

	log.Infof("feature assembly complete: %d stores, %d columns, %d dropped", matrix.NumStores(), matrix.NumColumns(), len(droppedList))
	return &AssembleResult{
		Matrix:          matrix,
		WeatherProfiles: weatherProfiles,
		Shares:          shares,
		DroppedStores:   droppedList,
	}, nil
}

// assembleMatrix concatenates the normalized sub-matrices with the group
// weights from spec.md §3, applied after each block's own normalization
// (row-sum for sales/subcategory, min-max for everything else).
func assembleMatrix(
	storeIDs []string,
	storeByID map[string]domain.Store,
	salesMatrix, subcatMatrix *SalesMatrix,
	shares map[string]StoreShare,
	weather map[string]domain.StoreWeatherProfile,
	weights map[domain.FeatureGroup]float64,
) (*domain.FeatureMatrix, error) {
	salesWeight := weights[domain.FeatureGroupSales]
	styleWeight := weights[domain.FeatureGroupStyle]
	capacityWeight := weights[domain.FeatureGroupCapacity]
	tempWeight := weights[domain.FeatureGroupTemperature]
	geoWeight := weights[domain.FeatureGroupGeographic]

	n := len(storeIDs)
	var columnNames []string
	var columnGroups []domain.FeatureGroup
	columns := make([][]float64, 0)

	// Sales and subcategory matrices are already row-normalized (each
	// store's row sums to 1), so scaling every column by half the group
	// weight (no division by column count) makes each block's row-sum
	// contribution exactly salesWeight/2 — the two blocks split the
	// sales group's weight evenly between SPU-level and subcategory-
	// level mix.
	salesIndexByStore := indexOf(salesMatrix.StoreIDs)
	for j, col := range salesMatrix.Columns {
		raw := columnFor(salesMatrix, salesIndexByStore, storeIDs, j)
		columns = append(columns, scaleColumn(raw, salesWeight/2))
		columnNames = append(columnNames, "spu:"+col)
		columnGroups = append(columnGroups, domain.FeatureGroupSales)
	}
	subcatIndexByStore := indexOf(subcatMatrix.StoreIDs)
	for j, col := range subcatMatrix.Columns {
		raw := columnFor(subcatMatrix, subcatIndexByStore, storeIDs, j)
		columns = append(columns, scaleColumn(raw, salesWeight/2))
		columnNames = append(columnNames, "subcat:"+col)
		columnGroups = append(columnGroups, domain.FeatureGroupSales)
	}

	// Style: fashion_ratio, basic_ratio (already in [0,1]) plus a
	// 3-valued style one-hot, 5 columns sharing styleWeight evenly.
	styleCols := [][]float64{
		buildColumn(storeIDs, func(id string) float64 { return shares[id].FashionShare }),
		buildColumn(storeIDs, func(id string) float64 { return shares[id].BasicShare }),
		buildColumn(storeIDs, func(id string) float64 { return oneHot(storeByID[id].Style == domain.StoreStyleFashion) }),
		buildColumn(storeIDs, func(id string) float64 { return oneHot(storeByID[id].Style == domain.StoreStyleBasic) }),
		buildColumn(storeIDs, func(id string) float64 { return oneHot(storeByID[id].Style == domain.StoreStyleBalance) }),
	}
	styleNames := []string{"fashion_ratio", "basic_ratio", "style_fashion", "style_basic", "style_balanced"}
	for i, col := range styleCols {
		columns = append(columns, scaleColumn(col, styleWeight/float64(len(styleCols))))
		columnNames = append(columnNames, styleNames[i])
		columnGroups = append(columnGroups, domain.FeatureGroupStyle)
	}

	// Capacity: min-max normalized rack_capacity plus a 3-valued
	// size-tier one-hot, 4 columns sharing capacityWeight evenly.
	rackRaw := buildColumn(storeIDs, func(id string) float64 { return float64(storeByID[id].EstimatedRackCapacity) })
	capacityCols := [][]float64{
		minMaxColumn(rackRaw),
		buildColumn(storeIDs, func(id string) float64 { return oneHot(storeByID[id].SizeTier == domain.SizeTierSmall) }),
		buildColumn(storeIDs, func(id string) float64 { return oneHot(storeByID[id].SizeTier == domain.SizeTierMedium) }),
		buildColumn(storeIDs, func(id string) float64 { return oneHot(storeByID[id].SizeTier == domain.SizeTierLarge) }),
	}
	capacityNames := []string{"rack_capacity", "size_small", "size_medium", "size_large"}
	for i, col := range capacityCols {
		columns = append(columns, scaleColumn(col, capacityWeight/float64(len(capacityCols))))
		columnNames = append(columnNames, capacityNames[i])
		columnGroups = append(columnGroups, domain.FeatureGroupCapacity)
	}

	// Temperature: min-max normalized avg/min/max feels-like, 3 columns
	// sharing tempWeight evenly.
	tempCols := [][]float64{
		minMaxColumn(buildColumn(storeIDs, func(id string) float64 { return weather[id].AvgFeelsLike })),
		minMaxColumn(buildColumn(storeIDs, func(id string) float64 { return weather[id].MinFeelsLike })),
		minMaxColumn(buildColumn(storeIDs, func(id string) float64 { return weather[id].MaxFeelsLike })),
	}
	tempNames := []string{"avg_feels_like", "min_feels_like", "max_feels_like"}
	for i, col := range tempCols {
		columns = append(columns, scaleColumn(col, tempWeight/float64(len(tempCols))))
		columnNames = append(columnNames, tempNames[i])
		columnGroups = append(columnGroups, domain.FeatureGroupTemperature)
	}

	// Geographic: min-max normalized latitude and longitude, 2 columns
	// sharing geoWeight evenly.
	geoCols := [][]float64{
		minMaxColumn(buildColumn(storeIDs, func(id string) float64 { return storeByID[id].Latitude })),
		minMaxColumn(buildColumn(storeIDs, func(id string) float64 { return storeByID[id].Longitude })),
	}
	geoNames := []string{"latitude", "longitude"}
	for i, col := range geoCols {
		columns = append(columns, scaleColumn(col, geoWeight/float64(len(geoCols))))
		columnNames = append(columnNames, geoNames[i])
		columnGroups = append(columnGroups, domain.FeatureGroupGeographic)
	}

	data := make([][]float64, n)
	for i := range data {
		row := make([]float64, len(columns))
		for j, col := range columns {
			row[j] = col[i]
		}
		data[i] = row
	}

	return &domain.FeatureMatrix{
		StoreIDs:     storeIDs,
		ColumnNames:  columnNames,
		ColumnGroups: columnGroups,
		Data:         data,
	}, nil
}

func oneHot(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func buildColumn(storeIDs []string, f func(string) float64) []float64 {
	out := make([]float64, len(storeIDs))
	for i, id := range storeIDs {
		out[i] = f(id)
	}
	return out
}

func indexOf(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// columnFor reads matrix column j in storeIDs order, defaulting to 0 for
// any store absent from the sub-matrix (e.g. a store with zero sales in
// the top-N SPUs that were kept).
func columnFor(m *SalesMatrix, indexByStore map[string]int, storeIDs []string, j int) []float64 {
	out := make([]float64, len(storeIDs))
	for i, id := range storeIDs {
		if row, ok := indexByStore[id]; ok {
			out[i] = m.Data[row][j]
		}
	}
	return out
}
