package features

import (
	"context"
	"errors"
	"sort"

	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/logger"
	"retail-assortment-optimizer/pkg/timepattern"
)

// ComputeFeelsLike groups hourly weather samples by store and builds each
// store's StoreWeatherProfile via timepattern.Analyzer (spec.md §4.1's
// `compute_feels_like`). Stores with fewer than minWeatherDays distinct
// sample-days are dropped and reported rather than aborting the call;
// the caller (AssembleFeatures) is responsible for the >20% dropout
// abort threshold across all of Feature Assembly's per-store checks.
func ComputeFeelsLike(ctx context.Context, log *logger.Logger, samples []domain.WeatherSample, elevations map[string]float64, minWeatherDays int) (map[string]domain.StoreWeatherProfile, []string, error) {
	log = log.WithComponent("feature-assembly")

	byStore := make(map[string][]domain.WeatherSample)
	for _, s := range samples {
		byStore[s.StoreID] = append(byStore[s.StoreID], s)
	}

	analyzer := &timepattern.Analyzer{MinDaysObserved: minWeatherDays, BandWidth: 5}
	profiles := make(map[string]domain.StoreWeatherProfile, len(byStore))
	var dropped []string

	for _, storeID := range sortedWeatherStoreIDs(byStore) {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		profile, err := analyzer.BuildProfile(storeID, byStore[storeID], elevations[storeID])
		if err != nil {
			var ide *errs.InsufficientDataError
			if errors.As(err, &ide) {
				log.Warnf("dropping store %s from feature assembly: %v", storeID, err)
				dropped = append(dropped, storeID)
				continue
			}
			return nil, nil, err
		}
		profiles[storeID] = profile
	}

	return profiles, dropped, nil
}

func sortedWeatherStoreIDs(byStore map[string][]domain.WeatherSample) []string {
	ids := make([]string, 0, len(byStore))
	for id := range byStore {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
