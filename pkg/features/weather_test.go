package features

import (
	"context"
	"testing"

	"retail-assortment-optimizer/pkg/domain"
)

func weatherSamples(storeID string, days int, month int, temp float64) []domain.WeatherSample {
	out := make([]domain.WeatherSample, 0, days)
	for d := 0; d < days; d++ {
		out = append(out, domain.WeatherSample{
			StoreID:              storeID,
			TimestampUnixSeconds: int64(d) * 86400,
			Month:                month,
			Temperature:          temp,
			Humidity:             50,
		})
	}
	return out
}

func TestComputeFeelsLike_BuildsProfilesForQualifyingStores(t *testing.T) {
	samples := append(weatherSamples("S1", 30, 1, 18), weatherSamples("S2", 30, 1, 22)...)
	profiles, dropped, err := ComputeFeelsLike(context.Background(), testLog(), samples, nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("expected no drops, got %v", dropped)
	}
	if _, ok := profiles["S1"]; !ok {
		t.Error("expected a profile for S1")
	}
	if _, ok := profiles["S2"]; !ok {
		t.Error("expected a profile for S2")
	}
}

func TestComputeFeelsLike_DropsUnderobservedStores(t *testing.T) {
	samples := append(weatherSamples("S1", 30, 1, 18), weatherSamples("S2", 5, 1, 22)...)
	profiles, dropped, err := ComputeFeelsLike(context.Background(), testLog(), samples, nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dropped) != 1 || dropped[0] != "S2" {
		t.Errorf("expected S2 to be dropped, got %v", dropped)
	}
	if _, ok := profiles["S2"]; ok {
		t.Error("did not expect a profile for the dropped store")
	}
}
