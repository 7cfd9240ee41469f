package features

import (
	"context"
	"testing"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
)

func fixtureStores() []domain.Store {
	return []domain.Store{
		{StoreID: "S1", Latitude: 30, Longitude: 120, SizeTier: domain.SizeTierLarge, Style: domain.StoreStyleFashion, EstimatedRackCapacity: 600},
		{StoreID: "S2", Latitude: 40, Longitude: 116, SizeTier: domain.SizeTierMedium, Style: domain.StoreStyleBasic, EstimatedRackCapacity: 300},
	}
}

func fixtureSPUs() map[string]domain.SPU {
	return map[string]domain.SPU{
		"F1": {SPUID: "F1", Category: "Fashion", Subcategory: "Jeans"},
		"B1": {SPUID: "B1", Category: "Basic", Subcategory: "Tees"},
	}
}

func fixtureSales() []domain.SalesFact {
	return []domain.SalesFact{
		{StoreID: "S1", SPUID: "F1", SalesAmt: 800, SalesQty: 80},
		{StoreID: "S1", SPUID: "B1", SalesAmt: 200, SalesQty: 20},
		{StoreID: "S2", SPUID: "F1", SalesAmt: 100, SalesQty: 10},
		{StoreID: "S2", SPUID: "B1", SalesAmt: 900, SalesQty: 90},
	}
}

func fixtureWeather() []domain.WeatherSample {
	var out []domain.WeatherSample
	for d := 0; d < 10; d++ {
		out = append(out,
			domain.WeatherSample{StoreID: "S1", TimestampUnixSeconds: int64(d) * 86400, Month: 6, Temperature: 22},
			domain.WeatherSample{StoreID: "S2", TimestampUnixSeconds: int64(d) * 86400, Month: 6, Temperature: 8},
		)
	}
	return out
}

func fixtureFeatureConfig() config.FeatureConfig {
	return config.FeatureConfig{TopNSPUs: 10, MinWeatherDays: 10, MinSKUs: 1, MaxStoreDropoutFraction: 0.5}
}

func TestAssembleFeatures_ProducesWeightedMatrix(t *testing.T) {
	result, err := AssembleFeatures(
		context.Background(), testLog(), fixtureFeatureConfig(),
		fixtureStores(), fixtureSales(), fixtureSPUs(), fixtureWeather(), nil,
		domain.DefaultFeatureGroupWeights(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Matrix.NumStores() != 2 {
		t.Fatalf("expected 2 stores in the matrix, got %d", result.Matrix.NumStores())
	}
	if len(result.DroppedStores) != 0 {
		t.Errorf("expected no drops, got %v", result.DroppedStores)
	}

	salesWeight := domain.DefaultFeatureGroupWeights()[domain.FeatureGroupSales]
	for i := range result.Matrix.StoreIDs {
		var salesSum float64
		for _, col := range result.Matrix.ColumnsInGroup(domain.FeatureGroupSales) {
			salesSum += result.Matrix.Data[i][col]
		}
		if salesSum < salesWeight-0.01 || salesSum > salesWeight+0.01 {
			t.Errorf("expected sales columns to sum to %f, got %f", salesWeight, salesSum)
		}
	}
}

func TestAssembleFeatures_DropsInsufficientDataButContinues(t *testing.T) {
	stores := append(fixtureStores(), domain.Store{StoreID: "S3", SizeTier: domain.SizeTierSmall, Style: domain.StoreStyleBalance, EstimatedRackCapacity: 100})
	sales := fixtureSales() // S3 has no sales facts at all
	weather := append(fixtureWeather(), func() []domain.WeatherSample {
		var out []domain.WeatherSample
		for d := 0; d < 10; d++ {
			out = append(out, domain.WeatherSample{StoreID: "S3", TimestampUnixSeconds: int64(d) * 86400, Month: 6, Temperature: 15})
		}
		return out
	}()...)

	result, err := AssembleFeatures(
		context.Background(), testLog(), fixtureFeatureConfig(),
		stores, sales, fixtureSPUs(), weather, nil,
		domain.DefaultFeatureGroupWeights(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.DroppedStores) != 1 || result.DroppedStores[0] != "S3" {
		t.Errorf("expected S3 to be dropped for all-zero sales, got %v", result.DroppedStores)
	}
	if result.Matrix.NumStores() != 2 {
		t.Errorf("expected 2 surviving stores, got %d", result.Matrix.NumStores())
	}
}

func TestAssembleFeatures_AbortsWhenDropoutExceedsThreshold(t *testing.T) {
	stores := []domain.Store{
		{StoreID: "S1", SizeTier: domain.SizeTierLarge, Style: domain.StoreStyleFashion},
		{StoreID: "S2", SizeTier: domain.SizeTierMedium, Style: domain.StoreStyleBasic},
	}
	// Neither store has any sales facts, so both are dropped — 100%
	// dropout, exceeding the fixture's 50% threshold.
	cfg := fixtureFeatureConfig()
	_, err := AssembleFeatures(
		context.Background(), testLog(), cfg,
		stores, nil, fixtureSPUs(), fixtureWeather(), nil,
		domain.DefaultFeatureGroupWeights(),
	)
	if err == nil {
		t.Fatal("expected an abort error when dropout exceeds the max fraction")
	}
}
