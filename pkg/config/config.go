// Package config defines the single immutable configuration surface every
// pipeline component reads from, replacing the source system's free-form
// config dictionaries (spec.md §9). Loading follows the teacher's
// policy.Engine.LoadPolicies pattern (pkg/policy/engine.go): read bytes,
// unmarshal with gopkg.in/yaml.v2, apply defaults for zero-valued fields.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ClusteringConfig holds the clustering engine's tunables (spec.md §4.2, §6).
type ClusteringConfig struct {
	TargetClusterSize             int     `yaml:"target_cluster_size"`
	MinClusterSize                int     `yaml:"min_cluster_size"`
	MaxClusterSize                int     `yaml:"max_cluster_size"`
	TemperatureBandWidth          float64 `yaml:"temperature_band_width"`
	MerchandisingCoherenceThreshold float64 `yaml:"merchandising_coherence_threshold"`
	MaxCoherenceReclusterAttempts int     `yaml:"max_coherence_recluster_attempts"`
	CoherenceWeightMultiplier     float64 `yaml:"coherence_weight_multiplier"`
	MaxCoherenceWeightMultiplier  float64 `yaml:"max_coherence_weight_multiplier"`
	MaxRebalanceIterations        int     `yaml:"max_rebalance_iterations"`
	MinOverallSilhouette          float64 `yaml:"min_overall_silhouette"`
	RandomSeed                    int64   `yaml:"random_seed"`

	PCAComponentsSPU         int `yaml:"pca_components_spu"`
	PCAComponentsSubcategory int `yaml:"pca_components_subcategory"`
	PCAComponentsCategory    int `yaml:"pca_components_category"`
}

// FeatureConfig holds Feature Assembly's tunables (spec.md §4.1, §6).
type FeatureConfig struct {
	TopNSPUs                   int     `yaml:"top_n_spus"`
	MinWeatherDays             int     `yaml:"min_weather_days"`
	MinSKUs                    int     `yaml:"min_skus"`
	MaxStoreDropoutFraction    float64 `yaml:"max_store_dropout_fraction"`
}

// RuleR7Config is the Missing SPU / Subcategory rule's thresholds.
type RuleR7Config struct {
	AdoptionThreshold      float64 `yaml:"adoption_threshold"`
	MinSalesThreshold      float64 `yaml:"min_sales_threshold"`
	MaxMissingSPUsPerStore int     `yaml:"max_missing_spus_per_store"`
	MinClusterSize         int     `yaml:"min_cluster_size"`
	MinTotalOpportunity    float64 `yaml:"min_total_opportunity"`
}

// RuleR8Config is the Imbalanced Allocation rule's thresholds.
type RuleR8Config struct {
	ZThreshold          float64 `yaml:"z_threshold"`
	MaxAdjustmentsPerStore int  `yaml:"max_adjustments_per_store"`
	MinAdjustmentQuantity int   `yaml:"min_adjustment_quantity"`
	MinAdjustmentValue    float64 `yaml:"min_adjustment_value"`
}

// RuleR9Config is the Below Minimum rule's thresholds.
type RuleR9Config struct {
	MinStylesPerSubcategory int     `yaml:"min_styles_per_subcategory"`
	BenchmarkFraction       float64 `yaml:"benchmark_fraction"`
}

// RuleR10Config is the Smart Overcapacity rule's thresholds, available in
// three named profiles (spec.md §4.4).
type RuleR10Config struct {
	TopPerformerPercentile float64 `yaml:"top_performer_percentile"`
	OverAllocationRatio    float64 `yaml:"over_allocation_ratio"`
	MaxCapacityUtilization float64 `yaml:"max_capacity_utilization"`
	StrategicIncreaseRatio float64 `yaml:"strategic_increase_ratio"`
}

// RuleR11Config is the Missed Sales rule's thresholds.
type RuleR11Config struct {
	MinSellThrough float64 `yaml:"min_sell_through"`
}

// RuleR12Config is the Sales Performance Gap rule's thresholds.
type RuleR12Config struct {
	ZThreshold          float64 `yaml:"z_threshold"`
	MaxIncreasePerStore int     `yaml:"max_increase_per_store"`
	FocusTopN           int     `yaml:"focus_top_n"`
	MinROI              float64 `yaml:"min_roi"`
	MinOpportunityGap   float64 `yaml:"min_opportunity_gap"`
	BenchmarkPercentile float64 `yaml:"benchmark_percentile"`
}

// RuleConfig bundles all six rules' thresholds.
type RuleConfig struct {
	R7  RuleR7Config  `yaml:"r7"`
	R8  RuleR8Config  `yaml:"r8"`
	R9  RuleR9Config  `yaml:"r9"`
	R10 RuleR10Config `yaml:"r10"`
	R11 RuleR11Config `yaml:"r11"`
	R12 RuleR12Config `yaml:"r12"`
}

// SanityConfig is the universal caps applied to every rule's output before
// emission (spec.md §4.4) and again across the merged set (spec.md §4.5).
type SanityConfig struct {
	MaxTotalSPUChangesPerStore     int     `yaml:"max_total_spu_changes_per_store"`
	MaxTotalQuantityChangesPerStore int    `yaml:"max_total_quantity_changes_per_store"`
	MaxInvestmentPerStore          float64 `yaml:"max_investment_per_store"`
}

// SellThroughConfig configures the pre-optimization sell-through gate
// (spec.md §4.5, §6).
type SellThroughConfig struct {
	MinPredictedSellThrough float64 `yaml:"min_predicted_sell_through"`
	MinImprovement          float64 `yaml:"min_sell_through_improvement"`
	MaxRisk                 float64 `yaml:"max_sell_through_risk"`
}

// AllocatorConfig configures the group-to-store LRM allocator
// (spec.md §4.5, §6).
type AllocatorConfig struct {
	AlphaSales         float64 `yaml:"alpha_sales"`
	BetaCapacity       float64 `yaml:"beta_cap"`
	GammaFit           float64 `yaml:"gamma_fit"`
	MaxPerStore        int     `yaml:"max_per_store"`
	HeadroomUnitScale  float64 `yaml:"headroom_unit_scale"`
	CapacityMaxUtil    float64 `yaml:"capacity_max_util"`
	EnableGlobalOptimizer bool  `yaml:"enable_global_optimizer"`
}

// Pipeline is the single immutable configuration struct threaded through
// every component, replacing the source system's free-form config
// dictionaries (spec.md §9).
type Pipeline struct {
	Clustering  ClusteringConfig  `yaml:"clustering"`
	Features    FeatureConfig     `yaml:"features"`
	Rules       RuleConfig        `yaml:"rules"`
	Sanity      SanityConfig      `yaml:"sanity"`
	SellThrough SellThroughConfig `yaml:"sell_through"`
	Allocator   AllocatorConfig   `yaml:"allocator"`
}

// Default returns the pipeline configuration populated with spec.md's
// stated defaults — the "most recent sanity adjustment" values spec.md §9
// calls out as canonical among the source's contradictory iterations.
func Default() *Pipeline {
	return &Pipeline{
		Clustering: ClusteringConfig{
			TargetClusterSize:               50,
			MinClusterSize:                  50,
			MaxClusterSize:                  50,
			TemperatureBandWidth:            5,
			MerchandisingCoherenceThreshold: 0.6,
			MaxCoherenceReclusterAttempts:   2, // re-cluster at 1.5x, then 2.25x (the 3x cap is not reached)
			CoherenceWeightMultiplier:       1.5,
			MaxCoherenceWeightMultiplier:    3.0,
			MaxRebalanceIterations:          20,
			MinOverallSilhouette:            -0.5,
			RandomSeed:                      42,
			PCAComponentsSPU:                100,
			PCAComponentsSubcategory:        50,
			PCAComponentsCategory:           20,
		},
		Features: FeatureConfig{
			TopNSPUs:                1000,
			MinWeatherDays:          30,
			MinSKUs:                 10,
			MaxStoreDropoutFraction: 0.20,
		},
		Rules: RuleConfig{
			R7: RuleR7Config{
				AdoptionThreshold:      0.98,
				MinSalesThreshold:      3000,
				MaxMissingSPUsPerStore: 3,
				MinClusterSize:         5,
				MinTotalOpportunity:    2000,
			},
			R8: RuleR8Config{
				ZThreshold:             6.0,
				MaxAdjustmentsPerStore: 5,
				MinAdjustmentQuantity:  15,
				MinAdjustmentValue:     1000,
			},
			R9: RuleR9Config{
				MinStylesPerSubcategory: 2,
				BenchmarkFraction:       0.8,
			},
			R10: RuleR10Config{
				TopPerformerPercentile: 0.80,
				OverAllocationRatio:    1.2,
				MaxCapacityUtilization: 0.85,
				StrategicIncreaseRatio: 0.15,
			},
			R11: RuleR11Config{
				MinSellThrough: 0.15,
			},
			R12: RuleR12Config{
				ZThreshold:          -1.5,
				MaxIncreasePerStore: 40,
				FocusTopN:           3,
				MinROI:              0.25,
				MinOpportunityGap:   2.0,
				BenchmarkPercentile: 75,
			},
		},
		Sanity: SanityConfig{
			MaxTotalSPUChangesPerStore:      5,
			MaxTotalQuantityChangesPerStore: 50,
			MaxInvestmentPerStore:           8000,
		},
		SellThrough: SellThroughConfig{
			MinPredictedSellThrough: 0.50,
			MinImprovement:          0.05,
			MaxRisk:                 0.80,
		},
		Allocator: AllocatorConfig{
			AlphaSales:            0.6,
			BetaCapacity:          0.3,
			GammaFit:              0.1,
			MaxPerStore:           10,
			HeadroomUnitScale:     10,
			CapacityMaxUtil:       0.9,
			EnableGlobalOptimizer: false,
		},
	}
}

// R10Profile names one of the three Smart Overcapacity threshold variants
// spec.md §4.4 calls for.
type R10Profile string

const (
	R10ProfileStrict   R10Profile = "strict"
	R10ProfileStandard R10Profile = "standard"
	R10ProfileLenient  R10Profile = "lenient"
)

// ResolveR10Profile returns the RuleR10Config for a named profile, varying
// the three thresholds spec.md §4.4 names. Unknown profiles fall back to
// "standard".
func ResolveR10Profile(profile R10Profile) RuleR10Config {
	switch profile {
	case R10ProfileStrict:
		return RuleR10Config{
			TopPerformerPercentile: 0.90,
			OverAllocationRatio:    1.4,
			MaxCapacityUtilization: 0.75,
			StrategicIncreaseRatio: 0.10,
		}
	case R10ProfileLenient:
		return RuleR10Config{
			TopPerformerPercentile: 0.70,
			OverAllocationRatio:    1.1,
			MaxCapacityUtilization: 0.90,
			StrategicIncreaseRatio: 0.20,
		}
	default:
		return Default().Rules.R10
	}
}

// Load reads a Pipeline configuration from a YAML file at path, applying
// Default() first so unset fields keep their default values.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses a Pipeline configuration from YAML bytes, useful for
// testing without touching the filesystem.
func LoadBytes(data []byte) (*Pipeline, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal pipeline config: %w", err)
	}
	return cfg, nil
}
