// Package timepattern buckets a store's hourly weather samples into the
// StoreWeatherProfile the clustering engine partitions on: apparent
// ("feels-like") temperature per sample, hours spent in each temperature
// class, and the 5C-wide band containing the average.
//
// Adapted from the teacher's Analyzer, which bucketed pod metric samples
// by hour-of-day and day-of-week to detect peak/off-peak usage patterns.
// The bucketing shape survives unchanged — group samples by a time key,
// accumulate per-bucket stats, then classify the aggregate — but the key
// is now calendar month (all samples vs. the Sep-Nov subset) rather than
// hour-of-day, and the classification produced is a pair of
// domain.TemperatureBand values instead of a scaling schedule.
package timepattern

import (
	"fmt"
	"math"

	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
)

// LapseRatePerMeter is the dry adiabatic lapse rate applied as an
// elevation correction to apparent temperature, in C per meter.
const LapseRatePerMeter = -0.0065

const hoursPerDay = 24

// seasonalStartMonth and seasonalEndMonth bound the Sep-Nov window used
// for temperature_band_q3q4_seasonal, inclusive.
const (
	seasonalStartMonth = 9
	seasonalEndMonth   = 11
)

// Analyzer builds StoreWeatherProfiles from raw WeatherSample windows.
type Analyzer struct {
	// MinDaysObserved is the minimum distinct sample-days required before
	// a profile is built; fewer yields InsufficientDataError.
	MinDaysObserved int

	// BandWidth is the width in degrees C of a temperature band.
	BandWidth float64
}

// NewAnalyzer returns an Analyzer using the pipeline's default 30-day
// minimum and 5C band width.
func NewAnalyzer() *Analyzer {
	return &Analyzer{MinDaysObserved: 30, BandWidth: 5}
}

// ApparentTemperature computes the feels-like temperature for one sample:
// wind chill at or below 10C, heat index at or above 27C, the raw air
// temperature otherwise, then a lapse-rate correction for elevation.
func ApparentTemperature(s domain.WeatherSample, elevationMeters float64) float64 {
	var apparent float64
	switch {
	case s.Temperature <= 10:
		apparent = windChillC(s.Temperature, s.WindSpeed)
	case s.Temperature >= 27:
		apparent = heatIndexC(s.Temperature, s.Humidity)
	default:
		apparent = s.Temperature
	}
	return apparent + LapseRatePerMeter*elevationMeters
}

// windChillC applies the NWS wind chill formula (Celsius/km-per-hour
// inputs, Celsius output).
func windChillC(tempC, windKmh float64) float64 {
	if windKmh <= 0 {
		return tempC
	}
	v := math.Pow(windKmh, 0.16)
	return 13.12 + 0.6215*tempC - 11.37*v + 0.3965*tempC*v
}

// heatIndexC applies the Rothfusz heat index regression, converting to
// Fahrenheit for the formula and back to Celsius for the result.
func heatIndexC(tempC, humidityPct float64) float64 {
	tempF := tempC*9/5 + 32
	hiF := -42.379 + 2.04901523*tempF + 10.14333127*humidityPct -
		0.22475541*tempF*humidityPct - 0.00683783*tempF*tempF -
		0.05481717*humidityPct*humidityPct + 0.00122874*tempF*tempF*humidityPct +
		0.00085282*tempF*humidityPct*humidityPct -
		0.00000199*tempF*tempF*humidityPct*humidityPct
	return (hiF - 32) * 5 / 9
}

// BuildProfile converts one store's weather samples into a
// StoreWeatherProfile, restricting a secondary band computation to
// Sep-Nov samples for temperature_band_q3q4_seasonal.
func (a *Analyzer) BuildProfile(storeID string, samples []domain.WeatherSample, elevationMeters float64) (domain.StoreWeatherProfile, error) {
	if len(samples) == 0 {
		return domain.StoreWeatherProfile{}, &errs.InsufficientDataError{
			Comp: "timepattern", EntityID: storeID, Detail: "no weather samples", IsFatal: false,
		}
	}

	days := distinctSampleDays(samples)
	if days < a.MinDaysObserved {
		return domain.StoreWeatherProfile{}, &errs.InsufficientDataError{
			Comp:     "timepattern",
			EntityID: storeID,
			Detail:   fmt.Sprintf("%d days of weather, need %d", days, a.MinDaysObserved),
			IsFatal:  false,
		}
	}

	all := a.bucketStats(samples, elevationMeters)
	seasonal := a.bucketStats(filterMonths(samples, seasonalStartMonth, seasonalEndMonth), elevationMeters)

	allMean := all.sum / float64(all.count)

	profile := domain.StoreWeatherProfile{
		StoreID:         storeID,
		AvgFeelsLike:    allMean,
		MinFeelsLike:    all.min,
		MaxFeelsLike:    all.max,
		HoursCold:       all.hoursCold,
		HoursHot:        all.hoursHot,
		HoursModerate:   all.hoursModerate,
		DaysObserved:    days,
		TemperatureBand: domain.BandForTemperature(allMean, a.BandWidth),
	}
	if seasonal.count > 0 {
		seasonalMean := seasonal.sum / float64(seasonal.count)
		profile.TemperatureBandQ3Q4Seasonal = domain.BandForTemperature(seasonalMean, a.BandWidth)
	}
	return profile, nil
}

// bucketAccumulator holds the running stats for one group of samples.
type bucketAccumulator struct {
	count                              int
	sum, min, max                      float64
	hoursCold, hoursHot, hoursModerate int
}

// bucketStats computes apparent-temperature stats and temperature-class
// tallies over one group of samples, elevation-corrected.
func (a *Analyzer) bucketStats(samples []domain.WeatherSample, elevationMeters float64) bucketAccumulator {
	var acc bucketAccumulator
	for i, s := range samples {
		feelsLike := ApparentTemperature(s, elevationMeters)
		if i == 0 {
			acc.min, acc.max = feelsLike, feelsLike
		}
		acc.sum += feelsLike
		acc.count++
		if feelsLike < acc.min {
			acc.min = feelsLike
		}
		if feelsLike > acc.max {
			acc.max = feelsLike
		}
		switch domain.ClassifyFeelsLike(feelsLike) {
		case domain.TempHot:
			acc.hoursHot++
		case domain.TempCold:
			acc.hoursCold++
		default:
			acc.hoursModerate++
		}
	}
	return acc
}

// distinctSampleDays counts the distinct calendar days represented in
// samples, using the day-aligned Unix timestamp as the bucket key.
func distinctSampleDays(samples []domain.WeatherSample) int {
	days := make(map[int64]struct{}, len(samples)/hoursPerDay+1)
	for _, s := range samples {
		dayKey := s.TimestampUnixSeconds / (hoursPerDay * 3600)
		days[dayKey] = struct{}{}
	}
	return len(days)
}

// filterMonths returns the subset of samples whose Month field falls in
// [startMonth, endMonth] inclusive.
func filterMonths(samples []domain.WeatherSample, startMonth, endMonth int) []domain.WeatherSample {
	out := make([]domain.WeatherSample, 0, len(samples))
	for _, s := range samples {
		if s.Month >= startMonth && s.Month <= endMonth {
			out = append(out, s)
		}
	}
	return out
}
