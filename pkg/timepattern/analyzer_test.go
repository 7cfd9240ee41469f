package timepattern

import (
	"errors"
	"testing"

	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
)

const daySeconds = 24 * 3600

// daysOfSamples builds one sample per day at 00:00 UTC (Unix time
// d*86400), for `days` consecutive days starting at day 0, all at the given temperature
// and calendar month.
func daysOfSamples(days int, month int, temperature float64) []domain.WeatherSample {
	out := make([]domain.WeatherSample, 0, days)
	for d := 0; d < days; d++ {
		out = append(out, domain.WeatherSample{
			StoreID:              "S1",
			TimestampUnixSeconds: int64(d) * daySeconds,
			Month:                month,
			Temperature:          temperature,
			Humidity:             50,
			WindSpeed:            5,
		})
	}
	return out
}

func TestBuildProfile_NoSamplesErrors(t *testing.T) {
	a := NewAnalyzer()
	_, err := a.BuildProfile("S1", nil, 0)
	if err == nil {
		t.Fatal("expected error for empty samples")
	}
	var ide *errs.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Errorf("expected *errs.InsufficientDataError, got %T", err)
	}
}

func TestBuildProfile_InsufficientDays(t *testing.T) {
	a := NewAnalyzer()
	samples := daysOfSamples(29, 1, 18)
	if _, err := a.BuildProfile("S1", samples, 0); err == nil {
		t.Error("expected insufficient-data error for 29 days")
	}
}

func TestBuildProfile_ExactlyThirtyDaysPasses(t *testing.T) {
	a := NewAnalyzer()
	samples := daysOfSamples(30, 1, 18)
	profile, err := a.BuildProfile("S1", samples, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.DaysObserved != 30 {
		t.Errorf("expected 30 days observed, got %d", profile.DaysObserved)
	}
}

func TestApparentTemperature_WindChillAppliedAtLowTemp(t *testing.T) {
	s := domain.WeatherSample{Temperature: 5, WindSpeed: 20}
	apparent := ApparentTemperature(s, 0)
	if apparent >= s.Temperature {
		t.Errorf("expected wind chill to lower apparent temperature below %.1f, got %.2f", s.Temperature, apparent)
	}
}

func TestApparentTemperature_HeatIndexAppliedAtHighTemp(t *testing.T) {
	s := domain.WeatherSample{Temperature: 32, Humidity: 70}
	apparent := ApparentTemperature(s, 0)
	if apparent <= s.Temperature {
		t.Errorf("expected heat index to raise apparent temperature above %.1f, got %.2f", s.Temperature, apparent)
	}
}

func TestApparentTemperature_IdentityInMidRange(t *testing.T) {
	s := domain.WeatherSample{Temperature: 18}
	apparent := ApparentTemperature(s, 0)
	if apparent != 18 {
		t.Errorf("expected identity at 18C, got %.2f", apparent)
	}
}

func TestApparentTemperature_ElevationLapseCorrection(t *testing.T) {
	s := domain.WeatherSample{Temperature: 20}
	apparent := ApparentTemperature(s, 1000)
	want := 20 + LapseRatePerMeter*1000
	if absFloat(apparent-want) > 1e-9 {
		t.Errorf("expected %.4f, got %.4f", want, apparent)
	}
}

func TestBuildProfile_HourTalliesByClass(t *testing.T) {
	a := NewAnalyzer()
	// 30 cold days + 5 hot days, all outside Sep-Nov.
	samples := append(daysOfSamples(30, 1, 2), daysOfSamples(5, 2, 30)...)
	profile, err := a.BuildProfile("S1", samples, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.HoursCold != 30 {
		t.Errorf("expected 30 cold hours, got %d", profile.HoursCold)
	}
	if profile.HoursHot != 5 {
		t.Errorf("expected 5 hot hours, got %d", profile.HoursHot)
	}
}

func TestBuildProfile_SeasonalBandRestrictsToSepNov(t *testing.T) {
	a := NewAnalyzer()
	// Most of the year is cold (Jan), but 30 days in October are warm.
	samples := append(daysOfSamples(60, 1, 2), daysOfSamples(30, 10, 22)...)
	profile, err := a.BuildProfile("S1", samples, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.TemperatureBand == profile.TemperatureBandQ3Q4Seasonal {
		t.Errorf("expected the seasonal band to differ from the overall band, both were %s", profile.TemperatureBand)
	}
	if profile.TemperatureBandQ3Q4Seasonal != domain.BandForTemperature(22, a.BandWidth) {
		t.Errorf("expected seasonal band for 22C, got %s", profile.TemperatureBandQ3Q4Seasonal)
	}
}

func TestBuildProfile_NoSeasonalSamplesLeavesBandEmpty(t *testing.T) {
	a := NewAnalyzer()
	samples := daysOfSamples(30, 1, 18)
	profile, err := a.BuildProfile("S1", samples, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.TemperatureBandQ3Q4Seasonal != "" {
		t.Errorf("expected no seasonal band when no Sep-Nov samples exist, got %s", profile.TemperatureBandQ3Q4Seasonal)
	}
}

func TestDistinctSampleDays_CountsUniqueDaysNotSamples(t *testing.T) {
	samples := daysOfSamples(10, 1, 18)
	// Duplicate the first day's sample several times; it must not inflate
	// the day count.
	samples = append(samples, samples[0], samples[0])
	if got := distinctSampleDays(samples); got != 10 {
		t.Errorf("expected 10 distinct days, got %d", got)
	}
}

// absFloat avoids importing "math" solely for one assertion helper.
func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
