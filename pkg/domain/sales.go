package domain

import "strconv"

// SalesFact is keyed by (StoreID, SPUID, Period); category/subcategory and
// style tags are joined in from the SPU dimension by callers that need them
// denormalized (e.g. the Rule Engine's RuleContext).
type SalesFact struct {
	StoreID   string
	SPUID     string
	Period    Period
	SalesAmt  float64
	SalesQty  int
}

// WeatherSample is a single hourly observation for one store.
type WeatherSample struct {
	StoreID     string
	TimestampUnixSeconds int64
	Month       int // 1-12, used for the Sep-Nov seasonal restriction
	Temperature float64 // degrees C, air temperature
	Humidity    float64 // relative humidity, 0-100
	WindSpeed   float64 // km/h
	Pressure    float64 // hPa
}

// TemperatureClass buckets a feels-like temperature reading.
type TemperatureClass string

const (
	TempHot      TemperatureClass = "Hot"      // >=25C
	TempModerate TemperatureClass = "Moderate" // 15-25C
	TempCool     TemperatureClass = "Cool"     // 10-15C
	TempCold     TemperatureClass = "Cold"     // <=10C
)

// ClassifyFeelsLike buckets a feels-like temperature per spec.md §4.1.
func ClassifyFeelsLike(feelsLike float64) TemperatureClass {
	switch {
	case feelsLike >= 25:
		return TempHot
	case feelsLike >= 15:
		return TempModerate
	case feelsLike > 10:
		return TempCool
	default:
		return TempCold
	}
}

// TemperatureBand is a 5C-wide interval of feels-like temperature,
// identified by its lower bound (e.g. "10-15").
type TemperatureBand string

// BandForTemperature returns the 5C-wide band containing t, using
// half-open intervals [lo, lo+width) as in spec.md Scenario 1.
func BandForTemperature(t float64, width float64) TemperatureBand {
	if width <= 0 {
		width = 5
	}
	lo := float64(int(t/width)) * width
	if t < 0 && t != lo {
		lo -= width
	}
	return bandLabel(lo, width)
}

func bandLabel(lo, width float64) TemperatureBand {
	hi := lo + width
	return TemperatureBand(strconv.Itoa(int(lo)) + "-" + strconv.Itoa(int(hi)))
}
