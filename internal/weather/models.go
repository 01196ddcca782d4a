package weather

import (
	"math"
	"time"
)

// TimestampLayout is the wire format for measurement timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// RawMeasurement is a single reading as extracted from the vendor API.
// Temperature is in Kelvin; optional fields are nil when the payload
// omits them.
type RawMeasurement struct {
	Timestamp         string   `json:"timestamp"`
	TemperatureKelvin float64  `json:"temperature_kelvin"`
	Pressure          int      `json:"pressure"`
	Humidity          int      `json:"humidity"`
	Description       string   `json:"description"`
	WindSpeed         *float64 `json:"wind_speed"`
	Clouds            *int     `json:"clouds"`
	Visibility        *int     `json:"visibility"`
}

// CanonicalMeasurement is the normalized reading: Kelvin converted to
// Celsius (2-decimal rounding), all other fields passed through.
type CanonicalMeasurement struct {
	Timestamp          string   `json:"timestamp"`
	TemperatureCelsius float64  `json:"temperature_celsius"`
	Pressure           int      `json:"pressure"`
	Humidity           int      `json:"humidity"`
	Description        string   `json:"description"`
	WindSpeed          *float64 `json:"wind_speed"`
	Clouds             *int     `json:"clouds"`
	Visibility         *int     `json:"visibility"`
}

// Envelope wraps one run's normalized measurements with collection
// metadata. DataPoints always equals len(Measurements).
type Envelope struct {
	City               string                 `json:"city"`
	CollectionDate     string                 `json:"collection_date"`
	CollectionInterval string                 `json:"collection_interval"`
	DataPoints         int                    `json:"data_points"`
	Measurements       []CanonicalMeasurement `json:"measurements"`
}

// NormalizeMeasurement converts a raw reading to its canonical form.
// The Kelvin to Celsius conversion is the only lossy step.
func NormalizeMeasurement(r RawMeasurement) CanonicalMeasurement {
	return CanonicalMeasurement{
		Timestamp:          r.Timestamp,
		TemperatureCelsius: round2(r.TemperatureKelvin - 273.15),
		Pressure:           r.Pressure,
		Humidity:           r.Humidity,
		Description:        r.Description,
		WindSpeed:          r.WindSpeed,
		Clouds:             r.Clouds,
		Visibility:         r.Visibility,
	}
}

// NewEnvelope normalizes raw measurements in order and wraps them with
// collection metadata. It is a pure per-record mapping; empty-input
// policy is the caller's concern.
func NewEnvelope(city, interval string, raw []RawMeasurement, now time.Time) Envelope {
	measurements := make([]CanonicalMeasurement, 0, len(raw))
	for _, r := range raw {
		measurements = append(measurements, NormalizeMeasurement(r))
	}
	return Envelope{
		City:               city,
		CollectionDate:     now.Format("2006-01-02"),
		CollectionInterval: interval,
		DataPoints:         len(measurements),
		Measurements:       measurements,
	}
}

// SampleMeasurement is the fixed substitute reading used when the API
// yields nothing and the caller's policy is to fall back rather than abort.
func SampleMeasurement(ts time.Time) RawMeasurement {
	wind := 5.1
	clouds := 40
	return RawMeasurement{
		Timestamp:         ts.Format(TimestampLayout),
		TemperatureKelvin: 300.15,
		Pressure:          1015,
		Humidity:          70,
		Description:       "scattered clouds",
		WindSpeed:         &wind,
		Clouds:            &clouds,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
