package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umerkhan-dev/weather-etl/internal/weather"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func testEnvelope() weather.Envelope {
	wind := 5.1
	clouds := 40
	return weather.Envelope{
		City:               "Karachi",
		CollectionDate:     "2025-01-01",
		CollectionInterval: "Every 8 hours",
		DataPoints:         1,
		Measurements: []weather.CanonicalMeasurement{{
			Timestamp:          "2025-01-01 00:00:00",
			TemperatureCelsius: 26.85,
			Pressure:           1015,
			Humidity:           70,
			Description:        "scattered clouds",
			WindSpeed:          &wind,
			Clouds:             &clouds,
		}},
	}
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, WithClock(fixedClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))))

	env := weather.Envelope{
		City:       "Karachi",
		DataPoints: 1,
		Measurements: []weather.CanonicalMeasurement{{
			Timestamp:          "2025-01-01 00:00:00",
			TemperatureCelsius: 26.85,
			Pressure:           1013,
			Humidity:           60,
			Description:        "clear sky",
		}},
	}

	art, err := w.Write(env, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, art.Format)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)

	want := "timestamp,temperature_celsius,pressure,humidity,description,wind_speed,clouds,visibility\n" +
		"2025-01-01 00:00:00,26.85,1013,60,clear sky,,,\n"
	assert.Equal(t, want, string(data))
}

func TestWriteText(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, WithClock(fixedClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))))

	art, err := w.Write(testEnvelope(), FormatText)
	require.NoError(t, err)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	report := string(data)

	assert.Contains(t, report, "Weather Data for Karachi\n")
	assert.Contains(t, report, "Collection Date: 2025-01-01\n")
	assert.Contains(t, report, "Collection Interval: Every 8 hours\n")
	assert.Contains(t, report, "Total Data Points: 1\n")
	assert.Contains(t, report, "Time: 2025-01-01 00:00:00\n")
	assert.Contains(t, report, "Temperature: 26.85°C\n")
	assert.Contains(t, report, "Pressure: 1015 hPa\n")
	assert.Contains(t, report, "Humidity: 70%\n")
	assert.Contains(t, report, "Wind Speed: 5.1 m/s\n")
	assert.Contains(t, report, "Cloud Coverage: 40%\n")
	// Visibility was absent, so its line is omitted.
	assert.NotContains(t, report, "Visibility:")
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	env := testEnvelope()
	art, err := w.Write(env, FormatJSON)
	require.NoError(t, err)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)

	var got weather.Envelope
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, env, got)
	assert.Equal(t, got.DataPoints, len(got.Measurements))
}

func TestFilenameTemplate(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, WithClock(fixedClock(time.Date(2025, 3, 22, 8, 15, 42, 0, time.UTC))))

	art, err := w.Write(testEnvelope(), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "karachi_weather_data_20250322_081542.json", filepath.Base(art.Path))
}

func TestFilenamesDoNotCollideAcrossSeconds(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 3, 22, 8, 15, 42, 0, time.UTC)

	first, err := NewWriter(dir, WithClock(fixedClock(base))).Write(testEnvelope(), FormatCSV)
	require.NoError(t, err)
	second, err := NewWriter(dir, WithClock(fixedClock(base.Add(2*time.Second)))).Write(testEnvelope(), FormatCSV)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)

	pattern := regexp.MustCompile(`^karachi_weather_data_\d{8}_\d{6}\.csv$`)
	assert.Regexp(t, pattern, filepath.Base(first.Path))
	assert.Regexp(t, pattern, filepath.Base(second.Path))
}

func TestOutputDirCreationIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "weather_data")
	w := NewWriter(dir)

	_, err := w.Write(testEnvelope(), FormatText)
	require.NoError(t, err)
	_, err = w.Write(testEnvelope(), FormatText)
	require.NoError(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	w := NewWriter(t.TempDir())
	_, err := w.Write(testEnvelope(), Format("xml"))
	assert.Error(t, err)
}

func TestMIMETypes(t *testing.T) {
	assert.Equal(t, "text/plain", FormatText.MIMEType())
	assert.Equal(t, "text/csv", FormatCSV.MIMEType())
	assert.Equal(t, "application/json", FormatJSON.MIMEType())
}
