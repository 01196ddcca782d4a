// Package persist writes weather envelopes to durable local files in
// text, CSV, or JSON form under timestamped names.
package persist

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/umerkhan-dev/weather-etl/internal/weather"
)

// Format tags a persisted artifact's on-disk representation.
type Format string

const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// MIMEType returns the upload content type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain"
	}
}

// Artifact is a persisted output file awaiting upload.
type Artifact struct {
	Path   string
	Format Format
}

// csvHeader fixes the column order for CSV output.
var csvHeader = []string{
	"timestamp", "temperature_celsius", "pressure", "humidity",
	"description", "wind_speed", "clouds", "visibility",
}

// Writer persists envelopes into a single output directory. The directory
// is created on first write; "already exists" is not an error.
type Writer struct {
	outputDir string
	now       func() time.Time
}

// WriterOption configures optional Writer behavior.
type WriterOption func(*Writer)

// WithClock overrides the wall clock used for filenames, for tests.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a Writer rooted at outputDir.
func NewWriter(outputDir string, opts ...WriterOption) *Writer {
	w := &Writer{
		outputDir: outputDir,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write persists the envelope in the given format and returns the artifact.
// The filename embeds the city and a second-resolution "now" timestamp,
// not the data's own timestamps. I/O failures propagate to the caller.
func (w *Writer) Write(env weather.Envelope, format Format) (Artifact, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_weather_data_%s.%s",
		strings.ToLower(env.City), w.now().Format("20060102_150405"), format)
	path := filepath.Join(w.outputDir, name)

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText:
		data = renderText(env)
	case FormatCSV:
		data, err = renderCSV(env)
	case FormatJSON:
		data, err = json.MarshalIndent(env, "", "  ")
	default:
		return Artifact{}, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return Artifact{}, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write %s: %w", path, err)
	}
	return Artifact{Path: path, Format: format}, nil
}

// renderText produces the fixed human-readable report: a metadata header
// block followed by one stanza per measurement.
func renderText(env weather.Envelope) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "Weather Data for %s\n", env.City)
	fmt.Fprintf(&b, "Collection Date: %s\n", env.CollectionDate)
	fmt.Fprintf(&b, "Collection Interval: %s\n", env.CollectionInterval)
	fmt.Fprintf(&b, "Total Data Points: %d\n\n", env.DataPoints)

	b.WriteString("Measurements:\n")
	b.WriteString(strings.Repeat("=", 80) + "\n")

	for _, m := range env.Measurements {
		fmt.Fprintf(&b, "Time: %s\n", m.Timestamp)
		fmt.Fprintf(&b, "Temperature: %s°C\n", formatFloat(m.TemperatureCelsius))
		fmt.Fprintf(&b, "Pressure: %d hPa\n", m.Pressure)
		fmt.Fprintf(&b, "Humidity: %d%%\n", m.Humidity)
		fmt.Fprintf(&b, "Description: %s\n", m.Description)
		if m.WindSpeed != nil {
			fmt.Fprintf(&b, "Wind Speed: %s m/s\n", formatFloat(*m.WindSpeed))
		}
		if m.Clouds != nil {
			fmt.Fprintf(&b, "Cloud Coverage: %d%%\n", *m.Clouds)
		}
		if m.Visibility != nil {
			fmt.Fprintf(&b, "Visibility: %d m\n", *m.Visibility)
		}
		b.WriteString(strings.Repeat("-", 40) + "\n")
	}

	return []byte(b.String())
}

// renderCSV serializes one row per measurement; envelope metadata is
// excluded and absent optional fields become empty cells.
func renderCSV(env weather.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, m := range env.Measurements {
		row := []string{
			m.Timestamp,
			formatFloat(m.TemperatureCelsius),
			strconv.Itoa(m.Pressure),
			strconv.Itoa(m.Humidity),
			m.Description,
			optFloat(m.WindSpeed),
			optInt(m.Clouds),
			optInt(m.Visibility),
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
