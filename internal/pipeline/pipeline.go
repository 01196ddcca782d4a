// Package pipeline orchestrates the linear extract-transform-load flow:
// fetch readings, normalize them into an envelope, persist the envelope
// to local files, upload one artifact to remote storage.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/umerkhan-dev/weather-etl/internal/persist"
	"github.com/umerkhan-dev/weather-etl/internal/upload"
	"github.com/umerkhan-dev/weather-etl/internal/weather"
)

// Fetcher produces raw readings from the vendor API.
type Fetcher interface {
	Current(ctx context.Context, ts time.Time) (weather.RawMeasurement, error)
	FetchSeries(ctx context.Context, start time.Time, total int, interval time.Duration) []weather.RawMeasurement
}

// Persister writes an envelope to local storage in one format.
type Persister interface {
	Write(env weather.Envelope, format persist.Format) (persist.Artifact, error)
}

// Uploader pushes one artifact to remote storage.
type Uploader interface {
	Upload(ctx context.Context, art persist.Artifact) (upload.RemoteFile, error)
}

// Recorder receives the report of every finished run.
type Recorder interface {
	Record(report RunReport)
}

// EmptyPolicy decides what happens when fetching yields no readings.
type EmptyPolicy int

const (
	// FallbackSample substitutes one fixed sample reading and continues.
	FallbackSample EmptyPolicy = iota
	// Abort ends the run after the normalize stage with nothing persisted.
	Abort
)

// Status summarizes the outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusFailed    Status = "failed"
)

// RunReport is the record of one pipeline run. Upload failures do not
// fail the run; they are carried in UploadError with Status still
// completed.
type RunReport struct {
	ID          string             `json:"id"`
	City        string             `json:"city"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	DataPoints  int                `json:"data_points"`
	Requested   int                `json:"requested"`
	Artifacts   []persist.Artifact `json:"artifacts,omitempty"`
	RemoteID    string             `json:"remote_id,omitempty"`
	WebViewLink string             `json:"web_view_link,omitempty"`
	UploadError string             `json:"upload_error,omitempty"`
	Status      Status             `json:"status"`
}

// Options fixes per-pipeline behavior that the original buried in code:
// empty-input policy, persisted formats, and which artifact is uploaded.
type Options struct {
	City           string
	IntervalLabel  string
	OnEmpty        EmptyPolicy
	Formats        []persist.Format
	UploadFormat   persist.Format
	SeriesCount    int
	SeriesInterval time.Duration
}

// Deps wires the stage implementations into the pipeline.
type Deps struct {
	Fetcher   Fetcher
	Persister Persister
	Uploader  Uploader // nil disables the upload stage
	Recorder  Recorder // nil disables run-history recording
	Logger    *log.Logger
}

// Pipeline runs the four stages in order. Each run is independent; no
// state is shared across runs.
type Pipeline struct {
	fetcher   Fetcher
	persister Persister
	uploader  Uploader
	recorder  Recorder
	opts      Options
	log       *log.Logger
	now       func() time.Time
}

// New constructs a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	l := deps.Logger
	if l == nil {
		l = log.Default()
	}
	return &Pipeline{
		fetcher:   deps.Fetcher,
		persister: deps.Persister,
		uploader:  deps.Uploader,
		recorder:  deps.Recorder,
		opts:      opts,
		log:       l,
		now:       time.Now,
	}
}

// RunScheduled performs one workflow-engine style run: a single current
// reading, handed between stages through a run-scoped store, with the
// configured empty policy (normally FallbackSample).
func (p *Pipeline) RunScheduled(ctx context.Context) (RunReport, error) {
	start := p.now()
	rs := NewRunStore()

	var raw []weather.RawMeasurement
	m, err := p.fetcher.Current(ctx, start)
	if err != nil {
		p.log.Printf("fetch failed: %v", err)
	} else {
		raw = append(raw, m)
	}
	rs.Put(KeyRawMeasurements, raw)

	return p.finish(ctx, rs, start, raw, 1)
}

// RunStandalone performs one standalone run: a bounded sequential loop of
// forecast fetches with failures dropped, then the same transform, persist
// and upload stages.
func (p *Pipeline) RunStandalone(ctx context.Context) (RunReport, error) {
	start := p.now()
	rs := NewRunStore()

	raw := p.fetcher.FetchSeries(ctx, start, p.opts.SeriesCount, p.opts.SeriesInterval)
	rs.Put(KeyRawMeasurements, raw)

	return p.finish(ctx, rs, start, raw, p.opts.SeriesCount)
}

// finish runs normalize, persist, and upload for the extracted readings.
// Persistence errors are fatal and propagate; upload errors are logged
// and recorded but leave the run completed.
func (p *Pipeline) finish(ctx context.Context, rs *RunStore, start time.Time, raw []weather.RawMeasurement, requested int) (RunReport, error) {
	report := RunReport{
		ID:        uuid.NewString(),
		City:      p.opts.City,
		StartedAt: start,
		Requested: requested,
	}

	if len(raw) == 0 {
		switch p.opts.OnEmpty {
		case FallbackSample:
			p.log.Printf("no readings extracted; substituting sample measurement")
			raw = []weather.RawMeasurement{weather.SampleMeasurement(start)}
			rs.Put(KeyRawMeasurements, raw)
		case Abort:
			p.log.Printf("no readings extracted; nothing to persist")
			report.Status = StatusAborted
			report.FinishedAt = p.now()
			p.record(report)
			return report, nil
		}
	}

	env := weather.NewEnvelope(p.opts.City, p.opts.IntervalLabel, raw, p.now())
	rs.Put(KeyEnvelope, env)
	report.DataPoints = env.DataPoints

	var uploadArt *persist.Artifact
	for _, format := range p.opts.Formats {
		art, err := p.persister.Write(env, format)
		if err != nil {
			report.Status = StatusFailed
			report.FinishedAt = p.now()
			p.record(report)
			return report, fmt.Errorf("persist %s: %w", format, err)
		}
		p.log.Printf("saved %s", art.Path)
		report.Artifacts = append(report.Artifacts, art)
		if art.Format == p.opts.UploadFormat {
			a := art
			uploadArt = &a
		}
	}

	report.Status = StatusCompleted
	if uploadArt != nil {
		rs.Put(KeyArtifactPath, uploadArt.Path)
		p.upload(ctx, *uploadArt, &report)
	}

	report.FinishedAt = p.now()
	p.record(report)
	return report, nil
}

func (p *Pipeline) upload(ctx context.Context, art persist.Artifact, report *RunReport) {
	if p.uploader == nil {
		report.UploadError = "upload disabled: no credentials configured"
		p.log.Printf("skipping upload of %s: %s", art.Path, report.UploadError)
		return
	}

	remote, err := p.uploader.Upload(ctx, art)
	if err != nil {
		report.UploadError = err.Error()
		p.log.Printf("upload failed for %s: %v", art.Path, err)
		return
	}
	report.RemoteID = remote.ID
	report.WebViewLink = remote.WebViewLink
}

func (p *Pipeline) record(report RunReport) {
	if p.recorder != nil {
		p.recorder.Record(report)
	}
}
