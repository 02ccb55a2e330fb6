package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"enduro-clone/internal/env"
)

const instrumentationName = "enduro-clone/internal/metrics"

// Recorder publishes training measurements through OpenTelemetry. It
// satisfies env.Recorder.
type Recorder struct {
	steps    metric.Int64Counter
	episodes metric.Int64Counter
	returns  metric.Float64Histogram
	lengths  metric.Int64Histogram
	scores   metric.Int64Histogram
	days     metric.Int64Histogram
	crashes  metric.Int64Counter
	attrs    metric.MeasurementOption
}

// New builds the instruments on the global meter provider, which is a
// no-op until one is installed. run tags every measurement.
func New(run string) (*Recorder, error) {
	return NewWithProvider(otel.GetMeterProvider(), run)
}

// NewWithProvider builds the instruments on mp.
func NewWithProvider(mp metric.MeterProvider, run string) (*Recorder, error) {
	m := mp.Meter(instrumentationName)
	r := &Recorder{
		attrs: metric.WithAttributes(attribute.String("run", run)),
	}

	var err error
	if r.steps, err = m.Int64Counter(
		"enduro.env.steps",
		metric.WithDescription("Environment ticks simulated"),
	); err != nil {
		return nil, fmt.Errorf("creating steps counter: %w", err)
	}
	if r.episodes, err = m.Int64Counter(
		"enduro.episodes",
		metric.WithDescription("Episodes finished"),
	); err != nil {
		return nil, fmt.Errorf("creating episodes counter: %w", err)
	}
	if r.crashes, err = m.Int64Counter(
		"enduro.crashes",
		metric.WithDescription("Crashes in finished episodes"),
	); err != nil {
		return nil, fmt.Errorf("creating crashes counter: %w", err)
	}
	if r.returns, err = m.Float64Histogram(
		"enduro.episode.return",
		metric.WithDescription("Undiscounted reward per episode"),
	); err != nil {
		return nil, fmt.Errorf("creating return histogram: %w", err)
	}
	if r.lengths, err = m.Int64Histogram(
		"enduro.episode.length",
		metric.WithDescription("Ticks per episode"),
		metric.WithUnit("{tick}"),
	); err != nil {
		return nil, fmt.Errorf("creating length histogram: %w", err)
	}
	if r.scores, err = m.Int64Histogram(
		"enduro.episode.score",
		metric.WithDescription("Arcade score per episode"),
	); err != nil {
		return nil, fmt.Errorf("creating score histogram: %w", err)
	}
	if r.days, err = m.Int64Histogram(
		"enduro.episode.days_completed",
		metric.WithDescription("Days won per episode"),
	); err != nil {
		return nil, fmt.Errorf("creating days histogram: %w", err)
	}
	return r, nil
}

// RecordSteps counts n simulated ticks.
func (r *Recorder) RecordSteps(ctx context.Context, n int) {
	r.steps.Add(ctx, int64(n), r.attrs)
}

// RecordEpisode records a finished episode.
func (r *Recorder) RecordEpisode(ctx context.Context, st env.Stats) {
	r.episodes.Add(ctx, 1, r.attrs)
	r.crashes.Add(ctx, int64(st.Crashes), r.attrs)
	r.returns.Record(ctx, st.Return, r.attrs)
	r.lengths.Record(ctx, int64(st.Length), r.attrs)
	r.scores.Record(ctx, int64(st.Score), r.attrs)
	r.days.Record(ctx, int64(st.DaysCompleted), r.attrs)
}

var _ env.Recorder = (*Recorder)(nil)
