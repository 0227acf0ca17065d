// Package observability holds the OTel metric instruments for the rewrite
// pipeline and the Prometheus scrape endpoint that exposes them.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal        = "rector.files.total"
	metricFileDuration      = "rector.file.duration.seconds"
	metricApplicationsTotal = "rector.rule.applications.total"
	metricPasses            = "rector.convergence.passes"
	metricExhaustionsTotal  = "rector.convergence.exhaustions.total"
	metricInflightFiles     = "rector.inflight.files"

	attrStatus = "status"

	// StatusUnchanged through StatusFailed are the per-file outcome labels.
	StatusUnchanged = "unchanged"
	StatusChanged   = "changed"
	StatusFailed    = "failed"
)

// durationBucketBoundaries covers 1ms to 30s; single-file rewrites are fast
// but pathological convergence chains can take seconds.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// passBucketBoundaries matches the convergence pass cap range.
var passBucketBoundaries = []float64{1, 2, 3, 4, 5, 7, 10, 15, 20}

// RewriteMetrics holds the OTel instruments for the per-file rewrite
// pipeline.
type RewriteMetrics struct {
	filesTotal        metric.Int64Counter
	fileDuration      metric.Float64Histogram
	applicationsTotal metric.Int64Counter
	passes            metric.Float64Histogram
	exhaustionsTotal  metric.Int64Counter
	inflightFiles     metric.Int64UpDownCounter
}

// NewRewriteMetrics creates the pipeline instruments from the given meter.
func NewRewriteMetrics(mt metric.Meter) (*RewriteMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RewriteMetrics{
		filesTotal:        b.counter(metricFilesTotal, "Total number of files processed", "{file}"),
		fileDuration:      b.histogram(metricFileDuration, "Per-file processing duration in seconds", "s", durationBucketBoundaries...),
		applicationsTotal: b.counter(metricApplicationsTotal, "Total number of rule applications", "{application}"),
		passes:            b.histogram(metricPasses, "Convergence passes per file", "{pass}", passBucketBoundaries...),
		exhaustionsTotal:  b.counter(metricExhaustionsTotal, "Files that hit the convergence pass cap", "{file}"),
		inflightFiles:     b.upDownCounter(metricInflightFiles, "Number of in-flight files", "{file}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordFile records one finished file with its outcome status, the pass and
// application counts, and the wall time spent.
func (rm *RewriteMetrics) RecordFile(ctx context.Context, status string, passes, applications int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	rm.filesTotal.Add(ctx, 1, attrs)
	rm.fileDuration.Record(ctx, duration.Seconds(), attrs)
	rm.passes.Record(ctx, float64(passes))
	rm.applicationsTotal.Add(ctx, int64(applications))
}

// RecordExhaustion records a file whose tree was still changing when the
// pass cap was reached.
func (rm *RewriteMetrics) RecordExhaustion(ctx context.Context) {
	rm.exhaustionsTotal.Add(ctx, 1)
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *RewriteMetrics) TrackInflight(ctx context.Context) func() {
	rm.inflightFiles.Add(ctx, 1)

	return func() {
		rm.inflightFiles.Add(ctx, -1)
	}
}
