package sync

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics defines metrics operations needed by the reconciler.
type SyncMetrics interface {
	// Push metrics
	IncPushSuccess(ctx context.Context)
	IncPushFailure(ctx context.Context)
	IncDeadLettered(ctx context.Context)
	SetQueueDepth(ctx context.Context, depth int)

	// Pull metrics
	IncPullSuccess(ctx context.Context)
	IncPullFailure(ctx context.Context)
	ObservePullDuration(ctx context.Context, d time.Duration)

	// Stock merge metrics
	IncStockMerged(ctx context.Context, count int)
}

// syncMetrics implements SyncMetrics.
type syncMetrics struct {
	pushSuccess  metric.Int64Counter
	pushFailure  metric.Int64Counter
	deadLettered metric.Int64Counter
	queueDepth   metric.Int64Gauge

	pullSuccess  metric.Int64Counter
	pullFailure  metric.Int64Counter
	pullDuration metric.Float64Histogram

	stockMerged metric.Int64Counter
}

const namespace = "sync"

// NewSyncMetrics creates a new sync metrics instance.
func NewSyncMetrics(mp metric.MeterProvider) (*syncMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(syncMetrics)
	var err error

	if m.pushSuccess, err = meter.Int64Counter(
		"push_success_total",
		metric.WithDescription("Total number of outbox operations pushed successfully"),
	); err != nil {
		return nil, err
	}

	if m.pushFailure, err = meter.Int64Counter(
		"push_failure_total",
		metric.WithDescription("Total number of failed outbox push attempts"),
	); err != nil {
		return nil, err
	}

	if m.deadLettered, err = meter.Int64Counter(
		"dead_lettered_total",
		metric.WithDescription("Total number of outbox operations moved to the dead-letter set"),
	); err != nil {
		return nil, err
	}

	if m.queueDepth, err = meter.Int64Gauge(
		"outbox_depth",
		metric.WithDescription("Number of operations currently queued in the outbox"),
	); err != nil {
		return nil, err
	}

	if m.pullSuccess, err = meter.Int64Counter(
		"pull_success_total",
		metric.WithDescription("Total number of successful order pulls"),
	); err != nil {
		return nil, err
	}

	if m.pullFailure, err = meter.Int64Counter(
		"pull_failure_total",
		metric.WithDescription("Total number of failed order pulls"),
	); err != nil {
		return nil, err
	}

	if m.pullDuration, err = meter.Float64Histogram(
		"pull_duration_seconds",
		metric.WithDescription("Time taken to pull and rebuild one order"),
	); err != nil {
		return nil, err
	}

	if m.stockMerged, err = meter.Int64Counter(
		"stock_items_merged_total",
		metric.WithDescription("Total number of stock items written during merges"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *syncMetrics) IncPushSuccess(ctx context.Context)  { m.pushSuccess.Add(ctx, 1) }
func (m *syncMetrics) IncPushFailure(ctx context.Context)  { m.pushFailure.Add(ctx, 1) }
func (m *syncMetrics) IncDeadLettered(ctx context.Context) { m.deadLettered.Add(ctx, 1) }

func (m *syncMetrics) SetQueueDepth(ctx context.Context, depth int) {
	m.queueDepth.Record(ctx, int64(depth))
}

func (m *syncMetrics) IncPullSuccess(ctx context.Context) { m.pullSuccess.Add(ctx, 1) }
func (m *syncMetrics) IncPullFailure(ctx context.Context) { m.pullFailure.Add(ctx, 1) }

func (m *syncMetrics) ObservePullDuration(ctx context.Context, d time.Duration) {
	m.pullDuration.Record(ctx, d.Seconds())
}

func (m *syncMetrics) IncStockMerged(ctx context.Context, count int) {
	m.stockMerged.Add(ctx, int64(count))
}
