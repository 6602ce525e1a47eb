package logistics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// ScanMetrics defines metrics operations needed by the scan engine and the
// list generator.
type ScanMetrics interface {
	IncScansRecorded(ctx context.Context)
	IncScansRejected(ctx context.Context)
	IncUndosApplied(ctx context.Context)
	IncManualAdjustments(ctx context.Context)
	IncRegistryWriteFailures(ctx context.Context)
	IncListsGenerated(ctx context.Context, count int)
}

// scanMetrics implements ScanMetrics.
type scanMetrics struct {
	scansRecorded         metric.Int64Counter
	scansRejected         metric.Int64Counter
	undosApplied          metric.Int64Counter
	manualAdjustments     metric.Int64Counter
	registryWriteFailures metric.Int64Counter
	listsGenerated        metric.Int64Counter
}

const namespace = "scan_engine"

// NewScanMetrics creates a new scan metrics instance.
func NewScanMetrics(mp metric.MeterProvider) (*scanMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(scanMetrics)
	var err error

	if m.scansRecorded, err = meter.Int64Counter(
		"scans_recorded_total",
		metric.WithDescription("Total number of scans recorded"),
	); err != nil {
		return nil, err
	}

	if m.scansRejected, err = meter.Int64Counter(
		"scans_rejected_total",
		metric.WithDescription("Total number of scans rejected by validation"),
	); err != nil {
		return nil, err
	}

	if m.undosApplied, err = meter.Int64Counter(
		"undos_applied_total",
		metric.WithDescription("Total number of scans undone"),
	); err != nil {
		return nil, err
	}

	if m.manualAdjustments, err = meter.Int64Counter(
		"manual_adjustments_total",
		metric.WithDescription("Total number of manual count adjustments"),
	); err != nil {
		return nil, err
	}

	if m.registryWriteFailures, err = meter.Int64Counter(
		"registry_write_failures_total",
		metric.WithDescription("Total number of failed unit status projections"),
	); err != nil {
		return nil, err
	}

	if m.listsGenerated, err = meter.Int64Counter(
		"lists_generated_total",
		metric.WithDescription("Total number of scan lists generated"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *scanMetrics) IncScansRecorded(ctx context.Context)     { m.scansRecorded.Add(ctx, 1) }
func (m *scanMetrics) IncScansRejected(ctx context.Context)     { m.scansRejected.Add(ctx, 1) }
func (m *scanMetrics) IncUndosApplied(ctx context.Context)      { m.undosApplied.Add(ctx, 1) }
func (m *scanMetrics) IncManualAdjustments(ctx context.Context) { m.manualAdjustments.Add(ctx, 1) }

func (m *scanMetrics) IncRegistryWriteFailures(ctx context.Context) {
	m.registryWriteFailures.Add(ctx, 1)
}

func (m *scanMetrics) IncListsGenerated(ctx context.Context, count int) {
	m.listsGenerated.Add(ctx, int64(count))
}
