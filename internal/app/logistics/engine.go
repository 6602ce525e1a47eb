// Package logistics implements the scan application services: recording and
// undoing scans, manual adjustments for bulk stock, and scan list generation.
// All mutations commit to the local cache first and then queue a push through
// the synchronization outbox.
package logistics

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/attewell/loadlist/internal/domain/logistics"
	"github.com/attewell/loadlist/pkg/common/logger"
)

// Capability names checked before mutating operations. Callers without the
// capability get ErrPermissionDenied before any state is touched.
const (
	PermissionScan     = "scan_lists:scan"
	PermissionGenerate = "scan_lists:generate"
)

// SyncEnqueuer queues remote pushes after local commits. Implemented by the
// synchronization reconciler; mutations never wait on the network.
type SyncEnqueuer interface {
	EnqueueListUpsert(listID uuid.UUID, orderID string)
	EnqueueOrderReplace(orderID string)
	EnqueueOrderDelete(orderID string)
}

// Engine applies scan events to scan lists. A fixed set of striped locks
// serializes concurrent scanners on the same list while leaving unrelated
// lists parallel; two lists sharing a stripe serialize with each other, which
// costs a little parallelism but keeps lock state bounded for the process
// lifetime.
type Engine struct {
	repo     domain.ScanListRepository
	registry domain.UnitRegistry
	perms    domain.PermissionChecker
	session  domain.Session
	enqueuer SyncEnqueuer

	metrics ScanMetrics
	log     *logger.Logger
	tracer  trace.Tracer

	listLocks [64]sync.Mutex
}

// NewEngine creates a scan engine. Permission and session checking are
// injected rather than read from ambient globals.
func NewEngine(
	repo domain.ScanListRepository,
	registry domain.UnitRegistry,
	perms domain.PermissionChecker,
	session domain.Session,
	enqueuer SyncEnqueuer,
	metrics ScanMetrics,
	log *logger.Logger,
	tracer trace.Tracer,
) *Engine {
	return &Engine{
		repo:     repo,
		registry: registry,
		perms:    perms,
		session:  session,
		enqueuer: enqueuer,
		metrics:  metrics,
		log:      log.With("component", "scan_engine"),
		tracer:   tracer,
	}
}

func (e *Engine) lockFor(listID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(listID[:])
	return &e.listLocks[h.Sum32()%uint32(len(e.listLocks))]
}

func (e *Engine) authorize(ctx context.Context, action string) error {
	subject := e.session.CurrentUserID(ctx)
	if !e.perms.HasPermission(ctx, subject, action) {
		return fmt.Errorf("%w: %s lacks %s", domain.ErrPermissionDenied, subject, action)
	}
	return nil
}

// ApplyScan records a physical scan of a unit against a list. The unit is
// resolved in the registry and its SKU decides which line the scan counts
// toward; when expectedSKU is non-empty a differing unit SKU is rejected with
// SkuMismatchError before the list is touched. On success the unit's lifecycle
// status is projected from the list direction as a best-effort side effect.
func (e *Engine) ApplyScan(ctx context.Context, listID uuid.UUID, unitID, expectedSKU string) (*domain.ScanList, error) {
	if err := e.authorize(ctx, PermissionScan); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "engine.apply_scan", trace.WithAttributes(
		attribute.String("list_id", listID.String()),
		attribute.String("unit_id", unitID),
	))
	defer span.End()

	lock := e.lockFor(listID)
	lock.Lock()
	defer lock.Unlock()

	list, err := e.repo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	unit, err := e.registry.Lookup(ctx, unitID)
	if err != nil {
		e.metrics.IncScansRejected(ctx)
		return nil, err
	}
	if expectedSKU != "" && unit.SKU != expectedSKU {
		e.metrics.IncScansRejected(ctx)
		return nil, &domain.SkuMismatchError{Expected: expectedSKU, Found: unit.SKU}
	}

	if err := list.RecordScan(unit.ID, unit.SKU); err != nil {
		e.metrics.IncScansRejected(ctx)
		return nil, err
	}
	if err := e.repo.Save(ctx, list); err != nil {
		return nil, err
	}

	// The registry write is last-write-wins and never rolls the scan back;
	// a failure here leaves the unit status stale until the next scan.
	status := list.Direction().UnitStatusFor()
	if err := e.registry.SetStatus(ctx, unit.ID, status, ""); err != nil {
		e.metrics.IncRegistryWriteFailures(ctx)
		e.log.Warn(ctx, "unit status projection failed",
			"unit_id", unit.ID, "status", status, "error", err)
	}

	e.metrics.IncScansRecorded(ctx)
	e.enqueuer.EnqueueListUpsert(list.ID(), list.OrderID())
	return list, nil
}

// UndoScan removes a previously recorded scan from a list. The unit's
// lifecycle status is deliberately not reverted; only the next scan in some
// direction moves it again.
func (e *Engine) UndoScan(ctx context.Context, listID uuid.UUID, unitID string) (*domain.ScanList, error) {
	if err := e.authorize(ctx, PermissionScan); err != nil {
		return nil, err
	}

	lock := e.lockFor(listID)
	lock.Lock()
	defer lock.Unlock()

	list, err := e.repo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	sku, ok := skuForUnit(list, unitID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnitNotScanned, unitID)
	}
	if err := list.UndoScan(unitID, sku); err != nil {
		return nil, err
	}
	if err := e.repo.Save(ctx, list); err != nil {
		return nil, err
	}

	e.metrics.IncUndosApplied(ctx)
	e.enqueuer.EnqueueListUpsert(list.ID(), list.OrderID())
	return list, nil
}

// ApplyManualAdjustment shifts a line's scanned count by delta without
// physical scans, for bulk stock that carries no unit barcodes. Positive
// deltas respect the line's quantity cap; negative deltas strip manual
// entries before real scans and stop at zero. The adjustment applies fully
// or not at all.
func (e *Engine) ApplyManualAdjustment(ctx context.Context, listID uuid.UUID, sku string, delta int) (*domain.ScanList, error) {
	if err := e.authorize(ctx, PermissionScan); err != nil {
		return nil, err
	}

	lock := e.lockFor(listID)
	lock.Lock()
	defer lock.Unlock()

	list, err := e.repo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	for i := 0; i < delta; i++ {
		if _, err := list.AddManualCount(sku); err != nil {
			return nil, err
		}
	}
	for i := 0; i > delta; i-- {
		if err := list.RemoveManualCount(sku); err != nil {
			return nil, err
		}
	}

	if err := e.repo.Save(ctx, list); err != nil {
		return nil, err
	}

	e.metrics.IncManualAdjustments(ctx)
	e.enqueuer.EnqueueListUpsert(list.ID(), list.OrderID())
	return list, nil
}

// RefreshList recomputes a list's counters and statuses from its lines,
// degrading corrupted aggregates to a consistent empty state. Used after
// synchronization pulls and as a manual repair action.
func (e *Engine) RefreshList(ctx context.Context, listID uuid.UUID) (*domain.ScanList, error) {
	lock := e.lockFor(listID)
	lock.Lock()
	defer lock.Unlock()

	list, err := e.repo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	list.Refresh()
	if err := e.repo.Save(ctx, list); err != nil {
		return nil, err
	}

	e.enqueuer.EnqueueListUpsert(list.ID(), list.OrderID())
	return list, nil
}

// CancelList abandons a scan list. History is kept; the status is terminal.
func (e *Engine) CancelList(ctx context.Context, listID uuid.UUID) (*domain.ScanList, error) {
	if err := e.authorize(ctx, PermissionScan); err != nil {
		return nil, err
	}

	lock := e.lockFor(listID)
	lock.Lock()
	defer lock.Unlock()

	list, err := e.repo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	if err := list.Cancel(); err != nil {
		return nil, err
	}
	if err := e.repo.Save(ctx, list); err != nil {
		return nil, err
	}

	e.enqueuer.EnqueueListUpsert(list.ID(), list.OrderID())
	return list, nil
}

// GetList loads one scan list from the local cache.
func (e *Engine) GetList(ctx context.Context, listID uuid.UUID) (*domain.ScanList, error) {
	return e.repo.GetByID(ctx, listID)
}

// ListsForOrder loads every scan list of an order in pipeline direction order.
func (e *Engine) ListsForOrder(ctx context.Context, orderID string) ([]*domain.ScanList, error) {
	return e.repo.ListByOrder(ctx, orderID)
}

func skuForUnit(list *domain.ScanList, unitID string) (string, bool) {
	for _, line := range list.Lines() {
		for _, id := range line.ScannedUnits() {
			if id == unitID {
				return line.SKU(), true
			}
		}
	}
	return "", false
}
