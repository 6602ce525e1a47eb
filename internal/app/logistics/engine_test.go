package logistics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/attewell/loadlist/internal/domain/logistics"
	registrymem "github.com/attewell/loadlist/internal/infra/registry/memory"
	"github.com/attewell/loadlist/internal/infra/storage"
	logisticsmem "github.com/attewell/loadlist/internal/infra/storage/logistics/memory"
	"github.com/attewell/loadlist/pkg/common/logger"
)

type allowAllPerms struct{}

func (allowAllPerms) HasPermission(context.Context, string, string) bool { return true }

type denyAllPerms struct{}

func (denyAllPerms) HasPermission(context.Context, string, string) bool { return false }

type staticSession struct{ userID string }

func (s staticSession) CurrentUserID(context.Context) string { return s.userID }

type recordingEnqueuer struct {
	mu       sync.Mutex
	upserts  []uuid.UUID
	replaces []string
	deletes  []string
}

func (r *recordingEnqueuer) EnqueueListUpsert(listID uuid.UUID, orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, listID)
}

func (r *recordingEnqueuer) EnqueueOrderReplace(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaces = append(r.replaces, orderID)
}

func (r *recordingEnqueuer) EnqueueOrderDelete(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, orderID)
}

type noopScanMetrics struct{}

func (noopScanMetrics) IncScansRecorded(context.Context)         {}
func (noopScanMetrics) IncScansRejected(context.Context)         {}
func (noopScanMetrics) IncUndosApplied(context.Context)          {}
func (noopScanMetrics) IncManualAdjustments(context.Context)     {}
func (noopScanMetrics) IncRegistryWriteFailures(context.Context) {}
func (noopScanMetrics) IncListsGenerated(context.Context, int)   {}

// failingRegistry resolves units but refuses status writes.
type failingRegistry struct{ inner *registrymem.Registry }

func (f failingRegistry) Lookup(ctx context.Context, unitID string) (domain.Unit, error) {
	return f.inner.Lookup(ctx, unitID)
}

func (f failingRegistry) SetStatus(context.Context, string, domain.UnitLifecycleStatus, string) error {
	return errors.New("registry unavailable")
}

type engineFixture struct {
	engine   *Engine
	repo     *logisticsmem.ScanListStore
	registry *registrymem.Registry
	enqueuer *recordingEnqueuer
	list     *domain.ScanList
}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelDebug, "test", nil)
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		repo: logisticsmem.NewScanListStore(),
		registry: registrymem.NewRegistry(
			domain.Unit{ID: "unit-1", SKU: "SPK-12"},
			domain.Unit{ID: "unit-2", SKU: "SPK-12"},
			domain.Unit{ID: "unit-3", SKU: "LGT-04"},
		),
		enqueuer: &recordingEnqueuer{},
	}

	list, err := domain.NewScanList(
		uuid.New(),
		domain.Order{ID: "order-1", Label: "Summer Fest", Finalized: true},
		domain.DirectionDepotToVehicle,
		[]domain.LineItem{
			{SKU: "SPK-12", Name: "12in speaker", Category: "audio", Quantity: 2},
			{SKU: "CBL-XLR", Name: "XLR cable", Category: "cabling", Quantity: 5},
		},
	)
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(context.Background(), list))
	f.list = list

	f.engine = NewEngine(
		f.repo,
		f.registry,
		allowAllPerms{},
		staticSession{userID: "operator-7"},
		f.enqueuer,
		noopScanMetrics{},
		testLogger(),
		storage.NoOpTracer(),
	)
	return f
}

func TestApplyScanRecordsAndProjectsUnitStatus(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	list, err := f.engine.ApplyScan(ctx, f.list.ID(), "unit-1", "")
	require.NoError(t, err)

	assert.Equal(t, 1, list.ScannedTotal())
	assert.Equal(t, domain.ListStatusInProgress, list.Status())

	status, ok := f.registry.Status("unit-1")
	require.True(t, ok)
	assert.Equal(t, domain.UnitStatusInTransitToEvent, status)

	assert.Equal(t, []uuid.UUID{f.list.ID()}, f.enqueuer.upserts)

	// The saved copy carries the scan.
	saved, err := f.repo.GetByID(ctx, f.list.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, saved.ScannedTotal())
}

func TestApplyScanRejectsUnknownUnit(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)

	_, err := f.engine.ApplyScan(context.Background(), f.list.ID(), "unit-missing", "")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
	assert.Empty(t, f.enqueuer.upserts)
}

func TestApplyScanRejectsSkuMismatch(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)

	// unit-3 carries LGT-04 but the operator scanned it against the speaker line.
	_, err := f.engine.ApplyScan(context.Background(), f.list.ID(), "unit-3", "SPK-12")

	var mismatch *domain.SkuMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "SPK-12", mismatch.Expected)
	assert.Equal(t, "LGT-04", mismatch.Found)

	// The list is untouched.
	saved, err := f.repo.GetByID(context.Background(), f.list.ID())
	require.NoError(t, err)
	assert.Zero(t, saved.ScannedTotal())
}

func TestApplyScanRejectsSkuNotOnList(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)

	_, err := f.engine.ApplyScan(context.Background(), f.list.ID(), "unit-3", "")
	assert.ErrorIs(t, err, domain.ErrItemNotInList)
}

func TestApplyScanPermissionDenied(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.engine = NewEngine(
		f.repo, f.registry, denyAllPerms{}, staticSession{userID: "visitor"},
		f.enqueuer, noopScanMetrics{}, testLogger(), storage.NoOpTracer(),
	)

	_, err := f.engine.ApplyScan(context.Background(), f.list.ID(), "unit-1", "")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestApplyScanSurvivesRegistryWriteFailure(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.engine = NewEngine(
		f.repo, failingRegistry{inner: f.registry}, allowAllPerms{}, staticSession{userID: "operator-7"},
		f.enqueuer, noopScanMetrics{}, testLogger(), storage.NoOpTracer(),
	)
	ctx := context.Background()

	list, err := f.engine.ApplyScan(ctx, f.list.ID(), "unit-1", "")
	require.NoError(t, err, "a failed status projection must not roll back the scan")
	assert.Equal(t, 1, list.ScannedTotal())

	saved, err := f.repo.GetByID(ctx, f.list.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, saved.ScannedTotal())
	assert.Len(t, f.enqueuer.upserts, 1)
}

func TestUndoScanRoundTrip(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.ApplyScan(ctx, f.list.ID(), "unit-1", "")
	require.NoError(t, err)

	list, err := f.engine.UndoScan(ctx, f.list.ID(), "unit-1")
	require.NoError(t, err)
	assert.Zero(t, list.ScannedTotal())
	assert.Equal(t, domain.ListStatusPending, list.Status())

	// Undo does not walk the unit's lifecycle status back.
	status, ok := f.registry.Status("unit-1")
	require.True(t, ok)
	assert.Equal(t, domain.UnitStatusInTransitToEvent, status)
}

func TestUndoScanUnknownUnit(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)

	_, err := f.engine.UndoScan(context.Background(), f.list.ID(), "unit-1")
	assert.ErrorIs(t, err, domain.ErrUnitNotScanned)
}

func TestManualAdjustmentUpAndDown(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	list, err := f.engine.ApplyManualAdjustment(ctx, f.list.ID(), "CBL-XLR", 5)
	require.NoError(t, err)

	line, ok := list.Line("CBL-XLR")
	require.True(t, ok)
	assert.Equal(t, 5, line.ScannedQty())
	assert.Equal(t, domain.ItemStatusCompleted, line.Status())

	list, err = f.engine.ApplyManualAdjustment(ctx, f.list.ID(), "CBL-XLR", -2)
	require.NoError(t, err)
	line, _ = list.Line("CBL-XLR")
	assert.Equal(t, 3, line.ScannedQty())
	assert.Equal(t, domain.ItemStatusPartial, line.Status())
}

func TestManualAdjustmentOverCapIsAtomic(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.ApplyManualAdjustment(ctx, f.list.ID(), "CBL-XLR", 6)
	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)

	// Nothing was persisted from the partial walk.
	saved, err := f.repo.GetByID(ctx, f.list.ID())
	require.NoError(t, err)
	line, _ := saved.Line("CBL-XLR")
	assert.Zero(t, line.ScannedQty())
}

func TestCancelListIsTerminal(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	list, err := f.engine.CancelList(ctx, f.list.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ListStatusCancelled, list.Status())

	_, err = f.engine.ApplyScan(ctx, f.list.ID(), "unit-1", "")
	require.NoError(t, err, "cancelled lists keep accepting history edits but never change status")

	saved, err := f.repo.GetByID(ctx, f.list.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ListStatusCancelled, saved.Status())
}

func TestConcurrentScansOnOneListSerialize(t *testing.T) {
	t.Parallel()

	const unitCount = 8

	units := make([]domain.Unit, 0, unitCount)
	for i := 0; i < unitCount; i++ {
		units = append(units, domain.Unit{ID: fmt.Sprintf("cbl-unit-%d", i), SKU: "CBL-XLR"})
	}

	repo := logisticsmem.NewScanListStore()
	list, err := domain.NewScanList(
		uuid.New(),
		domain.Order{ID: "order-9", Label: "Harbor Gala", Finalized: true},
		domain.DirectionDepotToVehicle,
		[]domain.LineItem{{SKU: "CBL-XLR", Name: "XLR cable", Category: "cabling", Quantity: unitCount}},
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), list))

	engine := NewEngine(
		repo,
		registrymem.NewRegistry(units...),
		allowAllPerms{},
		staticSession{userID: "operator-7"},
		&recordingEnqueuer{},
		noopScanMetrics{},
		testLogger(),
		storage.NoOpTracer(),
	)

	var wg sync.WaitGroup
	errCh := make(chan error, unitCount)
	for _, unit := range units {
		wg.Add(1)
		go func(unitID string) {
			defer wg.Done()
			_, err := engine.ApplyScan(context.Background(), list.ID(), unitID, "")
			errCh <- err
		}(unit.ID)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := repo.GetByID(context.Background(), list.ID())
	require.NoError(t, err)
	assert.Equal(t, unitCount, got.ScannedTotal())
	assert.Equal(t, domain.ListStatusCompleted, got.Status())
}
