package logistics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/attewell/loadlist/internal/domain/logistics"
	"github.com/attewell/loadlist/internal/infra/storage"
	logisticsmem "github.com/attewell/loadlist/internal/infra/storage/logistics/memory"
)

type staticOrderSource struct {
	items      []domain.LineItem
	directions []domain.ScanDirection
}

func (s staticOrderSource) GetLineItems(context.Context, string) ([]domain.LineItem, error) {
	return s.items, nil
}

func (s staticOrderSource) GetSelectedDirections(context.Context, string) ([]domain.ScanDirection, error) {
	return s.directions, nil
}

func newGenerator(repo domain.ScanListRepository, source domain.OrderSource, enq SyncEnqueuer) *Generator {
	return NewGenerator(
		repo, source, allowAllPerms{}, staticSession{userID: "dispatcher-1"},
		enq, noopScanMetrics{}, testLogger(), storage.NoOpTracer(),
	)
}

func TestGenerateCreatesAllFourDirectionsByDefault(t *testing.T) {
	t.Parallel()

	repo := logisticsmem.NewScanListStore()
	enq := &recordingEnqueuer{}
	g := newGenerator(repo, staticOrderSource{items: []domain.LineItem{
		{SKU: "SPK-12", Name: "12in speaker", Category: "audio", Quantity: 2},
		{SKU: "CBL-XLR", Name: "XLR cable", Category: "cabling", Quantity: 5},
	}}, enq)

	order := domain.Order{ID: "order-1", Label: "Summer Fest", Finalized: true}
	lists, err := g.Generate(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, lists, 4)

	for i, direction := range domain.AllDirections() {
		assert.Equal(t, direction, lists[i].Direction())
		assert.Equal(t, domain.ListStatusPending, lists[i].Status())
		assert.Equal(t, 7, lists[i].RequiredTotal())
		assert.Zero(t, lists[i].ScannedTotal())
		assert.Len(t, lists[i].Lines(), 2)
	}

	assert.Equal(t, []string{"order-1"}, enq.replaces)
}

func TestGenerateHonorsSelectedDirections(t *testing.T) {
	t.Parallel()

	repo := logisticsmem.NewScanListStore()
	g := newGenerator(repo, staticOrderSource{
		items:      []domain.LineItem{{SKU: "SPK-12", Quantity: 1}},
		directions: []domain.ScanDirection{domain.DirectionDepotToVehicle, domain.DirectionVehicleToDepot},
	}, &recordingEnqueuer{})

	lists, err := g.Generate(context.Background(), domain.Order{ID: "order-1", Finalized: true})
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, domain.DirectionDepotToVehicle, lists[0].Direction())
	assert.Equal(t, domain.DirectionVehicleToDepot, lists[1].Direction())
}

func TestGenerateRejectsUnfinalizedOrder(t *testing.T) {
	t.Parallel()

	g := newGenerator(logisticsmem.NewScanListStore(), staticOrderSource{
		items: []domain.LineItem{{SKU: "SPK-12", Quantity: 1}},
	}, &recordingEnqueuer{})

	_, err := g.Generate(context.Background(), domain.Order{ID: "order-1", Finalized: false})
	assert.ErrorIs(t, err, domain.ErrOrderNotFinalized)
}

func TestGenerateRejectsEmptyOrder(t *testing.T) {
	t.Parallel()

	g := newGenerator(logisticsmem.NewScanListStore(), staticOrderSource{}, &recordingEnqueuer{})

	_, err := g.Generate(context.Background(), domain.Order{ID: "order-1", Finalized: true})
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
}

func TestGeneratePermissionDenied(t *testing.T) {
	t.Parallel()

	g := NewGenerator(
		logisticsmem.NewScanListStore(),
		staticOrderSource{items: []domain.LineItem{{SKU: "SPK-12", Quantity: 1}}},
		denyAllPerms{}, staticSession{userID: "visitor"},
		&recordingEnqueuer{}, noopScanMetrics{}, testLogger(), storage.NoOpTracer(),
	)

	_, err := g.Generate(context.Background(), domain.Order{ID: "order-1", Finalized: true})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestRegenerationWipesScanHistory(t *testing.T) {
	t.Parallel()

	repo := logisticsmem.NewScanListStore()
	enq := &recordingEnqueuer{}
	source := staticOrderSource{items: []domain.LineItem{{SKU: "SPK-12", Quantity: 2}}}
	g := newGenerator(repo, source, enq)
	ctx := context.Background()
	order := domain.Order{ID: "order-1", Label: "Summer Fest", Finalized: true}

	first, err := g.Generate(ctx, order)
	require.NoError(t, err)

	// Record progress on the first generation.
	list := first[0]
	require.NoError(t, list.RecordScan("unit-1", "SPK-12"))
	require.NoError(t, repo.Save(ctx, list))

	second, err := g.Generate(ctx, order)
	require.NoError(t, err)

	// The old list ids are gone and every new list starts clean.
	_, err = repo.GetByID(ctx, list.ID())
	assert.ErrorIs(t, err, domain.ErrListNotFound)
	for _, l := range second {
		assert.Zero(t, l.ScannedTotal())
		assert.Equal(t, domain.ListStatusPending, l.Status())
	}

	assert.Equal(t, []string{"order-1", "order-1"}, enq.replaces)
}

func TestDeleteForOrderQueuesRemoteWipe(t *testing.T) {
	t.Parallel()

	repo := logisticsmem.NewScanListStore()
	enq := &recordingEnqueuer{}
	g := newGenerator(repo, staticOrderSource{items: []domain.LineItem{{SKU: "SPK-12", Quantity: 1}}}, enq)
	ctx := context.Background()

	lists, err := g.Generate(ctx, domain.Order{ID: "order-1", Finalized: true})
	require.NoError(t, err)

	require.NoError(t, g.DeleteForOrder(ctx, "order-1"))

	_, err = repo.GetByID(ctx, lists[0].ID())
	assert.ErrorIs(t, err, domain.ErrListNotFound)
	assert.Equal(t, []string{"order-1"}, enq.deletes)
}
