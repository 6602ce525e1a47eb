package logistics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/attewell/loadlist/internal/domain/logistics"
	"github.com/attewell/loadlist/pkg/common/logger"
)

// Generator builds the scan list set for a finalized order, one list per
// tracked direction. Regeneration replaces the whole set; scan history does
// not survive it.
type Generator struct {
	repo     domain.ScanListRepository
	source   domain.OrderSource
	perms    domain.PermissionChecker
	session  domain.Session
	enqueuer SyncEnqueuer

	metrics ScanMetrics
	log     *logger.Logger
	tracer  trace.Tracer
}

// NewGenerator creates a scan list generator.
func NewGenerator(
	repo domain.ScanListRepository,
	source domain.OrderSource,
	perms domain.PermissionChecker,
	session domain.Session,
	enqueuer SyncEnqueuer,
	metrics ScanMetrics,
	log *logger.Logger,
	tracer trace.Tracer,
) *Generator {
	return &Generator{
		repo:     repo,
		source:   source,
		perms:    perms,
		session:  session,
		enqueuer: enqueuer,
		metrics:  metrics,
		log:      log.With("component", "list_generator"),
		tracer:   tracer,
	}
}

// Generate creates fresh scan lists for the order, one per selected direction
// (all four when the dispatcher selected none), and atomically replaces any
// existing set both locally and, through the outbox, remotely. Orders must be
// finalized and carry at least one line item.
func (g *Generator) Generate(ctx context.Context, order domain.Order) ([]*domain.ScanList, error) {
	subject := g.session.CurrentUserID(ctx)
	if !g.perms.HasPermission(ctx, subject, PermissionGenerate) {
		return nil, fmt.Errorf("%w: %s lacks %s", domain.ErrPermissionDenied, subject, PermissionGenerate)
	}

	ctx, span := g.tracer.Start(ctx, "generator.generate",
		trace.WithAttributes(attribute.String("order_id", order.ID)))
	defer span.End()

	if !order.Finalized {
		return nil, fmt.Errorf("%w: order %s", domain.ErrOrderNotFinalized, order.ID)
	}

	items, err := g.source.GetLineItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching order line items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order %s", domain.ErrEmptyOrder, order.ID)
	}

	directions, err := g.source.GetSelectedDirections(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching selected directions: %w", err)
	}
	if len(directions) == 0 {
		directions = domain.AllDirections()
	}

	lists := make([]*domain.ScanList, 0, len(directions))
	for _, direction := range directions {
		list, err := domain.NewScanList(uuid.New(), order, direction, items)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}

	if err := g.repo.ReplaceForOrder(ctx, order.ID, lists); err != nil {
		return nil, err
	}

	g.metrics.IncListsGenerated(ctx, len(lists))
	g.enqueuer.EnqueueOrderReplace(order.ID)
	g.log.Info(ctx, "generated scan lists",
		"order_id", order.ID, "lists", len(lists), "line_items", len(items), "user", subject)
	return lists, nil
}

// DeleteForOrder removes every scan list of an order locally and queues the
// matching remote wipe. Line records go with their lists in one transaction.
func (g *Generator) DeleteForOrder(ctx context.Context, orderID string) error {
	subject := g.session.CurrentUserID(ctx)
	if !g.perms.HasPermission(ctx, subject, PermissionGenerate) {
		return fmt.Errorf("%w: %s lacks %s", domain.ErrPermissionDenied, subject, PermissionGenerate)
	}

	if err := g.repo.DeleteByOrder(ctx, orderID); err != nil {
		return err
	}

	g.enqueuer.EnqueueOrderDelete(orderID)
	g.log.Info(ctx, "deleted scan lists", "order_id", orderID, "user", subject)
	return nil
}
