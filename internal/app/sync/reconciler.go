package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/attewell/loadlist/internal/domain/catalog"
	"github.com/attewell/loadlist/internal/domain/logistics"
	"github.com/attewell/loadlist/internal/infra/remote"
	"github.com/attewell/loadlist/pkg/common"
	"github.com/attewell/loadlist/pkg/common/logger"
)

// Reconciler moves scan list and stock state between the local cache and the
// remote store. Pushes flow through the outbox so a remote outage delays
// convergence instead of losing work; pulls rebuild whole orders from the
// remote headers plus the current order line items.
type Reconciler struct {
	lists       logistics.ScanListRepository
	stock       catalog.StockItemRepository
	remoteLists RemoteStore
	remoteStock RemoteStockStore
	source      logistics.OrderSource

	outbox  *Outbox
	limiter *common.RateLimiter

	log     *logger.Logger
	tracer  trace.Tracer
	metrics SyncMetrics

	mu         sync.Mutex
	lastSync   time.Time
	lastErrors []string
}

// NewReconciler creates a Reconciler over the given local and remote stores.
func NewReconciler(
	lists logistics.ScanListRepository,
	stock catalog.StockItemRepository,
	remoteLists RemoteStore,
	remoteStock RemoteStockStore,
	source logistics.OrderSource,
	outbox *Outbox,
	limiter *common.RateLimiter,
	log *logger.Logger,
	tracer trace.Tracer,
	metrics SyncMetrics,
) *Reconciler {
	return &Reconciler{
		lists:       lists,
		stock:       stock,
		remoteLists: remoteLists,
		remoteStock: remoteStock,
		source:      source,
		outbox:      outbox,
		limiter:     limiter,
		log:         log.With("component", "reconciler"),
		tracer:      tracer,
		metrics:     metrics,
	}
}

// EnqueueListUpsert queues an incremental push of one scan list.
func (r *Reconciler) EnqueueListUpsert(listID uuid.UUID, orderID string) {
	r.outbox.EnqueueListUpsert(listID, orderID)
}

// EnqueueOrderReplace queues a full remote swap of an order's scan lists.
func (r *Reconciler) EnqueueOrderReplace(orderID string) {
	r.outbox.EnqueueOrderReplace(orderID)
}

// EnqueueOrderDelete queues a remote wipe of an order's scan lists.
func (r *Reconciler) EnqueueOrderDelete(orderID string) {
	r.outbox.EnqueueOrderDelete(orderID)
}

// Drain attempts every due outbox operation once, oldest first, within the
// push rate budget. Failures reschedule with backoff; Drain itself only errors
// when the context ends.
func (r *Reconciler) Drain(ctx context.Context) error {
	for _, op := range r.outbox.Due() {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := r.execute(ctx, op); err != nil {
			r.metrics.IncPushFailure(ctx)
			dead := r.outbox.MarkFailed(op.ID, err)
			if dead {
				r.metrics.IncDeadLettered(ctx)
				r.log.Error(ctx, "outbox operation dead-lettered",
					"kind", op.Kind, "order_id", op.OrderID, "attempts", op.Attempts+1, "error", err)
			} else {
				r.log.Warn(ctx, "outbox push failed, will retry",
					"kind", op.Kind, "order_id", op.OrderID, "attempts", op.Attempts+1, "error", err)
			}
			r.recordError(err)
			continue
		}

		r.outbox.MarkSucceeded(op.ID)
		r.metrics.IncPushSuccess(ctx)
		r.markSynced()
	}

	r.metrics.SetQueueDepth(ctx, r.outbox.Len())
	return ctx.Err()
}

// RetryFailed requeues every dead-lettered operation and drains immediately.
func (r *Reconciler) RetryFailed(ctx context.Context) error {
	if n := r.outbox.RetryDead(); n > 0 {
		r.log.Info(ctx, "requeued dead-lettered operations", "count", n)
	}
	return r.Drain(ctx)
}

func (r *Reconciler) execute(ctx context.Context, op *Operation) error {
	attrs := []attribute.KeyValue{
		attribute.String("op_kind", string(op.Kind)),
		attribute.String("order_id", op.OrderID),
	}
	ctx, span := r.tracer.Start(ctx, "reconciler.push", trace.WithAttributes(attrs...))
	defer span.End()

	switch op.Kind {
	case OpListUpsert:
		list, err := r.lists.GetByID(ctx, op.ListID)
		if errors.Is(err, logistics.ErrListNotFound) {
			// Superseded locally (regeneration or deletion); the queued
			// replace or delete for the order carries the final state.
			r.log.Debug(ctx, "skipping push for vanished list", "list_id", op.ListID)
			return nil
		}
		if err != nil {
			return err
		}
		return r.remoteLists.UpsertScanList(ctx, remote.FlattenScanList(list))

	case OpOrderReplace:
		lists, err := r.lists.ListByOrder(ctx, op.OrderID)
		if err != nil {
			return err
		}
		flats := make([]remote.FlatScanList, 0, len(lists))
		for _, list := range lists {
			flats = append(flats, remote.FlattenScanList(list))
		}
		return r.remoteLists.ReplaceOrderScanLists(ctx, op.OrderID, flats)

	case OpOrderDelete:
		return r.remoteLists.DeleteOrderScanLists(ctx, op.OrderID)

	default:
		return fmt.Errorf("unknown outbox operation kind %q", op.Kind)
	}
}

// PullOrder replaces the local scan lists for an order with state rebuilt from
// the remote store. Remote line records are not trusted for per-unit history;
// lines are reseeded from the current order items and the remotely captured
// header counters are patched on top. Headers with unparseable enum values are
// skipped and reported rather than coerced.
func (r *Reconciler) PullOrder(ctx context.Context, orderID string) error {
	started := time.Now()
	ctx, span := r.tracer.Start(ctx, "reconciler.pull_order",
		trace.WithAttributes(attribute.String("order_id", orderID)))
	defer span.End()

	flats, err := r.remoteLists.GetOrderScanLists(ctx, orderID)
	if err != nil {
		r.metrics.IncPullFailure(ctx)
		r.recordError(err)
		return fmt.Errorf("fetching remote scan lists: %w", err)
	}

	items, err := r.source.GetLineItems(ctx, orderID)
	if err != nil {
		r.metrics.IncPullFailure(ctx)
		r.recordError(err)
		return fmt.Errorf("fetching order line items: %w", err)
	}

	var parseErrs []error
	rebuilt := make([]*logistics.ScanList, 0, len(flats))
	for _, flat := range flats {
		direction, status, err := remote.ParseHeader(flat.List)
		if err != nil {
			parseErrs = append(parseErrs, err)
			continue
		}

		lines := make([]*logistics.LineProgress, 0, len(items))
		requiredTotal := 0
		for _, item := range items {
			lines = append(lines, logistics.NewLineProgress(item))
			requiredTotal += item.Quantity
		}

		list := logistics.ReconstructScanList(
			flat.List.ListID,
			orderID,
			flat.List.OrderLabel,
			direction,
			status,
			requiredTotal,
			0,
			lines,
			logistics.ReconstructTimeline(flat.List.CreatedAt, flat.List.UpdatedAt, time.Time{}),
		)

		if len(lines) == 0 {
			// Nothing can back up the remote counters; degrade to empty
			// pending instead of showing unaccountable progress.
			list.Refresh()
		} else {
			list.PatchAggregates(flat.List.ScannedTotal, status, flat.List.CompletedAt)
		}
		rebuilt = append(rebuilt, list)
	}

	if err := r.lists.ReplaceForOrder(ctx, orderID, rebuilt); err != nil {
		r.metrics.IncPullFailure(ctx)
		r.recordError(err)
		return fmt.Errorf("replacing local scan lists: %w", err)
	}

	r.metrics.ObservePullDuration(ctx, time.Since(started))
	if len(parseErrs) > 0 {
		err := errors.Join(parseErrs...)
		r.metrics.IncPullFailure(ctx)
		r.recordError(err)
		return fmt.Errorf("order %s pulled with corrupt headers: %w", orderID, err)
	}

	r.metrics.IncPullSuccess(ctx)
	r.markSynced()
	r.log.Info(ctx, "pulled order from remote", "order_id", orderID, "lists", len(rebuilt))
	return nil
}

// MergeStockItems converges the local stock cache with the remote store
// last-write-wins on the update stamp; ties keep the local copy. The remote
// result set defines which records exist: local records absent from it are
// orphans, pruned after the iteration so a mid-merge failure never deletes
// records that were simply not compared yet.
func (r *Reconciler) MergeStockItems(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "reconciler.merge_stock_items")
	defer span.End()

	remoteRecs, err := r.remoteStock.GetAllStockItems(ctx)
	if err != nil {
		r.recordError(err)
		return fmt.Errorf("fetching remote stock items: %w", err)
	}
	locals, err := r.stock.List(ctx)
	if err != nil {
		r.recordError(err)
		return fmt.Errorf("listing local stock items: %w", err)
	}

	unseen := make(map[uuid.UUID]*catalog.StockItem, len(locals))
	for _, item := range locals {
		unseen[item.ID()] = item
	}

	merged := 0
	var errs []error
	for _, rec := range remoteRecs {
		local, ok := unseen[rec.ID]
		if !ok {
			if err := r.stock.Save(ctx, remote.StockItemFrom(rec)); err != nil {
				errs = append(errs, err)
				continue
			}
			merged++
			continue
		}
		delete(unseen, rec.ID)

		incoming := remote.StockItemFrom(rec)
		switch {
		case local.NewerThan(incoming):
			if err := r.pushStockItem(ctx, local); err != nil {
				errs = append(errs, err)
				continue
			}
			merged++
		case incoming.NewerThan(local):
			if err := r.stock.Save(ctx, incoming); err != nil {
				errs = append(errs, err)
				continue
			}
			merged++
		}
	}

	// Whatever the remote no longer carries is gone everywhere else; prune
	// the local orphans now that the full comparison is done.
	for _, local := range unseen {
		if err := r.stock.Delete(ctx, local.ID()); err != nil {
			errs = append(errs, err)
			continue
		}
		merged++
	}

	r.metrics.IncStockMerged(ctx, merged)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		r.recordError(err)
		return fmt.Errorf("stock merge finished with errors: %w", err)
	}

	r.markSynced()
	return nil
}

func (r *Reconciler) pushStockItem(ctx context.Context, item *catalog.StockItem) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.remoteStock.UpsertStockItem(ctx, remote.FlattenStockItem(item))
}

// Run drains the outbox and merges stock on the given interval until the
// context ends.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil && ctx.Err() == nil {
				r.log.Error(ctx, "outbox drain failed", "error", err)
			}
			if err := r.MergeStockItems(ctx); err != nil && ctx.Err() == nil {
				r.log.Error(ctx, "stock merge failed", "error", err)
			}
		}
	}
}

// Pending returns the number of queued outbox operations.
func (r *Reconciler) Pending() int { return r.outbox.Len() }

// DeadLetters returns the operations that exhausted their retry budget.
func (r *Reconciler) DeadLetters() []Operation { return r.outbox.DeadLetters() }

// LastSuccessfulSync returns when any push or pull last succeeded.
func (r *Reconciler) LastSuccessfulSync() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSync
}

// Errors returns the most recent synchronization error messages, newest last.
func (r *Reconciler) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lastErrors...)
}

const maxRetainedErrors = 20

func (r *Reconciler) markSynced() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSync = time.Now()
}

func (r *Reconciler) recordError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErrors = append(r.lastErrors, err.Error())
	if len(r.lastErrors) > maxRetainedErrors {
		r.lastErrors = r.lastErrors[len(r.lastErrors)-maxRetainedErrors:]
	}
}
