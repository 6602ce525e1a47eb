package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/attewell/loadlist/internal/infra/remote"
	"github.com/attewell/loadlist/internal/infra/storage"
)

// scanListStore persists flattened scan lists in PostgreSQL, the authoritative
// store across devices and sessions. It speaks only the flat remote shape; the
// local cache owns the live aggregates.
type scanListStore struct {
	db     *pgxpool.Pool
	tracer trace.Tracer
}

// NewScanListStore creates a PostgreSQL-backed remote scan list store with
// tracing capabilities.
func NewScanListStore(pool *pgxpool.Pool, tracer trace.Tracer) *scanListStore {
	return &scanListStore{db: pool, tracer: tracer}
}

// defaultDBAttributes defines standard OpenTelemetry attributes for database operations.
var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

const remoteOpTimeout = 5 * time.Second

// UpsertScanList writes the full current state of one scan list: header upsert
// plus a delete-and-rewrite of its line records, in one transaction. Pushes are
// idempotent; replaying an old push simply rewrites the same rows.
func (r *scanListStore) UpsertScanList(ctx context.Context, flat remote.FlatScanList) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("list_id", flat.List.ListID.String()),
		attribute.String("order_id", flat.List.OrderID),
		attribute.String("status", flat.List.Status),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.upsert_scan_list", dbAttrs, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
		defer cancel()

		tx, err := r.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction error: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := upsertListTx(ctx, tx, flat); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

// ReplaceOrderScanLists deletes every remote scan list for the order and
// creates the provided set, all in one transaction. A crash can no longer
// leave the order with zero remote lists between the delete and the create.
func (r *scanListStore) ReplaceOrderScanLists(ctx context.Context, orderID string, lists []remote.FlatScanList) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("order_id", orderID),
		attribute.Int("num_lists", len(lists)),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.replace_order_scan_lists", dbAttrs, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
		defer cancel()

		tx, err := r.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction error: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := deleteOrderTx(ctx, tx, orderID); err != nil {
			return err
		}
		for _, flat := range lists {
			if err := upsertListTx(ctx, tx, flat); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

// DeleteOrderScanLists removes every remote scan list for the order, line
// records first, in one transaction.
func (r *scanListStore) DeleteOrderScanLists(ctx context.Context, orderID string) error {
	dbAttrs := append(defaultDBAttributes, attribute.String("order_id", orderID))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.delete_order_scan_lists", dbAttrs, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
		defer cancel()

		tx, err := r.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction error: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := deleteOrderTx(ctx, tx, orderID); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

// GetOrderScanLists fetches every remote scan list for an order with its line
// records, ordered by direction of creation.
func (r *scanListStore) GetOrderScanLists(ctx context.Context, orderID string) ([]remote.FlatScanList, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("order_id", orderID))

	var lists []remote.FlatScanList
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.get_order_scan_lists", dbAttrs, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
		defer cancel()

		rows, err := r.db.Query(ctx, `
			SELECT list_id, order_id, order_label, direction, required_total,
			       scanned_total, status, created_at, updated_at, completed_at
			FROM scan_lists
			WHERE order_id = $1
			ORDER BY created_at, list_id
		`, orderID)
		if err != nil {
			return fmt.Errorf("query scan lists error: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				listID      pgtype.UUID
				header      remote.ListRecord
				completedAt pgtype.Timestamptz
			)
			if err := rows.Scan(
				&listID,
				&header.OrderID,
				&header.OrderLabel,
				&header.Direction,
				&header.RequiredTotal,
				&header.ScannedTotal,
				&header.Status,
				&header.CreatedAt,
				&header.UpdatedAt,
				&completedAt,
			); err != nil {
				return fmt.Errorf("scan list row error: %w", err)
			}
			header.ListID = uuid.UUID(listID.Bytes)
			if completedAt.Valid {
				header.CompletedAt = completedAt.Time
			}
			lists = append(lists, remote.FlatScanList{List: header})
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("scan list rows error: %w", err)
		}

		for i := range lists {
			lines, err := r.getListLines(ctx, lists[i].List.ListID)
			if err != nil {
				return err
			}
			lists[i].Lines = lines
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lists, nil
}

func (r *scanListStore) getListLines(ctx context.Context, listID uuid.UUID) ([]remote.LineRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sku, name, category, required_qty, scanned_qty, scanned_units,
		       item_status, last_scanned_at
		FROM scan_list_items
		WHERE list_id = $1
		ORDER BY sku
	`, pgtype.UUID{Bytes: listID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("query scan list items error: %w", err)
	}
	defer rows.Close()

	var lines []remote.LineRecord
	for rows.Next() {
		var (
			line          remote.LineRecord
			lastScannedAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&line.SKU,
			&line.Name,
			&line.Category,
			&line.RequiredQty,
			&line.ScannedQty,
			&line.ScannedUnits,
			&line.ItemStatus,
			&lastScannedAt,
		); err != nil {
			return nil, fmt.Errorf("scan list item row error: %w", err)
		}
		line.ListID = listID
		if lastScannedAt.Valid {
			line.LastScannedAt = lastScannedAt.Time
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan list item rows error: %w", err)
	}

	return lines, nil
}

func upsertListTx(ctx context.Context, tx pgx.Tx, flat remote.FlatScanList) error {
	listID := pgtype.UUID{Bytes: flat.List.ListID, Valid: true}

	_, err := tx.Exec(ctx, `
		INSERT INTO scan_lists (
			list_id, order_id, order_label, direction, required_total,
			scanned_total, status, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (list_id) DO UPDATE SET
			order_label = EXCLUDED.order_label,
			required_total = EXCLUDED.required_total,
			scanned_total = EXCLUDED.scanned_total,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`,
		listID,
		flat.List.OrderID,
		flat.List.OrderLabel,
		flat.List.Direction,
		flat.List.RequiredTotal,
		flat.List.ScannedTotal,
		flat.List.Status,
		pgtype.Timestamptz{Time: flat.List.CreatedAt, Valid: true},
		pgtype.Timestamptz{Time: flat.List.UpdatedAt, Valid: true},
		pgtype.Timestamptz{Time: flat.List.CompletedAt, Valid: !flat.List.CompletedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("upsert scan list header error: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM scan_list_items WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("delete scan list items error: %w", err)
	}

	if len(flat.Lines) == 0 {
		return nil
	}

	copyRows := make([][]any, 0, len(flat.Lines))
	for _, line := range flat.Lines {
		copyRows = append(copyRows, []any{
			listID,
			line.SKU,
			line.Name,
			line.Category,
			line.RequiredQty,
			line.ScannedQty,
			line.ScannedUnits,
			line.ItemStatus,
			pgtype.Timestamptz{Time: line.LastScannedAt, Valid: !line.LastScannedAt.IsZero()},
		})
	}

	inserted, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"scan_list_items"},
		[]string{"list_id", "sku", "name", "category", "required_qty", "scanned_qty", "scanned_units", "item_status", "last_scanned_at"},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return fmt.Errorf("copy scan list items error: %w", err)
	}
	if inserted != int64(len(flat.Lines)) {
		return fmt.Errorf("copy scan list items inserted %d rows, expected %d", inserted, len(flat.Lines))
	}

	return nil
}

func deleteOrderTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM scan_list_items
		WHERE list_id IN (SELECT list_id FROM scan_lists WHERE order_id = $1)
	`, orderID)
	if err != nil {
		return fmt.Errorf("delete order scan list items error: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM scan_lists WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order scan lists error: %w", err)
	}

	return nil
}
