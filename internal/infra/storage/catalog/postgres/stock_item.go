package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/attewell/loadlist/internal/infra/remote"
	"github.com/attewell/loadlist/internal/infra/storage"
)

// stockItemStore persists flattened stock item records in PostgreSQL.
type stockItemStore struct {
	db     *pgxpool.Pool
	tracer trace.Tracer
}

// NewStockItemStore creates a PostgreSQL-backed remote stock item store.
func NewStockItemStore(pool *pgxpool.Pool, tracer trace.Tracer) *stockItemStore {
	return &stockItemStore{db: pool, tracer: tracer}
}

var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

const remoteOpTimeout = 5 * time.Second

// UpsertStockItem inserts or overwrites a stock item record by id.
func (r *stockItemStore) UpsertStockItem(ctx context.Context, rec remote.StockItemRecord) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("stock_item_id", rec.ID.String()),
		attribute.String("sku", rec.SKU),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.upsert_stock_item", dbAttrs, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
		defer cancel()

		_, err := r.db.Exec(ctx, `
			INSERT INTO stock_items (stock_item_id, sku, name, category, quantity, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (stock_item_id) DO UPDATE SET
				sku = EXCLUDED.sku,
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				quantity = EXCLUDED.quantity,
				updated_at = EXCLUDED.updated_at
		`,
			pgtype.UUID{Bytes: rec.ID, Valid: true},
			rec.SKU,
			rec.Name,
			rec.Category,
			rec.Quantity,
			pgtype.Timestamptz{Time: rec.UpdatedAt, Valid: true},
		)
		if err != nil {
			return fmt.Errorf("upsert stock item error: %w", err)
		}
		return nil
	})
}

// GetAllStockItems fetches every remote stock item record.
func (r *stockItemStore) GetAllStockItems(ctx context.Context) ([]remote.StockItemRecord, error) {
	var records []remote.StockItemRecord
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.get_all_stock_items", defaultDBAttributes, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
		defer cancel()

		rows, err := r.db.Query(ctx, `
			SELECT stock_item_id, sku, name, category, quantity, updated_at
			FROM stock_items
			ORDER BY sku
		`)
		if err != nil {
			return fmt.Errorf("query stock items error: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id  pgtype.UUID
				rec remote.StockItemRecord
			)
			if err := rows.Scan(&id, &rec.SKU, &rec.Name, &rec.Category, &rec.Quantity, &rec.UpdatedAt); err != nil {
				return fmt.Errorf("stock item row error: %w", err)
			}
			rec.ID = uuid.UUID(id.Bytes)
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteStockItem removes a stock item record. Absent records are ignored.
func (r *stockItemStore) DeleteStockItem(ctx context.Context, id uuid.UUID) error {
	dbAttrs := append(defaultDBAttributes, attribute.String("stock_item_id", id.String()))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.delete_stock_item", dbAttrs, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
		defer cancel()

		if _, err := r.db.Exec(ctx, `DELETE FROM stock_items WHERE stock_item_id = $1`,
			pgtype.UUID{Bytes: id, Valid: true}); err != nil {
			return fmt.Errorf("delete stock item error: %w", err)
		}
		return nil
	})
}
