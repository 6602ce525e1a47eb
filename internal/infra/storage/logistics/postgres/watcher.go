package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attewell/loadlist/pkg/common/logger"
)

// scanListChannel is the NOTIFY channel the schema trigger publishes to.
const scanListChannel = "scan_list_changes"

// Change describes one remote scan list mutation observed via LISTEN/NOTIFY.
// Consumers re-fetch the list; the notification carries identity only.
type Change struct {
	Op      string `json:"op"`
	ListID  string `json:"list_id"`
	OrderID string `json:"order_id"`
}

// ParsedListID returns the change's list id as a UUID.
func (c Change) ParsedListID() (uuid.UUID, error) { return uuid.Parse(c.ListID) }

// Watcher streams remote scan list changes for live progress display. It is a
// convenience for presentation layers; correctness of the core never depends
// on a notification arriving.
type Watcher struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewWatcher creates a Watcher on the given pool.
func NewWatcher(pool *pgxpool.Pool, log *logger.Logger) *Watcher {
	return &Watcher{db: pool, log: log.With("component", "scan_list_watcher")}
}

// Watch subscribes to scan list changes, filtered to one order when orderID is
// non-empty. The returned channel closes when the context is cancelled or the
// connection drops; callers that still care should call Watch again.
func (w *Watcher) Watch(ctx context.Context, orderID string) (<-chan Change, error) {
	conn, err := w.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, "LISTEN "+scanListChannel); err != nil {
		conn.Release()
		return nil, err
	}

	changes := make(chan Change, 16)
	go func() {
		defer close(changes)
		defer conn.Release()

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error(ctx, "scan list watch connection lost", "error", err)
				}
				return
			}

			var change Change
			if err := json.Unmarshal([]byte(notification.Payload), &change); err != nil {
				w.log.Error(ctx, "malformed scan list notification", "payload", notification.Payload, "error", err)
				continue
			}
			if orderID != "" && change.OrderID != orderID {
				continue
			}

			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}
