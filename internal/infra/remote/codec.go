// Package remote defines the flat record shapes the remote store speaks and
// the translation between them and the domain aggregates. It holds shape only;
// reconciliation policy lives with the reconciler.
package remote

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attewell/loadlist/internal/domain/catalog"
	"github.com/attewell/loadlist/internal/domain/logistics"
)

// ListRecord is the flattened scan list header: counters, status, timestamps.
type ListRecord struct {
	ListID        uuid.UUID
	OrderID       string
	OrderLabel    string
	Direction     string
	RequiredTotal int
	ScannedTotal  int
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   time.Time // zero when the list never completed
}

// LineRecord is one flattened line progress record. The scanned-unit list is
// written on push for audit visibility but is not what a pull rebuilds from;
// the reconciler reseeds lines from the current order items.
type LineRecord struct {
	ListID        uuid.UUID
	SKU           string
	Name          string
	Category      string
	RequiredQty   int
	ScannedQty    int
	ScannedUnits  []string
	ItemStatus    string
	LastScannedAt time.Time
}

// FlatScanList pairs a header with its line records for transport.
type FlatScanList struct {
	List  ListRecord
	Lines []LineRecord
}

// StockItemRecord is the flat shape for mutable catalog records.
type StockItemRecord struct {
	ID        uuid.UUID
	SKU       string
	Name      string
	Category  string
	Quantity  int
	UpdatedAt time.Time
}

// FlattenScanList translates a scan list aggregate into its remote shape.
func FlattenScanList(list *logistics.ScanList) FlatScanList {
	header := ListRecord{
		ListID:        list.ID(),
		OrderID:       list.OrderID(),
		OrderLabel:    list.OrderLabel(),
		Direction:     list.Direction().String(),
		RequiredTotal: list.RequiredTotal(),
		ScannedTotal:  list.ScannedTotal(),
		Status:        list.Status().String(),
		CreatedAt:     list.Timeline().CreatedAt(),
		UpdatedAt:     list.Timeline().UpdatedAt(),
		CompletedAt:   list.Timeline().CompletedAt(),
	}

	lines := make([]LineRecord, 0, len(list.Lines()))
	for _, line := range list.Lines() {
		lines = append(lines, LineRecord{
			ListID:        list.ID(),
			SKU:           line.SKU(),
			Name:          line.DisplayName(),
			Category:      line.Category(),
			RequiredQty:   line.RequiredQty(),
			ScannedQty:    line.ScannedQty(),
			ScannedUnits:  line.ScannedUnits(),
			ItemStatus:    line.Status().String(),
			LastScannedAt: line.LastScannedAt(),
		})
	}

	return FlatScanList{List: header, Lines: lines}
}

// ParseHeader validates a header record's raw enum values.
func ParseHeader(rec ListRecord) (logistics.ScanDirection, logistics.ScanListStatus, error) {
	direction, err := logistics.ParseScanDirection(rec.Direction)
	if err != nil {
		return "", "", fmt.Errorf("list %s: %w", rec.ListID, err)
	}
	status, err := logistics.ParseScanListStatus(rec.Status)
	if err != nil {
		return "", "", fmt.Errorf("list %s: %w", rec.ListID, err)
	}
	return direction, status, nil
}

// FlattenStockItem translates a catalog record into its remote shape.
func FlattenStockItem(item *catalog.StockItem) StockItemRecord {
	return StockItemRecord{
		ID:        item.ID(),
		SKU:       item.SKU(),
		Name:      item.Name(),
		Category:  item.Category(),
		Quantity:  item.Quantity(),
		UpdatedAt: item.UpdatedAt(),
	}
}

// StockItemFrom rebuilds a catalog record from its remote shape.
func StockItemFrom(rec StockItemRecord) *catalog.StockItem {
	return catalog.NewStockItem(rec.ID, rec.SKU, rec.Name, rec.Category, rec.Quantity, rec.UpdatedAt)
}
