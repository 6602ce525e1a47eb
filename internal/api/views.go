package api

import (
	"time"

	domain "github.com/attewell/loadlist/internal/domain/logistics"
)

// ScanListView is the API representation of a scan list with its lines.
type ScanListView struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	OrderLabel    string     `json:"order_label,omitempty"`
	Direction     string     `json:"direction"`
	Status        string     `json:"status"`
	RequiredTotal int        `json:"required_total"`
	ScannedTotal  int        `json:"scanned_total"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Lines         []LineView `json:"lines"`
}

// LineView is the API representation of one line progress record.
type LineView struct {
	SKU           string     `json:"sku"`
	Name          string     `json:"name,omitempty"`
	Category      string     `json:"category,omitempty"`
	RequiredQty   int        `json:"required_qty"`
	ScannedQty    int        `json:"scanned_qty"`
	ScannedUnits  []string   `json:"scanned_units,omitempty"`
	Status        string     `json:"status"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
}

// FromScanList creates an API view from a domain scan list.
func FromScanList(list *domain.ScanList) ScanListView {
	view := ScanListView{
		ID:            list.ID().String(),
		OrderID:       list.OrderID(),
		OrderLabel:    list.OrderLabel(),
		Direction:     list.Direction().String(),
		Status:        list.Status().String(),
		RequiredTotal: list.RequiredTotal(),
		ScannedTotal:  list.ScannedTotal(),
		CreatedAt:     list.Timeline().CreatedAt(),
		UpdatedAt:     list.Timeline().UpdatedAt(),
	}
	if completedAt := list.Timeline().CompletedAt(); !completedAt.IsZero() {
		view.CompletedAt = &completedAt
	}

	for _, line := range list.Lines() {
		lv := LineView{
			SKU:          line.SKU(),
			Name:         line.DisplayName(),
			Category:     line.Category(),
			RequiredQty:  line.RequiredQty(),
			ScannedQty:   line.ScannedQty(),
			ScannedUnits: line.ScannedUnits(),
			Status:       line.Status().String(),
		}
		if last := line.LastScannedAt(); !last.IsZero() {
			lv.LastScannedAt = &last
		}
		view.Lines = append(view.Lines, lv)
	}

	return view
}

// SyncStatusView reports the reconciler's health to the dispatch tooling.
type SyncStatusView struct {
	LastSuccessfulSync *time.Time       `json:"last_successful_sync,omitempty"`
	PendingOperations  int              `json:"pending_operations"`
	DeadLetters        []DeadLetterView `json:"dead_letters,omitempty"`
	RecentErrors       []string         `json:"recent_errors,omitempty"`
}

// DeadLetterView is one push that exhausted its retry budget.
type DeadLetterView struct {
	Kind      string    `json:"kind"`
	OrderID   string    `json:"order_id"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	Enqueued  time.Time `json:"enqueued_at"`
}
