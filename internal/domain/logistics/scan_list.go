package logistics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ManualUnitPrefix marks synthetic unit identifiers created by manual
// adjustments for bulk stock. Synthetic ids never resolve in the unit registry
// and are undone before real scans when a manual count is corrected.
const ManualUnitPrefix = "manual-"

// LineProgress tracks required versus scanned quantities for one SKU within a
// scan list. It is exclusively owned by its list and deleted with it.
type LineProgress struct {
	sku           string
	displayName   string
	category      string
	requiredQty   int
	scannedUnits  []string // insertion-ordered, no duplicates
	status        ItemStatus
	lastScannedAt time.Time
}

// NewLineProgress creates a fresh line for a scan list from an order line item.
func NewLineProgress(item LineItem) *LineProgress {
	return &LineProgress{
		sku:         item.SKU,
		displayName: item.Name,
		category:    item.Category,
		requiredQty: item.Quantity,
		status:      ItemStatusPending,
	}
}

// ReconstructLineProgress creates a LineProgress from stored fields, bypassing
// creation invariants. This should only be used by repositories when loading
// from storage.
func ReconstructLineProgress(
	sku, displayName, category string,
	requiredQty int,
	scannedUnits []string,
	status ItemStatus,
	lastScannedAt time.Time,
) *LineProgress {
	return &LineProgress{
		sku:           sku,
		displayName:   displayName,
		category:      category,
		requiredQty:   requiredQty,
		scannedUnits:  append([]string(nil), scannedUnits...),
		status:        status,
		lastScannedAt: lastScannedAt,
	}
}

// SKU returns the stock keeping unit this line tracks.
func (l *LineProgress) SKU() string { return l.sku }

// DisplayName returns the human-readable name from the order line item.
func (l *LineProgress) DisplayName() string { return l.displayName }

// Category returns the equipment category from the order line item.
func (l *LineProgress) Category() string { return l.category }

// RequiredQty returns the quantity the order calls for. Fixed at creation.
func (l *LineProgress) RequiredQty() int { return l.requiredQty }

// ScannedQty returns the number of units scanned so far. Always equal to the
// size of the scanned-unit set.
func (l *LineProgress) ScannedQty() int { return len(l.scannedUnits) }

// ScannedUnits returns a copy of the scanned unit identifiers in scan order.
func (l *LineProgress) ScannedUnits() []string {
	return append([]string(nil), l.scannedUnits...)
}

// Status returns the line's derived progress status.
func (l *LineProgress) Status() ItemStatus { return l.status }

// LastScannedAt returns when the line last received a scan.
func (l *LineProgress) LastScannedAt() time.Time { return l.lastScannedAt }

func (l *LineProgress) hasUnit(unitID string) bool {
	for _, id := range l.scannedUnits {
		if id == unitID {
			return true
		}
	}
	return false
}

func (l *LineProgress) removeUnit(unitID string) bool {
	for i, id := range l.scannedUnits {
		if id == unitID {
			l.scannedUnits = append(l.scannedUnits[:i], l.scannedUnits[i+1:]...)
			return true
		}
	}
	return false
}

// removeNewestPreferManual drops the most recently added synthetic identifier,
// falling back to the most recent real scan when no manual entries remain.
func (l *LineProgress) removeNewestPreferManual() (string, bool) {
	if len(l.scannedUnits) == 0 {
		return "", false
	}
	for i := len(l.scannedUnits) - 1; i >= 0; i-- {
		if strings.HasPrefix(l.scannedUnits[i], ManualUnitPrefix) {
			id := l.scannedUnits[i]
			l.scannedUnits = append(l.scannedUnits[:i], l.scannedUnits[i+1:]...)
			return id, true
		}
	}
	id := l.scannedUnits[len(l.scannedUnits)-1]
	l.scannedUnits = l.scannedUnits[:len(l.scannedUnits)-1]
	return id, true
}

// ScanList tracks required versus scanned quantities for one order and one
// direction of the movement cycle. All counters and statuses are recomputed
// from the line collection after every mutation, so the aggregate never holds
// a total its lines cannot account for.
type ScanList struct {
	id            uuid.UUID
	orderID       string
	orderLabel    string
	direction     ScanDirection
	status        ScanListStatus
	lines         []*LineProgress
	requiredTotal int
	scannedTotal  int
	timeline      *Timeline
}

// NewScanList creates a scan list for one order direction, one line per order
// line item. SKUs must be unique across the items.
func NewScanList(id uuid.UUID, order Order, direction ScanDirection, items []LineItem) (*ScanList, error) {
	return newScanList(id, order, direction, items, new(realTimeProvider))
}

// NewScanListWithClock is NewScanList with an injectable clock for tests.
func NewScanListWithClock(
	id uuid.UUID,
	order Order,
	direction ScanDirection,
	items []LineItem,
	tp TimeProvider,
) (*ScanList, error) {
	return newScanList(id, order, direction, items, tp)
}

func newScanList(
	id uuid.UUID,
	order Order,
	direction ScanDirection,
	items []LineItem,
	tp TimeProvider,
) (*ScanList, error) {
	seen := make(map[string]struct{}, len(items))
	lines := make([]*LineProgress, 0, len(items))
	requiredTotal := 0
	for _, item := range items {
		if _, ok := seen[item.SKU]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, item.SKU)
		}
		seen[item.SKU] = struct{}{}
		lines = append(lines, NewLineProgress(item))
		requiredTotal += item.Quantity
	}

	return &ScanList{
		id:            id,
		orderID:       order.ID,
		orderLabel:    order.Label,
		direction:     direction,
		status:        ListStatusPending,
		lines:         lines,
		requiredTotal: requiredTotal,
		timeline:      NewTimeline(tp),
	}, nil
}

// ReconstructScanList creates a ScanList from stored fields, bypassing creation
// invariants. This should only be used by repositories when loading from
// storage, and by the reconciler when re-applying remote header counters onto
// rebuilt lines.
func ReconstructScanList(
	id uuid.UUID,
	orderID, orderLabel string,
	direction ScanDirection,
	status ScanListStatus,
	requiredTotal, scannedTotal int,
	lines []*LineProgress,
	timeline *Timeline,
) *ScanList {
	return &ScanList{
		id:            id,
		orderID:       orderID,
		orderLabel:    orderLabel,
		direction:     direction,
		status:        status,
		lines:         lines,
		requiredTotal: requiredTotal,
		scannedTotal:  scannedTotal,
		timeline:      timeline,
	}
}

// ID returns the immutable scan list identifier.
func (s *ScanList) ID() uuid.UUID { return s.id }

// OrderID returns the order this list belongs to.
func (s *ScanList) OrderID() string { return s.orderID }

// OrderLabel returns the order's display label.
func (s *ScanList) OrderLabel() string { return s.orderLabel }

// Direction returns the pipeline leg this list tracks.
func (s *ScanList) Direction() ScanDirection { return s.direction }

// Status returns the derived aggregate status.
func (s *ScanList) Status() ScanListStatus { return s.status }

// RequiredTotal returns the sum of the lines' required quantities.
func (s *ScanList) RequiredTotal() int { return s.requiredTotal }

// ScannedTotal returns the sum of the lines' scanned quantities. It is never
// set independently of the lines except by the reconciler's header patch.
func (s *ScanList) ScannedTotal() int { return s.scannedTotal }

// Timeline provides access to the list's timestamps.
func (s *ScanList) Timeline() *Timeline { return s.timeline }

// Lines returns the line progress records in order-line order.
func (s *ScanList) Lines() []*LineProgress {
	return append([]*LineProgress(nil), s.lines...)
}

// Line returns the progress record for a SKU, if the list tracks it.
func (s *ScanList) Line(sku string) (*LineProgress, bool) {
	for _, l := range s.lines {
		if l.sku == sku {
			return l, true
		}
	}
	return nil, false
}

// RecordScan adds a scanned unit to the line for the given SKU and recomputes
// all counters and statuses. The call either fully succeeds or leaves the list
// untouched.
func (s *ScanList) RecordScan(unitID, sku string) error {
	line, ok := s.Line(sku)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotInList, sku)
	}
	if line.hasUnit(unitID) {
		return fmt.Errorf("%w: %s", ErrAlreadyScanned, unitID)
	}
	if len(line.scannedUnits) >= line.requiredQty {
		return fmt.Errorf("%w: %s", ErrQuantityExceeded, sku)
	}

	line.scannedUnits = append(line.scannedUnits, unitID)
	line.lastScannedAt = s.timeline.Now()
	s.recompute()
	return nil
}

// UndoScan removes a previously scanned unit from the line for the given SKU.
// A completed list drops back to in-progress while any scans remain; a fully
// emptied list reverts to pending and its completion time is cleared.
func (s *ScanList) UndoScan(unitID, sku string) error {
	line, ok := s.Line(sku)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotInList, sku)
	}
	if !line.removeUnit(unitID) {
		return fmt.Errorf("%w: %s", ErrUnitNotScanned, unitID)
	}

	s.recompute()
	return nil
}

// AddManualCount increments a line's scanned quantity without a physical scan,
// used for bulk stock. It inserts a synthetic unit identifier subject to the
// same quantity cap as a real scan and returns it.
func (s *ScanList) AddManualCount(sku string) (string, error) {
	line, ok := s.Line(sku)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrItemNotInList, sku)
	}
	if len(line.scannedUnits) >= line.requiredQty {
		return "", fmt.Errorf("%w: %s", ErrQuantityExceeded, sku)
	}

	unitID := ManualUnitPrefix + uuid.NewString()
	line.scannedUnits = append(line.scannedUnits, unitID)
	line.lastScannedAt = s.timeline.Now()
	s.recompute()
	return unitID, nil
}

// RemoveManualCount decrements a line's scanned quantity, undoing the most
// recent manual addition first so corrections do not strip real scans while a
// synthetic entry remains. A zero count is a no-op, not an error.
func (s *ScanList) RemoveManualCount(sku string) error {
	line, ok := s.Line(sku)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotInList, sku)
	}
	if _, removed := line.removeNewestPreferManual(); !removed {
		return nil
	}

	s.recompute()
	return nil
}

// Cancel marks the list abandoned. Cancellation is terminal.
func (s *ScanList) Cancel() error {
	if err := s.status.validateTransition(ListStatusCancelled); err != nil {
		return err
	}
	s.status = ListStatusCancelled
	s.timeline.Touch()
	return nil
}

// Refresh defensively recomputes the aggregate after a partial or corrupted
// synchronization pull. A list whose line collection went missing while its
// required total claims otherwise is forced to an empty pending state rather
// than displaying a completion percentage no line can back up.
func (s *ScanList) Refresh() {
	if len(s.lines) == 0 && s.requiredTotal > 0 {
		s.requiredTotal = 0
		s.scannedTotal = 0
		s.status = ListStatusPending
		s.timeline.ClearCompleted()
		return
	}
	s.recompute()
}

// PatchAggregates re-applies remotely captured header counters onto a rebuilt
// list. The remote schema does not retain per-line scanned units, so a pull can
// only restore the rolled-up totals; the lines stay fresh until the next scan
// or Refresh reconciles them.
func (s *ScanList) PatchAggregates(scannedTotal int, status ScanListStatus, completedAt time.Time) {
	s.scannedTotal = scannedTotal
	s.status = status
	s.timeline.completedAt = completedAt
	s.timeline.Touch()
}

// recompute re-derives every counter and status from the line collection.
// Cancelled lists keep their history but never change status again.
func (s *ScanList) recompute() {
	total := 0
	for _, line := range s.lines {
		line.status = itemStatusFor(len(line.scannedUnits), line.requiredQty)
		total += len(line.scannedUnits)
	}
	s.scannedTotal = total

	if s.status == ListStatusCancelled {
		s.timeline.Touch()
		return
	}

	target := ListStatusPending
	switch {
	case s.requiredTotal > 0 && s.scannedTotal >= s.requiredTotal:
		target = ListStatusCompleted
	case s.scannedTotal > 0:
		target = ListStatusInProgress
	}

	switch {
	case target == s.status:
		s.timeline.Touch()
	case target == ListStatusCompleted:
		s.status = target
		s.timeline.MarkCompleted()
	case s.status == ListStatusCompleted || target == ListStatusPending:
		// Leaving completed, or emptied back to pending: completion no longer holds.
		s.status = target
		s.timeline.ClearCompleted()
	default:
		s.status = target
		s.timeline.Touch()
	}
}
