package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	domain "github.com/attewell/loadlist/internal/domain/logistics"
)

type putOrderRequest struct {
	Label      string   `json:"label"`
	Finalized  bool     `json:"finalized"`
	Directions []string `json:"directions,omitempty"`
	Items      []struct {
		SKU      string `json:"sku"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

func (s *Server) handlePutOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req putOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	directions := make([]domain.ScanDirection, 0, len(req.Directions))
	for _, raw := range req.Directions {
		direction, err := domain.ParseScanDirection(raw)
		if err != nil {
			s.respondError(w, r, http.StatusUnprocessableEntity, err)
			return
		}
		directions = append(directions, direction)
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.LineItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Category: item.Category,
			Quantity: item.Quantity,
		})
	}

	s.orders.Put(domain.Order{ID: orderID, Label: req.Label, Finalized: req.Finalized}, items, directions)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, ok := s.orders.Get(orderID)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, errors.New("order not found"))
		return
	}

	lists, err := s.generator.Generate(r.Context(), order)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	views := make([]ScanListView, 0, len(lists))
	for _, list := range lists {
		views = append(views, FromScanList(list))
	}
	s.respond(w, r, http.StatusCreated, views)
}

func (s *Server) handleListsForOrder(w http.ResponseWriter, r *http.Request) {
	lists, err := s.engine.ListsForOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	views := make([]ScanListView, 0, len(lists))
	for _, list := range lists {
		views = append(views, FromScanList(list))
	}
	s.respond(w, r, http.StatusOK, views)
}

func (s *Server) handleDeleteForOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.generator.DeleteForOrder(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePullOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.reconciler.PullOrder(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "listID"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	list, err := s.engine.GetList(r.Context(), listID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, FromScanList(list))
}

type scanRequest struct {
	UnitID      string `json:"unit_id"`
	ExpectedSKU string `json:"expected_sku,omitempty"`
}

func (s *Server) handleApplyScan(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "listID"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	list, err := s.engine.ApplyScan(r.Context(), listID, req.UnitID, req.ExpectedSKU)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, FromScanList(list))
}

func (s *Server) handleUndoScan(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "listID"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	list, err := s.engine.UndoScan(r.Context(), listID, req.UnitID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, FromScanList(list))
}

type adjustmentRequest struct {
	SKU   string `json:"sku"`
	Delta int    `json:"delta"`
}

func (s *Server) handleManualAdjustment(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "listID"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	list, err := s.engine.ApplyManualAdjustment(r.Context(), listID, req.SKU, req.Delta)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, FromScanList(list))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "listID"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	list, err := s.engine.RefreshList(r.Context(), listID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, FromScanList(list))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "listID"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	list, err := s.engine.CancelList(r.Context(), listID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, FromScanList(list))
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	view := SyncStatusView{
		PendingOperations: s.reconciler.Pending(),
		RecentErrors:      s.reconciler.Errors(),
	}
	if last := s.reconciler.LastSuccessfulSync(); !last.IsZero() {
		view.LastSuccessfulSync = &last
	}
	for _, op := range s.reconciler.DeadLetters() {
		view.DeadLetters = append(view.DeadLetters, DeadLetterView{
			Kind:      string(op.Kind),
			OrderID:   op.OrderID,
			Attempts:  op.Attempts,
			LastError: op.LastError,
			Enqueued:  op.EnqueuedAt,
		})
	}
	s.respond(w, r, http.StatusOK, view)
}

func (s *Server) handleSyncRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.reconciler.RetryFailed(r.Context()); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error(r.Context(), "failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.respond(w, r, status, map[string]string{"error": err.Error()})
}

// respondDomainError maps domain failures onto HTTP statuses. Validation
// rejections are client errors; anything unrecognized is a 500.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *domain.SkuMismatchError

	switch {
	case errors.Is(err, domain.ErrListNotFound), errors.Is(err, domain.ErrUnitNotFound):
		s.respondError(w, r, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrPermissionDenied):
		s.respondError(w, r, http.StatusForbidden, err)
	case errors.As(err, &mismatch),
		errors.Is(err, domain.ErrItemNotInList),
		errors.Is(err, domain.ErrAlreadyScanned),
		errors.Is(err, domain.ErrUnitNotScanned),
		errors.Is(err, domain.ErrQuantityExceeded),
		errors.Is(err, domain.ErrOrderNotFinalized),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrDuplicateSKU):
		s.respondError(w, r, http.StatusUnprocessableEntity, err)
	default:
		s.log.Error(r.Context(), "request failed", "error", err)
		s.respondError(w, r, http.StatusInternalServerError, err)
	}
}
