package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ketabino/bookstore/internal/domain"
	"github.com/ketabino/bookstore/internal/state"
)

// StoreFactory builds the state store backing one request's cart, so
// wiring decides whether carts live in cookies or in redis.
type StoreFactory func(w http.ResponseWriter, r *http.Request) state.Store

type Handler struct {
	stores StoreFactory
	logger *slog.Logger
}

func NewHandler(stores StoreFactory, logger *slog.Logger) *Handler {
	return &Handler{stores: stores, logger: logger}
}

type cartResponse struct {
	Items []domain.CartItem `json:"items"`
	Count int               `json:"count"`
}

type addItemRequest struct {
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	h.writeCart(w, manager)
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	manager, ok := h.manager(w, r)
	if !ok {
		return
	}

	if err := manager.AddItem(r.Context(), req.BookID, req.Quantity); err != nil {
		h.logger.Error("failed to persist cart", "error", err, "book_id", req.BookID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item added", "book_id", req.BookID, "quantity", req.Quantity)
	h.writeCart(w, manager)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(r.PathValue("bookId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity < 1 {
		h.writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	manager, ok := h.manager(w, r)
	if !ok {
		return
	}

	if err := manager.RemoveItem(r.Context(), bookID, quantity); err != nil {
		h.logger.Error("failed to persist cart", "error", err, "book_id", bookID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item removed", "book_id", bookID, "quantity", quantity)
	h.writeCart(w, manager)
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*Manager, bool) {
	manager, err := NewManager(r.Context(), state.NewRegistry(), h.stores(w, r))
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return manager, true
}

func (h *Handler) writeCart(w http.ResponseWriter, manager *Manager) {
	items := manager.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	h.writeJSON(w, http.StatusOK, cartResponse{Items: items, Count: manager.Count()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
