package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ketabino/bookstore/internal/domain"
	"github.com/ketabino/bookstore/internal/identity"
	"github.com/ketabino/bookstore/internal/messaging"
)

// Authenticator resolves the request to a verified auth subject.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// UserDirectory maps auth subjects to internal user ids.
type UserDirectory interface {
	LookupByAuthID(ctx context.Context, authUserID string) (int64, error)
}

// Catalog returns the snapshot rows for a set of book ids.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Book, error)
}

// OrderStore commits an order, its items, and its shipment atomically
// and returns the new order id.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) (int64, error)
}

type Handler struct {
	auth     Authenticator
	users    UserDirectory
	catalog  Catalog
	orders   OrderStore
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(auth Authenticator, users UserDirectory, catalog Catalog, orders OrderStore, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		auth:     auth,
		users:    users,
		catalog:  catalog,
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

type checkoutResponse struct {
	OrderID     int64              `json:"orderId"`
	TotalAmount int64              `json:"totalAmount"`
	Status      domain.OrderStatus `json:"status"`
}

// HandleCheckout converts a submitted cart into a committed order.
// Validation rules run in a fixed order and the first failure stops
// the whole operation; nothing is priced or committed after a
// rejection.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	subject, err := h.auth.Authenticate(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := h.users.LookupByAuthID(r.Context(), subject)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			h.writeError(w, http.StatusUnauthorized, "User not found")
			return
		}
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var req domain.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	books, err := h.catalog.FindByIDs(r.Context(), BookIDs(req.Items))
	if err != nil {
		h.logger.Error("failed to fetch book data", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch book data")
		return
	}
	snapshot := NewSnapshot(books)

	if err := ValidateItems(req.Items, snapshot); err != nil {
		h.writeValidationError(w, err)
		return
	}

	totals := Price(req.Items, snapshot)

	order := &domain.Order{
		UserID:            userID,
		OrderStatusID:     domain.OrderStatusPendingID,
		PaymentProviderID: req.PaymentProviderID,
		SubtotalAmount:    totals.Subtotal,
		DeliveryPrice:     totals.Delivery,
		TotalAmount:       totals.Total,
		Items:             totals.Items,
		Shipment:          *req.Shipment,
	}

	orderID, err := h.orders.Create(r.Context(), order)
	if err != nil {
		h.logger.Error("failed to create order", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	if h.producer != nil {
		event := domain.OrderCreatedEvent{
			OrderID:     orderID,
			UserID:      userID,
			Items:       totals.Items,
			TotalAmount: totals.Total,
			Timestamp:   time.Now().UTC(),
		}
		if err := h.producer.Publish(r.Context(), orderID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", orderID)
		}
	}

	h.logger.Info("order created", "order_id", orderID, "user_id", userID, "total_amount", totals.Total)
	h.writeJSON(w, http.StatusOK, checkoutResponse{
		OrderID:     orderID,
		TotalAmount: totals.Total,
		Status:      domain.OrderStatusPending,
	})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		h.writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
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
