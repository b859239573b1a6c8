package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ketabino/bookstore/internal/identity"
)

type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

type UserDirectory interface {
	LookupByAuthID(ctx context.Context, authUserID string) (int64, error)
}

// Handler serves the order read-back used by the confirmation page.
type Handler struct {
	repo   *OrderRepository
	auth   Authenticator
	users  UserDirectory
	logger *slog.Logger
}

func NewHandler(repo *OrderRepository, auth Authenticator, users UserDirectory, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		auth:   auth,
		users:  users,
		logger: logger,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Another user's order looks identical to a missing one.
	if order == nil || order.UserID != userID {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	h.logger.Info("order retrieved", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, order)
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
