package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ketabino/bookstore/internal/domain"
)

// UserEmails resolves an internal user id to a mail address.
type UserEmails interface {
	LookupEmail(ctx context.Context, userID int64) (string, error)
}

// Handler consumes order.created events and sends the confirmation
// mail through the external email service. Errors propagate so the
// consumer does not commit the offset and the event is redelivered.
type Handler struct {
	emailServiceURL string
	users           UserEmails
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, users UserEmails, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		users:           users,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "user_id", event.UserID)

	to, err := h.users.LookupEmail(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("look up email for user %d: %w", event.UserID, err)
	}

	body := map[string]string{
		"to":      to,
		"subject": fmt.Sprintf("Order Confirmation: %d", event.OrderID),
		"body": fmt.Sprintf("Your order %d with %d items has been received and is pending payment. Total: %d.",
			event.OrderID, len(event.Items), event.TotalAmount),
	}
	if err := h.sendEmail(ctx, body); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("order confirmation sent", "order_id", event.OrderID, "to", to)
	return nil
}

func (h *Handler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
