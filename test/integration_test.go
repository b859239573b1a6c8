//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ketabino/bookstore/internal/catalog"
	"github.com/ketabino/bookstore/internal/checkout"
	"github.com/ketabino/bookstore/internal/domain"
	"github.com/ketabino/bookstore/internal/identity"
	"github.com/ketabino/bookstore/internal/messaging"
	"github.com/ketabino/bookstore/internal/notify"
	"github.com/ketabino/bookstore/internal/orders"
)

var testSecret = []byte("integration-test-secret")

func signToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func seedUser(ctx context.Context, t *testing.T, db *sql.DB, authUserID, email string) int64 {
	t.Helper()

	var userID int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO users (auth_user_id, email) VALUES ($1, $2) RETURNING id
	`, authUserID, email).Scan(&userID)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return userID
}

func seedCatalog(ctx context.Context, t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.ExecContext(ctx, `
		INSERT INTO books (id, title, base_price, is_active) VALUES
			(1, 'The Go Programming Language', 100, true),
			(2, 'Designing Data-Intensive Applications', 250, true),
			(3, 'Out of Print Classic', 50, false)
	`); err != nil {
		t.Fatalf("failed to seed books: %v", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO payment_providers (id, name) VALUES (1, 'zarinpal')
	`); err != nil {
		t.Fatalf("failed to seed payment provider: %v", err)
	}
}

func newCheckoutHandler(db *sql.DB, producer *messaging.Producer, logger *slog.Logger) *checkout.Handler {
	return checkout.NewHandler(
		identity.NewTokenAuthenticator(testSecret),
		identity.NewUserRepository(db),
		catalog.NewBookRepository(db),
		orders.NewOrderRepository(db),
		producer,
		logger,
	)
}

func TestCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	userID := seedUser(ctx, t, db, "auth-reader-1", "reader@example.com")
	seedCatalog(ctx, t, db)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := newCheckoutHandler(db, nil, logger)

	reqBody := `{
		"items": [{"bookId":1,"quantity":2},{"bookId":2,"quantity":1}],
		"shipment": {"address":"1 Example St","city":"Tehran","recipientName":"A. Reader","phoneNumber":"0912000000"},
		"paymentProviderId": 1
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "auth-reader-1"))
	rec := httptest.NewRecorder()

	handler.HandleCheckout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		OrderID     int64  `json:"orderId"`
		TotalAmount int64  `json:"totalAmount"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.OrderID == 0 {
		t.Fatal("expected order id to be set")
	}
	if resp.TotalAmount != 450+checkout.DeliveryPrice {
		t.Fatalf("expected total %d, got %d", 450+checkout.DeliveryPrice, resp.TotalAmount)
	}
	if resp.Status != string(domain.OrderStatusPending) {
		t.Fatalf("expected status pending, got %s", resp.Status)
	}

	repo := orders.NewOrderRepository(db)
	order, err := repo.GetByID(ctx, resp.OrderID)
	if err != nil {
		t.Fatalf("failed to fetch order from DB: %v", err)
	}
	if order == nil {
		t.Fatal("order not found in database")
	}
	if order.UserID != userID {
		t.Fatalf("expected user id %d, got %d", userID, order.UserID)
	}
	if order.OrderStatusID != domain.OrderStatusPendingID {
		t.Fatalf("expected pending status id, got %d", order.OrderStatusID)
	}
	if order.SubtotalAmount != 450 || order.TotalAmount != 450+checkout.DeliveryPrice {
		t.Fatalf("unexpected totals: subtotal=%d total=%d", order.SubtotalAmount, order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(order.Items))
	}
	if order.Items[0].BookID != 1 || order.Items[0].Quantity != 2 || order.Items[0].UnitPrice != 100 {
		t.Fatalf("unexpected first item: %+v", order.Items[0])
	}
	if order.Items[1].BookID != 2 || order.Items[1].Quantity != 1 || order.Items[1].UnitPrice != 250 {
		t.Fatalf("unexpected second item: %+v", order.Items[1])
	}
	if order.Shipment.City != "Tehran" || order.Shipment.RecipientName != "A. Reader" {
		t.Fatalf("unexpected shipment: %+v", order.Shipment)
	}
	if order.Shipment.PostalCode != nil {
		t.Fatalf("expected no postal code, got %q", *order.Shipment.PostalCode)
	}
}

func TestCheckoutRejectsBadItems(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	seedUser(ctx, t, db, "auth-reader-1", "reader@example.com")
	seedCatalog(ctx, t, db)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := newCheckoutHandler(db, nil, logger)

	cases := []struct {
		name    string
		items   string
		message string
	}{
		{"unknown book", `[{"bookId":999,"quantity":1}]`, "Book with id 999 not found"},
		{"inactive book", `[{"bookId":3,"quantity":1}]`, "Book with id 3 is not available"},
		{"zero quantity", `[{"bookId":1,"quantity":0}]`, "Quantity must be at least 1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reqBody := fmt.Sprintf(`{
				"items": %s,
				"shipment": {"address":"1 Example St","city":"Tehran","recipientName":"A. Reader","phoneNumber":"0912000000"},
				"paymentProviderId": 1
			}`, tc.items)
			req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+signToken(t, "auth-reader-1"))
			rec := httptest.NewRecorder()

			handler.HandleCheckout(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["error"] != tc.message {
				t.Fatalf("expected error %q, got %q", tc.message, resp["error"])
			}
		})
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders after rejected checkouts, got %d", count)
	}
}

func TestCreateOrderIsAtomic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	userID := seedUser(ctx, t, db, "auth-reader-1", "reader@example.com")
	seedCatalog(ctx, t, db)

	repo := orders.NewOrderRepository(db)

	// The second item violates the book foreign key inside create_order,
	// which must roll the order header back with it.
	order := &domain.Order{
		UserID:            userID,
		OrderStatusID:     domain.OrderStatusPendingID,
		PaymentProviderID: 1,
		SubtotalAmount:    200,
		DeliveryPrice:     checkout.DeliveryPrice,
		TotalAmount:       200 + checkout.DeliveryPrice,
		Items: []domain.OrderItem{
			{BookID: 1, Quantity: 1, UnitPrice: 100},
			{BookID: 999, Quantity: 1, UnitPrice: 100},
		},
		Shipment: domain.ShipmentInfo{
			Address:       "1 Example St",
			City:          "Tehran",
			RecipientName: "A. Reader",
			PhoneNumber:   "0912000000",
		},
	}

	if _, err := repo.Create(ctx, order); err == nil {
		t.Fatal("expected create_order to fail on a bad book id")
	}

	var orderCount, itemCount, shipmentCount int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM order_items`).Scan(&itemCount); err != nil {
		t.Fatalf("failed to count order items: %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM order_shipments`).Scan(&shipmentCount); err != nil {
		t.Fatalf("failed to count shipments: %v", err)
	}
	if orderCount != 0 || itemCount != 0 || shipmentCount != 0 {
		t.Fatalf("expected a clean rollback, got orders=%d items=%d shipments=%d",
			orderCount, itemCount, shipmentCount)
	}
}

func TestOrderReadBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	userID := seedUser(ctx, t, db, "auth-reader-1", "reader@example.com")
	seedUser(ctx, t, db, "auth-reader-2", "other@example.com")
	seedCatalog(ctx, t, db)

	repo := orders.NewOrderRepository(db)
	orderID, err := repo.Create(ctx, &domain.Order{
		UserID:            userID,
		OrderStatusID:     domain.OrderStatusPendingID,
		PaymentProviderID: 1,
		SubtotalAmount:    100,
		DeliveryPrice:     checkout.DeliveryPrice,
		TotalAmount:       100 + checkout.DeliveryPrice,
		Items:             []domain.OrderItem{{BookID: 1, Quantity: 1, UnitPrice: 100}},
		Shipment: domain.ShipmentInfo{
			Address:       "1 Example St",
			City:          "Tehran",
			RecipientName: "A. Reader",
			PhoneNumber:   "0912000000",
		},
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := orders.NewHandler(repo,
		identity.NewTokenAuthenticator(testSecret),
		identity.NewUserRepository(db),
		logger,
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{id}", handler.HandleGet)

	fetch := func(subject string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/orders/%d", orderID), nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, subject))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := fetch("auth-reader-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var order domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	if order.ID != orderID || order.UserID != userID {
		t.Fatalf("unexpected order: %+v", order)
	}

	rec = fetch("auth-reader-2")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected another user's fetch to 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestKafkaConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	if len(brokers) == 0 {
		t.Fatal("expected at least one broker")
	}

	t.Logf("kafka brokers: %v", brokers)
}

type emailCapture struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (e *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.emails = append(e.emails, req)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"sent"}`)
}

func (e *emailCapture) getEmails() []map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]map[string]string, len(e.emails))
	copy(result, e.emails)
	return result
}

func TestOrderConfirmationDelivery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokers, kafkaCleanup := SetupKafka(ctx, t)
	defer kafkaCleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	seedUser(ctx, t, db, "auth-reader-1", "reader@example.com")
	seedCatalog(ctx, t, db)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	emailCap := &emailCapture{}
	emailMux := http.NewServeMux()
	emailMux.HandleFunc("POST /send", emailCap.handler)
	emailServer := httptest.NewServer(emailMux)
	defer emailServer.Close()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderCreated)
	defer func() { _ = producer.Close() }()

	handler := newCheckoutHandler(db, producer, logger)

	reqBody := `{
		"items": [{"bookId":1,"quantity":1}],
		"shipment": {"address":"1 Example St","city":"Tehran","recipientName":"A. Reader","phoneNumber":"0912000000"},
		"paymentProviderId": 1
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "auth-reader-1"))
	rec := httptest.NewRecorder()

	handler.HandleCheckout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		OrderID int64 `json:"orderId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	notifyHandler := notify.NewHandler(emailServer.URL, identity.NewUserRepository(db), httpClient, logger)

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderCreated, "notifier-test")
	defer func() { _ = consumer.Close() }()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() {
		_ = consumer.Consume(consumerCtx, notifyHandler.Handle)
	}()

	deadline := time.Now().Add(90 * time.Second)
	var emails []map[string]string
	for time.Now().Before(deadline) {
		emails = emailCap.getEmails()
		if len(emails) > 0 {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if len(emails) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(emails))
	}
	email := emails[0]
	if email["to"] != "reader@example.com" {
		t.Fatalf("expected email to reader@example.com, got %s", email["to"])
	}
	if !strings.Contains(email["subject"], "Confirmation") {
		t.Fatalf("expected confirmation email, got subject: %s", email["subject"])
	}
	if !strings.Contains(email["subject"], fmt.Sprintf("%d", resp.OrderID)) {
		t.Fatalf("expected email subject to contain order id %d, got: %s", resp.OrderID, email["subject"])
	}
}
