package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ketabino/bookstore/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Wire records for the create_order function. Optional shipment fields
// carry no omitempty so absence reaches the database as an explicit
// JSON null.
type orderItemRecord struct {
	BookID    int64 `json:"book_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type shipmentRecord struct {
	Address        string  `json:"address"`
	City           string  `json:"city"`
	RecipientName  string  `json:"recipient_name"`
	PhoneNumber    string  `json:"phone_number"`
	PostalCode     *string `json:"postal_code"`
	DeliveryTypeID *int64  `json:"delivery_type_id"`
}

// Create commits the order header, every item, and the shipment record
// through the create_order database function. The function runs as one
// transaction, so a failure anywhere leaves no partial order behind.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (int64, error) {
	items := make([]orderItemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemRecord{
			BookID:    item.BookID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encode order items: %w", err)
	}

	shipmentJSON, err := json.Marshal(shipmentRecord{
		Address:        order.Shipment.Address,
		City:           order.Shipment.City,
		RecipientName:  order.Shipment.RecipientName,
		PhoneNumber:    order.Shipment.PhoneNumber,
		PostalCode:     order.Shipment.PostalCode,
		DeliveryTypeID: order.Shipment.DeliveryTypeID,
	})
	if err != nil {
		return 0, fmt.Errorf("encode shipment: %w", err)
	}

	var orderID sql.NullInt64
	err = r.db.QueryRowContext(ctx, `
		SELECT create_order($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.UserID, order.OrderStatusID, order.PaymentProviderID,
		order.SubtotalAmount, order.DeliveryPrice, order.TotalAmount,
		itemsJSON, shipmentJSON,
	).Scan(&orderID)
	if err != nil {
		return 0, err
	}
	if !orderID.Valid || orderID.Int64 == 0 {
		return 0, errors.New("create_order returned no order id")
	}

	return orderID.Int64, nil
}

// GetByID loads an order with its items and shipment, or nil when no
// such order exists.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, order_status_id, payment_provider_id,
		       subtotal_amount, delivery_price, total_amount, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.OrderStatusID, &order.PaymentProviderID,
		&order.SubtotalAmount, &order.DeliveryPrice, &order.TotalAmount, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT book_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.BookID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT address, city, recipient_name, phone_number, postal_code, delivery_type_id
		FROM order_shipments
		WHERE order_id = $1
	`, id).Scan(&order.Shipment.Address, &order.Shipment.City, &order.Shipment.RecipientName,
		&order.Shipment.PhoneNumber, &order.Shipment.PostalCode, &order.Shipment.DeliveryTypeID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return order, nil
}
