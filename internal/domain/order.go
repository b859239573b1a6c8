package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatusPendingID is the seeded order_statuses row for "pending",
// the only status this service ever writes.
const OrderStatusPendingID = 1

type ShipmentInfo struct {
	Address        string  `json:"address"`
	City           string  `json:"city"`
	RecipientName  string  `json:"recipientName"`
	PhoneNumber    string  `json:"phoneNumber"`
	PostalCode     *string `json:"postalCode,omitempty"`
	DeliveryTypeID *int64  `json:"deliveryTypeId,omitempty"`
}

// OrderItem captures the unit price from the catalog at commit time,
// so historical orders keep their pricing when the catalog changes.
type OrderItem struct {
	BookID    int64 `json:"bookId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}

type Order struct {
	ID                int64        `json:"id"`
	UserID            int64        `json:"userId"`
	OrderStatusID     int          `json:"orderStatusId"`
	PaymentProviderID int64        `json:"paymentProviderId"`
	SubtotalAmount    int64        `json:"subtotalAmount"`
	DeliveryPrice     int64        `json:"deliveryPrice"`
	TotalAmount       int64        `json:"totalAmount"`
	Items             []OrderItem  `json:"items"`
	Shipment          ShipmentInfo `json:"shipment"`
	CreatedAt         time.Time    `json:"createdAt"`
}
