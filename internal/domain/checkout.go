package domain

// CheckoutRequest is the transient payload submitted by a client to
// convert its cart into an order. It is never persisted as-is.
type CheckoutRequest struct {
	Items             []CartItem    `json:"items"`
	Shipment          *ShipmentInfo `json:"shipment"`
	PaymentProviderID int64         `json:"paymentProviderId"`
}
