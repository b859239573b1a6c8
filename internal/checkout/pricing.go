package checkout

import "github.com/ketabino/bookstore/internal/domain"

// DeliveryPrice is a flat placeholder until a shipping-rate subsystem
// exists.
const DeliveryPrice int64 = 80000

// Totals is the authoritative pricing of one checkout. Unit prices
// come from the catalog snapshot only; anything the client asserted
// about prices is ignored.
type Totals struct {
	Subtotal int64
	Delivery int64
	Total    int64
	Items    []domain.OrderItem
}

// Price computes order totals from validated items and a catalog
// snapshot. It is deterministic and side-effect-free, and runs at
// commit time even when the client displayed an earlier estimate,
// since catalog prices may have moved.
func Price(items []domain.CartItem, snapshot Snapshot) Totals {
	orderItems := make([]domain.OrderItem, 0, len(items))

	var subtotal int64
	for _, item := range items {
		unitPrice := snapshot[item.BookID].BasePrice
		subtotal += unitPrice * int64(item.Quantity)
		orderItems = append(orderItems, domain.OrderItem{
			BookID:    item.BookID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
	}

	return Totals{
		Subtotal: subtotal,
		Delivery: DeliveryPrice,
		Total:    subtotal + DeliveryPrice,
		Items:    orderItems,
	}
}
