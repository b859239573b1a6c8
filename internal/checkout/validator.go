package checkout

import "github.com/ketabino/bookstore/internal/domain"

// ValidateRequest checks the shape of a decoded checkout request.
// Rules run in a fixed order and the first violation wins.
func ValidateRequest(req *domain.CheckoutRequest) error {
	if len(req.Items) == 0 {
		return errCartEmpty()
	}
	if req.Shipment == nil {
		return errShipmentRequired()
	}
	if req.PaymentProviderID == 0 {
		return errPaymentProviderRequired()
	}
	return nil
}

// Snapshot indexes catalog rows by book id.
type Snapshot map[int64]domain.Book

func NewSnapshot(books []domain.Book) Snapshot {
	snapshot := make(Snapshot, len(books))
	for _, book := range books {
		snapshot[book.ID] = book
	}
	return snapshot
}

// ValidateItems checks every requested item against the catalog
// snapshot, scanning in request order and failing on the first
// offending item rather than aggregating violations.
func ValidateItems(items []domain.CartItem, snapshot Snapshot) error {
	for _, item := range items {
		book, ok := snapshot[item.BookID]
		if !ok {
			return errBookNotFound(item.BookID)
		}
		if !book.IsActive {
			return errBookUnavailable(item.BookID)
		}
		if item.Quantity < 1 {
			return errQuantityTooLow(item.BookID)
		}
	}
	return nil
}

// BookIDs lists the distinct book ids referenced by items, preserving
// first-occurrence order.
func BookIDs(items []domain.CartItem) []int64 {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if seen[item.BookID] {
			continue
		}
		seen[item.BookID] = true
		ids = append(ids, item.BookID)
	}
	return ids
}
