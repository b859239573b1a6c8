package checkout

import "fmt"

// ValidationError is a business rejection of a checkout request. Its
// message is safe to show to the caller; BookID names the offending
// book when the rule is item-specific.
type ValidationError struct {
	Message string
	BookID  int64
}

func (e *ValidationError) Error() string {
	return e.Message
}

func errCartEmpty() *ValidationError {
	return &ValidationError{Message: "Cart is empty"}
}

func errShipmentRequired() *ValidationError {
	return &ValidationError{Message: "Shipment info is required"}
}

func errPaymentProviderRequired() *ValidationError {
	return &ValidationError{Message: "Payment provider is required"}
}

func errBookNotFound(bookID int64) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("Book with id %d not found", bookID),
		BookID:  bookID,
	}
}

func errBookUnavailable(bookID int64) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("Book with id %d is not available", bookID),
		BookID:  bookID,
	}
}

func errQuantityTooLow(bookID int64) *ValidationError {
	return &ValidationError{
		Message: "Quantity must be at least 1",
		BookID:  bookID,
	}
}
