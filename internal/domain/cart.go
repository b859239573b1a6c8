package domain

// CartItem is one book/quantity line in a cart. A cart holds at most
// one line per book id.
type CartItem struct {
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
}
