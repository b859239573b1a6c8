package domain

// Book is the catalog snapshot row used to price and validate a
// checkout. BasePrice is in the store currency's smallest unit.
type Book struct {
	ID        int64 `json:"id"`
	BasePrice int64 `json:"basePrice"`
	IsActive  bool  `json:"isActive"`
}
