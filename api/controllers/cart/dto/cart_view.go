package cartdto

// CartView is the public shape of a session's cart after any operation.
type CartView struct {
	Items   []CartItem  `json:"items"`
	Summary CartSummary `json:"summary"`
}

// CartItem joins a cart line with its current catalog entry.
type CartItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CartSummary carries the priced totals. Monetary values are decimal strings
// so the weekday discount's fractional totals survive serialization intact.
type CartSummary struct {
	Subtotal      string `json:"subtotal"`
	Total         string `json:"total"`
	DiscountRate  string `json:"discountRate"`
	ItemCount     int    `json:"itemCount"`
	LoyaltyPoints int64  `json:"loyaltyPoints"`
}
