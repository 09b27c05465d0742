package cartdto

// AddItemRequest adds one unit of a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// ChangeQuantityRequest moves an existing line by delta. A zero delta is
// accepted and leaves the line untouched.
type ChangeQuantityRequest struct {
	Delta int `json:"delta"`
}

// SelectRequest records the product the session is pointing at.
type SelectRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// RestoreItem is one line of a client-held snapshot.
type RestoreItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// RestoreRequest rebuilds the session's cart from a client-held snapshot.
type RestoreRequest struct {
	Items []RestoreItem `json:"items" validate:"dive"`
}
