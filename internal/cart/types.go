package cart

import (
	"github.com/sssssubin/cart-service/internal/pricing"
	"github.com/sssssubin/cart-service/pkg/db/models"
)

// Line is one cart entry: at most one per product, quantity always > 0.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// State is a session's cart. Line order is first-add order; it carries no
// pricing meaning but keeps the display stable.
type State struct {
	SessionID string
	Lines     []Line
}

func (s *State) findLine(productID string) (int, bool) {
	for i, line := range s.Lines {
		if line.ProductID == productID {
			return i, true
		}
	}
	return 0, false
}

func (s *State) removeLineAt(idx int) {
	s.Lines = append(s.Lines[:idx], s.Lines[idx+1:]...)
}

// PricingLines converts the cart into engine input.
func (s *State) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, pricing.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return lines
}

// View is what the presentation layer renders after any cart operation.
type View struct {
	Lines []ViewLine
	Quote pricing.Result
}

// ViewLine joins a cart line with its current catalog entry.
type ViewLine struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
}

func catalogView(products []models.Product) []pricing.Product {
	view := make([]pricing.Product, 0, len(products))
	for _, p := range products {
		view = append(view, pricing.Product{
			ID:               p.ID,
			Price:            p.Price,
			BulkDiscountRate: p.BulkDiscountRate,
		})
	}
	return view
}
