package cart

import (
	cartdto "github.com/sssssubin/cart-service/api/controllers/cart/dto"
	cartsvc "github.com/sssssubin/cart-service/internal/cart"
)

func newCartView(view *cartsvc.View) cartdto.CartView {
	items := make([]cartdto.CartItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, cartdto.CartItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}

	return cartdto.CartView{
		Items: items,
		Summary: cartdto.CartSummary{
			Subtotal:      view.Quote.Subtotal.String(),
			Total:         view.Quote.Total.String(),
			DiscountRate:  view.Quote.DiscountRate.String(),
			ItemCount:     view.Quote.ItemCount,
			LoyaltyPoints: view.Quote.LoyaltyPoints,
		},
	}
}
