package sale

import (
	"math/rand"

	"github.com/sssssubin/cart-service/pkg/db/models"
)

// PickFlashProduct chooses a random in-stock product, or nil when nothing is
// sellable.
func PickFlashProduct(products []models.Product, rng *rand.Rand) *models.Product {
	candidates := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.InStock() {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	chosen := candidates[rng.Intn(len(candidates))]
	return &chosen
}

// PickRecommendation chooses the first in-stock product that is not the one
// last selected, or nil when no such product exists.
func PickRecommendation(products []models.Product, lastSelectedID string) *models.Product {
	for _, p := range products {
		if p.ID == lastSelectedID || !p.InStock() {
			continue
		}
		chosen := p
		return &chosen
	}
	return nil
}
