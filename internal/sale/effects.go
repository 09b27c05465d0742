package sale

import "github.com/shopspring/decimal"

var (
	flashRate     = decimal.RequireFromString("0.8")
	recommendRate = decimal.RequireFromString("0.95")
)

// FlashSalePrice is the 20%-off markdown, rounded to the nearest unit.
func FlashSalePrice(price int64) int64 {
	return decimal.NewFromInt(price).Mul(flashRate).Round(0).IntPart()
}

// RecommendationPrice is the 5%-off markdown, rounded to the nearest unit.
func RecommendationPrice(price int64) int64 {
	return decimal.NewFromInt(price).Mul(recommendRate).Round(0).IntPart()
}
