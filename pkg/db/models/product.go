package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the catalog source of truth for price, stock, and the
// per-product rate applied when a single cart line reaches bulk quantity.
// Price moves only through sale events; stock moves only through cart
// operations.
type Product struct {
	ID               string          `gorm:"column:id;primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Price            int64           `gorm:"column:price;not null"`
	Stock            int             `gorm:"column:stock;not null"`
	BulkDiscountRate decimal.Decimal `gorm:"column:bulk_discount_rate;type:numeric(4,3);not null"`
	Tags             pq.StringArray  `gorm:"column:tags;type:text[];not null;default:'{}'"`
	Position         int             `gorm:"column:position;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}
