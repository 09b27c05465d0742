package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sssssubin/cart-service/api/responses"
	"github.com/sssssubin/cart-service/api/validators"
	"github.com/sssssubin/cart-service/internal/catalog"
	"github.com/sssssubin/cart-service/pkg/db/models"
	pkgerrors "github.com/sssssubin/cart-service/pkg/errors"
	"github.com/sssssubin/cart-service/pkg/logger"
)

type productResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Price            int64    `json:"price"`
	Stock            int      `json:"stock"`
	BulkDiscountRate string   `json:"bulkDiscountRate"`
	Tags             []string `json:"tags"`
	LowStock         bool     `json:"lowStock"`
	SoldOut          bool     `json:"soldOut"`
}

func newProductResponse(p models.Product) productResponse {
	return productResponse{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		Stock:            p.Stock,
		BulkDiscountRate: p.BulkDiscountRate.String(),
		Tags:             []string(p.Tags),
		LowStock:         p.Stock > 0 && p.Stock < catalog.StockWarningThreshold,
		SoldOut:          p.Stock <= 0,
	}
}

// CatalogList returns the catalog in display order. With ?low_stock=true it
// narrows to products under the warning threshold.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		lowStockOnly, err := validators.ParseQueryBool(r, "low_stock", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var products []models.Product
		if lowStockOnly {
			products, err = svc.LowStock(r.Context())
		} else {
			products, err = svc.List(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]productResponse, 0, len(products))
		for _, p := range products {
			payload = append(payload, newProductResponse(p))
		}
		responses.WriteSuccess(w, payload)
	}
}

// CatalogGet returns a single product.
func CatalogGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.Get(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}
