package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sssssubin/cart-service/pkg/db/models"
	pkgerrors "github.com/sssssubin/cart-service/pkg/errors"
)

// StockWarningThreshold marks products the storefront flags as running low.
const StockWarningThreshold = 5

// Service exposes catalog reads and the narrow price-mutation surface used
// by sale events.
type Service interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	LowStock(ctx context.Context) ([]models.Product, error)
	MutatePrice(ctx context.Context, id string, newPrice int64) error
}

type service struct {
	repo *Repository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) LowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListBelowStock(ctx, StockWarningThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return products, nil
}

// MutatePrice is the only write path for product prices. Stock moves through
// cart operations instead.
func (s *service) MutatePrice(ctx context.Context, id string, newPrice int64) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if newPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	updated, err := s.repo.UpdatePrice(ctx, id, newPrice)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update price")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
