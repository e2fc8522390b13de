// internal/domain/product/service.go
package product

import (
	"context"

	"github.com/your-org/storefront-backend/internal/domain"
)

// Repository is the read side of the product catalog
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Service handles product business logic
type Service struct {
	repo Repository
}

// NewService creates a new product service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListProducts returns the whole catalog ordered by name ascending
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, domain.WrapStoreError("list products", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}
