package product

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain"
)

type stubRepo struct {
	products []Product
	err      error
}

func (s stubRepo) ListProducts(ctx context.Context) ([]Product, error) {
	return s.products, s.err
}

func TestListProducts(t *testing.T) {
	svc := NewService(stubRepo{products: []Product{{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("10")}}})

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)
}

func TestListProducts_EmptyIsNotNil(t *testing.T) {
	svc := NewService(stubRepo{})

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestListProducts_StoreError(t *testing.T) {
	svc := NewService(stubRepo{err: errors.New("timeout")})

	_, err := svc.ListProducts(context.Background())
	var storeErr *domain.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestDemoCatalog(t *testing.T) {
	catalog := DemoCatalog()
	require.NotEmpty(t, catalog)
	for _, p := range catalog {
		assert.NotEmpty(t, p.Name)
		assert.True(t, p.Price.IsPositive(), p.Name)
	}
}
