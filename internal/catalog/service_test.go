package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type memoryCatalogRepo struct {
	products     map[int64]Product
	vendors      []Vendor
	priceUpdates int
	lastFilters  ListFilters
}

func (r *memoryCatalogRepo) ListVendors(ctx context.Context, f ListFilters) ([]Vendor, error) {
	r.lastFilters = f
	return r.vendors, nil
}

func (r *memoryCatalogRepo) ListClients(ctx context.Context, f ListFilters) ([]Client, error) {
	return nil, nil
}

func (r *memoryCatalogRepo) ListProducts(ctx context.Context, f ListFilters) ([]Product, error) {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryCatalogRepo) ListRawMaterials(ctx context.Context, f ListFilters) ([]RawMaterial, error) {
	return nil, nil
}

func (r *memoryCatalogRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryCatalogRepo) UpdateProductPrice(ctx context.Context, id int64, unitPrice float64) error {
	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	p.UnitPrice = unitPrice
	r.products[id] = p
	r.priceUpdates++
	return nil
}

func newCatalogService() (*Service, *memoryCatalogRepo) {
	repo := &memoryCatalogRepo{
		products: map[int64]Product{1: {ID: 1, Name: "Baguette", UnitPrice: 25}},
		vendors:  []Vendor{{ID: 4, Name: "Moulin du Nord"}},
	}
	return NewService(repo, NewCache(nil, time.Minute), nil), repo
}

func TestServiceListVendorsNormalizesPagination(t *testing.T) {
	svc, repo := newCatalogService()

	out, err := svc.ListVendors(context.Background(), ListFilters{Limit: -1, Offset: -5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, shared.DefaultPageSize, repo.lastFilters.Limit)
	require.Equal(t, 0, repo.lastFilters.Offset)
}

func TestServiceGetProduct(t *testing.T) {
	svc, _ := newCatalogService()

	p, err := svc.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Baguette", p.Name)

	_, err = svc.GetProduct(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceUpdateProductPrice(t *testing.T) {
	svc, repo := newCatalogService()

	require.NoError(t, svc.UpdateProductPrice(context.Background(), 1, 30, 9))
	require.Equal(t, 1, repo.priceUpdates)
	require.Equal(t, 30.0, repo.products[1].UnitPrice)

	require.ErrorIs(t, svc.UpdateProductPrice(context.Background(), 99, 30, 9), ErrNotFound)
}
