package catalog

import (
	"context"
	"fmt"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts catalog persistence.
type RepositoryPort interface {
	ListVendors(ctx context.Context, f ListFilters) ([]Vendor, error)
	ListClients(ctx context.Context, f ListFilters) ([]Client, error)
	ListProducts(ctx context.Context, f ListFilters) ([]Product, error)
	ListRawMaterials(ctx context.Context, f ListFilters) ([]RawMaterial, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	UpdateProductPrice(ctx context.Context, id int64, unitPrice float64) error
}

// AuditPort records catalog mutations.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service serves catalog reads through the cache and applies mutations.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, cache *Cache, audit AuditPort) *Service {
	return &Service{repo: repo, cache: cache, audit: audit}
}

func (s *Service) ListVendors(ctx context.Context, f ListFilters) ([]Vendor, error) {
	f.Limit, f.Offset = shared.NormalizePage(f.Limit, f.Offset)
	var out []Vendor
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.ListVendors(ctx, f)
	}, "catalog", "vendors", listKey(f))
	return out, err
}

func (s *Service) ListClients(ctx context.Context, f ListFilters) ([]Client, error) {
	f.Limit, f.Offset = shared.NormalizePage(f.Limit, f.Offset)
	var out []Client
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.ListClients(ctx, f)
	}, "catalog", "clients", listKey(f))
	return out, err
}

func (s *Service) ListProducts(ctx context.Context, f ListFilters) ([]Product, error) {
	f.Limit, f.Offset = shared.NormalizePage(f.Limit, f.Offset)
	var out []Product
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.ListProducts(ctx, f)
	}, "catalog", "products", listKey(f))
	return out, err
}

func (s *Service) ListRawMaterials(ctx context.Context, f ListFilters) ([]RawMaterial, error) {
	f.Limit, f.Offset = shared.NormalizePage(f.Limit, f.Offset)
	var out []RawMaterial
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.ListRawMaterials(ctx, f)
	}, "catalog", "raw_materials", listKey(f))
	return out, err
}

// GetProduct returns one product through the cache.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	var out Product
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.GetProduct(ctx, id)
	}, "catalog", "product", fmt.Sprintf("%d", id))
	return out, err
}

// UpdateProductPrice changes a product's sale price and invalidates the cache.
func (s *Service) UpdateProductPrice(ctx context.Context, id int64, unitPrice float64, actorID int64) error {
	if err := s.repo.UpdateProductPrice(ctx, id, unitPrice); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "catalog.product.price_updated",
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return nil
}

func listKey(f ListFilters) string {
	return fmt.Sprintf("%s:%d:%d", f.Search, f.Limit, f.Offset)
}
