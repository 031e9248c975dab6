package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/internal/search"
	"github.com/Skotchmaster/shop_api/internal/util"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

// ProductIndex is the search side of the catalog. The datastore stays the
// source of truth; the index only needs to be close to it.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []search.ProductDoc, error)
}

type CatalogService struct {
	Repo  *repo.GormRepo
	Index ProductIndex
}

type ProductInput struct {
	Name       *string
	Price      *decimal.Decimal
	CategoryID *uint
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("category name is required")
	}
	c := &models.Category{Name: name}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.Repo.FindCategory(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("category")
	}
	return c, err
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("category name is required")
	}
	c, err := s.Repo.UpdateCategory(ctx, id, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("category")
	}
	return c, err
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.Repo.DeleteCategory(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return notFound("category")
	case errors.Is(err, repo.ErrReferenced):
		return conflict("category still has products")
	}
	return err
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("product name is required")
	}
	if in.Price == nil || in.Price.IsNegative() {
		return nil, invalid("price must be >= 0")
	}
	if in.CategoryID == nil || *in.CategoryID == 0 {
		return nil, invalid("categoryId is required")
	}
	if _, err := s.GetCategory(ctx, *in.CategoryID); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:       strings.TrimSpace(*in.Name),
		Price:      in.Price.Round(2),
		CategoryID: *in.CategoryID,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		l.Error("create_product_error", "status", 500, "error", err)
		return nil, err
	}

	stored, err := s.Repo.FindProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, stored)

	l.Info("create_product_success", "product_id", p.ID)
	return stored, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.FindProduct(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("product")
	}
	return p, err
}

func (s *CatalogService) ListProducts(ctx context.Context, page, size int, categoryID *uint) (*util.Page[models.Product], error) {
	page, offset, limit := util.Calculate(page, size)
	items, total, err := s.Repo.ListProducts(ctx, categoryID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &util.Page[models.Product]{Data: items, Meta: util.NewMeta(page, limit, total)}, nil
}

// SearchProducts uses the search index when there is one and falls back to a
// name match in the datastore otherwise or when the index fails.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, size int) (*util.Page[models.Product], error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("query is required")
	}
	page, offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, docs, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.hydrate(ctx, docs)
			if err != nil {
				return nil, err
			}
			return &util.Page[models.Product]{Data: items, Meta: util.NewMeta(page, limit, total)}, nil
		}
		l.Warn("index_search_failed", "reason", "falling back to datastore", "error", err)
	}

	items, total, err := s.Repo.SearchProductsByName(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	return &util.Page[models.Product]{Data: items, Meta: util.NewMeta(page, limit, total)}, nil
}

// hydrate loads the current rows for index hits, keeping the index order and
// dropping hits whose product no longer exists.
func (s *CatalogService) hydrate(ctx context.Context, docs []search.ProductDoc) ([]models.Product, error) {
	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	rows, err := s.Repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	items := make([]models.Product, 0, len(docs))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
		}
	}
	return items, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_product")

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("product name must not be empty")
		}
		fields["name"] = name
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, invalid("price must be >= 0")
		}
		fields["price"] = in.Price.Round(2)
	}
	if in.CategoryID != nil {
		if _, err := s.GetCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *in.CategoryID
	}

	p, err := s.Repo.UpdateProduct(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFound("product")
		}
		l.Error("update_product_error", "status", 500, "error", err)
		return nil, err
	}
	s.syncIndex(ctx, p)

	l.Info("update_product_success", "product_id", id)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product")

	err := s.Repo.DeleteProduct(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return notFound("product")
	case errors.Is(err, repo.ErrReferenced):
		return conflict("product is referenced by cart lines")
	case err != nil:
		l.Error("delete_product_error", "status", 500, "error", err)
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("index_delete_failed", "product_id", id, "error", err)
		}
	}
	l.Info("delete_product_success", "product_id", id)
	return nil
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", p.ID, "error", err)
	}
}
