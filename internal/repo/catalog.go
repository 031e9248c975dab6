package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("id").Find(&cats).Error; err != nil {
		return nil, translate(err)
	}
	return cats, nil
}

func (r *GormRepo) FindCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormRepo) UpdateCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindCategory(ctx, id)
}

// DeleteCategory fails with ErrReferenced while products still use the category.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n > 0 {
		return ErrReferenced
	}

	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

func (r *GormRepo) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListProducts returns one page of products ordered by id plus the total count.
func (r *GormRepo) ListProducts(ctx context.Context, categoryID *uint, offset, limit int) ([]models.Product, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	return pageProducts(q, offset, limit)
}

// SearchProductsByName is the datastore fallback for product search.
func (r *GormRepo) SearchProductsByName(ctx context.Context, query string, offset, limit int) ([]models.Product, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
	return pageProducts(q, offset, limit)
}

func (r *GormRepo) FindProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func pageProducts(q *gorm.DB, offset, limit int) ([]models.Product, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var products []models.Product
	if err := q.Preload("Category").Order("id").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, translate(err)
	}
	return products, total, nil
}

func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, fields map[string]any) (*models.Product, error) {
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindProduct(ctx, id)
}

// DeleteProduct fails with ErrReferenced while cart lines still use the product.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Cart{}).Where("product_id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n > 0 {
		return ErrReferenced
	}

	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
