package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"shopassist-be/internal/model"
	"shopassist-be/internal/repository/contract"
	"shopassist-be/pkg/store"

	"gorm.io/gorm"
)

type ProductRepositoryImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) contract.ProductRepository {
	return &ProductRepositoryImpl{db: db}
}

func (r *ProductRepositoryImpl) GetBySKU(ctx context.Context, sku string) (*store.ProductRecord, error) {
	var m model.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toProductRecord(&m), nil
}

func (r *ProductRepositoryImpl) FindBySKUs(ctx context.Context, skus []string) ([]*store.ProductRecord, error) {
	if len(skus) == 0 {
		return []*store.ProductRecord{}, nil
	}
	var models []*model.Product
	if err := r.db.WithContext(ctx).Where("sku IN ?", skus).Find(&models).Error; err != nil {
		return nil, err
	}
	records := make([]*store.ProductRecord, len(models))
	for i, m := range models {
		records[i] = toProductRecord(m)
	}
	return records, nil
}

// SearchByText is a lexical catalog lookup over name, brand and category.
func (r *ProductRepositoryImpl) SearchByText(ctx context.Context, query string, limit int) ([]*store.ProductRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	var models []*model.Product
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR brand ILIKE ? OR category ILIKE ?", pattern, pattern, pattern).
		Order("price ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	records := make([]*store.ProductRecord, len(models))
	for i, m := range models {
		records[i] = toProductRecord(m)
	}
	return records, nil
}

func toProductRecord(m *model.Product) *store.ProductRecord {
	attrs := map[string]interface{}{}
	if len(m.Attributes) > 0 {
		// attributes are best-effort; a malformed blob must not fail a lookup
		_ = json.Unmarshal(m.Attributes, &attrs)
	}
	return &store.ProductRecord{
		SKU:        m.Sku,
		Name:       m.Name,
		Brand:      m.Brand,
		Category:   m.Category,
		Price:      m.Price,
		Attributes: attrs,
	}
}
