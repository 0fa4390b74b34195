package implementation

import (
	"context"
	"errors"

	"shopassist-be/internal/model"
	"shopassist-be/internal/repository/contract"
	"shopassist-be/pkg/store"

	"gorm.io/gorm"
)

// maxNearbyStores caps the nearby-stock list returned per lookup.
const maxNearbyStores = 3

type AvailabilityRepositoryImpl struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) contract.AvailabilityRepository {
	return &AvailabilityRepositoryImpl{db: db}
}

func (r *AvailabilityRepositoryImpl) GetAvailability(ctx context.Context, sku, storeID string) (*store.Availability, error) {
	avail := &store.Availability{
		SKU:         sku,
		StoreID:     storeID,
		NearbyStock: []store.NearbyStock{},
	}

	var local model.StoreStock
	err := r.db.WithContext(ctx).
		Where("sku = ? AND store_id = ?", sku, storeID).
		First(&local).Error
	if err == nil {
		avail.InStock = local.InStock
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var nearby []model.StoreStock
	err = r.db.WithContext(ctx).
		Where("sku = ? AND store_id <> ? AND in_stock > 0", sku, storeID).
		Order("in_stock DESC").
		Limit(maxNearbyStores).
		Find(&nearby).Error
	if err != nil {
		return nil, err
	}
	for _, n := range nearby {
		avail.NearbyStock = append(avail.NearbyStock, store.NearbyStock{
			StoreID:   n.StoreId,
			StoreName: n.StoreName,
			InStock:   n.InStock,
		})
	}

	return avail, nil
}
