package model

import (
	"time"

	"gorm.io/datatypes"
)

type Product struct {
	Sku        string         `gorm:"type:varchar(64);primaryKey"`
	Name       string         `gorm:"type:varchar(255);not null"`
	Brand      string         `gorm:"type:varchar(128);index"`
	Category   string         `gorm:"type:varchar(128);index"`
	Price      float64        `gorm:"not null"`
	Attributes datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// StoreStock is one (sku, store) stock row maintained by the inventory sync.
type StoreStock struct {
	Sku       string    `gorm:"type:varchar(64);primaryKey"`
	StoreId   string    `gorm:"type:varchar(64);primaryKey"`
	StoreName string    `gorm:"type:varchar(255)"`
	InStock   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StoreStock) TableName() string {
	return "store_stock"
}
