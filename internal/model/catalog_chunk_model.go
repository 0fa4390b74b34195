package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// CatalogChunk rows are produced by the ingestion pipeline; this service only
// reads them.
type CatalogChunk struct {
	Id              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Sku             string          `gorm:"type:varchar(64);not null;index"`
	SectionTitle    string          `gorm:"type:varchar(255)"`
	SectionType     string          `gorm:"type:varchar(64);not null;index"`
	SectionBody     string          `gorm:"type:text"`
	ImportanceScore float64         `gorm:"default:0.5"`
	EmbeddingValue  pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

func (CatalogChunk) TableName() string {
	return "catalog_chunks"
}
