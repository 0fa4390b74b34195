package implementation

import (
	"context"

	"shopassist-be/internal/model"
	"shopassist-be/internal/repository/contract"
	"shopassist-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CatalogChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewCatalogChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &CatalogChunkRepositoryImpl{db: db}
}

// SearchHybridWithScore combines pgvector cosine similarity with a Postgres
// full-text rank in a single query. Cosine distance is 1 - similarity, so the
// select computes 1 - (embedding_value <=> vector).
func (r *CatalogChunkRepositoryImpl) SearchHybridWithScore(ctx context.Context, embedding []float32, queryText string, params contract.ChunkSearchParams) ([]*contract.ScoredChunk, error) {
	if params.Limit <= 0 {
		params.Limit = 10
	}

	type row struct {
		model.CatalogChunk
		Similarity float64
		Lexical    float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	q := r.db.WithContext(ctx).
		Table("catalog_chunks").
		Select(`catalog_chunks.*,
			1 - (embedding_value <=> ?) AS similarity,
			ts_rank(to_tsvector('english', coalesce(section_title,'') || ' ' || coalesce(section_body,'')), plainto_tsquery('english', ?)) AS lexical`,
			queryVector, queryText).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, params.Threshold)

	if params.Sku != "" {
		q = q.Where("sku = ?", params.Sku)
	}

	err := q.Order("similarity DESC").
		Limit(params.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(rows))
	for i, res := range rows {
		lexical := res.Lexical
		if lexical > 1 {
			lexical = 1 // ts_rank is unbounded above; clamp into the score range
		}
		scored[i] = &contract.ScoredChunk{
			Chunk:        toChunk(&res.CatalogChunk),
			Similarity:   res.Similarity,
			LexicalScore: lexical,
		}
	}
	return scored, nil
}

// SearchSimilar is the narrow fallback: plain cosine ordering, no lexical
// signal, no threshold beyond the caller's.
func (r *CatalogChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, params contract.ChunkSearchParams) ([]*store.Chunk, error) {
	if params.Limit <= 0 {
		params.Limit = 10
	}

	var models []*model.CatalogChunk
	q := r.db.WithContext(ctx).Model(&model.CatalogChunk{})
	if params.Sku != "" {
		q = q.Where("sku = ?", params.Sku)
	}
	err := q.Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(params.Limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	chunks := make([]*store.Chunk, len(models))
	for i, m := range models {
		chunks[i] = toChunk(m)
	}
	return chunks, nil
}

func toChunk(m *model.CatalogChunk) *store.Chunk {
	return &store.Chunk{
		ChunkID:         m.Id.String(),
		SKU:             m.Sku,
		SectionTitle:    m.SectionTitle,
		SectionType:     m.SectionType,
		SectionBody:     m.SectionBody,
		ImportanceScore: m.ImportanceScore,
	}
}
