package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/internal/repository/contract"
	"shopassist-be/pkg/embedding"
	"shopassist-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(_ string, _ string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeChunkRepo struct {
	mu        sync.Mutex
	hybrid    map[string][]*contract.ScoredChunk
	hybridErr error
	plain     []*store.Chunk
	plainErr  error

	hybridSKUs []string
	plainCalls int
}

func (f *fakeChunkRepo) SearchHybridWithScore(_ context.Context, _ []float32, _ string, params contract.ChunkSearchParams) ([]*contract.ScoredChunk, error) {
	f.mu.Lock()
	f.hybridSKUs = append(f.hybridSKUs, params.Sku)
	f.mu.Unlock()
	if f.hybridErr != nil {
		return nil, f.hybridErr
	}
	return f.hybrid[params.Sku], nil
}

func (f *fakeChunkRepo) SearchSimilar(_ context.Context, _ []float32, _ contract.ChunkSearchParams) ([]*store.Chunk, error) {
	f.mu.Lock()
	f.plainCalls++
	f.mu.Unlock()
	if f.plainErr != nil {
		return nil, f.plainErr
	}
	return f.plain, nil
}

func scored(id, sku, section string, sim, lex, importance float64) *contract.ScoredChunk {
	return &contract.ScoredChunk{
		Chunk: &store.Chunk{
			ChunkID:         id,
			SKU:             sku,
			SectionType:     section,
			SectionTitle:    section,
			SectionBody:     "body of " + id,
			ImportanceScore: importance,
		},
		Similarity:   sim,
		LexicalScore: lex,
	}
}

func newTestEngine(repo contract.ChunkRepository, emb embedding.EmbeddingProvider, cfg Config) *Engine {
	return NewEngine(repo, emb, cfg, logger.NewNopLogger())
}

func TestRetrieveScoresAndFiltersByThreshold(t *testing.T) {
	repo := &fakeChunkRepo{
		hybrid: map[string][]*contract.ScoredChunk{
			"88231": {
				scored("c1", "88231", "specs", 0.9, 0.8, 1.0),
				scored("c2", "88231", "faq", 0.2, 0.1, 0.0),
			},
		},
	}
	eng := newTestEngine(repo, &fakeEmbedder{}, DefaultConfig())

	chunks := eng.Retrieve(t.Context(), Request{SKU: "88231", Query: "refresh rate"})

	require.Len(t, chunks, 1)
	assert.Equal(t, "c1", chunks[0].ChunkID)
	// 0.7*0.9 + 0.3*0.8, nudged by full importance.
	assert.InDelta(t, 0.87, chunks[0].SearchScore, 0.001)
}

func TestRetrieveDeduplicatesBySection(t *testing.T) {
	repo := &fakeChunkRepo{
		hybrid: map[string][]*contract.ScoredChunk{
			"88231": {
				scored("low", "88231", "specs", 0.6, 0.6, 0.0),
				scored("high", "88231", "specs", 0.9, 0.9, 0.0),
				scored("faq", "88231", "faq", 0.7, 0.7, 0.0),
			},
		},
	}
	eng := newTestEngine(repo, &fakeEmbedder{}, DefaultConfig())

	chunks := eng.Retrieve(t.Context(), Request{SKU: "88231", Query: "ports"})

	require.Len(t, chunks, 2)
	ids := []string{chunks[0].ChunkID, chunks[1].ChunkID}
	assert.Contains(t, ids, "high")
	assert.Contains(t, ids, "faq")
	assert.NotContains(t, ids, "low")
}

func TestRetrieveCompareListCoversEverySKU(t *testing.T) {
	// SKU A dominates on raw score; the budget still has to hold one chunk
	// for every compared SKU.
	repo := &fakeChunkRepo{
		hybrid: map[string][]*contract.ScoredChunk{
			"A": {
				scored("a1", "A", "specs", 0.95, 0.95, 0.0),
				scored("a2", "A", "review", 0.9, 0.9, 0.0),
				scored("a3", "A", "faq", 0.85, 0.85, 0.0),
			},
			"B": {
				scored("b1", "B", "specs", 0.6, 0.6, 0.0),
				scored("b2", "B", "review", 0.55, 0.55, 0.0),
			},
			"C": {
				scored("c1", "C", "specs", 0.5, 0.5, 0.0),
			},
		},
	}
	cfg := DefaultConfig()
	cfg.ChunkBudget = 4
	eng := newTestEngine(repo, &fakeEmbedder{}, cfg)

	chunks := eng.Retrieve(t.Context(), Request{
		Query:       "which one is better",
		CompareList: []string{"A", "B", "C"},
	})

	require.Len(t, chunks, 4)
	seen := map[string]bool{}
	for _, c := range chunks {
		seen[c.SKU] = true
	}
	assert.True(t, seen["A"], "compared SKU A missing from results")
	assert.True(t, seen["B"], "compared SKU B missing from results")
	assert.True(t, seen["C"], "compared SKU C missing from results")

	// One search per compared SKU.
	assert.ElementsMatch(t, []string{"A", "B", "C"}, repo.hybridSKUs)
}

func TestRetrieveGeneralSearchIsUnfiltered(t *testing.T) {
	repo := &fakeChunkRepo{
		hybrid: map[string][]*contract.ScoredChunk{
			"": {
				scored("x1", "74102", "overview", 0.8, 0.8, 0.0),
				scored("x2", "74188", "overview", 0.75, 0.75, 0.0),
			},
		},
	}
	eng := newTestEngine(repo, &fakeEmbedder{}, DefaultConfig())

	chunks := eng.Retrieve(t.Context(), Request{Query: "laptop under 1000"})

	require.Len(t, chunks, 2)
	assert.Equal(t, []string{""}, repo.hybridSKUs)
}

func TestRetrieveFallsBackToPlainSearch(t *testing.T) {
	repo := &fakeChunkRepo{
		hybridErr: errors.New("pgvector down"),
		plain: []*store.Chunk{
			{ChunkID: "p1", SKU: "88231", SectionType: "specs"},
		},
	}
	eng := newTestEngine(repo, &fakeEmbedder{}, DefaultConfig())

	chunks := eng.Retrieve(t.Context(), Request{SKU: "88231", Query: "hdmi"})

	require.Len(t, chunks, 1)
	assert.Equal(t, "p1", chunks[0].ChunkID)
	assert.Equal(t, 1, repo.plainCalls)
}

func TestRetrieveEmitsIntentPlaceholderWhenEmpty(t *testing.T) {
	repo := &fakeChunkRepo{hybrid: map[string][]*contract.ScoredChunk{}}
	eng := newTestEngine(repo, &fakeEmbedder{}, DefaultConfig())

	chunks := eng.Retrieve(t.Context(), Request{
		SKU:           "88231",
		Query:         "anything",
		IntentSummary: "wants it for gaming; budget up to $1500",
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "intent_summary", chunks[0].SectionType)
	assert.Equal(t, "wants it for gaming; budget up to $1500", chunks[0].SectionBody)
}

func TestRetrieveTotalFailureWithoutSummaryIsEmpty(t *testing.T) {
	repo := &fakeChunkRepo{hybridErr: errors.New("down"), plainErr: errors.New("down")}
	eng := newTestEngine(repo, &fakeEmbedder{}, DefaultConfig())

	chunks := eng.Retrieve(t.Context(), Request{SKU: "88231", Query: "hdmi"})

	assert.Empty(t, chunks)
}
