package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/internal/repository/contract"
	"shopassist-be/pkg/assist/condense"
	"shopassist-be/pkg/assist/contextmgr"
	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/retrieval"
	"shopassist-be/pkg/assist/rewrite"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/assist/synth"
	"shopassist-be/pkg/embedding"
	"shopassist-be/pkg/llm"
	"shopassist-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return f.response, f.err
}

type fakeEmbedder struct{}

func (f *fakeEmbedder) Generate(_ string, _ string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

type fakeChunks struct {
	bySKU map[string][]*contract.ScoredChunk
}

func (f *fakeChunks) SearchHybridWithScore(_ context.Context, _ []float32, _ string, params contract.ChunkSearchParams) ([]*contract.ScoredChunk, error) {
	return f.bySKU[params.Sku], nil
}

func (f *fakeChunks) SearchSimilar(_ context.Context, _ []float32, _ contract.ChunkSearchParams) ([]*store.Chunk, error) {
	return nil, nil
}

type fakeProducts struct {
	bySKU map[string]*store.ProductRecord
}

func (f *fakeProducts) GetBySKU(_ context.Context, sku string) (*store.ProductRecord, error) {
	if p, ok := f.bySKU[sku]; ok {
		return p, nil
	}
	return nil, errors.New("product not found")
}

func (f *fakeProducts) FindBySKUs(_ context.Context, skus []string) ([]*store.ProductRecord, error) {
	out := []*store.ProductRecord{}
	for _, sku := range skus {
		if p, ok := f.bySKU[sku]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) SearchByText(_ context.Context, _ string, _ int) ([]*store.ProductRecord, error) {
	out := []*store.ProductRecord{}
	for _, p := range f.bySKU {
		out = append(out, p)
	}
	return out, nil
}

type fakeAvailability struct {
	bySKU map[string]*store.Availability
	calls int
}

func (f *fakeAvailability) GetAvailability(_ context.Context, sku, storeID string) (*store.Availability, error) {
	f.calls++
	if a, ok := f.bySKU[sku]; ok {
		return a, nil
	}
	return &store.Availability{SKU: sku, StoreID: storeID, InStock: 0}, nil
}

func hit(id, sku, section, body string, sim float64) *contract.ScoredChunk {
	return &contract.ScoredChunk{
		Chunk: &store.Chunk{
			ChunkID: id, SKU: sku, SectionType: section,
			SectionTitle: section, SectionBody: body,
		},
		Similarity:   sim,
		LexicalScore: sim,
	}
}

func catalogFixture() (*fakeChunks, *fakeProducts, *fakeAvailability) {
	chunks := &fakeChunks{bySKU: map[string][]*contract.ScoredChunk{
		"88231": {
			hit("88231-specs", "88231", "specs", "65-inch OLED with a 120Hz refresh rate and HDMI 2.1.", 0.9),
			hit("88231-faq", "88231", "faq", "Two-year warranty. Wall-mount compatible.", 0.7),
		},
		"": {
			hit("74102-overview", "74102", "overview", "Light 14-inch laptop with all-day battery.", 0.85),
			hit("74188-overview", "74188", "overview", "16-inch creator laptop with a 120Hz display.", 0.8),
		},
	}}
	products := &fakeProducts{bySKU: map[string]*store.ProductRecord{
		"88231": {SKU: "88231", Name: "Vanta X9", Brand: "Vanta", Category: "tv", Price: 1799},
		"74102": {SKU: "74102", Name: "Nimbus Air 14", Brand: "Nimbus", Category: "laptop", Price: 949},
		"74188": {SKU: "74188", Name: "Nimbus Pro 16", Brand: "Nimbus", Category: "laptop", Price: 1649},
	}}
	availability := &fakeAvailability{bySKU: map[string]*store.Availability{
		"88231": {SKU: "88231", StoreID: "STORE-01", InStock: 4,
			NearbyStock: []store.NearbyStock{{StoreID: "STORE-02", StoreName: "Riverside", InStock: 2}}},
	}}
	return chunks, products, availability
}

// newTestExecutor wires real stages around fakes at the network edges. The
// model is only used for synthesis; rewrite and condense run their
// deterministic paths.
func newTestExecutor(model llm.LLMProvider, chunks contract.ChunkRepository, products *fakeProducts, availability contract.AvailabilityRepository) (*TurnExecutor, state.Store) {
	log := logger.NewNopLogger()
	states := state.NewMemoryStore(time.Hour, time.Hour)
	exec := NewTurnExecutor(
		intent.NewRouter(),
		entity.NewResolver(products, log),
		contextmgr.NewManager(states, log),
		rewrite.NewRewriter(nil, log),
		retrieval.NewEngine(chunks, &fakeEmbedder{}, retrieval.DefaultConfig(), log),
		condense.NewCondenser(nil, log),
		synth.NewSynthesizer(model, log),
		products,
		availability,
		log,
		0,
	)
	return exec, states
}

func TestExecuteRejectsEmptyQuestion(t *testing.T) {
	chunks, products, availability := catalogFixture()
	exec, _ := newTestExecutor(&fakeLLM{}, chunks, products, availability)

	_, err := exec.Execute(t.Context(), TurnRequest{ConversationID: "c1", StoreID: "STORE-01", UserText: "   "})

	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestExecuteAssignsConversationID(t *testing.T) {
	chunks, products, availability := catalogFixture()
	exec, _ := newTestExecutor(&fakeLLM{response: `{"summary": "A fine product overall."}`}, chunks, products, availability)

	res, err := exec.Execute(t.Context(), TurnRequest{StoreID: "STORE-01", UserText: "tell me about SKU 88231"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.ConversationID)
}

func TestExecuteDeepdiveOnExplicitSKU(t *testing.T) {
	chunks, products, availability := catalogFixture()
	model := &fakeLLM{response: `{
		"summary": "Yes, the X9 suits gaming thanks to its 120Hz panel.",
		"key_points": ["120Hz refresh rate", "HDMI 2.1"],
		"citations": ["88231-specs"]
	}`}
	exec, states := newTestExecutor(model, chunks, products, availability)

	res, err := exec.Execute(t.Context(), TurnRequest{
		ConversationID: "c1",
		StoreID:        "STORE-01",
		UserText:       "Is SKU 88231 good for gaming?",
	})

	require.NoError(t, err)
	assert.Equal(t, intent.ProductDeepdive, res.Intent.Type)
	assert.Equal(t, synth.TierLLMJSON, res.Answer.Tier)
	assert.Greater(t, res.ChunkCount, 0)

	// Citations only ever reference chunks of the asked-about product.
	require.NotEmpty(t, res.Answer.Citations)
	for _, id := range res.Answer.Citations {
		assert.True(t, strings.HasPrefix(id, "88231-"), id)
	}

	st, found := states.Get(t.Context(), "c1")
	require.True(t, found)
	assert.Equal(t, "88231", st.ActiveSKU)
	require.Len(t, st.TurnHistory, 1)
	assert.Equal(t, "Is SKU 88231 good for gaming?", st.TurnHistory[0].Question)
}

func TestExecuteGeneralDiscoverySpansProducts(t *testing.T) {
	chunks, products, availability := catalogFixture()
	model := &fakeLLM{response: `{"summary": "Two laptops fit that budget."}`}
	exec, states := newTestExecutor(model, chunks, products, availability)

	res, err := exec.Execute(t.Context(), TurnRequest{
		ConversationID: "c2",
		StoreID:        "STORE-01",
		UserText:       "recommend a laptop under 1000",
	})

	require.NoError(t, err)
	assert.Equal(t, intent.ProductDiscovery, res.Intent.Type)

	skus := map[string]bool{}
	for _, id := range res.Answer.Citations {
		skus[strings.SplitN(id, "-", 2)[0]] = true
	}
	assert.GreaterOrEqual(t, len(skus), 2, "discovery should surface more than one product")

	st, found := states.Get(t.Context(), "c2")
	require.True(t, found)
	assert.Empty(t, st.ActiveSKU)
	require.NotNil(t, st.BudgetCap)
	assert.Equal(t, 1000.0, *st.BudgetCap)
}

func TestExecuteFollowUpInheritsActiveProduct(t *testing.T) {
	chunks, products, availability := catalogFixture()
	model := &fakeLLM{response: `{"summary": "There is stock nearby."}`}
	exec, states := newTestExecutor(model, chunks, products, availability)

	_, err := exec.Execute(t.Context(), TurnRequest{
		ConversationID: "c3", StoreID: "STORE-01", UserText: "Is SKU 88231 good for gaming?",
	})
	require.NoError(t, err)

	res, err := exec.Execute(t.Context(), TurnRequest{
		ConversationID: "c3", StoreID: "STORE-01", UserText: "what about nearby stores?",
	})
	require.NoError(t, err)

	st, found := states.Get(t.Context(), "c3")
	require.True(t, found)
	assert.Equal(t, "88231", st.ActiveSKU)
	assert.Len(t, st.TurnHistory, 2)

	require.NotNil(t, res.Answer.Stock)
	assert.Equal(t, "88231", res.Answer.Stock.SKU)
	require.Len(t, res.Answer.Stock.NearbyStores, 1)
	assert.Equal(t, "Riverside", res.Answer.Stock.NearbyStores[0].StoreName)
	assert.Greater(t, availability.calls, 0)
}

func TestExecuteModelOutageStillAnswers(t *testing.T) {
	chunks, products, availability := catalogFixture()
	exec, _ := newTestExecutor(&fakeLLM{err: errors.New("model down")}, chunks, products, availability)

	res, err := exec.Execute(t.Context(), TurnRequest{
		ConversationID: "c4", StoreID: "STORE-01", UserText: "Is SKU 88231 good for gaming?",
	})

	require.NoError(t, err)
	assert.Equal(t, synth.TierContextOnly, res.Answer.Tier)
	assert.NotEmpty(t, res.Answer.Summary)
	assert.Contains(t, res.Answer.ComplianceFlags, "degraded_answer")
}
