package rewrite

import (
	"context"
	"errors"
	"testing"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/llm"

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

func TestRewriteLLMPath(t *testing.T) {
	provider := &fakeLLM{response: "```json\n{\"resolved_query\":\"Vanta X9 65 inch OLED gaming\",\"filters\":{\"category\":\"televisions\"},\"compare_list\":[],\"constraints\":[\"120hz_refresh\"]}\n```"}
	r := NewRewriter(provider, logger.NewNopLogger())

	q := r.Rewrite(t.Context(), "is it good for gaming", state.New("c1", "s1"), &entity.ResolvedEntities{}, intent.Intent{Type: intent.ProductDeepdive})

	assert.Equal(t, "Vanta X9 65 inch OLED gaming", q.ResolvedQuery)
	assert.Equal(t, "televisions", q.Filters.Category)
	assert.Equal(t, []string{"120hz_refresh"}, q.Constraints)
}

func TestRewriteRepairsTruncatedJSON(t *testing.T) {
	provider := &fakeLLM{response: `{"resolved_query":"laptop under 1000 for study","compare_list":["74102"`}
	r := NewRewriter(provider, logger.NewNopLogger())

	q := r.Rewrite(t.Context(), "laptop under 1000", state.New("c1", "s1"), &entity.ResolvedEntities{}, intent.Intent{Type: intent.ProductDiscovery})

	assert.Equal(t, "laptop under 1000 for study", q.ResolvedQuery)
	assert.Equal(t, []string{"74102"}, q.CompareList)
}

func TestRewriteFallsBackOnLLMError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model unavailable")}
	r := NewRewriter(provider, logger.NewNopLogger())

	st := state.New("c1", "s1")
	st.ActiveCategory = "laptops"
	budget := 1000.0
	ents := &entity.ResolvedEntities{Brand: "Nimbus", Budget: &budget, UseCase: "study"}

	q := r.Rewrite(t.Context(), "something light", st, ents, intent.Intent{Type: intent.ProductDiscovery})

	require.NotNil(t, q)
	assert.Contains(t, q.ResolvedQuery, "something light")
	assert.Contains(t, q.ResolvedQuery, "laptops")
	assert.Contains(t, q.ResolvedQuery, "Nimbus")
	assert.Contains(t, q.ResolvedQuery, "under $1000")
	assert.Equal(t, "laptops", q.Filters.Category)
	require.NotNil(t, q.Filters.PriceMax)
	assert.Equal(t, 1000.0, *q.Filters.PriceMax)
}

func TestRewriteFallsBackOnGarbageOutput(t *testing.T) {
	provider := &fakeLLM{response: "I'd be happy to help with that!"}
	r := NewRewriter(provider, logger.NewNopLogger())

	q := r.Rewrite(t.Context(), "tv for sports", state.New("c1", "s1"), &entity.ResolvedEntities{Category: "televisions"}, intent.Intent{Type: intent.ProductDiscovery})

	require.NotNil(t, q)
	assert.Contains(t, q.ResolvedQuery, "tv for sports")
}

func TestRewriteNilProviderUsesDeterministicPath(t *testing.T) {
	r := NewRewriter(nil, logger.NewNopLogger())

	q := r.Rewrite(t.Context(), "anything", state.New("c1", "s1"), &entity.ResolvedEntities{}, intent.Intent{Type: intent.GeneralInfo})

	require.NotNil(t, q)
	assert.Contains(t, q.ResolvedQuery, "anything")
}

// With need_compare set, the active SKU must lead the compare list regardless
// of what the model returned.
func TestRewriteCompareInvariant(t *testing.T) {
	provider := &fakeLLM{response: `{"resolved_query":"compare tvs","compare_list":["88245","88260"]}`}
	r := NewRewriter(provider, logger.NewNopLogger())

	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"
	ents := &entity.ResolvedEntities{CandidateSKUs: []string{"88245"}}

	q := r.Rewrite(t.Context(), "which is better", st, ents, intent.Intent{Type: intent.Comparison, NeedCompare: true})

	require.NotEmpty(t, q.CompareList)
	assert.Equal(t, "88231", q.CompareList[0])
	assert.Contains(t, q.CompareList, "88245")
	assert.Contains(t, q.CompareList, "88260")
	assert.LessOrEqual(t, len(q.CompareList), MaxCompareList)
}

func TestRewriteDeterministicCompareFromState(t *testing.T) {
	r := NewRewriter(nil, logger.NewNopLogger())

	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"
	st.RecentSKUs = []string{"88245", "74102"}

	q := r.Rewrite(t.Context(), "compare them", st, &entity.ResolvedEntities{}, intent.Intent{Type: intent.Comparison, NeedCompare: true})

	assert.Equal(t, "88231", q.CompareList[0])
	assert.Contains(t, q.CompareList, "88245")
	assert.Contains(t, q.CompareList, "74102")
}
