package entity

import (
	"context"
	"errors"
	"testing"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	searchResults []*store.ProductRecord
	searchErr     error
	bySKU         map[string]*store.ProductRecord
}

func (f *fakeSearcher) SearchByText(_ context.Context, _ string, limit int) ([]*store.ProductRecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.searchResults) > limit {
		return f.searchResults[:limit], nil
	}
	return f.searchResults, nil
}

func (f *fakeSearcher) GetBySKU(_ context.Context, sku string) (*store.ProductRecord, error) {
	return f.bySKU[sku], nil
}

func newResolverWith(products ProductSearcher) *Resolver {
	return NewResolver(products, logger.NewNopLogger())
}

func TestResolveBudget(t *testing.T) {
	r := newResolverWith(&fakeSearcher{})

	tests := []struct {
		text string
		want float64
	}{
		{"laptop under 1000", 1000},
		{"tv around 1500 or so", 1500},
		{"something below 2k", 2000},
		{"I have $750 to spend", 750},
		{"max 1.5k for the whole setup", 1500},
	}

	for _, tt := range tests {
		got := r.Resolve(t.Context(), tt.text, nil)
		require.NotNil(t, got.Budget, "text: %s", tt.text)
		assert.Equal(t, tt.want, *got.Budget, "text: %s", tt.text)
	}
}

func TestResolveBudgetFallsBackToState(t *testing.T) {
	r := newResolverWith(&fakeSearcher{})
	st := state.New("c1", "s1")
	cap := 800.0
	st.BudgetCap = &cap

	got := r.Resolve(t.Context(), "what colors does it come in", st)

	require.NotNil(t, got.Budget)
	assert.Equal(t, 800.0, *got.Budget)
}

func TestResolveUseCaseCategoryBrand(t *testing.T) {
	r := newResolverWith(&fakeSearcher{})

	got := r.Resolve(t.Context(), "a samsung tv for gaming", nil)

	assert.Equal(t, "gaming", got.UseCase)
	assert.Equal(t, "televisions", got.Category)
	assert.Equal(t, "Samsung", got.Brand)
}

func TestResolveExplicitSKUShortCircuits(t *testing.T) {
	searcher := &fakeSearcher{
		bySKU: map[string]*store.ProductRecord{
			"12345": {SKU: "12345", Category: "televisions", Brand: "Vanta"},
		},
	}
	r := newResolverWith(searcher)

	got := r.Resolve(t.Context(), "Is SKU 12345 good for gaming?", nil)

	assert.Equal(t, "12345", got.ActiveSKU)
	assert.Equal(t, "televisions", got.Category)
	assert.Equal(t, "Vanta", got.Brand)
	assert.False(t, got.GeneralRecommendation)
	assert.Empty(t, got.CandidateSKUs)
}

func TestResolveGeneralRecommendationBranch(t *testing.T) {
	searcher := &fakeSearcher{
		searchResults: []*store.ProductRecord{
			{SKU: "74102"}, {SKU: "74188"}, {SKU: "74190"},
		},
	}
	r := newResolverWith(searcher)

	got := r.Resolve(t.Context(), "laptop under 1000", nil)

	assert.True(t, got.GeneralRecommendation)
	assert.Empty(t, got.ActiveSKU, "general recommendations must not lock onto one SKU")
	assert.Equal(t, []string{"74102", "74188", "74190"}, got.CandidateSKUs)
}

func TestResolveSpecificProductSetsTopHit(t *testing.T) {
	searcher := &fakeSearcher{
		searchResults: []*store.ProductRecord{
			{SKU: "88231", Category: "televisions", Brand: "Vanta"},
		},
	}
	r := newResolverWith(searcher)
	st := state.New("c1", "s1")
	st.ActiveSKU = "74102" // prior focus disables the general branch

	got := r.Resolve(t.Context(), "the vanta bravia style tv", st)

	assert.Equal(t, "88231", got.ActiveSKU)
	assert.False(t, got.GeneralRecommendation)
}

func TestResolveSearchFailureDegradesToState(t *testing.T) {
	searcher := &fakeSearcher{searchErr: errors.New("catalog down")}
	r := newResolverWith(searcher)
	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"
	st.ActiveCategory = "televisions"

	got := r.Resolve(t.Context(), "tell me about the tv", st)

	assert.Equal(t, "88231", got.ActiveSKU)
	assert.Equal(t, "televisions", got.Category)
}

func TestResolveInheritsActiveSKUOnFollowUp(t *testing.T) {
	r := newResolverWith(&fakeSearcher{})
	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"

	got := r.Resolve(t.Context(), "what about nearby stores", st)

	assert.Equal(t, "88231", got.ActiveSKU)
}
