package contextmgr

import (
	"testing"
	"time"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	store := state.NewMemoryStore(time.Minute, time.Minute)
	return NewManager(store, logger.NewNopLogger())
}

func floatPtr(v float64) *float64 { return &v }

func TestUpdateNewProductPushesOldActive(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"

	next := m.Update(st, &entity.ResolvedEntities{ActiveSKU: "74102"}, intent.Intent{Type: intent.ProductDeepdive}, "tell me about the laptop")

	assert.Equal(t, "74102", next.ActiveSKU)
	assert.Equal(t, []string{"88231"}, next.RecentSKUs)
	// input state untouched
	assert.Equal(t, "88231", st.ActiveSKU)
}

func TestUpdateComparisonKeepsActiveSKU(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"

	ents := &entity.ResolvedEntities{ActiveSKU: "88245", CandidateSKUs: []string{"88245", "88260"}}
	next := m.Update(st, ents, intent.Intent{Type: intent.Comparison, NeedCompare: true}, "versus the Q7")

	assert.Equal(t, "88231", next.ActiveSKU)
	assert.ElementsMatch(t, []string{"88245", "88260"}, next.RecentSKUs)
}

func TestUpdateCategoryBrandFirstWriteWins(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")
	st.ActiveCategory = "tv"

	next := m.Update(st, &entity.ResolvedEntities{Category: "laptop", Brand: "Nimbus"}, intent.Intent{Type: intent.ProductDiscovery}, "q")

	assert.Equal(t, "tv", next.ActiveCategory)
	assert.Equal(t, "Nimbus", next.ActiveBrand)
}

func TestUpdateBudgetAndUseCaseLastWins(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")
	st.BudgetCap = floatPtr(500)
	st.UseCase = "gaming"

	next := m.Update(st, &entity.ResolvedEntities{Budget: floatPtr(1200), UseCase: "home office"}, intent.Intent{Type: intent.ProductDiscovery}, "q")

	require.NotNil(t, next.BudgetCap)
	assert.Equal(t, 1200.0, *next.BudgetCap)
	assert.Equal(t, "home office", next.UseCase)
}

func TestUpdateConstraintsGrowOnly(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")

	next := m.Update(st, &entity.ResolvedEntities{}, intent.Intent{Type: intent.ProductDiscovery},
		"it must have 120hz, ideally with dolby atmos, around 65 inch")

	assert.Contains(t, next.Constraints.MustHave, "120hz_refresh")
	assert.Contains(t, next.Constraints.NiceToHave, "dolby_atmos")
	assert.Equal(t, "65\"", next.Constraints.Size)

	// A later turn with no constraint language never shrinks the sets.
	later := m.Update(next, &entity.ResolvedEntities{}, intent.Intent{Type: intent.ProductDeepdive}, "is it in stock")
	assert.Contains(t, later.Constraints.MustHave, "120hz_refresh")
	assert.Contains(t, later.Constraints.NiceToHave, "dolby_atmos")
}

// Applying the same update twice from the resulting state must be a no-op.
func TestUpdateConstraintOrderIsStable(t *testing.T) {
	m := testManager(t)

	// Identical turns always serialize the same way; extraction walks the
	// feature table in sorted keyword order.
	want := m.Update(state.New("c1", "s1"), &entity.ResolvedEntities{},
		intent.Intent{Type: intent.ProductDiscovery},
		"it must have wifi 6, oled and bluetooth")
	assert.Equal(t, []string{"bluetooth", "oled_panel", "wifi_6"}, want.Constraints.MustHave)

	for i := 0; i < 20; i++ {
		got := m.Update(state.New("c1", "s1"), &entity.ResolvedEntities{},
			intent.Intent{Type: intent.ProductDiscovery},
			"it must have wifi 6, oled and bluetooth")
		assert.Equal(t, want.Constraints.MustHave, got.Constraints.MustHave)
	}
}

func TestUpdateIdempotent(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"

	ents := &entity.ResolvedEntities{ActiveSKU: "74102", Category: "laptop", Budget: floatPtr(1000)}
	in := intent.Intent{Type: intent.ProductDeepdive}
	text := "tell me about the laptop, must have ssd"

	once := m.Update(st, ents, in, text)
	twice := m.Update(once, ents, in, text)

	assert.Equal(t, once.ActiveSKU, twice.ActiveSKU)
	assert.Equal(t, once.RecentSKUs, twice.RecentSKUs)
	assert.Equal(t, once.Constraints, twice.Constraints)
	assert.Equal(t, once.ActiveCategory, twice.ActiveCategory)
}

// The active SKU may never appear in recent_skus.
func TestRecentSKUsExcludeActive(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")

	skus := []string{"11111", "22222", "33333", "22222"}
	for _, sku := range skus {
		st = m.Update(st, &entity.ResolvedEntities{ActiveSKU: sku}, intent.Intent{Type: intent.ProductDeepdive}, "q")
	}

	assert.Equal(t, "22222", st.ActiveSKU)
	assert.NotContains(t, st.RecentSKUs, st.ActiveSKU)
	assert.Equal(t, []string{"11111", "33333"}, st.RecentSKUs)
}

func TestLoadLazyDefault(t *testing.T) {
	m := testManager(t)

	st := m.Load(t.Context(), "fresh", "STORE-01")

	require.NotNil(t, st)
	assert.Equal(t, "fresh", st.ConversationID)
	assert.Equal(t, "STORE-01", st.StoreID)
	assert.Empty(t, st.ActiveSKU)
}

func TestLoadReturnsClone(t *testing.T) {
	m := testManager(t)
	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"
	require.NoError(t, m.Save(t.Context(), st))

	loaded := m.Load(t.Context(), "c1", "s1")
	loaded.ActiveSKU = "mutated"

	again := m.Load(t.Context(), "c1", "s1")
	assert.Equal(t, "88231", again.ActiveSKU)
}
