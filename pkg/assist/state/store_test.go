package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Hour, time.Hour)

	_, found := s.Get(t.Context(), "conv-1")
	assert.False(t, found)

	st := New("conv-1", "STORE-01")
	st.ActiveSKU = "88231"
	require.NoError(t, s.Save(t.Context(), st))

	got, found := s.Get(t.Context(), "conv-1")
	require.True(t, found)
	assert.Equal(t, "88231", got.ActiveSKU)
	assert.Equal(t, "STORE-01", got.StoreID)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(time.Hour, time.Hour)
	require.NoError(t, s.Save(t.Context(), New("conv-1", "STORE-01")))
	require.NoError(t, s.Delete(t.Context(), "conv-1"))

	_, found := s.Get(t.Context(), "conv-1")
	assert.False(t, found)
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	s := NewMemoryStore(20*time.Millisecond, 5*time.Millisecond)
	require.NoError(t, s.Save(t.Context(), New("conv-1", "STORE-01")))

	time.Sleep(60 * time.Millisecond)

	_, found := s.Get(t.Context(), "conv-1")
	assert.False(t, found)
}

func TestMemoryStoreIsolatesConversations(t *testing.T) {
	s := NewMemoryStore(time.Hour, time.Hour)

	a := New("conv-a", "STORE-01")
	a.ActiveSKU = "11111"
	b := New("conv-b", "STORE-01")
	b.ActiveSKU = "22222"
	require.NoError(t, s.Save(t.Context(), a))
	require.NoError(t, s.Save(t.Context(), b))

	gotA, _ := s.Get(t.Context(), "conv-a")
	gotB, _ := s.Get(t.Context(), "conv-b")
	assert.Equal(t, "11111", gotA.ActiveSKU)
	assert.Equal(t, "22222", gotB.ActiveSKU)
}

func TestCloneIsDeep(t *testing.T) {
	budget := 1500.0
	st := New("conv-1", "STORE-01")
	st.ActiveSKU = "88231"
	st.RecentSKUs = []string{"11111"}
	st.BudgetCap = &budget
	st.Constraints.MustHave = []string{"120hz_refresh"}
	st.PushTurn("q1", "a1", time.Now())

	c := st.Clone()
	c.ActiveSKU = "99999"
	c.RecentSKUs = append(c.RecentSKUs, "22222")
	*c.BudgetCap = 900
	c.Constraints.MustHave = append(c.Constraints.MustHave, "hdmi_21")
	c.PushTurn("q2", "a2", time.Now())

	assert.Equal(t, "88231", st.ActiveSKU)
	assert.Equal(t, []string{"11111"}, st.RecentSKUs)
	assert.Equal(t, 1500.0, *st.BudgetCap)
	assert.Equal(t, []string{"120hz_refresh"}, st.Constraints.MustHave)
	assert.Len(t, st.TurnHistory, 1)
}

func TestPushTurnEvictsOldest(t *testing.T) {
	st := New("conv-1", "STORE-01")
	for i := 0; i < MaxTurnHistory+3; i++ {
		st.PushTurn(fmt.Sprintf("q%d", i), "a", time.Now())
	}

	require.Len(t, st.TurnHistory, MaxTurnHistory)
	assert.Equal(t, "q3", st.TurnHistory[0].Question)
	assert.Equal(t, fmt.Sprintf("q%d", MaxTurnHistory+2), st.TurnHistory[MaxTurnHistory-1].Question)
}
