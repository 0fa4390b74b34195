package contextmgr

import (
	"context"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/state"
)

// Manager applies the conversation-state transition rules. Update is a pure
// rule-based mapping: the same (state, entities, intent, text) always yields
// the same next state, and applying it twice is a no-op (idempotent).
type Manager struct {
	states state.Store
	log    logger.ILogger
}

func NewManager(states state.Store, log logger.ILogger) *Manager {
	return &Manager{states: states, log: log}
}

// Load returns the stored state for a conversation, creating a default-valued
// one lazily on first use.
func (m *Manager) Load(ctx context.Context, conversationID, storeID string) *state.ConversationState {
	if st, found := m.states.Get(ctx, conversationID); found {
		return st.Clone()
	}
	return state.New(conversationID, storeID)
}

// Save writes the turn's final state back to the store.
func (m *Manager) Save(ctx context.Context, st *state.ConversationState) error {
	return m.states.Save(ctx, st)
}

// Update folds resolved entities and intent into conversation state:
//
//   - new product different from current active: old active is pushed onto
//     recent_skus (deduplicated), new product becomes active
//   - comparison intent with an existing active SKU keeps the active SKU and
//     only accumulates candidates
//   - category/brand are first-write-wins
//   - budget/use-case are latest-utterance-wins
//   - size/feature constraints merge with set semantics, never shrinking
func (m *Manager) Update(st *state.ConversationState, ents *entity.ResolvedEntities, in intent.Intent, rawText string) *state.ConversationState {
	next := st.Clone()

	comparison := in.Type == intent.Comparison && next.ActiveSKU != ""

	if ents.ActiveSKU != "" && ents.ActiveSKU != next.ActiveSKU && !comparison {
		if next.ActiveSKU != "" {
			next.RecentSKUs = pushRecent(next.RecentSKUs, next.ActiveSKU)
		}
		next.ActiveSKU = ents.ActiveSKU
		// the new active SKU must never linger in the recent list
		next.RecentSKUs = removeSKU(next.RecentSKUs, next.ActiveSKU)
	}

	if comparison {
		for _, sku := range ents.CandidateSKUs {
			if sku != next.ActiveSKU {
				next.RecentSKUs = pushRecent(next.RecentSKUs, sku)
			}
		}
	}

	if ents.Category != "" && next.ActiveCategory == "" {
		next.ActiveCategory = ents.Category
	}
	if ents.Brand != "" && next.ActiveBrand == "" {
		next.ActiveBrand = ents.Brand
	}

	if ents.Budget != nil {
		v := *ents.Budget
		next.BudgetCap = &v
	}
	if ents.UseCase != "" {
		next.UseCase = ents.UseCase
	}

	delta := extractConstraints(rawText)
	if delta.size != "" {
		next.Constraints.Size = delta.size
	}
	next.Constraints.MustHave = mergeSet(next.Constraints.MustHave, delta.mustHave)
	next.Constraints.NiceToHave = mergeSet(next.Constraints.NiceToHave, delta.niceToHave)

	m.log.Debug("context", "state updated", map[string]interface{}{
		"conversation_id": next.ConversationID,
		"active_sku":      next.ActiveSKU,
		"recent_skus":     len(next.RecentSKUs),
		"intent":          string(in.Type),
	})

	return next
}

// pushRecent appends sku most-recent-last with dedup and a hard cap.
func pushRecent(recents []string, sku string) []string {
	recents = removeSKU(recents, sku)
	recents = append(recents, sku)
	if len(recents) > state.MaxRecentSKUs {
		recents = recents[len(recents)-state.MaxRecentSKUs:]
	}
	return recents
}

func removeSKU(recents []string, sku string) []string {
	out := recents[:0]
	for _, s := range recents {
		if s != sku {
			out = append(out, s)
		}
	}
	return out
}
