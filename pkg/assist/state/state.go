package state

import "time"

// MaxTurnHistory bounds the per-conversation turn log. Oldest entries are
// evicted first.
const MaxTurnHistory = 10

// MaxRecentSKUs bounds the recently-discussed product list.
const MaxRecentSKUs = 10

// Constraints accumulates hard and soft requirements across turns. Sets only
// grow; they are never shrunk by later turns.
type Constraints struct {
	Size       string   `json:"size,omitempty"`
	MustHave   []string `json:"must_have"`
	NiceToHave []string `json:"nice_to_have"`
}

// TurnRecord is one question/answer cycle kept in the bounded history.
type TurnRecord struct {
	Question      string    `json:"question"`
	AnswerSummary string    `json:"answer_summary"`
	Timestamp     time.Time `json:"timestamp"`
}

// ConversationState is the per-conversation memory read at turn start and
// written back at turn end. It is keyed strictly by conversation id; turns on
// different conversations never share a state object.
type ConversationState struct {
	ConversationID string       `json:"conversation_id"`
	StoreID        string       `json:"store_id"`
	ActiveSKU      string       `json:"active_sku"`
	RecentSKUs     []string     `json:"recent_skus"` // most-recent-last, deduplicated
	ActiveCategory string       `json:"active_category"`
	ActiveBrand    string       `json:"active_brand"`
	BudgetCap      *float64     `json:"budget_cap"`
	UseCase        string       `json:"use_case"`
	Constraints    Constraints  `json:"constraints"`
	TurnHistory    []TurnRecord `json:"turn_history"`
}

// New returns a default-valued state for a conversation. States are created
// lazily on the first turn of a conversation id.
func New(conversationID, storeID string) *ConversationState {
	return &ConversationState{
		ConversationID: conversationID,
		StoreID:        storeID,
		RecentSKUs:     []string{},
		Constraints:    Constraints{MustHave: []string{}, NiceToHave: []string{}},
		TurnHistory:    []TurnRecord{},
	}
}

// Clone returns a deep copy so a turn can mutate state without aliasing the
// stored object.
func (s *ConversationState) Clone() *ConversationState {
	c := *s
	c.RecentSKUs = append([]string{}, s.RecentSKUs...)
	c.Constraints.MustHave = append([]string{}, s.Constraints.MustHave...)
	c.Constraints.NiceToHave = append([]string{}, s.Constraints.NiceToHave...)
	c.TurnHistory = append([]TurnRecord{}, s.TurnHistory...)
	if s.BudgetCap != nil {
		v := *s.BudgetCap
		c.BudgetCap = &v
	}
	return &c
}

// PushTurn appends a turn record, evicting the oldest entry once the cap is
// reached.
func (s *ConversationState) PushTurn(question, answerSummary string, at time.Time) {
	s.TurnHistory = append(s.TurnHistory, TurnRecord{
		Question:      question,
		AnswerSummary: answerSummary,
		Timestamp:     at,
	})
	if len(s.TurnHistory) > MaxTurnHistory {
		s.TurnHistory = s.TurnHistory[len(s.TurnHistory)-MaxTurnHistory:]
	}
}
