package dto

import (
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/assist/synth"
)

// SendTurnRequest is one staff question within a conversation. A missing
// user_text is the only input rejected outright.
type SendTurnRequest struct {
	ConversationID string `json:"conversation_id"`
	StoreID        string `json:"store_id"`
	UserText       string `json:"user_text" validate:"required"`
	Sku            string `json:"sku,omitempty"`
}

// SendTurnResponse wraps the structured answer with turn metadata.
type SendTurnResponse struct {
	ConversationID string                  `json:"conversation_id"`
	Intent         string                  `json:"intent"`
	Confidence     float64                 `json:"confidence"`
	Answer         *synth.StructuredAnswer `json:"answer"`
	LatencyMs      int64                   `json:"latency_ms"`
}

// ConversationStateResponse exposes the stored state for inspection.
type ConversationStateResponse struct {
	State *state.ConversationState `json:"state"`
}

// TurnCompletedMessage is the in-process event-bus payload emitted after each
// answered turn; the consumer bridges it onto NATS for the audit trail.
type TurnCompletedMessage struct {
	ConversationID string `json:"conversation_id"`
	Intent         string `json:"intent"`
	Tier           string `json:"tier"`
	Citations      int    `json:"citations"`
	LatencyMs      int64  `json:"latency_ms"`
}
