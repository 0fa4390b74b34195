package events

import "time"

// TurnCompletedType is the event code emitted after every processed turn.
const TurnCompletedType = "turn.completed"

// NewTurnCompleted builds the audit event for one answered turn.
func NewTurnCompleted(conversationID, intentType, tier string, citationCount int, latencyMs int64) BaseEvent {
	return BaseEvent{
		Type: TurnCompletedType,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"intent":          intentType,
			"tier":            tier,
			"citations":       citationCount,
			"latency_ms":      latencyMs,
		},
		OccurredAt: time.Now(),
	}
}
