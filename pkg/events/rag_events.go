package events

import (
	"time"

	"github.com/google/uuid"
)

const TypeTurnCompleted = "rag.turn_completed"

// TurnSummary is the payload of a completed turn.
type TurnSummary struct {
	SessionID      string
	Question       string
	Iterations     int
	RetrievalCount int
	Documents      int
	Sources        []string
	Insufficient   bool
	Duration       time.Duration
}

func NewTurnCompleted(s TurnSummary) BaseEvent {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"event_id":        uuid.NewString(),
			"session_id":      s.SessionID,
			"question":        s.Question,
			"iterations":      s.Iterations,
			"retrieval_count": s.RetrievalCount,
			"documents":       s.Documents,
			"sources":         s.Sources,
			"insufficient":    s.Insufficient,
			"duration_ms":     s.Duration.Milliseconds(),
		},
		OccurredAt: time.Now().UTC(),
	}
}
