package state

import (
	"ai-docsearch-be/pkg/llm"
)

// State is the record threaded through one turn and, when checkpointed,
// across the turns of a session.
type State struct {
	Question            string        `json:"question"`
	ConversationHistory []llm.Message `json:"conversationHistory"`
	Documents           []string      `json:"documents"`
	Sources             []string      `json:"sources"`
	NeedsRetrieval      bool          `json:"needsRetrieval"`
	NeedsRefinement     bool          `json:"needsRefinement"`
	RefinedQuery        string        `json:"refinedQuery"`
	Answer              string        `json:"answer"`
	Iterations          int           `json:"iterations"`
	RetrievalCount      int           `json:"retrievalCount"`

	// Counter values when the current question arrived.
	TurnStartIterations int `json:"turnStartIterations"`
	TurnStartRetrievals int `json:"turnStartRetrievals"`
}

// New returns the state of a fresh session for question.
func New(question string, history []llm.Message) State {
	return State{
		Question:            question,
		ConversationHistory: cloneMessages(history),
		NeedsRetrieval:      true,
	}
}

// BeginTurn starts a new question on top of prev. History and counters
// carry over; everything scoped to the previous question is cleared.
func BeginTurn(prev State, question string) State {
	return State{
		Question:            question,
		ConversationHistory: cloneMessages(prev.ConversationHistory),
		NeedsRetrieval:      true,
		Iterations:          prev.Iterations,
		RetrievalCount:      prev.RetrievalCount,
		TurnStartIterations: prev.Iterations,
		TurnStartRetrievals: prev.RetrievalCount,
	}
}

// TurnIterations counts generation passes for the current question.
func (s State) TurnIterations() int {
	return s.Iterations - s.TurnStartIterations
}

// TurnRetrievals counts retrieval passes for the current question.
func (s State) TurnRetrievals() int {
	return s.RetrievalCount - s.TurnStartRetrievals
}

// SearchText is the text the retriever should embed.
func (s State) SearchText() string {
	if s.RefinedQuery != "" {
		return s.RefinedQuery
	}
	return s.Question
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.ConversationHistory = cloneMessages(s.ConversationHistory)
	out.Documents = cloneStrings(s.Documents)
	out.Sources = cloneStrings(s.Sources)
	return out
}

func cloneMessages(in []llm.Message) []llm.Message {
	if in == nil {
		return nil
	}
	out := make([]llm.Message, len(in))
	copy(out, in)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
