package state

import "ai-docsearch-be/pkg/llm"

// Field is an optional value in an Update. The zero Field is "not present".
type Field[T any] struct {
	value T
	set   bool
}

// Set marks v as present.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

func (f Field[T]) IsSet() bool {
	return f.set
}

// Update is the partial result of a stage. Iterations and RetrievalCount
// are deltas; every other field replaces the current value when set.
type Update struct {
	Question            Field[string]
	ConversationHistory Field[[]llm.Message]
	Documents           Field[[]string]
	Sources             Field[[]string]
	NeedsRetrieval      Field[bool]
	NeedsRefinement     Field[bool]
	RefinedQuery        Field[string]
	Answer              Field[string]
	Iterations          int
	RetrievalCount      int
}

// Apply merges u into s and returns the result. s is not modified.
// Negative deltas are ignored so the counters never decrease.
func Apply(s State, u Update) State {
	next := s.Clone()

	if v, ok := u.Question.Get(); ok {
		next.Question = v
	}
	if v, ok := u.ConversationHistory.Get(); ok {
		next.ConversationHistory = cloneMessages(v)
	}
	if v, ok := u.Documents.Get(); ok {
		next.Documents = cloneStrings(v)
		if next.Documents == nil {
			next.Documents = []string{}
		}
	}
	if v, ok := u.Sources.Get(); ok {
		next.Sources = cloneStrings(v)
	}
	if v, ok := u.NeedsRetrieval.Get(); ok {
		next.NeedsRetrieval = v
	}
	if v, ok := u.NeedsRefinement.Get(); ok {
		next.NeedsRefinement = v
	}
	if v, ok := u.RefinedQuery.Get(); ok {
		next.RefinedQuery = v
	}
	if v, ok := u.Answer.Get(); ok {
		next.Answer = v
	}

	next.Iterations += nonNegative(u.Iterations)
	next.RetrievalCount += nonNegative(u.RetrievalCount)

	return next
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
