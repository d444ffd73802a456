package router

import "ai-docsearch-be/pkg/rag/state"

// Stage is a node of the retrieval-generation loop.
type Stage int

const (
	Analyze Stage = iota
	Refine
	Retrieve
	Generate
	End
)

func (s Stage) String() string {
	switch s {
	case Analyze:
		return "analyze"
	case Refine:
		return "refine"
	case Retrieve:
		return "retrieve"
	case Generate:
		return "generate"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Initial is the first stage of every turn.
const Initial = Analyze

func AfterAnalyze(st state.State) Stage {
	if st.NeedsRefinement {
		return Refine
	}
	return Retrieve
}

func AfterRefine(state.State) Stage {
	return Retrieve
}

func AfterRetrieve(state.State) Stage {
	return Generate
}

// AfterGenerate loops back only while the turn is under the retrieval cap.
func AfterGenerate(st state.State, maxIterations int) Stage {
	if st.NeedsRetrieval && st.TurnRetrievals() < maxIterations {
		return Retrieve
	}
	return End
}

// Next dispatches to the transition function of from.
func Next(from Stage, st state.State, maxIterations int) Stage {
	switch from {
	case Analyze:
		return AfterAnalyze(st)
	case Refine:
		return AfterRefine(st)
	case Retrieve:
		return AfterRetrieve(st)
	case Generate:
		return AfterGenerate(st, maxIterations)
	default:
		return End
	}
}
