package rag

import "errors"

// Fatal conditions abort the invocation and leave the session checkpoint untouched.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrAnalysis      = errors.New("query analysis failed")
	ErrRefinement    = errors.New("query refinement failed")
	ErrSearch        = errors.New("similarity search failed")
	ErrGeneration    = errors.New("answer generation failed")
)

// ErrRetrievalLookup marks a single source lookup failure. The retriever
// logs and skips it; it never reaches the caller.
var ErrRetrievalLookup = errors.New("source lookup failed")
