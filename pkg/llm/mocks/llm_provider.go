package mocks

import (
	"context"

	"ai-docsearch-be/pkg/llm"

	"github.com/stretchr/testify/mock"
)

// LLMProvider is a testify mock of llm.LLMProvider.
type LLMProvider struct {
	mock.Mock
}

var _ llm.LLMProvider = (*LLMProvider)(nil)

func (m *LLMProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	args := m.Called(ctx, history)
	return args.String(0), args.Error(1)
}

func (m *LLMProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
