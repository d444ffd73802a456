package service

import (
	"context"
	"net/url"

	"ai-docsearch-be/internal/dto"
	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/executor"
)

// Pipeline is the part of the executor the chat service drives.
type Pipeline interface {
	Execute(ctx context.Context, req executor.Request) (*executor.Result, error)
	ResetSession(ctx context.Context, sessionID string) error
}

type IChatService interface {
	Ask(ctx context.Context, userID string, req *dto.AskRequest) (*dto.AskResponse, error)
	ResetSession(ctx context.Context, userID string, sessionID string) error
}

type chatService struct {
	pipeline Pipeline
	defaults rag.Config
	logger   logger.ILogger
}

func NewChatService(pipeline Pipeline, defaults rag.Config, log logger.ILogger) IChatService {
	return &chatService{
		pipeline: pipeline,
		defaults: defaults,
		logger:   log,
	}
}

// SessionKey is the checkpoint key for a caller's session. Authenticated
// callers only reach keys under their own user id; an empty sessionID
// selects the user's default session. Anonymous callers without an id get
// no key and run stateless.
func SessionKey(userID, sessionID string) string {
	switch {
	case userID != "" && sessionID != "":
		return "user:" + url.QueryEscape(userID) + ":" + url.QueryEscape(sessionID)
	case userID != "":
		return "user:" + url.QueryEscape(userID)
	case sessionID != "":
		return "anon:" + url.QueryEscape(sessionID)
	default:
		return ""
	}
}

// Ask answers one question. The response echoes the caller's session id,
// never the internal checkpoint key.
func (s *chatService) Ask(ctx context.Context, userID string, req *dto.AskRequest) (*dto.AskResponse, error) {
	sessionKey := SessionKey(userID, req.SessionId)

	cfg := s.defaults
	if req.Options != nil {
		cfg = cfg.WithOverrides(*req.Options)
	}

	var history []llm.Message
	if req.History != nil {
		history = make([]llm.Message, len(req.History))
		for i, m := range req.History {
			history[i] = llm.Message{Role: m.Role, Content: m.Content}
		}
	}

	res, err := s.pipeline.Execute(ctx, executor.Request{
		Question:            req.Question,
		ConversationHistory: history,
		SessionID:           sessionKey,
		Config:              cfg,
	})
	if err != nil {
		return nil, err
	}

	path := make([]string, len(res.Path))
	for i, stage := range res.Path {
		path[i] = stage.String()
	}

	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}

	s.logger.Info("ChatService", "Question answered", map[string]interface{}{
		"session_key":     sessionKey,
		"retrieval_count": res.RetrievalCount,
		"insufficient":    res.Insufficient,
	})

	return &dto.AskResponse{
		SessionId:      req.SessionId,
		Answer:         res.Answer,
		Sources:        sources,
		Documents:      len(res.Documents),
		Iterations:     res.Iterations,
		RetrievalCount: res.RetrievalCount,
		Insufficient:   res.Insufficient,
		Path:           path,
	}, nil
}

func (s *chatService) ResetSession(ctx context.Context, userID string, sessionID string) error {
	key := SessionKey(userID, sessionID)
	if key == "" {
		return nil
	}
	return s.pipeline.ResetSession(ctx, key)
}
