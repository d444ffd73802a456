package dto

import "ai-docsearch-be/pkg/rag"

type ChatMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

type AskRequest struct {
	Question  string           `json:"question" validate:"required,max=4000"`
	SessionId string           `json:"session_id,omitempty" validate:"omitempty,max=128"`
	History   []ChatMessageDTO `json:"history,omitempty" validate:"omitempty,dive"`
	Options   *rag.Overrides   `json:"options,omitempty"`
}

type AskResponse struct {
	SessionId      string   `json:"session_id"`
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	Documents      int      `json:"documents"`
	Iterations     int      `json:"iterations"`
	RetrievalCount int      `json:"retrieval_count"`
	Insufficient   bool     `json:"insufficient"`
	Path           []string `json:"path"`
}
