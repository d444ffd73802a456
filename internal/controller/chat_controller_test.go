package controller

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-docsearch-be/internal/dto"
	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/internal/pkg/serverutils"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatService struct {
	askReq    *dto.AskRequest
	askUser   string
	askErr    error
	resetID   string
	resetUser string
	resetErr  error
}

func (s *stubChatService) Ask(ctx context.Context, userID string, req *dto.AskRequest) (*dto.AskResponse, error) {
	s.askReq, s.askUser = req, userID
	if s.askErr != nil {
		return nil, s.askErr
	}
	return &dto.AskResponse{SessionId: "s-1", Answer: "Walking tours daily.", Sources: []string{"a.md"}, RetrievalCount: 1}, nil
}

func (s *stubChatService) ResetSession(ctx context.Context, userID string, sessionID string) error {
	s.resetUser, s.resetID = userID, sessionID
	return s.resetErr
}

func newApp(svc *stubChatService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(logger.NewNopLogger()))
	NewChatController(svc, nil).RegisterRoutes(app.Group("/api"))
	return app
}

func post(t *testing.T, app *fiber.App, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/chat/v1/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func TestChatController_Ask(t *testing.T) {
	svc := &stubChatService{}
	status, body := post(t, newApp(svc), `{"question":"  What tours are available in Valencia?  ","session_id":"s-1","options":{"topK":5}}`)

	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Walking tours daily.", data["answer"])
	assert.Equal(t, "s-1", data["session_id"])

	require.NotNil(t, svc.askReq)
	assert.Equal(t, "What tours are available in Valencia?", svc.askReq.Question)
	require.NotNil(t, svc.askReq.Options.TopK)
	assert.Equal(t, 5, *svc.askReq.Options.TopK)
	assert.Equal(t, "", svc.askUser)
}

func TestChatController_AskValidation(t *testing.T) {
	svc := &stubChatService{}
	app := newApp(svc)

	status, _ := post(t, app, `{"question":"   "}`)
	assert.Equal(t, 400, status)

	status, _ = post(t, app, `{"question":"q","history":[{"role":"robot","content":"x"}]}`)
	assert.Equal(t, 400, status)

	status, _ = post(t, app, `not json`)
	assert.Equal(t, 400, status)

	assert.Nil(t, svc.askReq)
}

func TestChatController_AskFailureShowsGenericNotice(t *testing.T) {
	svc := &stubChatService{askErr: rag.ErrGeneration}
	status, body := post(t, newApp(svc), `{"question":"What tours are available in Valencia?"}`)

	assert.Equal(t, 500, status)
	assert.Equal(t, response.FailureNotice, body["message"])
	assert.False(t, response.IsInsufficient(body["message"].(string)))
}

func TestChatController_ResetSession(t *testing.T) {
	svc := &stubChatService{}
	res, err := newApp(svc).Test(httptest.NewRequest("DELETE", "/api/chat/v1/sessions/s-7", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "s-7", svc.resetID)
}

func TestChatController_ResetSessionScopedToUser(t *testing.T) {
	svc := &stubChatService{}
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(logger.NewNopLogger()))
	app.Use(func(ctx *fiber.Ctx) error {
		ctx.Locals("user_id", "alice")
		return ctx.Next()
	})
	NewChatController(svc, nil).RegisterRoutes(app.Group("/api"))

	res, err := app.Test(httptest.NewRequest("DELETE", "/api/chat/v1/sessions/bob", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "alice", svc.resetUser)
	assert.Equal(t, "bob", svc.resetID)

	res, err = app.Test(httptest.NewRequest("DELETE", "/api/chat/v1/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "", svc.resetID)
}

func TestChatController_ResetSessionNeedsIdWhenAnonymous(t *testing.T) {
	svc := &stubChatService{resetID: "untouched"}
	res, err := newApp(svc).Test(httptest.NewRequest("DELETE", "/api/chat/v1/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, "untouched", svc.resetID)
}
