package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/services"
	"github.com/legalclear/legalclear/internal/utils"
)

// fakeChatService implements services.ChatService with function fields.
type fakeChatService struct {
	startFn  func(ctx context.Context, userID, initialQuestion string) (*models.ChatSession, error)
	submitFn func(ctx context.Context, userID, question string) (*models.ChatSession, string, error)
	activeFn func(userID string) (*models.ChatSession, bool)
}

func (f *fakeChatService) StartNewChat(ctx context.Context, userID, q string) (*models.ChatSession, error) {
	if f.startFn != nil {
		return f.startFn(ctx, userID, q)
	}
	return &models.ChatSession{ID: 1}, nil
}

func (f *fakeChatService) SubmitQuestion(ctx context.Context, userID, q string) (*models.ChatSession, string, error) {
	if f.submitFn != nil {
		return f.submitFn(ctx, userID, q)
	}
	return &models.ChatSession{ID: 1}, "", nil
}

func (f *fakeChatService) CloseActiveSession(context.Context, string) error { return nil }

func (f *fakeChatService) OpenFromHistory(context.Context, string, int64) (*models.ChatSession, error) {
	return nil, utils.E(utils.CodeNotFound, "ChatService.OpenFromHistory", "chat session not found", nil)
}

func (f *fakeChatService) DeleteFromHistory(context.Context, string, int64) error { return nil }

func (f *fakeChatService) History(context.Context, string) ([]models.ChatSession, error) {
	return []models.ChatSession{}, nil
}

func (f *fakeChatService) Active(userID string) (*models.ChatSession, bool) {
	if f.activeFn != nil {
		return f.activeFn(userID)
	}
	return nil, false
}

var _ services.ChatService = (*fakeChatService)(nil)

func newChatRouter(svc services.ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "11111111-2222-4333-8444-555555555555")
	})

	h := NewChatHandler(svc)
	r.POST("/api/ask-question", h.Ask)
	r.POST("/chat/history/:id/open", h.Open)
	return r
}

func TestAsk_StartsSessionImplicitly(t *testing.T) {
	started := false
	svc := &fakeChatService{
		startFn: func(_ context.Context, _, q string) (*models.ChatSession, error) {
			started = true
			assert.Empty(t, q)
			return &models.ChatSession{ID: 1}, nil
		},
		submitFn: func(_ context.Context, _, q string) (*models.ChatSession, string, error) {
			return &models.ChatSession{ID: 1}, "30 days' written notice.", nil
		},
	}
	r := newChatRouter(svc)

	body := `{"question":"What is the termination notice period?","analysisId":"abc"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ask-question", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, started)

	var resp AskQuestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "30 days' written notice.", resp.Answer)
}

func TestAsk_ProviderFailureEnvelope(t *testing.T) {
	svc := &fakeChatService{
		activeFn: func(string) (*models.ChatSession, bool) { return &models.ChatSession{ID: 1}, true },
		submitFn: func(context.Context, string, string) (*models.ChatSession, string, error) {
			return nil, "", utils.E(utils.CodeUnavailable, "ChatService.SubmitQuestion", "failed to get an answer, please try again", nil)
		},
	}
	r := newChatRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ask-question", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp AskQuestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "failed to get an answer, please try again", resp.Error)
}

func TestAsk_MissingQuestion(t *testing.T) {
	r := newChatRouter(&fakeChatService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ask-question", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteError_RedirectHint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeError(c, utils.ERedirect(utils.CodeNotFound, "AnalysisService.Load", "no analysis results", "/docupload", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, utils.CodeNotFound, resp.Code)
	assert.Equal(t, "/docupload", resp.Redirect)
}
