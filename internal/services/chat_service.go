package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/providers/llm"
	"github.com/legalclear/legalclear/internal/storage"
	"github.com/legalclear/legalclear/internal/utils"

	"github.com/sirupsen/logrus"
)

// ChatService manages independent Q&A sessions against the active analysis:
// at most one active session per user, a persisted history of closed
// sessions, and at most one question in flight per session.
type ChatService interface {
	StartNewChat(ctx context.Context, userID, initialQuestion string) (*models.ChatSession, error)
	SubmitQuestion(ctx context.Context, userID, question string) (*models.ChatSession, string, error)
	CloseActiveSession(ctx context.Context, userID string) error
	OpenFromHistory(ctx context.Context, userID string, id int64) (*models.ChatSession, error)
	DeleteFromHistory(ctx context.Context, userID string, id int64) error
	History(ctx context.Context, userID string) ([]models.ChatSession, error)
	Active(userID string) (*models.ChatSession, bool)
}

type chatService struct {
	store storage.SessionStore
	llm   llm.Provider
	log   *logrus.Logger

	mu     sync.Mutex
	active map[string]*activeChat
}

type activeChat struct {
	session  *models.ChatSession
	inFlight bool
}

func NewChatService(store storage.SessionStore, provider llm.Provider, log *logrus.Logger) ChatService {
	if log == nil {
		log = logrus.New()
	}
	return &chatService{
		store:  store,
		llm:    provider,
		log:    log,
		active: make(map[string]*activeChat),
	}
}

func (s *chatService) StartNewChat(ctx context.Context, userID, initialQuestion string) (*models.ChatSession, error) {
	const op = "ChatService.StartNewChat"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	// an already-open session is closed under the usual rules first
	if err := s.CloseActiveSession(ctx, userID); err != nil {
		return nil, err
	}

	// the counter increment persists immediately so ids survive a reload
	id, err := s.store.NextChatID(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to allocate chat id", err)
	}

	session := &models.ChatSession{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Messages:  []models.ChatMessage{},
	}

	s.mu.Lock()
	s.active[userID] = &activeChat{session: session}
	s.mu.Unlock()

	if q := strings.TrimSpace(initialQuestion); q != "" {
		if updated, _, err := s.SubmitQuestion(ctx, userID, q); err == nil {
			return updated, nil
		}
		// submit failure is recoverable: the empty session stays active
	}
	return session.Clone(), nil
}

func (s *chatService) SubmitQuestion(ctx context.Context, userID, question string) (*models.ChatSession, string, error) {
	const op = "ChatService.SubmitQuestion"

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "question must not be empty", nil)
	}

	s.mu.Lock()
	ac, ok := s.active[userID]
	if !ok {
		s.mu.Unlock()
		return nil, "", utils.E(utils.CodeNotFound, op, "no active chat session", nil)
	}
	if ac.session.ViewOnly {
		s.mu.Unlock()
		return nil, "", utils.E(utils.CodeForbidden, op, "session is view-only", nil)
	}
	if ac.inFlight {
		s.mu.Unlock()
		return nil, "", utils.E(utils.CodeConflict, op, "a question is already in flight", nil)
	}

	// conversation context is the message list as it stood before this
	// question
	history := make([]models.ChatMessage, len(ac.session.Messages))
	copy(history, ac.session.Messages)

	// optimistic append: the user message shows up before the provider
	// answers
	ac.session.Messages = append(ac.session.Messages, models.ChatMessage{
		Role:      models.RoleUser,
		Content:   question,
		Timestamp: time.Now().UTC(),
	})
	ac.inFlight = true
	sessionID := ac.session.ID
	s.mu.Unlock()

	analysis, _, _ := s.store.GetAnalysis(ctx, userID)
	prompt := buildQuestionPrompt(analysis, history, question)

	answer, err := s.llm.Answer(ctx, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok = s.active[userID]
	if !ok || ac.session.ID != sessionID {
		// session was closed while the request was in flight; drop the
		// answer
		return nil, "", utils.E(utils.CodeNotFound, op, "chat session closed", nil)
	}
	ac.inFlight = false

	if err != nil {
		// roll back the optimistic user message
		if n := len(ac.session.Messages); n > 0 && ac.session.Messages[n-1].Role == models.RoleUser {
			ac.session.Messages = ac.session.Messages[:n-1]
		}
		s.log.WithError(err).WithField("user_id", userID).Warn("question submission failed")
		return nil, "", utils.E(utils.CodeUnavailable, op, "failed to get an answer, please try again", err)
	}

	ac.session.Messages = append(ac.session.Messages, models.ChatMessage{
		Role:      models.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now().UTC(),
	})
	if ac.session.Title == "" {
		ac.session.Title = titleFrom(question)
	}
	return ac.session.Clone(), answer, nil
}

// CloseActiveSession persists the session when it has content and is not
// view-only, otherwise discards it. A missing active session is a no-op.
func (s *chatService) CloseActiveSession(ctx context.Context, userID string) error {
	const op = "ChatService.CloseActiveSession"

	s.mu.Lock()
	ac, ok := s.active[userID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.active, userID)
	session := ac.session
	s.mu.Unlock()

	if session.ViewOnly || len(session.Messages) == 0 {
		return nil
	}

	if session.Title == "" {
		session.Title = titleFrom(session.Messages[0].Content)
	}

	sessions, err := s.store.GetChatSessions(ctx, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to read chat history", err)
	}
	sessions = append(sessions, *session)
	if err := s.store.SetChatSessions(ctx, userID, sessions); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to persist chat history", err)
	}
	return nil
}

func (s *chatService) OpenFromHistory(ctx context.Context, userID string, id int64) (*models.ChatSession, error) {
	const op = "ChatService.OpenFromHistory"

	sessions, err := s.store.GetChatSessions(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read chat history", err)
	}

	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}

		// close whatever is open first, then activate a detached copy so
		// the stored record can never be mutated through the view
		if err := s.CloseActiveSession(ctx, userID); err != nil {
			return nil, err
		}

		view := sessions[i].Clone()
		view.ViewOnly = true

		s.mu.Lock()
		s.active[userID] = &activeChat{session: view}
		s.mu.Unlock()
		return view.Clone(), nil
	}
	return nil, utils.E(utils.CodeNotFound, op, "chat session not found", nil)
}

// DeleteFromHistory rewrites the persisted list without the session. An
// open view-only copy of it stays open.
func (s *chatService) DeleteFromHistory(ctx context.Context, userID string, id int64) error {
	const op = "ChatService.DeleteFromHistory"

	sessions, err := s.store.GetChatSessions(ctx, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to read chat history", err)
	}

	kept := sessions[:0]
	found := false
	for _, sess := range sessions {
		if sess.ID == id {
			found = true
			continue
		}
		kept = append(kept, sess)
	}
	if !found {
		return utils.E(utils.CodeNotFound, op, "chat session not found", nil)
	}

	if err := s.store.SetChatSessions(ctx, userID, kept); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to persist chat history", err)
	}
	return nil
}

func (s *chatService) History(ctx context.Context, userID string) ([]models.ChatSession, error) {
	const op = "ChatService.History"

	sessions, err := s.store.GetChatSessions(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read chat history", err)
	}
	return sessions, nil
}

func (s *chatService) Active(userID string) (*models.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.active[userID]
	if !ok {
		return nil, false
	}
	return ac.session.Clone(), true
}

func titleFrom(question string) string {
	const max = 60
	if len(question) <= max {
		return question
	}
	return strings.TrimSpace(question[:max]) + "…"
}

// buildQuestionPrompt grounds the model on the report, the source text, and
// the running conversation.
func buildQuestionPrompt(res *models.AnalysisResult, history []models.ChatMessage, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a contract analysis assistant. Answer the user's question about their legal document, grounded in the analysis below. Be concise and plain-spoken.\n")

	if res != nil {
		a := res.Analysis
		fmt.Fprintf(&sb, "\nDocument type: %s\nPurpose: %s\nOverall risk: %s (score %d/100)\n",
			a.Summary.DocumentType, a.Summary.MainPurpose,
			a.RiskAssessment.OverallRisk, a.RiskAssessment.RiskScore)
		if a.Summary.ContractSummary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", a.Summary.ContractSummary)
		}
		if res.OriginalText != "" {
			text := res.OriginalText
			const maxSource = 6000
			if len(text) > maxSource {
				text = text[:maxSource]
			}
			fmt.Fprintf(&sb, "\nDocument text:\n%s\n", text)
		}
	}

	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n", question)
	return sb.String()
}
