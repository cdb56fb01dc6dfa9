package storage

import (
	"context"
	"io"
	"time"

	"github.com/legalclear/legalclear/internal/models"
)

// SessionStore is the session-scoped key-value storage behind the analysis
// view: one bucket per user holding the analysisResults, chatSessions, and
// chatCounter keys. Entries expire with the session; starting a new
// analysis clears them explicitly.
type SessionStore interface {
	GetAnalysis(ctx context.Context, userID string) (*models.AnalysisResult, bool, error)
	SetAnalysis(ctx context.Context, userID string, res *models.AnalysisResult) error
	ClearAnalysis(ctx context.Context, userID string) error

	GetChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error)
	SetChatSessions(ctx context.Context, userID string, sessions []models.ChatSession) error

	NextChatID(ctx context.Context, userID string) (int64, error)
	GetChatCounter(ctx context.Context, userID string) (int64, error)
	SetChatCounter(ctx context.Context, userID string, n int64) error

	// ClearChat removes chatSessions and chatCounter together.
	ClearChat(ctx context.Context, userID string) error
}

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}
