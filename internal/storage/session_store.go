package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/legalclear/legalclear/internal/cache"
	"github.com/legalclear/legalclear/internal/models"
)

const (
	keyAnalysisResults = "analysisResults"
	keyChatSessions    = "chatSessions"
	keyChatCounter     = "chatCounter"
)

// DefaultSessionTTL approximates the lifetime of a browser session on the
// server side. All three keys share it.
const DefaultSessionTTL = 24 * time.Hour

type RedisSessionStore struct {
	c   cache.Cache
	ttl time.Duration
}

func NewRedisSessionStore(c cache.Cache, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{c: c, ttl: ttl}
}

func (s *RedisSessionStore) key(userID, name string) string {
	return fmt.Sprintf("session:%s:%s", userID, name)
}

func (s *RedisSessionStore) GetAnalysis(ctx context.Context, userID string) (*models.AnalysisResult, bool, error) {
	var res models.AnalysisResult
	hit, err := s.c.GetJSON(ctx, s.key(userID, keyAnalysisResults), &res)
	if err != nil || !hit {
		return nil, false, err
	}
	return &res, true, nil
}

func (s *RedisSessionStore) SetAnalysis(ctx context.Context, userID string, res *models.AnalysisResult) error {
	return s.c.SetJSON(ctx, s.key(userID, keyAnalysisResults), res, s.ttl)
}

func (s *RedisSessionStore) ClearAnalysis(ctx context.Context, userID string) error {
	return s.c.Del(ctx, s.key(userID, keyAnalysisResults))
}

func (s *RedisSessionStore) GetChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	hit, err := s.c.GetJSON(ctx, s.key(userID, keyChatSessions), &sessions)
	if err != nil {
		return nil, err
	}
	if !hit {
		return []models.ChatSession{}, nil
	}
	return sessions, nil
}

func (s *RedisSessionStore) SetChatSessions(ctx context.Context, userID string, sessions []models.ChatSession) error {
	return s.c.SetJSON(ctx, s.key(userID, keyChatSessions), sessions, s.ttl)
}

func (s *RedisSessionStore) NextChatID(ctx context.Context, userID string) (int64, error) {
	return s.c.Incr(ctx, s.key(userID, keyChatCounter), s.ttl)
}

func (s *RedisSessionStore) GetChatCounter(ctx context.Context, userID string) (int64, error) {
	var n int64
	hit, err := s.c.GetJSON(ctx, s.key(userID, keyChatCounter), &n)
	if err != nil || !hit {
		return 0, err
	}
	return n, nil
}

func (s *RedisSessionStore) SetChatCounter(ctx context.Context, userID string, n int64) error {
	return s.c.SetJSON(ctx, s.key(userID, keyChatCounter), n, s.ttl)
}

func (s *RedisSessionStore) ClearChat(ctx context.Context, userID string) error {
	return s.c.Del(ctx, s.key(userID, keyChatSessions), s.key(userID, keyChatCounter))
}
