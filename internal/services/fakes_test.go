package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/utils"
)

// fakeStore is an in-memory SessionStore. Values round-trip through JSON so
// tests see the same copy semantics as the redis-backed store.
type fakeStore struct {
	mu       sync.Mutex
	analysis map[string]*models.AnalysisResult
	sessions map[string][]models.ChatSession
	counter  map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		analysis: make(map[string]*models.AnalysisResult),
		sessions: make(map[string][]models.ChatSession),
		counter:  make(map[string]int64),
	}
}

func (f *fakeStore) GetAnalysis(_ context.Context, userID string) (*models.AnalysisResult, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.analysis[userID]
	if !ok {
		return nil, false, nil
	}
	b, _ := json.Marshal(res)
	var out models.AnalysisResult
	_ = json.Unmarshal(b, &out)
	return &out, true, nil
}

func (f *fakeStore) SetAnalysis(_ context.Context, userID string, res *models.AnalysisResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := json.Marshal(res)
	var cp models.AnalysisResult
	_ = json.Unmarshal(b, &cp)
	f.analysis[userID] = &cp
	return nil
}

func (f *fakeStore) ClearAnalysis(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.analysis, userID)
	return nil
}

func (f *fakeStore) GetChatSessions(_ context.Context, userID string) ([]models.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := json.Marshal(f.sessions[userID])
	var out []models.ChatSession
	_ = json.Unmarshal(b, &out)
	if out == nil {
		out = []models.ChatSession{}
	}
	return out, nil
}

func (f *fakeStore) SetChatSessions(_ context.Context, userID string, sessions []models.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := json.Marshal(sessions)
	var cp []models.ChatSession
	_ = json.Unmarshal(b, &cp)
	f.sessions[userID] = cp
	return nil
}

func (f *fakeStore) NextChatID(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter[userID]++
	return f.counter[userID], nil
}

func (f *fakeStore) GetChatCounter(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counter[userID], nil
}

func (f *fakeStore) SetChatCounter(_ context.Context, userID string, n int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter[userID] = n
	return nil
}

func (f *fakeStore) ClearChat(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, userID)
	delete(f.counter, userID)
	return nil
}

// fakeLLM answers with AnswerFn, or a canned string when unset.
type fakeLLM struct {
	AnswerFn func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *fakeLLM) Answer(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.AnswerFn != nil {
		return f.AnswerFn(ctx, prompt)
	}
	return "canned answer", nil
}

func (f *fakeLLM) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 1)
	errCh := make(chan error, 1)
	answer, err := f.Answer(ctx, prompt)
	if err != nil {
		errCh <- err
	} else {
		out <- answer
	}
	close(out)
	close(errCh)
	return out, errCh
}

func (f *fakeLLM) Close() error { return nil }

// fakeAudioCache is an in-memory AudioCacheRepository.
type fakeAudioCache struct {
	mu      sync.Mutex
	entries map[string]models.AudioCacheEntry
}

func newFakeAudioCache() *fakeAudioCache {
	return &fakeAudioCache{entries: make(map[string]models.AudioCacheEntry)}
}

func (f *fakeAudioCache) key(userID, cacheKey string) string { return userID + "|" + cacheKey }

func (f *fakeAudioCache) Get(_ context.Context, userID, cacheKey string) (*models.AudioCacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[f.key(userID, cacheKey)]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := e
	return &cp, nil
}

func (f *fakeAudioCache) Put(_ context.Context, e *models.AudioCacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.CreatedAt = time.Now().UTC()
	f.entries[f.key(e.UserID, e.CacheKey)] = *e
	return nil
}

func (f *fakeAudioCache) Delete(_ context.Context, userID, cacheKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, f.key(userID, cacheKey))
	return nil
}

func (f *fakeAudioCache) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.entries {
		if len(k) > len(userID) && k[:len(userID)+1] == userID+"|" {
			delete(f.entries, k)
		}
	}
	return nil
}

func (f *fakeAudioCache) EvictOlderThan(_ context.Context, window time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().UTC().Add(-window)
	var n int64
	for k, e := range f.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(f.entries, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeAudioCache) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// fakeTTS returns deterministic PCM and counts synthesis calls.
type fakeTTS struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTTS) Synthesize(_ context.Context, text, _, _ string) ([]byte, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	pcm := make([]byte, 32)
	copy(pcm, text)
	return pcm, 24000, nil
}

func (f *fakeTTS) Close() error { return nil }

func (f *fakeTTS) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePlayer records playback and can fail the first N Play calls.
type fakePlayer struct {
	mu        sync.Mutex
	played    []models.AudioClip
	pauses    int
	failPlays int
}

func (f *fakePlayer) Play(clip models.AudioClip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPlays > 0 {
		f.failPlays--
		return errors.New("playback engine error")
	}
	f.played = append(f.played, clip)
	return nil
}

func (f *fakePlayer) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakePlayer) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

// recEvents records published speech events in order.
type recEvents struct {
	mu     sync.Mutex
	events []string // "event:key"
}

func (r *recEvents) Publish(_ context.Context, _, event, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+key)
}

func (r *recEvents) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// fakeRecords is an in-memory SavedRecordRepo with serial autoincrement.
type fakeRecords struct {
	mu   sync.Mutex
	next int64
	rows []models.SavedRecord
}

func (f *fakeRecords) Insert(_ context.Context, rec *models.SavedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	rec.Serial = f.next
	f.rows = append(f.rows, *rec)
	return nil
}

func (f *fakeRecords) ListByUser(_ context.Context, userID string, limit int) ([]models.SavedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.SavedRecord{}
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeRecords) GetBySerial(_ context.Context, userID string, serial int64) (*models.SavedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID == userID && r.Serial == serial {
			cp := r
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeRecords) Delete(_ context.Context, userID string, serial int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.UserID == userID && r.Serial == serial {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}
