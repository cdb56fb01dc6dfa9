package models

import "time"

// ChatSession is one independent Q&A conversation tied to the active
// analysis. Sessions live in the session store under "chatSessions"; only
// sessions with at least one exchange are ever persisted there.
type ChatSession struct {
	ID        int64         `json:"id"` // monotonic, from the chatCounter key
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"createdAt"`
	Messages  []ChatMessage `json:"messages"`

	// ViewOnly marks a session opened from history. It never accepts new
	// messages and closing it does not write to the persisted list.
	ViewOnly bool `json:"isViewOnly,omitempty"`
}

type ChatMessage struct {
	Role      string    `json:"role"` // user|assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Clone returns a deep copy so a view-only session cannot alias the
// persisted record's message slice.
func (s *ChatSession) Clone() *ChatSession {
	cp := *s
	cp.Messages = make([]ChatMessage, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}
