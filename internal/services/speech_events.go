package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SpeechEventChannel is the pub/sub channel carrying one user's speech
// status stream; the websocket handler forwards it to the interface.
func SpeechEventChannel(userID string) string {
	return "speech:" + userID + ":events"
}

type speechEventMsg struct {
	Type  string    `json:"type"`
	Event string    `json:"event"` // generating|playing|stopped
	Key   string    `json:"key"`
	At    time.Time `json:"at"`
}

// RedisSpeechEvents publishes controller transitions over redis pub/sub.
type RedisSpeechEvents struct {
	rdb *redis.Client
}

func NewRedisSpeechEvents(rdb *redis.Client) *RedisSpeechEvents {
	return &RedisSpeechEvents{rdb: rdb}
}

func (e *RedisSpeechEvents) Publish(ctx context.Context, userID, event, key string) {
	payload, _ := json.Marshal(speechEventMsg{
		Type:  "speech",
		Event: event,
		Key:   key,
		At:    time.Now().UTC(),
	})
	_ = e.rdb.Publish(ctx, SpeechEventChannel(userID), payload).Err()
}
