package models

import "time"

// AudioCacheEntry is one cached synthesized-speech clip, keyed by the
// section name or message identifier it narrates. At most one entry exists
// per (user, cache key); entries expire after the retention window via a
// Mongo TTL index on expires_at.
type AudioCacheEntry struct {
	UserID   string `bson:"user_id" json:"user_id"`
	CacheKey string `bson:"cache_key" json:"cache_key"`

	Audio    []byte `bson:"audio" json:"-"` // encoded WAV bytes
	MimeType string `bson:"mime_type" json:"mime_type"`

	// ClipURL is set when the clip was offloaded to object storage.
	ClipURL string `bson:"clip_url,omitempty" json:"clip_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"-"`
}

// AudioClip is a playable clip handed to the playback engine.
type AudioClip struct {
	Data     []byte
	MimeType string
	URL      string
}
