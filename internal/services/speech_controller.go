package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/providers/tts"
	mongorepo "github.com/legalclear/legalclear/internal/repositories/mongo"
	"github.com/legalclear/legalclear/internal/storage"
	"github.com/legalclear/legalclear/internal/utils"

	"github.com/sirupsen/logrus"
)

// Player is the playback engine a controller drives. Play starts a clip;
// Pause halts the current one without destroying it.
type Player interface {
	Play(clip models.AudioClip) error
	Pause()
}

// SpeechEvents receives controller state transitions (generating, playing,
// stopped) for delivery to the interface.
type SpeechEvents interface {
	Publish(ctx context.Context, userID, event, key string)
}

// SpeechController serializes narration for one user's interface: at most
// one playback or generation request is active at a time, keyed by section
// or message identifier. Speaking an already-active key toggles it off.
type SpeechController struct {
	userID   string
	cache    mongorepo.AudioCacheRepository
	tts      tts.Provider
	player   Player
	uploader storage.Uploader // optional clip offload
	events   SpeechEvents     // optional
	log      *logrus.Logger

	Voice       string
	StylePrompt string

	mu          sync.Mutex
	speakingKey string
	cancel      context.CancelFunc
	gen         uint64 // bumps on every Speak/Stop; detects supersession
}

func NewSpeechController(userID string, cache mongorepo.AudioCacheRepository, provider tts.Provider, player Player, log *logrus.Logger) *SpeechController {
	if log == nil {
		log = logrus.New()
	}
	return &SpeechController{
		userID: userID,
		cache:  cache,
		tts:    provider,
		player: player,
		log:    log,
	}
}

// SetUploader enables publishing finished clips to object storage.
func (c *SpeechController) SetUploader(u storage.Uploader) { c.uploader = u }

// SetEvents enables status notifications.
func (c *SpeechController) SetEvents(e SpeechEvents) { c.events = e }

// SpeakingKey returns the key currently being spoken, or "".
func (c *SpeechController) SpeakingKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speakingKey
}

// Speak narrates text under the given cache key. If that key is already
// speaking, playback stops instead (toggle). Any other in-flight activity
// is cancelled first, so no two keys are ever audibly active together. The
// returned clip is nil when the call was a toggle-off or was superseded.
func (c *SpeechController) Speak(ctx context.Context, text, key string) (*models.AudioClip, error) {
	const op = "SpeechController.Speak"

	if key == "" || strings.TrimSpace(text) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text and key are required", nil)
	}

	c.mu.Lock()
	if c.speakingKey == key {
		c.stopLocked()
		c.mu.Unlock()
		c.publish(ctx, "stopped", key)
		return nil, nil
	}
	c.stopLocked()
	genCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.gen++
	myGen := c.gen
	c.mu.Unlock()

	c.publish(ctx, "generating", key)

	clip, err := c.clipFor(genCtx, text, key)

	c.mu.Lock()
	if c.gen != myGen {
		// superseded by a newer Speak or an explicit Stop
		c.mu.Unlock()
		cancel()
		return nil, nil
	}
	c.cancel = nil
	if err != nil {
		c.mu.Unlock()
		cancel()
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, utils.E(utils.CodeUnavailable, op, "speech generation failed", err)
	}

	if playErr := c.player.Play(*clip); playErr != nil {
		// a cached clip that will not play is treated as corrupt: evict
		// and regenerate once, transparently
		c.mu.Unlock()
		_ = c.cache.Delete(ctx, c.userID, key)
		clip, err = c.clipFor(genCtx, text, key)
		if err != nil {
			cancel()
			return nil, utils.E(utils.CodeUnavailable, op, "speech generation failed", err)
		}
		c.mu.Lock()
		if c.gen != myGen {
			c.mu.Unlock()
			cancel()
			return nil, nil
		}
		if playErr = c.player.Play(*clip); playErr != nil {
			c.mu.Unlock()
			cancel()
			return nil, utils.E(utils.CodeUnavailable, op, "audio playback failed", playErr)
		}
	}
	c.speakingKey = key
	c.mu.Unlock()
	cancel()

	c.publish(ctx, "playing", key)
	return clip, nil
}

// Stop halts playback and cancels any outstanding generation. Calling it
// when nothing is speaking is a no-op.
func (c *SpeechController) Stop(ctx context.Context) {
	c.mu.Lock()
	wasSpeaking := c.speakingKey
	c.stopLocked()
	c.mu.Unlock()

	if wasSpeaking != "" {
		c.publish(ctx, "stopped", wasSpeaking)
	}
}

// stopLocked cancels in-flight generation and pauses playback. Caller holds
// c.mu.
func (c *SpeechController) stopLocked() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.speakingKey != "" {
		c.player.Pause()
		c.speakingKey = ""
	}
}

// clipFor resolves a playable clip: cache hit, or synthesize + cache fill.
// Unplayable cached bytes are evicted and regenerated once.
func (c *SpeechController) clipFor(ctx context.Context, text, key string) (*models.AudioClip, error) {
	entry, err := c.cache.Get(ctx, c.userID, key)
	if err == nil {
		if utils.IsPlayableWAV(entry.Audio) {
			return &models.AudioClip{Data: entry.Audio, MimeType: entry.MimeType, URL: entry.ClipURL}, nil
		}
		_ = c.cache.Delete(ctx, c.userID, key)
	} else if !errors.Is(err, utils.ErrNotFound) {
		// a broken cache never blocks narration
		c.log.WithError(err).WithField("cache_key", key).Warn("audio cache read failed")
	}

	pcm, rate, err := c.tts.Synthesize(ctx, utils.TruncateForSpeech(text), c.Voice, c.StylePrompt)
	if err != nil {
		return nil, err
	}
	wav := utils.PCMToWAV(pcm, rate, 1, 16)

	entry = &models.AudioCacheEntry{
		UserID:   c.userID,
		CacheKey: key,
		Audio:    wav,
		MimeType: "audio/wav",
	}

	if c.uploader != nil {
		object := fmt.Sprintf("narration/%s/%s.wav", c.userID, key)
		if url, upErr := c.uploader.Upload(ctx, object, "audio/wav", bytes.NewReader(wav)); upErr == nil {
			entry.ClipURL = url
		} else {
			c.log.WithError(upErr).WithField("cache_key", key).Warn("clip upload failed")
		}
	}

	if putErr := c.cache.Put(ctx, entry); putErr != nil {
		c.log.WithError(putErr).WithField("cache_key", key).Warn("audio cache write failed")
	}
	return &models.AudioClip{Data: wav, MimeType: "audio/wav", URL: entry.ClipURL}, nil
}

func (c *SpeechController) publish(ctx context.Context, event, key string) {
	if c.events != nil {
		c.events.Publish(ctx, c.userID, event, key)
	}
}

// SpeechManager hands out one controller per user interface.
type SpeechManager struct {
	cache    mongorepo.AudioCacheRepository
	tts      tts.Provider
	player   func(userID string) Player
	uploader storage.Uploader
	events   SpeechEvents
	log      *logrus.Logger

	mu          sync.Mutex
	controllers map[string]*SpeechController
}

func NewSpeechManager(cache mongorepo.AudioCacheRepository, provider tts.Provider, player func(userID string) Player, log *logrus.Logger) *SpeechManager {
	return &SpeechManager{
		cache:       cache,
		tts:         provider,
		player:      player,
		log:         log,
		controllers: make(map[string]*SpeechController),
	}
}

func (m *SpeechManager) SetUploader(u storage.Uploader) { m.uploader = u }
func (m *SpeechManager) SetEvents(e SpeechEvents)       { m.events = e }

func (m *SpeechManager) ControllerFor(userID string) *SpeechController {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[userID]; ok {
		return c
	}
	c := NewSpeechController(userID, m.cache, m.tts, m.player(userID), m.log)
	if m.uploader != nil {
		c.SetUploader(m.uploader)
	}
	if m.events != nil {
		c.SetEvents(m.events)
	}
	m.controllers[userID] = c
	return c
}
