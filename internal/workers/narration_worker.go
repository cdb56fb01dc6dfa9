package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/providers/tts"
	mongorepo "github.com/legalclear/legalclear/internal/repositories/mongo"
	"github.com/legalclear/legalclear/internal/services"
	"github.com/legalclear/legalclear/internal/storage"
	"github.com/legalclear/legalclear/internal/utils"
)

// NarrationWorkerPool pre-generates section narration off the request path.
// The analysis loader enqueues the narratable sections after a successful
// submit; workers fill the audio cache so the first "listen" click is a
// cache hit.
type NarrationWorkerPool struct {
	Redis      *redis.Client
	Store      storage.SessionStore
	Cache      mongorepo.AudioCacheRepository
	TTS        tts.Provider
	NumWorkers int

	Events services.SpeechEvents
	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	Voice       string
	StylePrompt string
}

func (p *NarrationWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Store == nil || p.Cache == nil || p.TTS == nil {
		return errors.New("NarrationWorkerPool missing dependency: Redis/Store/Cache/TTS must be set")
	}
	if p.Stream == "" {
		p.Stream = "narration:stream"
	}
	if p.Group == "" {
		p.Group = "narration-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "n"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

// Enqueue schedules narration pre-generation for the given sections.
func (p *NarrationWorkerPool) Enqueue(ctx context.Context, userID string, sections []string) error {
	for _, section := range sections {
		err := p.Redis.XAdd(ctx, &redis.XAddArgs{
			Stream: p.Stream,
			Values: map[string]any{
				"user_id": userID,
				"section": section,
			},
		}).Err()
		if err != nil {
			return err
		}
	}
	return nil
}

// SweepAudioCache runs the retention sweep. It is scheduled opportunistically
// at startup and never sits on the playback path.
func (p *NarrationWorkerPool) SweepAudioCache(ctx context.Context, window time.Duration) {
	n, err := p.Cache.EvictOlderThan(ctx, window)
	if err != nil {
		p.Logger.WithError(err).Warn("audio cache sweep failed")
		return
	}
	if n > 0 {
		p.Logger.WithField("evicted", n).Info("audio cache sweep")
	}
}

func (p *NarrationWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *NarrationWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	userID := getStr("user_id")
	section := getStr("section")
	if userID == "" || section == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"user_id":  userID,
		"section":  section,
	})

	// already cached: nothing to do
	if entry, err := p.Cache.Get(ctx, userID, section); err == nil && utils.IsPlayableWAV(entry.Audio) {
		return
	}

	res, hit, err := p.Store.GetAnalysis(ctx, userID)
	if err != nil || !hit {
		// analysis gone (session ended or cleared); drop the job
		return
	}

	text := utils.SectionText(section, &res.Analysis)
	if text == "" {
		return
	}

	if p.Events != nil {
		p.Events.Publish(ctx, userID, "generating", section)
	}

	pcm, rate, err := p.TTS.Synthesize(ctx, utils.TruncateForSpeech(text), p.Voice, p.StylePrompt)
	if err != nil {
		log.WithError(err).Warn("narration pre-generation failed")
		return
	}

	wav := utils.PCMToWAV(pcm, rate, 1, 16)
	err = p.Cache.Put(ctx, &models.AudioCacheEntry{
		UserID:   userID,
		CacheKey: section,
		Audio:    wav,
		MimeType: "audio/wav",
	})
	if err != nil {
		log.WithError(err).Warn("narration cache write failed")
		return
	}

	log.Debug("narration pre-generated")
}
