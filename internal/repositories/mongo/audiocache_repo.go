package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultRetention is how long a cached clip stays valid. The TTL index on
// expires_at enforces it lazily; EvictOlderThan is the explicit sweep.
const DefaultRetention = 7 * 24 * time.Hour

type AudioCacheRepository interface {
	Get(ctx context.Context, userID, cacheKey string) (*models.AudioCacheEntry, error)
	Put(ctx context.Context, e *models.AudioCacheEntry) error
	Delete(ctx context.Context, userID, cacheKey string) error
	Clear(ctx context.Context, userID string) error
	EvictOlderThan(ctx context.Context, window time.Duration) (int64, error)
}

type audioCacheRepo struct {
	col       *mongo.Collection
	retention time.Duration
}

func NewAudioCacheRepo(db *mongo.Database, retention time.Duration) AudioCacheRepository {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &audioCacheRepo{col: db.Collection("audio_cache"), retention: retention}
}

func (r *audioCacheRepo) Get(ctx context.Context, userID, cacheKey string) (*models.AudioCacheEntry, error) {
	var e models.AudioCacheEntry
	err := r.col.FindOne(ctx, bson.M{"user_id": userID, "cache_key": cacheKey}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &e, err
}

// Put has overwrite semantics: last write wins and the timestamps refresh.
func (r *audioCacheRepo) Put(ctx context.Context, e *models.AudioCacheEntry) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.ExpiresAt = now.Add(r.retention)

	_, err := r.col.ReplaceOne(ctx,
		bson.M{"user_id": e.UserID, "cache_key": e.CacheKey},
		e,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *audioCacheRepo) Delete(ctx context.Context, userID, cacheKey string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "cache_key": cacheKey})
	return err
}

func (r *audioCacheRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

func (r *audioCacheRepo) EvictOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	if window <= 0 {
		window = r.retention
	}
	cutoff := time.Now().UTC().Add(-window)
	res, err := r.col.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
