package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func MongoDBName() string {
	if name := os.Getenv("MONGO_DB"); name != "" {
		return name
	}
	return "legalclear"
}

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	db := MongoClient.Database(MongoDBName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// audio_cache indexes
	audio := db.Collection("audio_cache")
	_, err := audio.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// 1) TTL index: expire at ExpiresAt (must be Date)
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		// 2) One clip per (user, key); regeneration replaces in place
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "cache_key", Value: 1}},
			Options: options.Index().
				SetName("uniq_user_key").
				SetUnique(true),
		},
		// 3) Sweep helper
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_user_created"),
		},
	})
	return err
}
