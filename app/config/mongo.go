package config

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitMongo connects a MongoDB client and returns it.
func InitMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	return mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
}
