package config

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB connects to MongoDB and prepares the analyses collection.
// The ping is retried a few times so the service survives the store coming
// up slightly later than us; request-path operations are never retried.
func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	err = retry.Do(
		func() error {
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			defer pingCancel()
			return client.Ping(pingCtx, nil)
		},
		retry.Attempts(5),
		retry.Delay(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg.DBName); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	analysesCollection := db.Collection("analyses")
	analysisIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "filename", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "analysis_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := analysesCollection.Indexes().CreateMany(context.Background(), analysisIndexes)
	return err
}
