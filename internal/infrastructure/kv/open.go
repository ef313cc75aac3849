package kv

import (
	"context"
	"fmt"
	"log"

	"github.com/example/ec-storefront/internal/config"
)

// Open connects the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Println("[KV] Using in-memory store (data is lost on exit)")
		return NewMemoryBackend(), nil

	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b, err := NewSQLBackend(ctx, db, SQLite)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Printf("[KV] Using SQLite store at %s", cfg.SQLitePath)
		return b, nil

	case config.DriverPostgres:
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		b, err := NewSQLBackend(ctx, db, Postgres)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Println("[KV] Using PostgreSQL store")
		return b, nil

	case config.DriverRedis:
		b, err := NewRedisBackend(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Printf("[KV] Using Redis store at %s", cfg.RedisAddr)
		return b, nil

	case config.DriverMongo:
		b, err := NewMongoBackend(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		log.Printf("[KV] Using MongoDB store (database %s)", cfg.MongoDatabase)
		return b, nil

	case config.DriverDynamo:
		b, err := NewDynamoBackend(ctx, cfg.AWSRegion, cfg.DynamoKVTable, cfg.DynamoLogTable)
		if err != nil {
			return nil, err
		}
		log.Printf("[KV] Using DynamoDB store (tables %s, %s)", cfg.DynamoKVTable, cfg.DynamoLogTable)
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.StoreDriver)
}
