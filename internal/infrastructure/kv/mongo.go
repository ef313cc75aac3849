package kv

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBackend keeps values in a kv collection keyed by _id and log entries
// in a kv_log collection ordered by their ObjectID.
type MongoBackend struct {
	client *mongo.Client
	values *mongo.Collection
	log    *mongo.Collection
}

type mongoValue struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type mongoEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Stream    string             `bson:"stream"`
	Value     string             `bson:"value"`
	CreatedAt time.Time          `bson:"created_at"`
}

// NewMongoBackend connects to uri and uses the given database.
func NewMongoBackend(ctx context.Context, uri, database string) (*MongoBackend, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(database)
	b := &MongoBackend{
		client: client,
		values: db.Collection("kv"),
		log:    db.Collection("kv_log"),
	}

	_, err = b.log.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "stream", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return b, nil
}

func (b *MongoBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc mongoValue
	err := b.values.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(doc.Value), true, nil
}

func (b *MongoBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.values.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoValue{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (b *MongoBackend) Remove(ctx context.Context, key string) error {
	_, err := b.values.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (b *MongoBackend) Append(ctx context.Context, stream string, value []byte) error {
	_, err := b.log.InsertOne(ctx, mongoEntry{
		Stream:    stream,
		Value:     string(value),
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (b *MongoBackend) Range(ctx context.Context, stream string) ([][]byte, error) {
	cur, err := b.log.Find(ctx, bson.M{"stream": stream}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out [][]byte
	for cur.Next(ctx) {
		var entry mongoEntry
		if err := cur.Decode(&entry); err != nil {
			return nil, err
		}
		out = append(out, []byte(entry.Value))
	}
	return out, cur.Err()
}

func (b *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.client.Disconnect(ctx)
}
