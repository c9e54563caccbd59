package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"secretbox/logger"
	"secretbox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	bootPingTimeout = 5 * time.Second
	// ServerSelectionTimeout caps how long an operation waits for a reachable server.
	// It stays below the page write budget so an outage surfaces as an error, not a hang.
	ServerSelectionTimeout = 3 * time.Second
	connectTimeout         = 3 * time.Second
)

// Mongo stores secrets in a MongoDB collection.
type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	indexed atomic.Bool
}

// OpenMongo connects to uri. An unreachable server is logged, not returned: the driver
// keeps reconnecting and indexes are created on the first successful Ping.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(ServerSelectionTimeout).
		SetConnectTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	m := &Mongo{client: client, coll: client.Database(database).Collection(collection)}

	pctx, cancel := context.WithTimeout(ctx, bootPingTimeout)
	defer cancel()
	if err := m.Ping(pctx); err != nil {
		logger.Error("mongo unreachable at startup; serving without storage until it recovers", err)
		return m, nil
	}
	logger.Info("mongo initialized", logger.FieldKV("database", database), logger.FieldKV("collection", collection))
	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// Ping checks the primary and ensures indexes once it answers.
func (m *Mongo) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	if !m.indexed.Load() {
		if err := m.ensureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		m.indexed.Store(true)
	}
	return nil
}

// Insert performs an idempotent insert keyed on message_id.
func (m *Mongo) Insert(ctx context.Context, msg models.Message) error {
	if m.coll == nil {
		return fmt.Errorf("messages collection not initialized")
	}
	filter := bson.M{"message_id": msg.MessageID}
	update := bson.M{"$setOnInsert": msg}
	opts := options.Update().SetUpsert(true)
	_, err := m.coll.UpdateOne(ctx, filter, update, opts)
	return err
}

// Recent returns the newest secrets. created_at is stored at millisecond precision, so
// _id (monotonic ObjectId) breaks ties between same-millisecond writes.
func (m *Mongo) Recent(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}
	if m.coll == nil {
		return nil, fmt.Errorf("messages collection not initialized")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]models.Message, 0, limit)
	for cur.Next(ctx) {
		var msg models.Message
		if err := cur.Decode(&msg); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, cur.Err()
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "message_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_message_id")},
		{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_created_at_desc")},
	})
	return err
}
