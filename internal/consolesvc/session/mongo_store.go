package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/console-services/internal/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "console_sessions"

// MongoStore persists sessions in console_sessions. Expired documents are
// removed by a TTL index on expires_at.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(ctx context.Context, database *mongo.Database) (*MongoStore, error) {
	if err := db.CreateTTLIndexForCollection(ctx, database, collectionName); err != nil {
		return nil, fmt.Errorf("create session ttl index: %w", err)
	}
	return &MongoStore{coll: database.Collection(collectionName)}, nil
}

func (m *MongoStore) Save(ctx context.Context, rec Record) error {
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (m *MongoStore) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	// the TTL monitor runs once a minute, so filter expired ones here too
	err := m.coll.FindOne(ctx, bson.M{"_id": id, "expires_at": bson.M{"$gt": time.Now()}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return rec, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
