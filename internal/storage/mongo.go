package storage

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/msstter/Infinite-canvas/internal/domain"
)

// mongoStore implements the record store on MongoDB, one document per item.
type mongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoRecord mirrors domain.Record with the id as the document key.
type mongoRecord struct {
	ID      string             `bson:"_id"`
	Kind    string             `bson:"kind"`
	Box     domain.BoundingBox `bson:"box"`
	Payload string             `bson:"payload"`
}

func openMongo(uri string) (*mongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoStore{
		client: client,
		coll:   client.Database(mongoDatabase(uri)).Collection("items"),
	}, nil
}

// mongoDatabase extracts the database name from the URI path, defaulting to
// "canvas".
func mongoDatabase(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if at := strings.Index(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		name := rest[slash+1:]
		if q := strings.Index(name, "?"); q != -1 {
			name = name[:q]
		}
		if name != "" {
			return name
		}
	}
	return "canvas"
}

func toMongo(rec domain.Record) mongoRecord {
	return mongoRecord{ID: rec.ID, Kind: string(rec.Kind), Box: rec.Box, Payload: string(rec.Payload)}
}

func fromMongo(m mongoRecord) domain.Record {
	return domain.Record{ID: m.ID, Kind: domain.ItemKind(m.Kind), Box: m.Box, Payload: []byte(m.Payload)}
}

func (s *mongoStore) ListAll(ctx context.Context) ([]domain.Record, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []domain.Record
	for cursor.Next(ctx) {
		var m mongoRecord
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		recs = append(recs, fromMongo(m))
	}
	return recs, cursor.Err()
}

func (s *mongoStore) Put(ctx context.Context, rec domain.Record) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, toMongo(rec),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put item %s: %w", rec.ID, err)
	}
	return nil
}

func (s *mongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

func (s *mongoStore) ClearAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	return nil
}

func (s *mongoStore) BulkReplace(ctx context.Context, recs []domain.Record) error {
	if err := s.ClearAll(ctx); err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, toMongo(rec))
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *mongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
