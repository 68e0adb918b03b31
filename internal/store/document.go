package store

import (
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// mongoStore implements DocumentStore on MongoDB.
type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func newMongoStore(ctx context.Context, uri, database string) (*mongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return &mongoStore{
		client: client,
		db:     client.Database(database),
	}, nil
}

func (m *mongoStore) close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *mongoStore) Get(ctx context.Context, collection, id string) (bson.M, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	coll := m.db.Collection(collection)

	var doc bson.M
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) && IsLegacyHexID(id) {
		// Records written before string ids were adopted carry ObjectId keys.
		if oid, oidErr := primitive.ObjectIDFromHex(id); oidErr == nil {
			err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
		}
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	normalizeID(doc)
	return doc, nil
}

func (m *mongoStore) Search(ctx context.Context, collection string, filter bson.M, limit int64) ([]bson.M, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := make([]bson.M, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("search %s: decode: %w", collection, err)
		}
		normalizeID(doc)
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	return docs, nil
}

func (m *mongoStore) Insert(ctx context.Context, collection string, doc bson.M) (string, error) {
	id, _ := doc["_id"].(string)
	if id == "" {
		generated, err := gonanoid.New()
		if err != nil {
			return "", fmt.Errorf("insert %s: generate id: %w", collection, err)
		}
		id = generated
		doc["_id"] = id
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

func (m *mongoStore) Update(ctx context.Context, collection, id string, fields bson.M) (bool, error) {
	coll := m.db.Collection(collection)

	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return false, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 && IsLegacyHexID(id) {
		if oid, oidErr := primitive.ObjectIDFromHex(id); oidErr == nil {
			result, err = coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
			if err != nil {
				return false, fmt.Errorf("update %s/%s: %w", collection, id, err)
			}
		}
	}
	return result.MatchedCount > 0, nil
}

func (m *mongoStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	coll := m.db.Collection(collection)

	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if result.DeletedCount == 0 && IsLegacyHexID(id) {
		if oid, oidErr := primitive.ObjectIDFromHex(id); oidErr == nil {
			result, err = coll.DeleteOne(ctx, bson.M{"_id": oid})
			if err != nil {
				return false, fmt.Errorf("delete %s/%s: %w", collection, id, err)
			}
		}
	}
	return result.DeletedCount > 0, nil
}

func (m *mongoStore) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	count, err := m.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return count, nil
}

// normalizeID rewrites a legacy ObjectId primary key to its hex string so
// every caller sees opaque string identifiers.
func normalizeID(doc bson.M) {
	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		doc["_id"] = oid.Hex()
	}
}
