package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pedigree/pkg/document"
)

// MongoConfig locates a MongoDB collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Defaults for [MongoConfig].
const (
	DefaultMongoDatabase   = "pedigree"
	DefaultMongoCollection = "documents"
)

// mongoRecord is the stored shape. The document is kept as structured BSON
// so it can be queried in place.
type mongoRecord struct {
	ID        string            `bson:"_id"`
	Document  document.Document `bson:"document"`
	Size      int               `bson:"size"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// MongoStore keeps one record per document in a collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// OpenMongo connects to cfg.URI and verifies the connection.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, storeErr(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storeErr(err, "ping mongo")
	}
	return NewMongoStore(client, cfg.Database, cfg.Collection), nil
}

// NewMongoStore wraps an existing client.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    time.Now,
	}
}

func (s *MongoStore) Backend() string { return BackendMongo }

func (s *MongoStore) Get(ctx context.Context, id string) ([]byte, error) {
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeErr(err, "get %s", id)
	}
	data, err := json.Marshal(rec.Document)
	if err != nil {
		return nil, storeErr(err, "encode %s", id)
	}
	return data, nil
}

func (s *MongoStore) Put(ctx context.Context, id string, data []byte) error {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return storeErr(err, "decode %s", id)
	}
	rec := mongoRecord{ID: id, Document: doc, Size: len(data), UpdatedAt: s.now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return storeErr(err, "put %s", id)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err, "delete %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "size": 1, "updated_at": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr(err, "list documents")
	}
	defer cur.Close(ctx)

	var out []Info
	for cur.Next(ctx) {
		var rec struct {
			ID        string    `bson:"_id"`
			Size      int       `bson:"size"`
			UpdatedAt time.Time `bson:"updated_at"`
		}
		if err := cur.Decode(&rec); err != nil {
			return nil, storeErr(err, "decode document record")
		}
		out = append(out, Info{ID: rec.ID, Size: rec.Size, UpdatedAt: rec.UpdatedAt.UTC()})
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr(err, "list documents")
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
