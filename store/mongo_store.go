package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/looptalk/flowgraph/graph"
)

// workflowDoc is the MongoDB document shape: the workflow id as _id
// and the graph serialized as a JSON blob, mirroring the other
// backends rather than exploding the graph into BSON.
type workflowDoc struct {
	ID        string    `bson:"_id"`
	Document  []byte    `bson:"document"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore is a MongoDB-backed implementation of Store for
// deployments that already run a document database.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoStore connects to MongoDB and verifies connectivity.
func NewMongoStore(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	if cfg.URI == "" || cfg.Database == "" || cfg.Collection == "" {
		return nil, ErrInvalidInput
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: logger.With(zap.String("component", "mongo_store")),
	}, nil
}

// Fetch retrieves a workflow graph by id.
func (s *MongoStore) Fetch(ctx context.Context, workflowID string) (*graph.Graph, error) {
	var doc workflowDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": workflowID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var g graph.Graph
	if err := json.Unmarshal(doc.Document, &g); err != nil {
		return nil, fmt.Errorf("corrupt workflow document %s: %w", workflowID, err)
	}
	return &g, nil
}

// Save replaces the stored graph and echoes back the persisted form.
func (s *MongoStore) Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error) {
	if workflowID == "" || g == nil {
		return nil, ErrInvalidInput
	}

	persisted := normalize(g)
	data, err := json.Marshal(persisted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}

	doc := workflowDoc{ID: workflowID, Document: data, UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": workflowID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return persisted, nil
}

// Ping checks if the store is healthy.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
