package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// MongoStore writes analyses to a MongoDB collection. Each document
// carries query metadata for filtering plus the full analysis as a JSON
// payload, so the wire schema stays identical to the file backend.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

// mongoDoc is the stored document shape.
type mongoDoc struct {
	Query     string    `bson:"query"`
	Slug      string    `bson:"slug"`
	Timestamp time.Time `bson:"timestamp"`
	Source    string    `bson:"source"`
	Pages     int       `bson:"pages"`
	AvgScore  int       `bson:"avg_score"`
	Payload   []byte    `bson:"payload"`
}

// NewMongoStore connects to MongoDB and pings it before returning.
func NewMongoStore(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	database := cfg.MongoDatabase
	if database == "" {
		database = "serpscope"
	}
	collection := cfg.MongoCollection
	if collection == "" {
		collection = "analyses"
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
		logger: logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Save(ctx context.Context, a *types.Analysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return &types.StorageError{Backend: "mongo", Op: "marshal", Err: err}
	}

	doc := mongoDoc{
		Query:     a.Query,
		Slug:      a.Slug(),
		Timestamp: a.Timestamp,
		Source:    a.Source,
		Pages:     a.Analyzed,
		AvgScore:  a.Summary.AvgSEOScore,
		Payload:   payload,
	}

	insertCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.coll.InsertOne(insertCtx, doc); err != nil {
		return &types.StorageError{Backend: "mongo", Op: "insert", Err: err}
	}
	s.logger.Debug("analysis stored", "query", a.Query, "pages", a.Analyzed)
	return nil
}

// Latest returns the most recent analysis for a query.
func (s *MongoStore) Latest(ctx context.Context, query string) (*types.Analysis, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx,
		bson.M{"slug": types.SlugifyQuery(query)},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "mongo", Op: "find", Err: err}
	}
	return decodePayload(doc.Payload)
}

// History returns up to limit analyses for a query, newest first.
func (s *MongoStore) History(ctx context.Context, query string, limit int) ([]*types.Analysis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{"slug": types.SlugifyQuery(query)}, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: "mongo", Op: "find", Err: err}
	}
	defer cur.Close(ctx)

	var analyses []*types.Analysis
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, &types.StorageError{Backend: "mongo", Op: "decode", Err: err}
		}
		a, err := decodePayload(doc.Payload)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, cur.Err()
}

// List returns one entry per stored analysis, newest first.
func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetProjection(bson.M{"payload": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: "mongo", Op: "list", Err: err}
	}
	defer cur.Close(ctx)

	var entries []Entry
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, &types.StorageError{Backend: "mongo", Op: "decode", Err: err}
		}
		entries = append(entries, Entry{
			Query:     doc.Query,
			Slug:      doc.Slug,
			Timestamp: doc.Timestamp,
			Pages:     doc.Pages,
			AvgScore:  doc.AvgScore,
		})
	}
	return entries, cur.Err()
}

func decodePayload(payload []byte) (*types.Analysis, error) {
	var a types.Analysis
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, &types.StorageError{Backend: "mongo", Op: "decode payload", Err: err}
	}
	return &a, nil
}
