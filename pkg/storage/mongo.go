package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// Mongo defaults.
const (
	DefaultDatabase   = "depmanifest"
	DefaultCollection = "runs"
)

// MongoStore stores runs in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// runDoc is the BSON shape of a Run. Coordinates and roles are stored as
// strings so that documents stay readable in the mongo shell.
type runDoc struct {
	ID           string    `bson:"_id"`
	CreatedAt    time.Time `bson:"created_at"`
	Filename     string    `bson:"filename"`
	ManifestType string    `bson:"manifest_type,omitempty"`
	Project      string    `bson:"project,omitempty"`
	Platform     string    `bson:"platform,omitempty"`
	Roles        []string  `bson:"roles,omitempty"`
	Dependencies []depDoc  `bson:"dependencies"`
}

type depDoc struct {
	Coordinate string `bson:"coordinate"`
	Version    string `bson:"version"`
	Role       string `bson:"role"`
	Managed    bool   `bson:"managed,omitempty"`
}

// NewMongoStore connects to uri and returns a store backed by the runs
// collection of database (DefaultDatabase when empty). It pings the server
// and ensures the created_at index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s, err := NewMongoStoreFromClient(ctx, client, database)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Close disconnects it.
func NewMongoStoreFromClient(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDatabase
	}
	coll := client.Database(database).Collection(DefaultCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) SaveRun(ctx context.Context, run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}
	doc := toDoc(run)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *MongoStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var doc runDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return fromDoc(doc)
}

func (s *MongoStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(listLimit(limit)))
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var docs []runDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]*Run, 0, len(docs))
	for _, d := range docs {
		run, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)

func toDoc(run *Run) runDoc {
	doc := runDoc{
		ID:           run.ID,
		CreatedAt:    run.CreatedAt,
		Filename:     run.Filename,
		ManifestType: run.ManifestType,
		Project:      run.Project,
		Platform:     run.Platform,
		Roles:        run.Roles,
		Dependencies: make([]depDoc, len(run.Dependencies)),
	}
	for i, d := range run.Dependencies {
		doc.Dependencies[i] = depDoc{
			Coordinate: d.Coordinate.String(),
			Version:    d.Version,
			Role:       d.Role.String(),
			Managed:    d.Managed,
		}
	}
	return doc
}

func fromDoc(doc runDoc) (*Run, error) {
	run := &Run{
		ID:           doc.ID,
		CreatedAt:    doc.CreatedAt.UTC(),
		Filename:     doc.Filename,
		ManifestType: doc.ManifestType,
		Project:      doc.Project,
		Platform:     doc.Platform,
		Roles:        doc.Roles,
		Dependencies: make([]manifest.Resolved, len(doc.Dependencies)),
	}
	for i, d := range doc.Dependencies {
		coord, _, err := manifest.ParseCoordinate(d.Coordinate)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", doc.ID, err)
		}
		role, err := manifest.ParseRole(d.Role)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", doc.ID, err)
		}
		run.Dependencies[i] = manifest.Resolved{Coordinate: coord, Version: d.Version, Role: role, Managed: d.Managed}
	}
	return run, nil
}
