package database

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo is a MongoDB connection.
type Mongo struct {
	uri  string
	name string

	mu     sync.RWMutex
	client *mongo.Client
}

// NewMongo creates an unconnected MongoDB handle.
func NewMongo(uri, name string) *Mongo {
	return &Mongo{uri: uri, name: name}
}

// Connect opens the client and pings the primary.
func (m *Mongo) Connect(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(m.uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(2)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to create mongo client: %w", err)
	}

	// Verify connection against the configured database
	if err := client.Database(m.name).RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongo database %s: %w", m.name, err)
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()
	return nil
}

// Ping checks MongoDB connectivity.
func (m *Mongo) Ping(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil {
		return ErrNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client. Closing an unconnected handle is a no-op.
func (m *Mongo) Close(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Driver returns "mongodb".
func (m *Mongo) Driver() string {
	return "mongodb"
}
