// Package database manages the process-wide database connection.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrNotConnected is returned by Ping before Connect has succeeded.
var ErrNotConnected = errors.New("database not connected")

// Database is a connection that is opened once at startup and closed once at shutdown.
type Database interface {
	// Connect opens the connection and verifies it.
	Connect(ctx context.Context) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the connection.
	Close(ctx context.Context) error
	// Driver names the backend ("mongodb" or "postgres").
	Driver() string
}

// New returns an unconnected Database for the URL scheme.
// mongodb:// and mongodb+srv:// select MongoDB; postgres:// and postgresql:// select PostgreSQL.
func New(databaseURL, databaseName string) (Database, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	switch parsed.Scheme {
	case "mongodb", "mongodb+srv":
		return NewMongo(databaseURL, databaseName), nil
	case "postgres", "postgresql":
		return NewPostgres(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", parsed.Scheme)
	}
}
