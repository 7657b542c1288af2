// Package mongo stores users as documents in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultDatabase is used when neither the configuration nor the URI names one.
const DefaultDatabase = "authapi"

// Database wraps a connected client and the selected database.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// New connects to uri and pings the primary. An empty name falls back to the
// database in the URI path, then to DefaultDatabase.
func New(ctx context.Context, uri, name string) (*Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	if name == "" {
		name = databaseFromURI(uri)
	}
	return &Database{Client: client, DB: client.Database(name)}, nil
}

// Name returns the selected database name.
func (d *Database) Name() string {
	return d.DB.Name()
}

// Close disconnects the client.
func (d *Database) Close(ctx context.Context) error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Disconnect(ctx)
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultDatabase
}
