package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const appName = "storefront-cart"

// ConnectOptions describes the cart database. Zero durations and pool sizes
// fall back to the driver defaults.
type ConnectOptions struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

func (o ConnectOptions) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(o.URI).SetAppName(appName)
	if o.ConnectTimeout > 0 {
		opts.SetConnectTimeout(o.ConnectTimeout)
	}
	if o.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(o.ServerSelectionTimeout)
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 && (o.MaxPoolSize == 0 || o.MinPoolSize <= o.MaxPoolSize) {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	return opts
}

// Connect opens the client, checks the server answers and returns the cart
// database. The client is disconnected again when the ping fails.
func Connect(ctx context.Context, o ConnectOptions) (*mongo.Database, error) {
	if o.Database == "" {
		return nil, errors.New("mongo database name is empty")
	}

	client, err := mongo.Connect(ctx, o.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(o.Database), nil
}
