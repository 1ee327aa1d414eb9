// Package mongo implements the domain repositories on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"weighttracker/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

const (
	weightsCollection  = "weights"
	sessionsCollection = "sessions"
)

// Client wraps the MongoDB client and the application database.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	weights  *mongo.Collection
	now      func() time.Time

	indexMu    sync.Mutex
	indexReady bool
}

// Open configures a client for uri. The driver connects in the background,
// so an unreachable server surfaces on first use rather than here.
func Open(ctx context.Context, uri, database string) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	db := client.Database(database)
	return &Client{
		client:   client,
		database: db,
		weights:  db.Collection(weightsCollection),
		now:      time.Now,
	}, nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("failed to disconnect from mongodb")
		return err
	}
	return nil
}

// Ping checks connectivity and creates indexes on first success. Every
// repository call also creates them, so a server that was down at boot gets
// them on the first operation after it comes back.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return wrapErr("ping", err)
	}
	return c.ensureIndexes(ctx)
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	if c.indexReady {
		return nil
	}

	_, err := c.weights.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	})
	if err != nil {
		return wrapErr("create weights index", err)
	}
	_, err = c.database.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expiresAt", Value: 1}},
	})
	if err != nil {
		return wrapErr("create sessions index", err)
	}
	c.indexReady = true
	return nil
}

func wrapErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var selErr topology.ServerSelectionError
	return errors.As(err, &selErr)
}
