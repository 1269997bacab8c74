package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo owns the process-wide MongoDB client. It is created once in main
// and passed to the repositories.
type Mongo struct {
	cfg MongoConfig
	log *slog.Logger

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(log *slog.Logger, cfg MongoConfig) *Mongo {
	return &Mongo{cfg: cfg, log: log}
}

// EnsureConnected connects and pings the server. It is idempotent: once a
// connection is established later calls return immediately. A failed
// attempt leaves the Mongo unconnected so the next call retries.
func (m *Mongo) EnsureConnected(ctx context.Context) (*mongo.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}
	if m.cfg.URI == "" {
		return nil, errors.New("please define the MONGODB_URI environment variable")
	}

	var client *mongo.Client
	connect := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()

		c, err := mongo.Connect(attemptCtx, options.Client().
			ApplyURI(m.cfg.URI).
			SetServerSelectionTimeout(m.cfg.Timeout))
		if err != nil {
			return err
		}
		if err := c.Ping(attemptCtx, nil); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	err := backoff.RetryNotify(connect, policy, func(err error, wait time.Duration) {
		m.log.Warn("mongodb connect failed, retrying", slog.String("error", err.Error()), slog.Duration("wait", wait))
	})
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	m.log.Info("connected to MongoDB", slog.String("database", m.cfg.Database))
	m.client = client
	m.db = client.Database(m.cfg.Database)
	return m.db, nil
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client, m.db = nil, nil
	return err
}
