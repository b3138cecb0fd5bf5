package mgo

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"syncchat/config"
	"syncchat/logger"
)

type Manager struct {
	mu sync.RWMutex
	db *mongo.Database
}

var globalMgr Manager

// Connect dials Mongo with exponential backoff and pins the database
// handle. Blocks until the first ping succeeds or ctx is cancelled.
func Connect(ctx context.Context, cfg config.MongoConfig) error {
	op := func() error {
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cli, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return err
		}
		if err := cli.Ping(cctx, readpref.Primary()); err != nil {
			_ = cli.Disconnect(context.Background())
			return err
		}
		globalMgr.mu.Lock()
		globalMgr.db = cli.Database(cfg.Database)
		globalMgr.mu.Unlock()
		return nil
	}

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.RetryNotify(op, bo, func(err error, d time.Duration) {
		logger.Warnf("[mongo] connect failed: %v, retry in %s", err, d)
	})
}

// GetDB returns the pinned database handle; panics before Connect.
func GetDB() *mongo.Database {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.db == nil {
		panic("mongo not connected: call mgo.Connect first")
	}
	return globalMgr.db
}

func TryGetDB() (*mongo.Database, bool) {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.db == nil {
		return nil, false
	}
	return globalMgr.db, true
}

func Disconnect(ctx context.Context) error {
	globalMgr.mu.Lock()
	defer globalMgr.mu.Unlock()
	if globalMgr.db == nil {
		return nil
	}
	err := globalMgr.db.Client().Disconnect(ctx)
	globalMgr.db = nil
	return errors.Wrap(err, "mongo disconnect")
}
