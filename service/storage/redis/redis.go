package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/pkg/errors"

	"syncchat/config"
)

var rdb *goredis.Client

func Init(cfg config.RedisConfig) error {
	rdb = goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(rdb.Ping(ctx).Err(), "redis ping")
}

func Client() *goredis.Client {
	if rdb == nil {
		panic("redis not initialized: call redis.Init first")
	}
	return rdb
}

func Close() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	return err
}
