package models

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/talentwire/points-service/config/redis"
	"github.com/talentwire/points-service/utils"
)

type Cacher interface {
	GetKey(key string) utils.Result[string]
	SetKey(key string, value string, ttl time.Duration) utils.Result[bool]
	DeleteKey(key string) utils.Result[bool]
	Close() error
}

type CacheStore struct {
	context context.Context
	db      *redis.RedisDB
}

func NewCacheStore(ctx context.Context, db *redis.RedisDB) *CacheStore {
	return &CacheStore{
		context: ctx,
		db:      db,
	}
}

func (store *CacheStore) GetKey(key string) utils.Result[string] {
	value, err := store.db.Client.Get(store.context, key).Result()
	if err == goredis.Nil {
		return utils.FailedResult[string](err).NonCapturable().NonRetryable()
	}
	if err != nil {
		return utils.FailedResult[string](err)
	}

	return utils.SuccessResult(value)
}

func (store *CacheStore) SetKey(key string, value string, ttl time.Duration) utils.Result[bool] {
	if err := store.db.Client.Set(store.context, key, value, ttl).Err(); err != nil {
		return utils.FailedResult[bool](err)
	}

	return utils.SuccessResult(true)
}

func (store *CacheStore) DeleteKey(key string) utils.Result[bool] {
	if err := store.db.Client.Del(store.context, key).Err(); err != nil {
		return utils.FailedResult[bool](err)
	}

	return utils.SuccessResult(true)
}

func (store *CacheStore) Close() error {
	return store.db.Client.Close()
}
