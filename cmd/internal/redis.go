package internal

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/envvar"
)

//NewRedis instantiates the Redis client using configuration defined in environment variables.
func NewRedis(conf *envvar.Configuration) (*redis.Client, error) {
	host, err := conf.Get("REDIS_HOST")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get REDIS_HOST")
	}

	db, err := conf.GetInt("REDIS_DB", 0)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get REDIS_DB")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: host,
		DB:   db,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rdb.Ping")
	}

	return rdb, nil
}
