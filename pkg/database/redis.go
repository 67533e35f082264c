package database

import (
	"context"
	"fmt"

	errprocess "marketplace_chat_service/pkg/err"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient init a plain Redis connection
func NewRedisClient(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("failed to connect to redis [%s]: %v", addr, err))
	}

	return rdb, nil
}
