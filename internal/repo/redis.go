// Package repo persists room state in Redis. The store's native key expiry
// is the authoritative room lifetime: abandoned rooms clean themselves up.
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Key layout, one room spans three keys that live and die together.
func metaKey(id string) string {
	return fmt.Sprintf("meta:%s", id)
}
func tokensKey(id string) string {
	return fmt.Sprintf("tokens:%s", id)
}
func messagesKey(id string) string {
	return fmt.Sprintf("messages:%s", id)
}
