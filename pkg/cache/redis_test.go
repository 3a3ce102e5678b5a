package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/nodeio/pkg/errors"
)

func TestNewRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "http://localhost:6379")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("NewRedisCache() error = %v, want INVALID_CONFIG", err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client)
	defer c.Close()

	ctx := context.Background()
	if _, ok, err := c.Get(ctx, "k"); err == nil || ok {
		t.Errorf("Get() = ok %v, err %v, want a connection error", ok, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("Set() error = nil, want a connection error")
	}
}
