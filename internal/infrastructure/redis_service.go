package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	tokenPrefix      = "token:"
	oauthStatePrefix = "oauth_state:"
)

type RedisOptions struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

// NewRedisClient prefers a REDIS_URL style connection string and falls back
// to host/port settings. The connection is checked with a ping.
func NewRedisClient(ctx context.Context, o RedisOptions) (*redis.Client, error) {
	var opt *redis.Options
	if o.URL != "" {
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{
			Addr:     o.Addr,
			Password: o.Password,
			DB:       o.DB,
		}
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("connected to Redis at %s", opt.Addr)
	return client, nil
}

// RedisService keeps the session registry and pending OAuth states.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func (r *RedisService) SetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	return r.client.Set(ctx, tokenPrefix+token, email, ttl).Err()
}

// GetToken returns the email registered for token, or "" if the session is
// unknown or expired.
func (r *RedisService) GetToken(ctx context.Context, token string) (string, error) {
	email, err := r.client.Get(ctx, tokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

func (r *RedisService) DeleteToken(ctx context.Context, token string) error {
	return r.client.Del(ctx, tokenPrefix+token).Err()
}

func (r *RedisService) SetOAuthState(ctx context.Context, state string, ttl time.Duration) error {
	return r.client.Set(ctx, oauthStatePrefix+state, "1", ttl).Err()
}

// ConsumeOAuthState deletes state and reports whether it was pending.
func (r *RedisService) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	_, err := r.client.GetDel(ctx, oauthStatePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisService) Close() error {
	return r.client.Close()
}
