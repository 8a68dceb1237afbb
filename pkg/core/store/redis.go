package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tdnet_xbrl/pkg/core/extract"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration // zero keeps records forever
}

// RedisCache keeps record JSON under <prefix>record:<document id> and a set
// of document ids per company under <prefix>company:<code>.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisCache(client, cfg), nil
}

func newRedisCache(client *redis.Client, cfg RedisConfig) *RedisCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "tdnet:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: cfg.TTL}
}

func (c *RedisCache) recordKey(documentID string) string {
	return c.prefix + "record:" + documentID
}

func (c *RedisCache) companyKey(code string) string {
	return c.prefix + "company:" + code
}

// Save stores the record and indexes it under its company.
func (c *RedisCache) Save(ctx context.Context, rec *extract.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.recordKey(rec.DocumentID), data, c.ttl)
		pipe.SAdd(ctx, c.companyKey(rec.CompanyCode), rec.DocumentID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

// Load retrieves one record.
func (c *RedisCache) Load(ctx context.Context, documentID string) (*extract.Record, error) {
	data, err := c.client.Get(ctx, c.recordKey(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeRecord(data)
}

// ListByCompany loads every indexed record of a company. Ids whose record
// has expired are dropped from the index.
func (c *RedisCache) ListByCompany(ctx context.Context, companyCode string) ([]*extract.Record, error) {
	ids, err := c.client.SMembers(ctx, c.companyKey(companyCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.recordKey(id)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	var (
		out   []*extract.Record
		stale []any
	)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		rec, err := decodeRecord([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if len(stale) > 0 {
		if err := c.client.SRem(ctx, c.companyKey(companyCode), stale...).Err(); err != nil {
			return nil, fmt.Errorf("redis srem: %w", err)
		}
	}
	sortRecords(out)
	return out, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
