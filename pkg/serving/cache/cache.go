// Package cache memoizes risk results by feature vector. Predictions are
// deterministic for a loaded model, so a vector fully identifies a result.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/features"
)

const (
	ModeNone   = "none"
	ModeMemory = "memory"
	ModeRedis  = "redis"
)

type Cache interface {
	Get(ctx context.Context, key string) (models.RiskResult, bool, error)
	Set(ctx context.Context, key string, result models.RiskResult) error
}

// Key hashes the variant and the ordered vector. Column names are part of
// the hash so a layout change never reuses stale entries.
func Key(variant string, vec features.Vector) string {
	h := sha256.New()
	h.Write([]byte(variant))
	h.Write([]byte{0})
	for _, c := range vec.Columns {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	var buf [8]byte
	for _, v := range vec.Values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return variant + ":" + hex.EncodeToString(h.Sum(nil))
}

func clone(r models.RiskResult) models.RiskResult {
	r.Recommendations = append([]string{}, r.Recommendations...)
	return r
}

type Noop struct{}

func (Noop) Get(context.Context, string) (models.RiskResult, bool, error) {
	return models.RiskResult{}, false, nil
}

func (Noop) Set(context.Context, string, models.RiskResult) error { return nil }

// Memory is a bounded in-process cache with per-entry expiry.
type Memory struct {
	lru *expirable.LRU[string, models.RiskResult]
}

func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 1024
	}
	return &Memory{lru: expirable.NewLRU[string, models.RiskResult](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (models.RiskResult, bool, error) {
	r, ok := m.lru.Get(key)
	if !ok {
		return models.RiskResult{}, false, nil
	}
	return clone(r), true, nil
}

func (m *Memory) Set(_ context.Context, key string, result models.RiskResult) error {
	m.lru.Add(key, clone(result))
	return nil
}

func (m *Memory) Len() int { return m.lru.Len() }

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis shares results between service replicas.
type Redis struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

func NewRedis(client redisClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "risk"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(k string) string {
	return fmt.Sprintf("%s:%s", r.prefix, k)
}

func (r *Redis) Get(ctx context.Context, key string) (models.RiskResult, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RiskResult{}, false, nil
	}
	if err != nil {
		return models.RiskResult{}, false, err
	}
	var res models.RiskResult
	if err := json.Unmarshal(data, &res); err != nil {
		return models.RiskResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, result models.RiskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), data, r.ttl).Err()
}
