package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/features"
)

var sample = models.RiskResult{
	RiskLevel:       models.RiskHigh,
	Percentage:      "81.0%",
	Probability:     0.81,
	Recommendations: []string{"a", "b"},
}

func TestKeyDependsOnVariantOrderAndValues(t *testing.T) {
	vec := features.Vector{Columns: []string{"a", "b"}, Values: []float64{1, 2}}
	k := Key("ectopic", vec)

	assert.Equal(t, k, Key("ectopic", features.Vector{Columns: []string{"a", "b"}, Values: []float64{1, 2}}))
	assert.NotEqual(t, k, Key("molar", vec))
	assert.NotEqual(t, k, Key("ectopic", features.Vector{Columns: []string{"b", "a"}, Values: []float64{1, 2}}))
	assert.NotEqual(t, k, Key("ectopic", features.Vector{Columns: []string{"a", "b"}, Values: []float64{2, 1}}))
	assert.Contains(t, k, "ectopic:")
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Minute)

	_, ok, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k1", sample))
	got, ok, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got)

	got.Recommendations[0] = "mutated"
	again, _, _ := m.Get(ctx, "k1")
	assert.Equal(t, "a", again.Recommendations[0])

	require.NoError(t, m.Set(ctx, "k2", sample))
	require.NoError(t, m.Set(ctx, "k3", sample))
	assert.Equal(t, 2, m.Len())
	_, ok, _ = m.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", sample))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

type fakeRedis struct {
	data   map[string]string
	ttl    time.Duration
	getErr error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{data: map[string]string{}}
	c := NewRedis(fake, "", 5*time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", sample))
	assert.Contains(t, fake.data, "risk:k")
	assert.Equal(t, 5*time.Minute, fake.ttl)

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got)
}

func TestRedisErrors(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{data: map[string]string{"risk:bad": "{"}}
	c := NewRedis(fake, "risk", time.Minute)

	_, _, err := c.Get(ctx, "bad")
	assert.Error(t, err)

	fake.getErr = errors.New("connection refused")
	_, _, err = c.Get(ctx, "k")
	assert.Error(t, err)
}
