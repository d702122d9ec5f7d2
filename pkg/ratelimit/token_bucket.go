package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes a bucket stored as a Redis hash
// {last_refill, tokens}. Returns 1 when the request is allowed.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HMSET', key, 'last_refill', now, 'tokens', tokens)
redis.call('EXPIRE', key, ttl)
return allowed
`)

// Config holds token bucket settings.
type Config struct {
	RequestsPerSecond float64
	BurstCapacity     int
}

// TokenBucket is a Redis-backed token bucket shared by every API instance.
type TokenBucket struct {
	client redis.Scripter
	config Config
	now    func() time.Time
}

// NewTokenBucket creates a limiter that stores buckets in client.
func NewTokenBucket(client redis.Scripter, config Config) *TokenBucket {
	return &TokenBucket{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// Allow consumes one token from the bucket named key.
func (b *TokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(b.now().UnixMilli()) / 1000

	allowed, err := tokenBucketScript.Run(ctx, b.client, []string{"ratelimit:tb:" + key},
		b.config.RequestsPerSecond,
		b.config.BurstCapacity,
		now,
		b.bucketTTLSeconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}

	return allowed == 1, nil
}

// Config returns the limiter settings.
func (b *TokenBucket) Config() Config {
	return b.config
}

// bucketTTLSeconds keeps a bucket until it would have refilled completely.
func (b *TokenBucket) bucketTTLSeconds() int {
	if b.config.RequestsPerSecond <= 0 {
		return 60
	}
	ttl := int(float64(b.config.BurstCapacity)/b.config.RequestsPerSecond) + 1
	if ttl < 60 {
		ttl = 60
	}
	return ttl
}
