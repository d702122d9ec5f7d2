// Package redis owns the shared go-redis pool used by the user cache and the
// request rate limiters.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultOpTimeout    = 3 * time.Second
	defaultCheckTimeout = time.Second
)

// Config holds Redis connection configuration. Zero timeouts fall back to
// the package defaults.
type Config struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int

	// OpTimeout bounds every read and write; dials get twice as long.
	OpTimeout time.Duration
	// CheckTimeout bounds Check when the caller's context has no deadline.
	CheckTimeout time.Duration
}

func (cfg Config) options() *redis.Options {
	op := cfg.OpTimeout
	if op <= 0 {
		op = defaultOpTimeout
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConn,
		DialTimeout:  2 * op,
		ReadTimeout:  op,
		WriteTimeout: op,
		PoolTimeout:  op + time.Second,
	}
}

// Client is the process-wide pool. The embedded client is handed to the
// cache and limiter adapters as-is.
type Client struct {
	*redis.Client
	log          *zap.Logger
	checkTimeout time.Duration
}

// NewClient dials cfg.Addr and fails unless a PING succeeds within ctx.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	opts := cfg.options()
	rdb := redis.NewClient(opts)

	start := time.Now()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	log = log.With(zap.String("redis_addr", opts.Addr), zap.Int("redis_db", opts.DB))
	log.Info("redis ready",
		zap.Int("pool_size", opts.PoolSize),
		zap.Duration("op_timeout", opts.ReadTimeout),
		zap.Duration("ping", time.Since(start)),
	)

	checkTimeout := cfg.CheckTimeout
	if checkTimeout <= 0 {
		checkTimeout = defaultCheckTimeout
	}
	return &Client{Client: rdb, log: log, checkTimeout: checkTimeout}, nil
}

// Check is the readiness probe for the cache backend.
func (c *Client) Check(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.checkTimeout)
		defer cancel()
	}
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close drains the pool and logs its lifetime counters.
func (c *Client) Close() error {
	st := c.Client.PoolStats()
	c.log.Info("closing redis pool",
		zap.Uint32("hits", st.Hits),
		zap.Uint32("misses", st.Misses),
		zap.Uint32("timeouts", st.Timeouts),
		zap.Uint32("total_conns", st.TotalConns),
	)
	return c.Client.Close()
}
