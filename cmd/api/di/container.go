package di

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-registry/cmd/api/infrastructure"
	"student-registry/internal/adapter/cache"
	"student-registry/internal/adapter/db/postgres"
	ginhandler "student-registry/internal/adapter/gin/handler"
	"student-registry/internal/adapter/repository/cached"
	"student-registry/internal/config"
	"student-registry/internal/usecase/teacher"
	"student-registry/internal/usecase/user"
	"student-registry/pkg/ratelimit"
	redisclient "student-registry/pkg/redis"
	"student-registry/pkg/security"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	DB             *gorm.DB
	RedisClient    *redisclient.Client // nil when Redis is disabled
	UserUC         user.UserUsecase
	TeacherUC      teacher.TeacherUsecase
	Tokens         *security.TokenIssuer
	Limiter        *ratelimit.TokenBucket // nil when rate limiting is disabled
	UserHandler    *ginhandler.UserHandler
	TeacherHandler *ginhandler.TeacherHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	c := &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
	}

	var userCache cache.UserCache
	if rdb != nil {
		userCache = cache.NewRedisUserCache(rdb.Client, time.Duration(cfg.Redis.CacheTTL)*time.Second, l)
		if cfg.RateLimit.Enabled {
			c.Limiter = ratelimit.NewTokenBucket(rdb.Client, ratelimit.Config{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
			})
		}
	}

	userRepo := cached.NewUserRepository(postgres.NewUserRepoPG(db, l), userCache, l)
	c.UserUC = user.New(userRepo, l, int64(cfg.Users.PageSize))
	c.TeacherUC = teacher.New(postgres.NewTeacherRepoPG(db, l), l)

	c.Tokens = security.NewTokenIssuer(
		cfg.Auth.JWTSecret,
		cfg.Auth.Issuer,
		time.Duration(cfg.Auth.TokenTTL)*time.Minute,
	)

	c.UserHandler = ginhandler.NewUserHandler(c.UserUC, l, cfg.Users.FormCookieMaxAge)
	c.TeacherHandler = ginhandler.NewTeacherHandler(c.TeacherUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
