package cached

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"student-registry/internal/adapter/cache"
	"student-registry/internal/domain/paging"
	domain "student-registry/internal/domain/user"
	"student-registry/internal/usecase/user"
)

// UserRepository decorates a persistent user.Repository with a cache-aside
// read path for single users. Writes go to the database first and then
// evict the affected entries; cache failures only degrade to the database.
type UserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewUserRepository creates a new instance of UserRepository. A nil cache
// turns it into a pass-through.
func NewUserRepository(dbRepo user.Repository, c cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{dbRepo: dbRepo, cache: c, log: log}
}

// Create delegates to the DB repository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	return r.dbRepo.Create(ctx, u)
}

// GetByID serves from the cache when possible. Concurrent misses for the
// same id share a single database read.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u := r.fromCache(ctx, id); u != nil {
		return u, nil
	}

	result, err, shared := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		if u := r.fromCache(ctx, id); u != nil {
			return u, nil
		}

		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, u); err != nil {
				r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
			}
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u := result.(*domain.User)
	if shared {
		// callers may mutate what they get back
		c := *u
		return &c, nil
	}
	return u, nil
}

func (r *UserRepository) fromCache(ctx context.Context, id int64) *domain.User {
	if r.cache == nil {
		return nil
	}
	u, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		return nil
	}
	return u
}

// GetCredentials never touches the cache: a password check against a stale
// hash would accept a password that was already changed.
func (r *UserRepository) GetCredentials(ctx context.Context, id int64) (*domain.User, error) {
	return r.dbRepo.GetCredentials(ctx, id)
}

// GetByEmail delegates to the DB repository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// Update writes through to the database and evicts the cached entry.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	id, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return 0, err
	}
	r.evict(ctx, "update", u.ID)
	return id, nil
}

// Delete removes the user and evicts the cached entry.
func (r *UserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	deletedID, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	r.evict(ctx, "delete", id)
	return deletedID, nil
}

// DeleteAll removes every user and evicts all of them from the cache.
func (r *UserRepository) DeleteAll(ctx context.Context) ([]domain.User, error) {
	deleted, err := r.dbRepo.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(deleted))
	for i, u := range deleted {
		ids[i] = u.ID
	}
	r.evict(ctx, "delete all", ids...)
	return deleted, nil
}

// List delegates to the DB repository.
func (r *UserRepository) List(ctx context.Context, filter string, page, size int64, dir paging.Direction) ([]domain.User, int64, error) {
	return r.dbRepo.List(ctx, filter, page, size, dir)
}

func (r *UserRepository) evict(ctx context.Context, op string, ids ...int64) {
	if r.cache == nil || len(ids) == 0 {
		return
	}
	if err := r.cache.DeleteMultiple(ctx, ids...); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("op", op), zap.Int("count", len(ids)), zap.Error(err))
	}
}
