package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"student-registry/internal/domain/paging"
	domain "student-registry/internal/domain/user"
	pkgerrors "student-registry/pkg/errors"
	"student-registry/pkg/logger"
	"student-registry/pkg/security"
	"student-registry/pkg/validation"
)

// Messages surfaced to API clients.
const (
	MsgUserNotFound    = "User with that id doesn't exist."
	MsgIDOnCreate      = "An account with existing id cannot be created."
	MsgIDMismatch      = "Id doesn't match."
	MsgWrongPassword   = "Wrong password."
	MsgPasswordsDiffer = "Passwords don't match."
	MsgNoUsers         = "There is no user in this database."
	MsgEmailTaken      = "An account with this email already exists."
)

// DefaultPageSize is used when New is given a non-positive page size.
const DefaultPageSize = 20

// Repository defines the interface for user data access operations.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)        // NotFoundError when absent
	GetCredentials(ctx context.Context, id int64) (*domain.User, error) // like GetByID, never served from a cache
	GetByEmail(ctx context.Context, email string) (*domain.User, error) // (nil, nil) when absent
	Update(ctx context.Context, u *domain.User) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteAll(ctx context.Context) ([]domain.User, error)
	List(ctx context.Context, filter string, page, size int64, dir paging.Direction) ([]domain.User, int64, error)
}

// Usecase implements the business logic for user management operations.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
	pageSize int64
}

// New creates a new instance of Usecase.
func New(r Repository, log *zap.Logger, pageSize int64) *Usecase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Usecase{repo: r, log: log, validate: validation.New(), pageSize: pageSize}
}

func (uc *Usecase) logger(ctx context.Context) *zap.Logger {
	return logger.WithContext(ctx, uc.log)
}

func (uc *Usecase) check(ctx context.Context, in any) error {
	if err := uc.validate.Struct(in); err != nil {
		err = validation.ToError(err)
		uc.logger(ctx).Warn("validate failed", zap.Error(err))
		return err
	}
	return nil
}

func userNotFound() error {
	return pkgerrors.NewNotFoundError("user", MsgUserNotFound)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// load fetches a user and rewrites a storage not-found into the public message.
func (uc *Usecase) load(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, userNotFound()
	}
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, userNotFound()
		}
		uc.logger(ctx).Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

// loadCredentials is load for password checks; it always reads storage.
func (uc *Usecase) loadCredentials(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, userNotFound()
	}
	u, err := uc.repo.GetCredentials(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, userNotFound()
		}
		uc.logger(ctx).Error("failed to get user credentials", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

// ensureEmailFree fails with AlreadyExists when email belongs to a user other than self.
func (uc *Usecase) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		uc.logger(ctx).Error("failed to check existing email", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to validate email uniqueness: %w", err)
	}
	if existing != nil && existing.ID != self {
		uc.logger(ctx).Warn("email already exists", zap.String("email", email), zap.Int64("existing_id", existing.ID))
		return pkgerrors.NewAlreadyExistsError("user", MsgEmailTaken)
	}
	return nil
}

// Register creates a user account with a bcrypt-hashed password.
func (uc *Usecase) Register(ctx context.Context, in RegisterUserRequest) (*User, error) {
	log := uc.logger(ctx)
	log.Info("registering user", zap.String("email", in.Email))

	if in.ID != nil {
		return nil, pkgerrors.NewInvalidArgumentError("id", MsgIDOnCreate)
	}
	if err := uc.check(ctx, in); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if err := uc.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Grade:        in.Grade,
		Major:        in.Major,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	created, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info("user registered", zap.Int64("id", id))
	return toDTO(created), nil
}

// FindByID returns (nil, nil) when no user has the id.
func (uc *Usecase) FindByID(ctx context.Context, id int64) (*User, error) {
	u, err := uc.load(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toDTO(u), nil
}

// GetUser returns the user or a NotFoundError.
func (uc *Usecase) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(u), nil
}

// DeleteUser removes the user addressed by id once the body confirms both
// the id and the account password.
func (uc *Usecase) DeleteUser(ctx context.Context, id int64, in DeleteUserRequest) (*User, error) {
	log := uc.logger(ctx)
	log.Info("deleting user", zap.Int64("id", id))

	if err := uc.check(ctx, in); err != nil {
		return nil, err
	}
	if in.ID != id {
		log.Warn("delete id mismatch", zap.Int64("path_id", id), zap.Int64("body_id", in.ID))
		return nil, pkgerrors.NewConflictError(MsgIDMismatch)
	}

	u, err := uc.loadCredentials(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := security.CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		log.Error("failed to verify password", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		log.Warn("delete rejected: wrong password", zap.Int64("id", id))
		return nil, pkgerrors.NewPasswordMismatchError(MsgWrongPassword)
	}

	if _, err := uc.repo.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, userNotFound()
		}
		log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return toDTO(u), nil
}

// DeleteAllUsers removes every user and returns them. An empty store is a
// NotFoundError.
func (uc *Usecase) DeleteAllUsers(ctx context.Context) ([]User, error) {
	log := uc.logger(ctx)
	log.Warn("deleting all users")

	deleted, err := uc.repo.DeleteAll(ctx)
	if err != nil {
		log.Error("failed to delete all users", zap.Error(err))
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, pkgerrors.NewNotFoundError("user", MsgNoUsers)
	}

	log.Info("all users deleted", zap.Int("count", len(deleted)))
	return toDTOs(deleted), nil
}

func parseDirection(sort string) (paging.Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(sort)) {
	case "", string(paging.Ascending):
		return paging.Ascending, nil
	case string(paging.Descending):
		return paging.Descending, nil
	default:
		return "", pkgerrors.NewInvalidArgumentError("sort", "sort must be ASC or DESC")
	}
}

// ListUsers returns one page of users ordered by id.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := uc.logger(ctx)

	if in.Page < 0 {
		return nil, pkgerrors.NewInvalidArgumentError("page", "page must not be negative")
	}
	if _, ok := paging.Offset(in.Page, uc.pageSize); !ok {
		return nil, pkgerrors.NewInvalidArgumentError("page", "page is out of range")
	}
	dir, err := parseDirection(in.Sort)
	if err != nil {
		return nil, err
	}

	log.Info("listing users",
		zap.String("filter", in.Filter),
		zap.Int64("page", in.Page),
		zap.Int64("size", uc.pageSize),
		zap.String("sort", string(dir)),
	)

	users, total, err := uc.repo.List(ctx, in.Filter, in.Page, uc.pageSize, dir)
	if err != nil {
		log.Warn("failed to list users", zap.String("filter", in.Filter), zap.Error(err))
		return nil, err
	}

	return &ListUsersResponse{
		Users:      toDTOs(users),
		Pagination: paging.New(total, in.Page, uc.pageSize),
		Sort:       dir,
	}, nil
}

// UpdateUser replaces the profile fields of an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, id int64, in UpdateUserRequest) (*User, error) {
	log := uc.logger(ctx)
	log.Info("updating user", zap.Int64("id", id))

	if err := uc.check(ctx, in); err != nil {
		return nil, err
	}
	if in.ID != nil && *in.ID != id {
		log.Warn("update id mismatch", zap.Int64("path_id", id), zap.Int64("body_id", *in.ID))
		return nil, pkgerrors.NewConflictError(MsgIDMismatch)
	}

	u, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if email != u.Email {
		if err := uc.ensureEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
	}

	u.Email = email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Grade = in.Grade
	u.Major = in.Major

	return uc.save(ctx, u)
}

// UpdatePassword replaces the password after verifying the current one and
// the confirmation.
func (uc *Usecase) UpdatePassword(ctx context.Context, id int64, in UpdatePasswordRequest) (*User, error) {
	log := uc.logger(ctx)
	log.Info("updating password", zap.Int64("id", id))

	if err := uc.check(ctx, in); err != nil {
		return nil, err
	}

	u, err := uc.loadCredentials(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := security.CheckPassword(u.PasswordHash, in.OldPassword)
	if err != nil {
		log.Error("failed to verify password", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		log.Warn("password change rejected: wrong current password", zap.Int64("id", id))
		return nil, pkgerrors.NewPasswordMismatchError(MsgWrongPassword)
	}
	if in.NewPassword != in.ConfirmPassword {
		log.Warn("password change rejected: confirmation differs", zap.Int64("id", id))
		return nil, pkgerrors.NewPasswordMismatchError(MsgPasswordsDiffer)
	}

	hash, err := security.HashPassword(in.NewPassword)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}
	u.PasswordHash = hash

	return uc.save(ctx, u)
}

func (uc *Usecase) save(ctx context.Context, u *domain.User) (*User, error) {
	if _, err := uc.repo.Update(ctx, u); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, userNotFound()
		}
		uc.logger(ctx).Error("failed to update user", zap.Int64("id", u.ID), zap.Error(err))
		return nil, err
	}

	updated, err := uc.load(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return toDTO(updated), nil
}
