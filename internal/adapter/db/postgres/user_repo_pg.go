package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"student-registry/internal/domain/paging"
	"student-registry/internal/domain/user"
	pkgerrors "student-registry/pkg/errors"
	"student-registry/pkg/security"
)

// UserRepoPG implements the user Repository interface using GORM.
type UserRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"not null;size:320;uniqueIndex"`
	PasswordHash string `gorm:"not null;size:255"`
	FirstName    string `gorm:"not null;size:50"`
	LastName     string `gorm:"not null;size:50"`
	Grade        string `gorm:"size:10"`
	Major        string `gorm:"size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func toUserSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Grade:        u.Grade,
		Major:        u.Major,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Grade:        m.Grade,
		Major:        m.Major,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Create inserts a new user; the storage-assigned id is returned.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := toUserSchema(u)
	model.ID = 0

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, pkgerrors.NewAlreadyExistsError("user", "email already exists")
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update overwrites the mutable columns of an existing user.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	result := r.db.WithContext(ctx).Model(&UserSchema{ID: u.ID}).Select(
		"Email", "PasswordHash", "FirstName", "LastName", "Grade", "Major",
	).Updates(toUserSchema(u))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return 0, pkgerrors.NewAlreadyExistsError("user", "email already exists")
		}
		r.log.Error("failed to update user in db", zap.Error(result.Error), zap.Int64("id", u.ID))
		return 0, fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", u.ID))
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID))
	return u.ID, nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
	}

	result := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if result.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(result.Error), zap.Int64("id", id))
		return 0, fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return id, nil
}

// DeleteAll removes every user in one transaction and returns the removed rows.
func (r *UserRepoPG) DeleteAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&models).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		ids := make([]int64, len(models))
		for i, m := range models {
			ids[i] = m.ID
		}
		return tx.Where("id IN ?", ids).Delete(&UserSchema{}).Error
	})
	if err != nil {
		r.log.Error("failed to delete all users in db", zap.Error(err))
		return nil, fmt.Errorf("failed to delete all users: %w", err)
	}

	r.log.Info("all users deleted in db", zap.Int("count", len(models)))
	return toDomainUsers(models), nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// GetCredentials reads the same row as GetByID. It exists so caching
// decorators have a read they must pass straight through.
func (r *UserRepoPG) GetCredentials(ctx context.Context, id int64) (*user.User, error) {
	return r.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email address; (nil, nil) when absent.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// List returns one page of users ordered by id, filtered by a
// case-insensitive substring of email, first name or last name, and the
// total number of matching users.
func (r *UserRepoPG) List(ctx context.Context, filter string, page, size int64, dir paging.Direction) ([]user.User, int64, error) {
	query, err := security.ValidateSearchQuery(filter)
	if err != nil {
		r.log.Warn("invalid search query", zap.String("filter", filter), zap.Error(err))
		return nil, 0, pkgerrors.NewInvalidArgumentError("filter", err.Error())
	}
	offset, ok := paging.Offset(page, size)
	if !ok {
		return nil, 0, pkgerrors.NewInvalidArgumentError("page", "page is out of range")
	}

	matching := func(db *gorm.DB) *gorm.DB {
		if query == "" {
			return db
		}
		pattern := "%" + strings.ToLower(security.SanitizeSearchString(query)) + "%"
		return db.Where(
			`LOWER(email) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Scopes(matching).Count(&total).Error; err != nil {
		r.log.Error("failed to count users", zap.Error(err), zap.String("filter", query))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var models []UserSchema
	err = r.db.WithContext(ctx).Scopes(matching).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: dir == paging.Descending}).
		Offset(int(offset)).
		Limit(int(size)).
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.String("filter", query), zap.Int64("page", page))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return toDomainUsers(models), total, nil
}

func toDomainUsers(models []UserSchema) []user.User {
	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = m.toDomain()
	}
	return users
}
