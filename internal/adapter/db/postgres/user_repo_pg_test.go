package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"student-registry/internal/domain/paging"
	"student-registry/internal/domain/user"
	pkgerrors "student-registry/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func seedUsers(t *testing.T, repo *UserRepoPG, users ...user.User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		id, err := repo.Create(context.Background(), &u)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestUserRepoPG_CreateAndGet(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, &user.User{
		ID:           99, // ignored, storage assigns ids
		Email:        "a@b.com",
		PasswordHash: "hash",
		FirstName:    "A",
		LastName:     "B",
		Grade:        "10",
		Major:        "CS",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, "10", got.Grade)
	assert.Equal(t, "CS", got.Major)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserRepoPG_GetByID_NotFound(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))

	_, err := repo.GetByID(context.Background(), 42)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUserRepoPG_GetCredentials(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()
	ids := seedUsers(t, repo, user.User{Email: "a@b.com", PasswordHash: "hash", FirstName: "A", LastName: "B"})

	got, err := repo.GetCredentials(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.GetCredentials(ctx, 42)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUserRepoPG_GetByEmail(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seedUsers(t, repo, user.User{Email: "anna@school.edu", FirstName: "Anna", LastName: "K", PasswordHash: "h"})

	got, err := repo.GetByEmail(context.Background(), "ANNA@school.edu")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Anna", got.FirstName)

	missing, err := repo.GetByEmail(context.Background(), "nobody@school.edu")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepoPG_Create_DuplicateEmail(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seedUsers(t, repo, user.User{Email: "a@b.com", FirstName: "A", LastName: "B", PasswordHash: "h"})

	_, err := repo.Create(context.Background(), &user.User{Email: "a@b.com", FirstName: "C", LastName: "D", PasswordHash: "h"})
	assert.Equal(t, 409, pkgerrors.HTTPStatus(err))
}

func TestUserRepoPG_Update(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()
	ids := seedUsers(t, repo, user.User{Email: "a@b.com", FirstName: "A", LastName: "B", PasswordHash: "h", Grade: "10"})

	_, err := repo.Update(ctx, &user.User{
		ID:           ids[0],
		Email:        "a@b.com",
		FirstName:    "Alice",
		LastName:     "B",
		PasswordHash: "h2",
		Grade:        "",
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Empty(t, got.Grade, "zero values must be written")

	_, err = repo.Update(ctx, &user.User{ID: 404, Email: "x@y.com"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUserRepoPG_Delete(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()
	ids := seedUsers(t, repo, user.User{Email: "a@b.com", FirstName: "A", LastName: "B", PasswordHash: "h"})

	deleted, err := repo.Delete(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], deleted)

	_, err = repo.Delete(ctx, ids[0])
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = repo.Delete(ctx, 0)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUserRepoPG_DeleteAll(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	none, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)

	seedUsers(t, repo,
		user.User{Email: "a@b.com", FirstName: "A", LastName: "B", PasswordHash: "h"},
		user.User{Email: "c@d.com", FirstName: "C", LastName: "D", PasswordHash: "h"},
	)

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, "a@b.com", deleted[0].Email)

	_, total, err := repo.List(ctx, "", 0, 20, paging.Ascending)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUserRepoPG_List_PagingAndSort(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()
	seedUsers(t, repo,
		user.User{Email: "u1@x.com", FirstName: "U1", LastName: "L", PasswordHash: "h"},
		user.User{Email: "u2@x.com", FirstName: "U2", LastName: "L", PasswordHash: "h"},
		user.User{Email: "u3@x.com", FirstName: "U3", LastName: "L", PasswordHash: "h"},
	)

	page0, total, err := repo.List(ctx, "", 0, 2, paging.Ascending)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page0, 2)
	assert.Equal(t, "u1@x.com", page0[0].Email)

	page1, _, err := repo.List(ctx, "", 1, 2, paging.Ascending)
	require.NoError(t, err)
	require.Len(t, page1, 1)
	assert.Equal(t, "u3@x.com", page1[0].Email)

	desc, _, err := repo.List(ctx, "", 0, 2, paging.Descending)
	require.NoError(t, err)
	assert.Equal(t, "u3@x.com", desc[0].Email)
}

func TestUserRepoPG_List_PageOutOfRange(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))

	users, _, err := repo.List(context.Background(), "", math.MaxInt64/2+1, 2, paging.Ascending)
	assert.Equal(t, 400, pkgerrors.HTTPStatus(err))
	assert.Nil(t, users)
}

func TestUserRepoPG_List_SQLInjectionProtection(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seedUsers(t, repo,
		user.User{Email: "john@example.com", FirstName: "John", LastName: "Doe", PasswordHash: "h"},
		user.User{Email: "jane@example.com", FirstName: "Jane", LastName: "Smith", PasswordHash: "h"},
		user.User{Email: "admin@example.com", FirstName: "Admin", LastName: "User", PasswordHash: "h"},
	)

	tests := []struct {
		name        string
		query       string
		expectError bool
		expectCount int
	}{
		{name: "valid search query", query: "john", expectCount: 1},
		{name: "empty search query", query: "", expectCount: 3},
		{name: "SQL injection attempt - UNION", query: "john UNION SELECT * FROM users", expectError: true},
		{name: "SQL injection attempt - OR condition", query: "john OR 1=1", expectError: true},
		{name: "SQL injection attempt - DROP", query: "john; DROP TABLE users", expectError: true},
		{name: "SQL injection attempt - comment", query: "john --", expectError: true},
		{name: "XSS attempt", query: "<script>alert('xss')</script>", expectError: true},
		{name: "invalid characters", query: "john&doe", expectError: true},
		{name: "valid email search", query: "example.com", expectCount: 3},
		{name: "last name search", query: "smith", expectCount: 1},
		{name: "no match", query: "john.doe+test@example.com", expectCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := repo.List(context.Background(), tt.query, 0, 10, paging.Ascending)

			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, 400, pkgerrors.HTTPStatus(err))
				assert.Nil(t, users)
				return
			}
			require.NoError(t, err)
			assert.Len(t, users, tt.expectCount)
			assert.Equal(t, int64(tt.expectCount), total)
		})
	}
}

func TestUserRepoPG_List_WildcardEscaping(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seedUsers(t, repo,
		user.User{Email: "j1@example.com", FirstName: "John%Test", LastName: "X", PasswordHash: "h"},
		user.User{Email: "j2@example.com", FirstName: "Jane_Test", LastName: "X", PasswordHash: "h"},
		user.User{Email: "j3@example.com", FirstName: "JaneXTest", LastName: "X", PasswordHash: "h"},
		user.User{Email: "j4@example.com", FirstName: `Back\Slash`, LastName: "X", PasswordHash: "h"},
	)

	tests := []struct {
		query       string
		expectCount int
	}{
		{query: "John%Test", expectCount: 1},
		{query: "%", expectCount: 1},
		{query: "Jane_Test", expectCount: 1},
		{query: "_", expectCount: 1},
		{query: `k\S`, expectCount: 1},
		{query: `\`, expectCount: 1},
		{query: "Test", expectCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			users, total, err := repo.List(context.Background(), tt.query, 0, 10, paging.Ascending)
			require.NoError(t, err)
			assert.Len(t, users, tt.expectCount)
			assert.Equal(t, int64(tt.expectCount), total)
		})
	}
}

func TestUserRepoPG_List_CaseInsensitiveSearch(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seedUsers(t, repo,
		user.User{Email: "john@example.com", FirstName: "JOHN", LastName: "Doe", PasswordHash: "h"},
		user.User{Email: "jane@example.com", FirstName: "jane", LastName: "smith", PasswordHash: "h"},
	)

	for _, q := range []string{"john", "JOHN", "John"} {
		users, _, err := repo.List(context.Background(), q, 0, 10, paging.Ascending)
		require.NoError(t, err)
		assert.Len(t, users, 1, q)
	}
}
