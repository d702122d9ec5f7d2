package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"student-registry/internal/adapter/cache"
	"student-registry/internal/adapter/db/postgres"
	"student-registry/internal/adapter/gin/handler"
	"student-registry/internal/adapter/repository/cached"
	"student-registry/internal/usecase/teacher"
	"student-registry/internal/usecase/user"
	"student-registry/pkg/logger"
	"student-registry/pkg/ratelimit"
	"student-registry/pkg/security"
)

// APISuite drives the full HTTP stack against SQLite and miniredis.
type APISuite struct {
	suite.Suite
	router *gin.Engine
	tokens *security.TokenIssuer
	mr     *miniredis.Miniredis
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(s.T())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.NewGormLogger(log, 0, "error"),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.T().Cleanup(func() { _ = sqlDB.Close() })
	s.Require().NoError(postgres.AutoMigrate(db))

	s.mr = miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = rdb.Close() })

	userRepo := cached.NewUserRepository(
		postgres.NewUserRepoPG(db, log),
		cache.NewRedisUserCache(rdb, time.Minute, log),
		log,
	)
	s.tokens = security.NewTokenIssuer("test-secret", "student-registry", time.Hour)

	s.router = SetupRouter(Deps{
		Users:    handler.NewUserHandler(user.New(userRepo, log, 2), log, 0),
		Teachers: handler.NewTeacherHandler(teacher.New(postgres.NewTeacherRepoPG(db, log), log), log),
		Tokens:   s.tokens,
		Limiter:  ratelimit.NewTokenBucket(rdb, ratelimit.Config{RequestsPerSecond: 1000, BurstCapacity: 1000}),
		Log:      log,
	})
}

func (s *APISuite) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APISuite) register(email string) user.User {
	w := s.do(http.MethodPost, "/users",
		`{"email":"`+email+`","password":"password1","firstName":"John","lastName":"Doe","grade":"12","major":"CS"}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var u user.User
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &u))
	s.Equal("/users/"+itoa(u.ID), w.Header().Get("Location"))
	return u
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *APISuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestUserLifecycle() {
	u := s.register("John@Example.com")
	s.Equal("john@example.com", u.Email)
	path := "/users/" + itoa(u.ID)

	w := s.do(http.MethodGet, path, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "password")

	// duplicate email
	w = s.do(http.MethodPost, "/users", `{"email":"john@example.com","password":"password1","firstName":"J","lastName":"D"}`)
	s.Equal(http.StatusConflict, w.Code)

	s.Equal(http.StatusConflict, s.do(http.MethodPost, path, "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/users/999", "").Code)

	// update goes through the cache
	w = s.do(http.MethodPut, path, `{"email":"john@example.com","firstName":"Johnny","lastName":"Doe"}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodGet, path, "")
	s.Contains(w.Body.String(), `"firstName":"Johnny"`)

	w = s.do(http.MethodPut, path+"/password", `{"oldPassword":"wrong-one","newPassword":"password2","confirmPassword":"password2"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, path+"/password", `{"oldPassword":"password1","newPassword":"password2","confirmPassword":"password3"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, path+"/password", `{"oldPassword":"password1","newPassword":"password2","confirmPassword":"password2"}`)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, path, `{"id":`+itoa(u.ID)+`,"password":"password1"}`)
	s.Equal(http.StatusConflict, w.Code, "old password no longer works")
	w = s.do(http.MethodDelete, path, `{"id":12345,"password":"password2"}`)
	s.Equal(http.StatusConflict, w.Code, "body id must match path")
	w = s.do(http.MethodDelete, path, `{"id":`+itoa(u.ID)+`,"password":"password2"}`)
	s.Require().Equal(http.StatusOK, w.Code)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, "").Code)
}

func (s *APISuite) TestRegisterRejections() {
	w := s.do(http.MethodPost, "/users", `{"id":1,"email":"a@b.com","password":"password1","firstName":"A","lastName":"B"}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/users", `{"email":"a@b.com","password":"x","firstName":"A","lastName":"B"}`)
	s.Equal(http.StatusNotAcceptable, w.Code)
	s.NotEmpty(w.Result().Cookies())

	// 40 runes, 80 bytes: over bcrypt's limit
	long := strings.Repeat("é", 40)
	w = s.do(http.MethodPost, "/users", `{"email":"a@b.com","password":"`+long+`","firstName":"A","lastName":"B"}`)
	s.Equal(http.StatusNotAcceptable, w.Code, w.Body.String())
}

func (s *APISuite) TestPasswordChangeOverByteLimit() {
	u := s.register("long@x.com")
	long := strings.Repeat("é", 40)

	w := s.do(http.MethodPut, "/users/"+itoa(u.ID)+"/password",
		`{"oldPassword":"password1","newPassword":"`+long+`","confirmPassword":"`+long+`"}`)
	s.Equal(http.StatusNotAcceptable, w.Code, w.Body.String())
}

func (s *APISuite) TestListPaging() {
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		s.register(e)
	}

	w := s.do(http.MethodGet, "/users?page=0&sort=desc", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var page handler.Page[user.User]
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	s.Len(page.Content, 2)
	s.Equal("c@x.com", page.Content[0].Email)
	s.Equal(int64(3), page.TotalElements)
	s.Equal(int64(2), page.TotalPages)
	s.True(page.First)
	s.False(page.Last)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/users?page=-1", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/users?sort=sideways", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/users?filter=x%27%20OR%201%3D1", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/users?page=4611686018427387904", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/users?page=9223372036854775807", "").Code)

	// wildcards match literally
	w = s.do(http.MethodGet, "/users?filter=%25", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	s.Empty(page.Content)
	s.True(page.Last)

	w = s.do(http.MethodGet, "/users?filter=b@x", "")
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	s.Len(page.Content, 1)
}

func (s *APISuite) TestDeleteAllRequiresOwner() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodDelete, "/users", "").Code)

	student, err := s.tokens.Issue("alice", "STUDENT")
	s.Require().NoError(err)
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/users", "", "Authorization", "Bearer "+student).Code)

	owner, err := s.tokens.Issue("root", security.RoleOwner)
	s.Require().NoError(err)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/users", "", "Authorization", "Bearer "+owner).Code)

	u := s.register("a@x.com")
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/users/"+itoa(u.ID), "").Code)

	w := s.do(http.MethodDelete, "/users", "", "Authorization", "Bearer "+owner)
	s.Require().Equal(http.StatusOK, w.Code)
	var deleted []user.User
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &deleted))
	s.Len(deleted, 1)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/users/"+itoa(u.ID), "").Code, "cached entry was evicted")
}

func (s *APISuite) TestEditCollectionNotAllowed() {
	w := s.do(http.MethodPut, "/users", `{}`)
	s.Equal(http.StatusMethodNotAllowed, w.Code)
	s.NotEmpty(w.Header().Get("Allow"))
}

func (s *APISuite) TestTeacherLifecycle() {
	w := s.do(http.MethodPost, "/teachers", `{"firstName":"Ada","lastName":"Lovelace","email":"ada@school.edu","subject":"Math"}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	s.Require().NotEmpty(location)

	w = s.do(http.MethodGet, location, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"firstName":"Ada"`)

	w = s.do(http.MethodPatch, location, `{"subject":"Computing"}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"subject":"Computing"`)

	w = s.do(http.MethodGet, "/teachers?sort=lastName,desc", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"totalElements":1`)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, location, "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, location, "").Code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestRateLimitedRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := SetupRouter(Deps{
		Users:    handler.NewUserHandler(nil, log, 0),
		Teachers: handler.NewTeacherHandler(nil, log),
		Tokens:   security.NewTokenIssuer("s", "i", time.Minute),
		Limiter:  ratelimit.NewTokenBucket(rdb, ratelimit.Config{RequestsPerSecond: 0.001, BurstCapacity: 1}),
		Log:      log,
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
