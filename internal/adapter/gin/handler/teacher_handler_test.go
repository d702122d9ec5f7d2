package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"student-registry/internal/domain/paging"
	"student-registry/internal/usecase/teacher"
	pkgerrors "student-registry/pkg/errors"
)

type MockTeacherUsecase struct {
	mock.Mock
}

func (m *MockTeacherUsecase) List(ctx context.Context, in teacher.ListTeachersRequest) (*teacher.ListTeachersResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*teacher.ListTeachersResponse), args.Error(1)
}

func (m *MockTeacherUsecase) Get(ctx context.Context, id int64) (*teacher.Teacher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*teacher.Teacher), args.Error(1)
}

func (m *MockTeacherUsecase) Create(ctx context.Context, in teacher.CreateTeacherRequest) (*teacher.Teacher, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*teacher.Teacher), args.Error(1)
}

func (m *MockTeacherUsecase) Replace(ctx context.Context, id int64, in teacher.ReplaceTeacherRequest) (*teacher.Teacher, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*teacher.Teacher), args.Error(1)
}

func (m *MockTeacherUsecase) Patch(ctx context.Context, id int64, in teacher.PatchTeacherRequest) (*teacher.Teacher, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*teacher.Teacher), args.Error(1)
}

func (m *MockTeacherUsecase) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func setupTeacherTest(t *testing.T) (*gin.Engine, *MockTeacherUsecase) {
	gin.SetMode(gin.TestMode)
	ConfigureBinding()

	uc := new(MockTeacherUsecase)
	t.Cleanup(func() { uc.AssertExpectations(t) })
	h := NewTeacherHandler(uc, zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/teachers", h.List)
	r.GET("/teachers/:id", h.Get)
	r.POST("/teachers", h.Create)
	r.PUT("/teachers/:id", h.Replace)
	r.PATCH("/teachers/:id", h.Patch)
	r.DELETE("/teachers/:id", h.Delete)
	return r, uc
}

const validTeacherBody = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@school.edu","subject":"Math"}`

func TestTeacherCreate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r, uc := setupTeacherTest(t)
		uc.On("Create", mock.Anything, teacher.CreateTeacherRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@school.edu", Subject: "Math",
		}).Return(&teacher.Teacher{ID: 4, FirstName: "Ada"}, nil)

		w := do(r, http.MethodPost, "/teachers", validTeacherBody)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/teachers/4", w.Header().Get("Location"))
	})

	t.Run("id present", func(t *testing.T) {
		r, _ := setupTeacherTest(t)

		w := do(r, http.MethodPost, "/teachers", `{"id":1}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		r, _ := setupTeacherTest(t)

		w := do(r, http.MethodPost, "/teachers", `{"firstName":"Ada","email":"nope"}`)

		assert.Equal(t, http.StatusNotAcceptable, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		r, uc := setupTeacherTest(t)
		uc.On("Create", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewAlreadyExistsError("teacher", teacher.MsgEmailTaken))

		w := do(r, http.MethodPost, "/teachers", validTeacherBody)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestTeacherList(t *testing.T) {
	t.Run("page", func(t *testing.T) {
		r, uc := setupTeacherTest(t)
		uc.On("List", mock.Anything, teacher.ListTeachersRequest{Page: 0, Size: 2, Sort: "lastName,desc"}).
			Return(&teacher.ListTeachersResponse{
				Teachers:   []teacher.Teacher{{ID: 1}, {ID: 2}},
				Pagination: paging.New(3, 0, 2),
				Sort:       "lastName,DESC",
			}, nil)

		w := do(r, http.MethodGet, "/teachers?size=2&sort=lastName,desc", "")

		require.Equal(t, http.StatusOK, w.Code)
		var page Page[teacher.Teacher]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Len(t, page.Content, 2)
		assert.True(t, page.First)
		assert.False(t, page.Last)
		assert.Equal(t, "lastName,DESC", page.Sort)
	})

	t.Run("bad size", func(t *testing.T) {
		r, _ := setupTeacherTest(t)

		w := do(r, http.MethodGet, "/teachers?size=big", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTeacherGetReplacePatchDelete(t *testing.T) {
	r, uc := setupTeacherTest(t)
	subject := "Physics"

	uc.On("Get", mock.Anything, int64(1)).Return(&teacher.Teacher{ID: 1}, nil)
	uc.On("Get", mock.Anything, int64(2)).Return(nil, pkgerrors.NewNotFoundError("teacher", teacher.MsgTeacherNotFound))
	uc.On("Replace", mock.Anything, int64(1), mock.Anything).Return(&teacher.Teacher{ID: 1}, nil)
	uc.On("Patch", mock.Anything, int64(1), teacher.PatchTeacherRequest{Subject: &subject}).Return(&teacher.Teacher{ID: 1, Subject: subject}, nil)
	uc.On("Delete", mock.Anything, int64(1)).Return(nil)
	uc.On("Delete", mock.Anything, int64(2)).Return(pkgerrors.NewNotFoundError("teacher", teacher.MsgTeacherNotFound))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/teachers/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/teachers/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/teachers/x", "").Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/teachers/1", validTeacherBody).Code)
	assert.Equal(t, http.StatusNotAcceptable, do(r, http.MethodPut, "/teachers/1", `{"firstName":"A"}`).Code)

	w := do(r, http.MethodPatch, "/teachers/1", `{"subject":"Physics"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subject":"Physics"`)
	assert.Equal(t, http.StatusNotAcceptable, do(r, http.MethodPatch, "/teachers/1", `{"email":"nope"}`).Code)

	w = do(r, http.MethodDelete, "/teachers/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/teachers/2", "").Code)
}
