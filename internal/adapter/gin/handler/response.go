package handler

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"student-registry/internal/domain/paging"
	pkgerrors "student-registry/pkg/errors"
	"student-registry/pkg/logger"
	"student-registry/pkg/validation"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Page is one page of a paged collection.
type Page[T any] struct {
	Content       []T    `json:"content"`
	Number        int64  `json:"number"`
	Size          int64  `json:"size"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int64  `json:"totalPages"`
	First         bool   `json:"first"`
	Last          bool   `json:"last"`
	Sort          string `json:"sort"`
}

func newPage[T any](content []T, p *paging.Pagination, sort string) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		Number:        p.Page,
		Size:          p.Size,
		TotalElements: p.Total,
		TotalPages:    p.TotalPages,
		First:         p.First(),
		Last:          p.Last(),
		Sort:          sort,
	}
}

var bindingOnce sync.Once

// ConfigureBinding makes gin's JSON binding validate the `validate` struct
// tags used by the usecase DTOs and report fields by JSON name.
func ConfigureBinding() {
	bindingOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.SetTagName("validate")
			validation.Configure(v)
		}
	})
}

func reqLogger(c *gin.Context, log *zap.Logger) *zap.Logger {
	return logger.WithContext(c.Request.Context(), log)
}

// writeError maps err to its status code and a client-safe body.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := pkgerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		reqLogger(c, log).Error("request failed", zap.Error(err))
	} else {
		reqLogger(c, log).Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: pkgerrors.Code(err), Message: pkgerrors.PublicMessage(err)})
}

// logFieldErrors writes one log entry per rejected field.
func logFieldErrors(c *gin.Context, log *zap.Logger, err error) {
	var verr *pkgerrors.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	l := reqLogger(c, log)
	for _, f := range verr.Fields {
		l.Warn("invalid field", zap.String("field", f.Field), zap.String("rule", f.Rule), zap.String("param", f.Param))
	}
}

// bindJSON decodes the body into obj. Shape violations become a 406 and
// undecodable bodies a 400; in both cases the response is written and
// false is returned.
func bindJSON(c *gin.Context, log *zap.Logger, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	writeError(c, log, bindError(c, log, err))
	return false
}

func bindError(c *gin.Context, log *zap.Logger, err error) error {
	var (
		verrs validator.ValidationErrors
		verr  *pkgerrors.ValidationError
	)
	switch {
	case errors.As(err, &verrs):
		err = validation.ToError(verrs)
		logFieldErrors(c, log, err)
		return err
	case errors.As(err, &verr):
		logFieldErrors(c, log, err)
		return err
	}
	return pkgerrors.NewInvalidArgumentError("body", "Malformed request body.")
}

// pathID parses the :id parameter, answering 400 when it is not an integer.
func pathID(c *gin.Context, log *zap.Logger) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(c, log, pkgerrors.NewInvalidArgumentError("id", "Id must be a number."))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name, def string) (int64, error) {
	v, err := strconv.ParseInt(c.DefaultQuery(name, def), 10, 64)
	if err != nil {
		return 0, pkgerrors.NewInvalidArgumentError(name, name+" must be an integer")
	}
	return v, nil
}
