package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"student-registry/internal/usecase/teacher"
	pkgerrors "student-registry/pkg/errors"
)

// TeacherHandler serves the /teachers resource.
type TeacherHandler struct {
	uc  teacher.TeacherUsecase
	log *zap.Logger
}

// NewTeacherHandler creates a new TeacherHandler instance.
func NewTeacherHandler(uc teacher.TeacherUsecase, log *zap.Logger) *TeacherHandler {
	return &TeacherHandler{uc: uc, log: log}
}

// List handles GET /teachers?page=&size=&sort=field,dir
func (h *TeacherHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", "0")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	size, err := queryInt(c, "size", "0")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp, err := h.uc.List(c.Request.Context(), teacher.ListTeachersRequest{
		Page: page,
		Size: size,
		Sort: c.Query("sort"),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newPage(resp.Teachers, resp.Pagination, resp.Sort))
}

// Get handles GET /teachers/:id
func (h *TeacherHandler) Get(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	t, err := h.uc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Create handles POST /teachers
func (h *TeacherHandler) Create(c *gin.Context) {
	var req teacher.CreateTeacherRequest
	bindErr := c.ShouldBindJSON(&req)
	if req.ID != nil {
		writeError(c, h.log, pkgerrors.NewInvalidArgumentError("id", teacher.MsgIDOnCreate))
		return
	}
	if bindErr != nil {
		writeError(c, h.log, bindError(c, h.log, bindErr))
		return
	}

	created, err := h.uc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/teachers/%d", created.ID))
	c.JSON(http.StatusCreated, created)
}

// Replace handles PUT /teachers/:id
func (h *TeacherHandler) Replace(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	var req teacher.ReplaceTeacherRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	t, err := h.uc.Replace(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Patch handles PATCH /teachers/:id
func (h *TeacherHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	var req teacher.PatchTeacherRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	t, err := h.uc.Patch(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /teachers/:id
func (h *TeacherHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	if err := h.uc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
