package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"student-registry/internal/usecase/user"
	pkgerrors "student-registry/pkg/errors"
)

// UserHandler serves the /users resource.
type UserHandler struct {
	uc           user.UserUsecase
	log          *zap.Logger
	cookieMaxAge int
}

// NewUserHandler creates a new UserHandler instance. cookieMaxAge is the
// Max-Age, in seconds, of the form cookies written when a registration is
// rejected; zero or less clears them.
func NewUserHandler(uc user.UserUsecase, log *zap.Logger, cookieMaxAge int) *UserHandler {
	return &UserHandler{uc: uc, log: log, cookieMaxAge: cookieMaxAge}
}

// Register handles POST /users
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterUserRequest
	bindErr := c.ShouldBindJSON(&req)

	if req.ID != nil {
		writeError(c, h.log, pkgerrors.NewInvalidArgumentError("id", user.MsgIDOnCreate))
		return
	}
	if bindErr != nil {
		var verrs validator.ValidationErrors
		if errors.As(bindErr, &verrs) {
			h.rejectRegistration(c, req, bindErr)
			return
		}
		writeError(c, h.log, bindError(c, h.log, bindErr))
		return
	}

	created, err := h.uc.Register(c.Request.Context(), req)
	if err != nil {
		var verr *pkgerrors.ValidationError
		if errors.As(err, &verr) {
			h.rejectRegistration(c, req, err)
			return
		}
		writeError(c, h.log, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/users/%d", created.ID))
	c.JSON(http.StatusCreated, created)
}

// rejectRegistration logs the offending fields, echoes the form values back
// as cookies and answers 406.
func (h *UserHandler) rejectRegistration(c *gin.Context, req user.RegisterUserRequest, err error) {
	maxAge := h.cookieMaxAge
	if maxAge <= 0 {
		maxAge = -1
	}
	for name, value := range map[string]string{
		"email":     req.Email,
		"firstName": req.FirstName,
		"lastName":  req.LastName,
		"grade":     req.Grade,
		"major":     req.Major,
	} {
		c.SetCookie(name, value, maxAge, "/", "", false, true)
	}

	writeError(c, h.log, bindError(c, h.log, err))
}

// SaveUnderID handles POST /users/:id. Ids are never client-assigned, so
// this always fails; the status tells whether the id is in use.
func (h *UserHandler) SaveUnderID(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	existing, err := h.uc.FindByID(c.Request.Context(), id)
	switch {
	case err != nil:
		writeError(c, h.log, err)
	case existing == nil:
		writeError(c, h.log, pkgerrors.NewNotFoundError("user", user.MsgUserNotFound))
	default:
		writeError(c, h.log, pkgerrors.NewAlreadyExistsError("user", "This id is already taken."))
	}
}

// Delete handles DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	var req user.DeleteUserRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	deleted, err := h.uc.DeleteUser(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

// DeleteAll handles DELETE /users
func (h *UserHandler) DeleteAll(c *gin.Context) {
	deleted, err := h.uc.DeleteAllUsers(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

// List handles GET /users?page=&sort=&filter=
func (h *UserHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", "0")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp, err := h.uc.ListUsers(c.Request.Context(), user.ListUsersRequest{
		Page:   page,
		Sort:   c.DefaultQuery("sort", "ASC"),
		Filter: c.Query("filter"),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newPage(resp.Users, resp.Pagination, string(resp.Sort)))
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	u, err := h.uc.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// EditCollection handles PUT /users, which is not supported.
func (h *UserHandler) EditCollection(c *gin.Context) {
	c.Header("Allow", "GET, POST, DELETE")
	c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "method_not_allowed", Message: "Method not allowed."})
}

// Update handles PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	var req user.UpdateUserRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	updated, err := h.uc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdatePassword handles PUT /users/:id/password
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	var req user.UpdatePasswordRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	updated, err := h.uc.UpdatePassword(c.Request.Context(), id, req)
	if err != nil {
		if pkgerrors.IsPasswordMismatch(err) {
			reqLogger(c, h.log).Info("password change rejected", zap.Error(err))
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: pkgerrors.Code(err), Message: user.MsgPasswordsDiffer})
			return
		}
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
