package user

import (
	"time"

	"student-registry/internal/domain/paging"
	domain "student-registry/internal/domain/user"
)

// RegisterUserRequest is the payload for creating a user account.
// ID must be absent; it exists only so a client-supplied id can be rejected.
type RegisterUserRequest struct {
	ID        *int64 `json:"id,omitempty"`
	Email     string `json:"email" validate:"required,email,max=320"`
	Password  string `json:"password" validate:"required,min=8,max=72,bcryptlen"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Grade     string `json:"grade" validate:"omitempty,max=10"`
	Major     string `json:"major" validate:"omitempty,max=100"`
}

// UpdateUserRequest replaces a user's profile. ID is optional; when set it
// must equal the addressed user.
type UpdateUserRequest struct {
	ID        *int64 `json:"id,omitempty"`
	Email     string `json:"email" validate:"required,email,max=320"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Grade     string `json:"grade" validate:"omitempty,max=10"`
	Major     string `json:"major" validate:"omitempty,max=100"`
}

// DeleteUserRequest confirms a deletion with the account password.
type DeleteUserRequest struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest changes a user's password.
type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,bcryptlen"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ListUsersRequest selects one page of users.
type ListUsersRequest struct {
	Page   int64  // 0-based
	Sort   string // ASC or DESC, case-insensitive; empty means ASC
	Filter string
}

// ListUsersResponse is one page of users.
type ListUsersResponse struct {
	Users      []User
	Pagination *paging.Pagination
	Sort       paging.Direction
}

// User is the public view of a user; the password hash never leaves the usecase.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Grade     string    `json:"grade"`
	Major     string    `json:"major"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Grade:     u.Grade,
		Major:     u.Major,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toDTOs(users []domain.User) []User {
	out := make([]User, len(users))
	for i := range users {
		out[i] = *toDTO(&users[i])
	}
	return out
}
