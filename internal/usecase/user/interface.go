package user

import "context"

// UserUsecase is the user service consumed by the HTTP layer.
type UserUsecase interface {
	Register(ctx context.Context, in RegisterUserRequest) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	DeleteUser(ctx context.Context, id int64, in DeleteUserRequest) (*User, error)
	DeleteAllUsers(ctx context.Context) ([]User, error)
	ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error)
	UpdateUser(ctx context.Context, id int64, in UpdateUserRequest) (*User, error)
	UpdatePassword(ctx context.Context, id int64, in UpdatePasswordRequest) (*User, error)
}
