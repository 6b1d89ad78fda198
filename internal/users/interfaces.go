package users

import (
	"context"
)

// UserStore defines the interface for user storage operations.
// PostgresStore and DynamoStore are the two implementations; exactly one is
// active for the lifetime of the process.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, userID string) (*User, error)
	UpdateUser(ctx context.Context, userID, name, email string) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*User, error)

	// EnsureSchema creates the backing table if it does not exist yet.
	EnsureSchema(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// UserService defines the interface for user service operations
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) error
	GetUser(ctx context.Context, userID string) (*User, error)
	UpdateUser(ctx context.Context, userID string, req *UpdateUserRequest) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*User, error)
}
