package ports

import (
	"context"

	"github.com/usermgmt/user-service/internal/core/domain"
)

// RegisterInput carries a registration request from the transport layer.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

// UpdateInput carries the mutable fields of a user.
type UpdateInput struct {
	Username string
	Email    string
}

// ListInput carries pagination parameters for ListUsers.
type ListInput struct {
	Page  int
	Limit int
}

// ListUsersResult is one page of users plus paging metadata.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService owns the account business rules.
type UserService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*domain.User, error)
	// AuthenticateUser returns (nil, nil) when the username is unknown or the
	// password does not match; the two cases are indistinguishable.
	AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in UpdateInput) (*domain.User, error)
	DeleteUserByID(ctx context.Context, id string) error
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	ListUsers(ctx context.Context, in ListInput) (*ListUsersResult, error)
}

// TokenService issues and inspects signed bearer tokens.
type TokenService interface {
	Issue(username string, roles []string) (string, error)
	Verify(token string) bool
	ExtractUsername(token string) (string, error)
	ExtractRoles(token string) ([]string, error)
	ResolveBearer(header string) (string, bool)
}

// PasswordHasher is the one-way hashing capability.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Matches compares in constant time.
	Matches(hash, plain string) bool
}
