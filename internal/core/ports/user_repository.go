package ports

import (
	"context"
	"math"

	"github.com/usermgmt/user-service/internal/core/domain"
)

// PageRequest selects one page of a listing. Page is 1-based.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// instead of wrapping for very large pages.
func (p PageRequest) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// UserRepository is the credential store. It is the sole owner of persisted
// users and enforces username/email uniqueness at the storage level.
//
// Find* return domain.ErrUserNotFound when nothing matches. Unique constraint
// violations surface as domain.ErrDuplicateUsername / domain.ErrDuplicateEmail;
// every other failure wraps domain.ErrStorage.
type UserRepository interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByID(ctx context.Context, id string) (bool, error)

	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// Save inserts when user.ID is empty and updates otherwise. The returned
	// record carries the generated ID on first insert.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	// DeleteByID hard-deletes the row. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id string) error

	// FindAll and List return users in insertion order.
	FindAll(ctx context.Context) ([]*domain.User, error)
	List(ctx context.Context, page PageRequest) ([]*domain.User, int64, error)

	Ping(ctx context.Context) error
}

// SeedLock guards the one-shot admin bootstrap across replicas.
type SeedLock interface {
	// Acquire reports whether the caller now owns the lock for key.
	Acquire(ctx context.Context, key string) (bool, error)
}
