package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usermgmt/user-service/internal/core/domain"
	"github.com/usermgmt/user-service/internal/core/ports"
)

const (
	uniqueViolation = "23505"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const (
	userColumns = `id, username, email, password_hash, role, created_at, updated_at`

	userInsert = `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	userUpdate = `UPDATE users
		SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = $6
		WHERE id = $1`
	userSelectByID       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	userSelectByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	userSelectByEmail    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	userSelectAll        = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	userSelectPage       = userSelectAll + ` LIMIT $1 OFFSET $2`
	userCount            = `SELECT COUNT(*) FROM users`
	userDelete           = `DELETE FROM users WHERE id = $1`
)

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *UserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, uid)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var found bool
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&found); err != nil {
		return false, domain.StorageError("check user", err)
	}
	return found, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, userSelectByUsername, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, userSelectByEmail, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, userSelectByID, uid)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("find user", err)
	}
	return u, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	saved := *user
	saved.CreatedAt = saved.CreatedAt.UTC()
	saved.UpdatedAt = saved.UpdatedAt.UTC()

	if saved.ID == "" {
		saved.ID = uuid.NewString()
		_, err := r.pool.Exec(ctx, userInsert,
			saved.ID, saved.Username, saved.Email, saved.PasswordHash,
			string(saved.Role), saved.CreatedAt, saved.UpdatedAt,
		)
		if err != nil {
			return nil, translateError("insert user", err)
		}
		return &saved, nil
	}

	uid, err := uuid.Parse(saved.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	tag, err := r.pool.Exec(ctx, userUpdate,
		uid, saved.Username, saved.Email, saved.PasswordHash,
		string(saved.Role), saved.UpdatedAt,
	)
	if err != nil {
		return nil, translateError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrUserNotFound
	}
	return &saved, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, userDelete, uid); err != nil {
		return domain.StorageError("delete user", err)
	}
	return nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	return r.query(ctx, userSelectAll)
}

func (r *UserRepository) List(ctx context.Context, page ports.PageRequest) ([]*domain.User, int64, error) {
	countCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(countCtx, userCount).Scan(&total); err != nil {
		return nil, 0, domain.StorageError("count users", err)
	}

	users, err := r.query(ctx, userSelectPage, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) query(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError("list users", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, domain.StorageError("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list users", err)
	}
	return users, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		id        uuid.UUID
		role      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.ID = id.String()
	u.Role = domain.Role(role)
	u.CreatedAt = createdAt.UTC()
	u.UpdatedAt = updatedAt.UTC()
	return &u, nil
}

// translateError maps unique constraint violations onto the domain
// duplicates by constraint name.
func translateError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return domain.ErrDuplicateUsername
		case emailConstraint:
			return domain.ErrDuplicateEmail
		}
	}
	return domain.StorageError(op, err)
}
