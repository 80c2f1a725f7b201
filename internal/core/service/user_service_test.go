package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/usermgmt/user-service/internal/core/domain"
	"github.com/usermgmt/user-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID    map[string]*domain.User
	order   []string
	nextID  int
	saveErr error // if set, Save returns this error
	findErr error // if set, Find*/Exists* return this error
	deletes int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) match(pred func(*domain.User) bool) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, id := range r.order {
		if u := r.byID[id]; pred(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, err := r.match(func(u *domain.User) bool { return u.Username == username })
	return existsResult(err)
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := r.match(func(u *domain.User) bool { return u.Email == email })
	return existsResult(err)
}

func (r *stubUserRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	_, err := r.match(func(u *domain.User) bool { return u.ID == id })
	return existsResult(err)
}

func existsResult(err error) (bool, error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.match(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.match(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.match(func(u *domain.User) bool { return u.ID == id })
}

// Save mirrors the unique constraints of the real stores.
func (r *stubUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	for _, other := range r.byID {
		if other.ID == user.ID {
			continue
		}
		if other.Username == user.Username {
			return nil, domain.ErrDuplicateUsername
		}
		if other.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}

	stored := cloneUser(user)
	if stored.ID == "" {
		r.nextID++
		stored.ID = fmt.Sprintf("u%d", r.nextID)
		r.order = append(r.order, stored.ID)
	}
	r.byID[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) DeleteByID(_ context.Context, id string) error {
	r.deletes++
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]*domain.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneUser(r.byID[id]))
	}
	return out, nil
}

func (r *stubUserRepo) List(ctx context.Context, p ports.PageRequest) ([]*domain.User, int64, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	start := p.Offset()
	if start > len(all) {
		return []*domain.User{}, total, nil
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *stubUserRepo) Ping(context.Context) error { return nil }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func newUserSvc(repo *stubUserRepo) *UserService {
	return NewUserService(repo, NewBcryptHasher(bcrypt.MinCost), discardLogger)
}

func register(t *testing.T, svc *UserService, username, password, email string) *domain.User {
	t.Helper()
	u, err := svc.RegisterUser(context.Background(), ports.RegisterInput{
		Username: username,
		Password: password,
		Email:    email,
		Role:     "USER",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

// ---------------------------------------------------------------------------
// RegisterUser
// ---------------------------------------------------------------------------

func TestUserService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)

	user := register(t, svc, "alice", "pw1", "a@x.com")

	if user.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if user.PasswordHash == "pw1" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("unexpected role: %s", user.Role)
	}
	if user.CreatedAt.IsZero() || !user.UpdatedAt.Equal(user.CreatedAt) {
		t.Errorf("expected createdAt == updatedAt, got %v / %v", user.CreatedAt, user.UpdatedAt)
	}
}

func TestUserService_Register_DuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	register(t, svc, "alice", "pw1", "a@x.com")

	_, err := svc.RegisterUser(context.Background(), ports.RegisterInput{
		Username: "alice", Password: "pw2", Email: "b@x.com", Role: "USER",
	})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("duplicate username must be a validation error")
	}
}

func TestUserService_Register_DuplicateUsernameWinsOverEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	register(t, svc, "alice", "pw1", "a@x.com")

	_, err := svc.RegisterUser(context.Background(), ports.RegisterInput{
		Username: "alice", Password: "pw2", Email: "a@x.com", Role: "USER",
	})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername when both collide, got %v", err)
	}
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	register(t, svc, "alice", "pw1", "a@x.com")

	_, err := svc.RegisterUser(context.Background(), ports.RegisterInput{
		Username: "bob", Password: "pw2", Email: "a@x.com", Role: "USER",
	})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if len(repo.byID) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(repo.byID))
	}
}

func TestUserService_Register_Roles(t *testing.T) {
	cases := []struct {
		in      string
		want    domain.Role
		wantErr bool
	}{
		{"USER", domain.RoleUser, false},
		{"admin", domain.RoleAdmin, false},
		{"ROLE_ADMIN", domain.RoleAdmin, false},
		{"ROLE_USER", domain.RoleUser, false},
		{"superuser", "", true},
	}

	for i, tc := range cases {
		repo := newStubUserRepo()
		svc := newUserSvc(repo)
		user, err := svc.RegisterUser(context.Background(), ports.RegisterInput{
			Username: fmt.Sprintf("user%d", i), Password: "pw", Email: fmt.Sprintf("u%d@x.com", i), Role: tc.in,
		})
		if tc.wantErr {
			if !errors.Is(err, domain.ErrInvalidRole) {
				t.Errorf("role %q: expected ErrInvalidRole, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("role %q: unexpected error %v", tc.in, err)
			continue
		}
		if user.Role != tc.want {
			t.Errorf("role %q: want %s, got %s", tc.in, tc.want, user.Role)
		}
	}
}

func TestUserService_Register_StorageFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.saveErr = domain.StorageError("insert user", errors.New("connection refused"))
	svc := newUserSvc(repo)

	_, err := svc.RegisterUser(context.Background(), ports.RegisterInput{
		Username: "alice", Password: "pw1", Email: "a@x.com", Role: "USER",
	})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if errors.Is(err, domain.ErrValidation) {
		t.Error("storage failure must not be classified as validation")
	}
}

// ---------------------------------------------------------------------------
// AuthenticateUser
// ---------------------------------------------------------------------------

func TestUserService_Authenticate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	registered := register(t, svc, "alice", "pw1", "a@x.com")

	user, err := svc.AuthenticateUser(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != registered.ID {
		t.Fatalf("expected alice, got %+v", user)
	}

	user, err = svc.AuthenticateUser(context.Background(), "alice", "wrong")
	if err != nil || user != nil {
		t.Fatalf("wrong password: expected (nil, nil), got (%+v, %v)", user, err)
	}

	user, err = svc.AuthenticateUser(context.Background(), "ghost", "pw1")
	if err != nil || user != nil {
		t.Fatalf("unknown user: expected (nil, nil), got (%+v, %v)", user, err)
	}
}

func TestUserService_Authenticate_StorageFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = domain.StorageError("find user", errors.New("timeout"))
	svc := newUserSvc(repo)

	if _, err := svc.AuthenticateUser(context.Background(), "alice", "pw1"); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Find / Update / Delete
// ---------------------------------------------------------------------------

func TestUserService_FindUserByID_NotFound(t *testing.T) {
	svc := newUserSvc(newStubUserRepo())

	if _, err := svc.FindUserByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc := newUserSvc(newStubUserRepo())

	_, err := svc.UpdateUser(context.Background(), "missing", ports.UpdateInput{Username: "x", Email: "x@x.com"})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Update_ChangesOnlyUsernameAndEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	before := register(t, svc, "alice", "pw1", "a@x.com")

	svc.now = func() time.Time { return before.UpdatedAt.Add(time.Minute) }

	after, err := svc.UpdateUser(context.Background(), before.ID, ports.UpdateInput{Username: "alicia", Email: "alicia@x.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if after.Username != "alicia" || after.Email != "alicia@x.com" {
		t.Errorf("fields not updated: %+v", after)
	}
	if after.PasswordHash != before.PasswordHash {
		t.Error("password hash must not change")
	}
	if after.Role != before.Role {
		t.Error("role must not change")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("createdAt must not change")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("updatedAt must advance: before %v after %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestUserService_Update_KeepingOwnValuesIsAllowed(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	u := register(t, svc, "alice", "pw1", "a@x.com")

	if _, err := svc.UpdateUser(context.Background(), u.ID, ports.UpdateInput{Username: "alice", Email: "a@x.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserService_Update_RejectsValuesOwnedByOthers(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	alice := register(t, svc, "alice", "pw1", "a@x.com")
	register(t, svc, "bob", "pw2", "b@x.com")

	_, err := svc.UpdateUser(context.Background(), alice.ID, ports.UpdateInput{Username: "bob", Email: "a@x.com"})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}

	_, err = svc.UpdateUser(context.Background(), alice.ID, ports.UpdateInput{Username: "alice", Email: "b@x.com"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	stored := repo.byID[alice.ID]
	if stored.Username != "alice" || stored.Email != "a@x.com" {
		t.Errorf("rejected update must not persist: %+v", stored)
	}
}

func TestUserService_Delete_NotFoundLeavesStorageUntouched(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	register(t, svc, "alice", "pw1", "a@x.com")

	err := svc.DeleteUserByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if repo.deletes != 0 {
		t.Error("DeleteByID must not be called for a missing id")
	}
	if len(repo.byID) != 1 {
		t.Errorf("expected storage unchanged, got %d users", len(repo.byID))
	}
}

func TestUserService_Delete_RemovesUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	u := register(t, svc, "alice", "pw1", "a@x.com")

	if err := svc.DeleteUserByID(context.Background(), u.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.FindUserByID(context.Background(), u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("deleted user must be unfindable, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

func TestUserService_GetAllUsers_InsertionOrder(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	register(t, svc, "alice", "pw1", "a@x.com")
	register(t, svc, "bob", "pw2", "b@x.com")

	users, err := svc.GetAllUsers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
		t.Fatalf("unexpected listing: %+v", users)
	}
}

func TestUserService_ListUsers_Pagination(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	for i := 0; i < 5; i++ {
		register(t, svc, fmt.Sprintf("user%d", i), "pw", fmt.Sprintf("u%d@x.com", i))
	}

	res, err := svc.ListUsers(context.Background(), ports.ListInput{Page: 3, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 5 || res.TotalPages != 3 || res.Page != 3 || res.Limit != 2 {
		t.Errorf("unexpected paging metadata: %+v", res)
	}
	if len(res.Items) != 1 || res.Items[0].Username != "user4" {
		t.Errorf("unexpected page items: %+v", res.Items)
	}
}

func TestUserService_ListUsers_Defaults(t *testing.T) {
	svc := newUserSvc(newStubUserRepo())

	res, err := svc.ListUsers(context.Background(), ports.ListInput{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Page != 1 || res.Limit != 20 {
		t.Errorf("expected page 1 limit 20, got page %d limit %d", res.Page, res.Limit)
	}

	res, _ = svc.ListUsers(context.Background(), ports.ListInput{Page: 1, Limit: 999})
	if res.Limit != 100 {
		t.Errorf("expected limit capped at 100, got %d", res.Limit)
	}
}

func TestUserService_ListUsers_HugePageIsEmpty(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)
	register(t, svc, "alice", "pw", "a@x.com")

	page := math.MaxInt64 / 10
	res, err := svc.ListUsers(context.Background(), ports.ListInput{Page: page, Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 0 || res.Total != 1 || res.Page != page {
		t.Fatalf("expected an empty page past the end, got %+v", res)
	}
}
