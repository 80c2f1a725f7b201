package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/usermgmt/user-service/internal/core/domain"
)

func duplicateKey(index string) error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: users.users index: " + index + " dup key",
		}},
	}
}

func TestTranslateWriteError(t *testing.T) {
	if err := translateWriteError("insert user", duplicateKey(usernameIndex)); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Errorf("username index: expected ErrDuplicateUsername, got %v", err)
	}
	if err := translateWriteError("insert user", duplicateKey(emailIndex)); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Errorf("email index: expected ErrDuplicateEmail, got %v", err)
	}

	cause := errors.New("server selection timeout")
	err := translateWriteError("insert user", cause)
	if !errors.Is(err, domain.ErrStorage) || !errors.Is(err, cause) {
		t.Errorf("expected ErrStorage wrapping the cause, got %v", err)
	}
}

func TestDocMapping_RoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := &domain.User{
		ID:           oid.Hex(),
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "$2a$hash",
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now.Add(time.Hour),
	}

	doc, err := toDoc(in)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != oid {
		t.Fatalf("expected ObjectID %s, got %s", oid.Hex(), doc.ID.Hex())
	}

	out := doc.toDomain()
	if *out != *in {
		t.Fatalf("mapping mismatch:\n in  %+v\n out %+v", in, out)
	}
}

func TestToDoc_InvalidIDIsNotFound(t *testing.T) {
	if _, err := toDoc(&domain.User{ID: "not-an-object-id"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
