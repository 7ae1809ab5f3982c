package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"google.golang.org/grpc/metadata"

	"libraryCatalog/internal/db"
	"libraryCatalog/models"
	"libraryCatalog/repository"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The DB is closed via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sqlx.DB {
	t.Helper()
	// Shared cache so every pooled connection sees the same database.
	d, err := db.Open(db.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// OpenFileDB opens a SQLite database in a temp dir. Use it when a test runs
// concurrent write transactions, which shared-cache memory databases reject
// with SQLITE_LOCKED instead of waiting.
func OpenFileDB(t *testing.T) *sqlx.DB {
	t.Helper()
	d, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a signed JWT string with the claims the app reads.
func GenerateJWTHS256(t *testing.T, secret string, userID uuid.UUID, role models.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, d *sqlx.DB, email string, role models.Role) *models.User {
	t.Helper()
	u, err := repository.NewUserRepository(d).Create(context.Background(), &models.User{
		Email: email,
		Name:  email,
		Role:  role,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateBook inserts an AVAILABLE book.
func CreateBook(t *testing.T, d *sqlx.DB, title, author string, tags ...string) *models.Book {
	t.Helper()
	b := &models.Book{Title: title, Author: author}
	if len(tags) > 0 {
		b.Tags = tags
	}
	b, err := repository.NewBookRepository(d).Create(context.Background(), b)
	if err != nil {
		t.Fatalf("create book %s: %v", title, err)
	}
	return b
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
