package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"libraryCatalog/internal/testutil"
	"libraryCatalog/models"
)

const testSecret = "test-secret"

func TestIssueAndParseToken(t *testing.T) {
	u := &models.User{ID: uuid.New(), Role: models.RoleLibrarian}
	tok, err := IssueToken(testSecret, u, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	id, err := ParseToken(tok, testSecret)
	if err != nil || id != u.ID {
		t.Fatalf("ParseToken: %v id=%s", err, id)
	}
	if _, err := ParseToken(tok, "wrong"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	u := &models.User{ID: uuid.New(), Role: models.RoleMember}
	tok, err := IssueToken(testSecret, u, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken(tok, testSecret); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestBearerFromMD(t *testing.T) {
	id := uuid.New()
	tok := testutil.GenerateJWTHS256(t, testSecret, id, models.RoleMember)
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	got, err := BearerFromMD(ctx)
	if err != nil || got != tok {
		t.Fatalf("BearerFromMD: %v", err)
	}
	if _, err := BearerFromMD(context.Background()); err == nil {
		t.Fatalf("expected error for missing metadata")
	}
}

func TestBearerToken_InvalidScheme(t *testing.T) {
	for _, h := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
		if _, err := BearerToken(h); err == nil {
			t.Fatalf("expected error for header %q", h)
		}
	}
	if tok, err := BearerToken("bearer abc"); err != nil || tok != "abc" {
		t.Fatalf("scheme must be case-insensitive: %v %q", err, tok)
	}
}
