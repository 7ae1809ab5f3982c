package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/models"
)

// UserLookup is the slice of the user repository the authenticator needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticator turns a bearer token into a Principal. The user is reloaded
// on every call so role changes apply immediately.
type Authenticator struct {
	secret string
	users  UserLookup
	log    *logrus.Entry
}

func NewAuthenticator(secret string, users UserLookup, log *logrus.Entry) *Authenticator {
	return &Authenticator{secret: secret, users: users, log: log}
}

// Authenticate validates token and resolves the stored user.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	id, err := ParseToken(token, a.secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
	}
	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		a.log.WithError(err).Error("load user for token")
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.Unauthenticated("User not found")
	}
	return &Principal{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}

// Issue signs a token for u that this authenticator will accept.
func (a *Authenticator) Issue(u *models.User, ttl time.Duration) (string, error) {
	return IssueToken(a.secret, u, ttl)
}
