package library

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/access"
	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/oauth"
	"libraryCatalog/models"
	"libraryCatalog/repository"
)

const msgUserNotFound = "User not found"

// Me returns the caller's stored user record.
func (s *Service) Me(ctx context.Context, p *auth.Principal) (*models.User, error) {
	if p == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	u, err := s.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	return u, nil
}

// ListUsers returns users ordered by creation time.
func (s *Service) ListUsers(ctx context.Context, p *auth.Principal, page Page) ([]models.User, error) {
	if err := access.Require(p, access.ListUsers); err != nil {
		return nil, err
	}
	if page.PageSize == 0 {
		page.PageSize = maxPageSize
	}
	pg, err := page.normalize()
	if err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx, pg.PageSize, pg.offset())
	if err != nil {
		return nil, internal(err)
	}
	return users, nil
}

// ChangeRole sets a user's role. It takes effect on the user's next request.
func (s *Service) ChangeRole(ctx context.Context, p *auth.Principal, userID uuid.UUID, role string) (*models.User, error) {
	if err := access.Require(p, access.ChangeRole); err != nil {
		return nil, err
	}
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, apperr.Validation("role must be one of ADMIN, LIBRARIAN, MEMBER")
	}
	u, err := s.Users.UpdateRole(ctx, userID, r)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound(msgUserNotFound)
	case err != nil:
		return nil, internal(err)
	}
	s.Log.WithFields(logrus.Fields{"target_user_id": userID, "role": r, "user_id": p.UserID}).Info("role changed")
	return u, nil
}

// SignIn resolves an externally verified identity to a stored user, creating a
// MEMBER on first sight. An unverified email never resolves to an account.
func (s *Service) SignIn(ctx context.Context, id *oauth.Identity) (*models.User, error) {
	if id == nil || id.Subject == "" {
		return nil, apperr.Validation("identity provider returned no subject")
	}
	if id.Email == "" || !id.EmailVerified {
		s.Log.WithFields(logrus.Fields{"provider": id.Provider, "subject": id.Subject}).Warn("sign-in refused: email not verified")
		return nil, apperr.Unauthenticated("identity provider returned no verified email")
	}
	u, created, err := s.Users.GetOrCreate(ctx, id.Email, id.Name, id.Provider, id.Subject)
	if err != nil {
		return nil, internal(err)
	}
	s.Log.WithFields(logrus.Fields{"user_id": u.ID, "provider": id.Provider, "created": created}).Info("user signed in")
	return u, nil
}
