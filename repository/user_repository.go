package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"libraryCatalog/models"
)

var userColumns = []interface{}{"id", "email", "name", "role", "oauth_provider", "oauth_subject", "created_at"}

type UserRepository struct {
	store
}

func NewUserRepository(d *sqlx.DB) *UserRepository {
	return &UserRepository{store: newStore(d)}
}

// Create inserts a new user. ID, role and created_at are filled in when empty.
// Returns ErrDuplicate when the email or the (provider, subject) pair is taken.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = nowUTC()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	ins := r.dialect.Insert(tableUsers).Prepared(true).Rows(goqu.Record{
		"id":             u.ID,
		"email":          u.Email,
		"name":           u.Name,
		"role":           string(u.Role),
		"oauth_provider": u.OAuthProvider,
		"oauth_subject":  u.OAuthSubject,
		"created_at":     u.CreatedAt,
	})
	if _, err := r.exec(ctx, r.db, ins); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) getWhere(ctx context.Context, where goqu.Ex) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	var u models.User
	q := r.dialect.From(tableUsers).Prepared(true).Select(userColumns...).Where(where).Limit(1)
	if err := r.get(ctx, r.db, &u, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getWhere(ctx, goqu.Ex{"id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getWhere(ctx, goqu.Ex{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.getWhere(ctx, goqu.Ex{"oauth_provider": provider, "oauth_subject": subject})
}

// LinkOAuth attaches a provider identity to an existing user.
func (r *UserRepository) LinkOAuth(ctx context.Context, id uuid.UUID, provider, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	upd := r.dialect.Update(tableUsers).Prepared(true).
		Set(goqu.Record{"oauth_provider": provider, "oauth_subject": subject}).
		Where(goqu.Ex{"id": id})
	n, err := r.exec(ctx, r.db, upd)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrCreate resolves the user for a provider identity: first by (provider, subject),
// then by email (linking the identity), else a new MEMBER is created.
// The boolean reports whether a user was created.
func (r *UserRepository) GetOrCreate(ctx context.Context, email, name, provider, subject string) (*models.User, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		u, err := r.GetByOAuth(ctx, provider, subject)
		if err != nil || u != nil {
			return u, false, err
		}
		u, err = r.GetByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		if u != nil {
			if u.OAuthProvider == nil {
				if err := r.LinkOAuth(ctx, u.ID, provider, subject); err != nil {
					return nil, false, err
				}
				u.OAuthProvider, u.OAuthSubject = &provider, &subject
			}
			return u, false, nil
		}
		created, err := r.Create(ctx, &models.User{
			Email:         email,
			Name:          name,
			Role:          models.RoleMember,
			OAuthProvider: &provider,
			OAuthSubject:  &subject,
		})
		if errors.Is(err, ErrDuplicate) {
			// lost a race with a concurrent callback; resolve again
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	}
	return nil, false, ErrDuplicate
}

// List returns users ordered by creation time.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	l, o := pageBounds(limit, offset, 100, 500)
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	out := []models.User{}
	q := r.dialect.From(tableUsers).Prepared(true).Select(userColumns...).
		Order(goqu.C("created_at").Asc(), goqu.C("email").Asc()).
		Limit(l).Offset(o)
	if err := r.selectAll(ctx, r.db, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRole sets the role of a user and returns the updated row.
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	upd := r.dialect.Update(tableUsers).Prepared(true).
		Set(goqu.Record{"role": string(role)}).
		Where(goqu.Ex{"id": id})
	n, err := r.exec(ctx, r.db, upd)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}
