package repository

import (
	"context"

	"github.com/google/uuid"

	"libraryCatalog/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetOrCreate(ctx context.Context, email, name, provider, subject string) (*models.User, bool, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
}

// BookRepositoryI defines operations on Book entities.
type BookRepositoryI interface {
	Create(ctx context.Context, b *models.Book) (*models.Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	Update(ctx context.Context, b *models.Book) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f BookFilter) ([]models.Book, int, error)
	All(ctx context.Context) ([]models.Book, error)
	SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Book, error)
	Recent(ctx context.Context, limit int) ([]models.Book, error)
}

// LoanRepositoryI defines operations on Loan entities.
type LoanRepositoryI interface {
	Checkout(ctx context.Context, bookID, userID uuid.UUID) (*models.Loan, error)
	Return(ctx context.Context, loanID uuid.UUID, authorize func(*models.Loan) error) (*models.Loan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	List(ctx context.Context, f LoanFilter) ([]models.Loan, int, error)
}

var (
	_ UserRepositoryI = (*UserRepository)(nil)
	_ BookRepositoryI = (*BookRepository)(nil)
	_ LoanRepositoryI = (*LoanRepository)(nil)
)
