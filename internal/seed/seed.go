// Package seed loads demo users and a starter catalog.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"libraryCatalog/models"
	"libraryCatalog/repository"
)

// Users are the demo accounts, one per role.
var Users = []models.User{
	{Email: "admin@library.local", Name: "Library Admin", Role: models.RoleAdmin},
	{Email: "librarian@library.local", Name: "Head Librarian", Role: models.RoleLibrarian},
	{Email: "member@library.local", Name: "Library Member", Role: models.RoleMember},
}

type bookSeed struct {
	title, author, isbn, description string
	year                             int
	tags                             []string
}

var books = []bookSeed{
	{"Dune", "Frank Herbert", "9780441172719", "A noble family becomes embroiled in a war for control of the desert planet Arrakis.", 1965, []string{"science-fiction", "classic"}},
	{"Foundation", "Isaac Asimov", "9780553293357", "A mathematician foresees the fall of the Galactic Empire and plans to shorten the dark age.", 1951, []string{"science-fiction", "classic"}},
	{"Pride and Prejudice", "Jane Austen", "9780141439518", "Elizabeth Bennet navigates manners, marriage and misjudgement in Regency England.", 1813, []string{"romance", "classic"}},
	{"Nineteen Eighty-Four", "George Orwell", "9780451524935", "A clerk in a totalitarian state begins to question the Party.", 1949, []string{"dystopia", "classic"}},
	{"The Hobbit", "J.R.R. Tolkien", "9780547928227", "Bilbo Baggins is swept into a quest to reclaim a dwarf kingdom from a dragon.", 1937, []string{"fantasy", "adventure"}},
	{"To Kill a Mockingbird", "Harper Lee", "9780061120084", "A lawyer in the American South defends a Black man falsely accused of a crime.", 1960, []string{"classic", "justice"}},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "9780441478125", "An envoy visits a world whose people have no fixed sex.", 1969, []string{"science-fiction"}},
	{"Moby-Dick", "Herman Melville", "9781503280786", "Captain Ahab hunts the white whale that took his leg.", 1851, []string{"adventure", "classic"}},
}

// Result counts what Run inserted.
type Result struct {
	Users int
	Books int
}

// Run inserts the demo users and books. Rows that already exist (by email or
// ISBN) are left untouched, so running it twice is harmless.
func Run(ctx context.Context, users repository.UserRepositoryI, catalog repository.BookRepositoryI, log *logrus.Entry) (Result, error) {
	var res Result
	for _, u := range Users {
		existing, err := users.GetByEmail(ctx, u.Email)
		if err != nil {
			return res, fmt.Errorf("lookup %s: %w", u.Email, err)
		}
		if existing != nil {
			continue
		}
		u := u
		if _, err := users.Create(ctx, &u); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return res, fmt.Errorf("create %s: %w", u.Email, err)
		}
		res.Users++
	}
	for _, s := range books {
		isbn, desc, year := s.isbn, s.description, s.year
		_, err := catalog.Create(ctx, &models.Book{
			Title:         s.title,
			Author:        s.author,
			ISBN:          &isbn,
			Description:   &desc,
			PublishedYear: &year,
			Tags:          s.tags,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create %q: %w", s.title, err)
		}
		res.Books++
	}
	log.WithFields(logrus.Fields{"users": res.Users, "books": res.Books}).Info("seed complete")
	return res, nil
}
