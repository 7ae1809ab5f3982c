package repository

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	jsoniter "github.com/json-iterator/go"

	"libraryCatalog/models"
)

// BookFilter represents filters and pagination for List.
type BookFilter struct {
	Query  string // substring of title, author, isbn or description, case-insensitive
	Author string // substring of author, case-insensitive
	Tag    string // exact tag
	Status models.BookStatus
	Limit  int
	Offset int
}

func containsFold(col, needle string) exp.BooleanExpression {
	return goqu.Func("LOWER", goqu.C(col)).Like("%" + strings.ToLower(needle) + "%")
}

func (r *BookRepository) filtered(f BookFilter) *goqu.SelectDataset {
	ds := r.dialect.From(tableBooks).Prepared(true)
	var where []exp.Expression
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, goqu.Or(
			containsFold("title", q),
			containsFold("author", q),
			containsFold("isbn", q),
			containsFold("description", q),
		))
	}
	if a := strings.TrimSpace(f.Author); a != "" {
		where = append(where, containsFold("author", a))
	}
	if t := strings.TrimSpace(f.Tag); t != "" {
		// tags is a JSON array; match the encoded element so "sci" does not hit "sci-fi".
		enc, _ := jsoniter.MarshalToString(t)
		fn := "instr"
		if r.postgres() {
			fn = "strpos"
		}
		where = append(where, goqu.L(fn+"(tags, ?) > 0", enc))
	}
	if f.Status != "" {
		where = append(where, goqu.C("status").Eq(string(f.Status)))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	return ds
}

// List returns a page of books matching f ordered by title, and the total match count.
func (r *BookRepository) List(ctx context.Context, f BookFilter) ([]models.Book, int, error) {
	limit, offset := pageBounds(f.Limit, f.Offset, 20, 100)
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	base := r.filtered(f)
	var total int
	if err := r.get(ctx, r.db, &total, base.Select(goqu.COUNT(goqu.Star()))); err != nil {
		return nil, 0, err
	}
	out := []models.Book{}
	q := base.Select(bookColumns...).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc()).
		Limit(limit).Offset(offset)
	if err := r.selectAll(ctx, r.db, &out, q); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// All returns every book ordered by title.
func (r *BookRepository) All(ctx context.Context) ([]models.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	out := []models.Book{}
	q := r.dialect.From(tableBooks).Prepared(true).Select(bookColumns...).Order(goqu.C("title").Asc(), goqu.C("id").Asc())
	if err := r.selectAll(ctx, r.db, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchByKeywords returns books whose title, author or description contains
// any of the keywords, newest first, at most limit rows.
func (r *BookRepository) SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Book, error) {
	out := []models.Book{}
	if len(keywords) == 0 {
		return out, nil
	}
	l, _ := pageBounds(limit, 0, 20, 100)
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	ors := make([]exp.Expression, 0, len(keywords)*3)
	for _, kw := range keywords {
		ors = append(ors, containsFold("title", kw), containsFold("author", kw), containsFold("description", kw))
	}
	q := r.dialect.From(tableBooks).Prepared(true).Select(bookColumns...).
		Where(goqu.Or(ors...)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(l)
	if err := r.selectAll(ctx, r.db, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns the most recently created books.
func (r *BookRepository) Recent(ctx context.Context, limit int) ([]models.Book, error) {
	l, _ := pageBounds(limit, 0, 20, 100)
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	out := []models.Book{}
	q := r.dialect.From(tableBooks).Prepared(true).Select(bookColumns...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(l)
	if err := r.selectAll(ctx, r.db, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}
