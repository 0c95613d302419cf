package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/jmoiron/sqlx"
)

const columns = `book_id, title, author, isbn, category, description, cover_url,
	content_url, price, is_premium, is_published, created_at, updated_at`

func where(f Filter) *catalog.Where {
	w := &catalog.Where{}
	w.And("is_published")

	if f.Category != "" {
		w.And("category = ?", f.Category)
	}
	if f.IsPremium != nil {
		w.And("is_premium = ?", *f.IsPremium)
	}
	if f.Search != "" {
		pat := catalog.Contains(f.Search)
		w.And("(title ILIKE ? OR author ILIKE ? OR isbn ILIKE ?)", pat, pat, pat)
	}
	return w
}

func List(ctx context.Context, db sqlx.QueryerContext, f Filter) ([]Book, int, error) {
	w := where(f)

	var total int
	if err := sqlx.GetContext(ctx, db, &total, w.Build(`SELECT count(*) FROM books`), w.Args()...); err != nil {
		return nil, 0, fmt.Errorf("counting books: %w", err)
	}

	q := w.Build(`SELECT `+columns+` FROM books`, `ORDER BY created_at DESC, book_id`, `LIMIT ? OFFSET ?`)
	args := append(w.Args(), f.Limit, f.Offset())

	books := []Book{}
	if err := sqlx.SelectContext(ctx, db, &books, q, args...); err != nil {
		return nil, 0, fmt.Errorf("selecting books: %w", err)
	}
	return books, total, nil
}

func Fetch(ctx context.Context, db sqlx.QueryerContext, id string) (Book, error) {
	q := `SELECT ` + columns + ` FROM books WHERE book_id = $1`

	var b Book
	if err := sqlx.GetContext(ctx, db, &b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, catalog.ErrNotFound
		}
		return Book{}, fmt.Errorf("selecting book[%s]: %w", id, err)
	}
	return b, nil
}

func FetchPublished(ctx context.Context, db sqlx.QueryerContext, id string) (Book, error) {
	b, err := Fetch(ctx, db, id)
	if err != nil {
		return Book{}, err
	}
	if !b.IsPublished {
		return Book{}, catalog.ErrNotFound
	}
	return b, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, b Book) error {
	const q = `
	INSERT INTO books
		(book_id, title, author, isbn, category, description, cover_url,
		 content_url, price, is_premium, is_published, created_at, updated_at)
	VALUES
		(:book_id, :title, :author, :isbn, :category, :description, :cover_url,
		 :content_url, :price, :is_premium, :is_published, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, b); err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}
	return nil
}
