package casefile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/jmoiron/sqlx"
)

const columns = `case_file_id, title, case_number, court, year, category, summary,
	document_url, price, is_premium, is_published, created_at, updated_at`

func where(f Filter) *catalog.Where {
	w := &catalog.Where{}
	w.And("is_published")

	if f.Category != "" {
		w.And("category = ?", f.Category)
	}
	if f.Court != "" {
		w.And("court = ?", f.Court)
	}
	if f.Year != 0 {
		w.And("year = ?", f.Year)
	}
	if f.IsPremium != nil {
		w.And("is_premium = ?", *f.IsPremium)
	}
	if f.Search != "" {
		pat := catalog.Contains(f.Search)
		w.And("(title ILIKE ? OR case_number ILIKE ?)", pat, pat)
	}
	return w
}

// List returns one page of published case files, newest first, and the number of
// case files matching the filter across all pages.
func List(ctx context.Context, db sqlx.QueryerContext, f Filter) ([]CaseFile, int, error) {
	w := where(f)

	var total int
	if err := sqlx.GetContext(ctx, db, &total, w.Build(`SELECT count(*) FROM case_files`), w.Args()...); err != nil {
		return nil, 0, fmt.Errorf("counting case files: %w", err)
	}

	q := w.Build(`SELECT `+columns+` FROM case_files`, `ORDER BY created_at DESC, case_file_id`, `LIMIT ? OFFSET ?`)
	args := append(w.Args(), f.Limit, f.Offset())

	cfs := []CaseFile{}
	if err := sqlx.SelectContext(ctx, db, &cfs, q, args...); err != nil {
		return nil, 0, fmt.Errorf("selecting case files: %w", err)
	}
	return cfs, total, nil
}

// Fetch returns the case file regardless of its publication state.
func Fetch(ctx context.Context, db sqlx.QueryerContext, id string) (CaseFile, error) {
	q := `SELECT ` + columns + ` FROM case_files WHERE case_file_id = $1`

	var cf CaseFile
	if err := sqlx.GetContext(ctx, db, &cf, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CaseFile{}, catalog.ErrNotFound
		}
		return CaseFile{}, fmt.Errorf("selecting case file[%s]: %w", id, err)
	}
	return cf, nil
}

// FetchPublished is Fetch for non-admin callers: unpublished rows do not exist.
func FetchPublished(ctx context.Context, db sqlx.QueryerContext, id string) (CaseFile, error) {
	cf, err := Fetch(ctx, db, id)
	if err != nil {
		return CaseFile{}, err
	}
	if !cf.IsPublished {
		return CaseFile{}, catalog.ErrNotFound
	}
	return cf, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, cf CaseFile) error {
	const q = `
	INSERT INTO case_files
		(case_file_id, title, case_number, court, year, category, summary,
		 document_url, price, is_premium, is_published, created_at, updated_at)
	VALUES
		(:case_file_id, :title, :case_number, :court, :year, :category, :summary,
		 :document_url, :price, :is_premium, :is_published, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, cf); err != nil {
		return fmt.Errorf("inserting case file: %w", err)
	}
	return nil
}
