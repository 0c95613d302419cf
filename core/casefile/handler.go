package casefile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/irsalhamdi/lexvault/core/entitlement"
	"github.com/irsalhamdi/lexvault/validate"
	"github.com/jmoiron/sqlx"
)

func parseFilter(r *http.Request) (Filter, error) {
	paging, err := catalog.ParsePaging(r)
	if err != nil {
		return Filter{}, err
	}

	q := r.URL.Query()
	f := Filter{
		Category: strings.TrimSpace(q.Get("category")),
		Court:    strings.TrimSpace(q.Get("court")),
		Search:   strings.TrimSpace(q.Get("search")),
		Paging:   paging,
	}

	if f.Year, err = web.QueryInt(r, "year", 0); err != nil {
		return Filter{}, err
	}
	if f.IsPremium, err = web.QueryBool(r, "isPremium"); err != nil {
		return Filter{}, err
	}

	if err := validate.Check(f); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f, err := parseFilter(r)
		if err != nil {
			return weberr.InvalidInput(err)
		}

		cfs, total, err := List(ctx, db, f)
		if err != nil {
			return weberr.Unavailable(fmt.Errorf("listing case files: %w", err))
		}

		resp := struct {
			CaseFiles  []CaseFile         `json:"caseFiles"`
			Pagination catalog.Pagination `json:"pagination"`
		}{cfs, catalog.NewPagination(f.Paging, total)}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		cf, err := FetchPublished(ctx, db, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return weberr.NotFound(err, weberr.WithField("case_file_id", id))
			}
			return weberr.Unavailable(fmt.Errorf("fetching case file[%s]: %w", id, err))
		}

		resp := struct {
			CaseFile CaseFile `json:"caseFile"`
		}{cf}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

// HandleContent serves the protected document link once the caller is entitled to it.
func HandleContent(db *sqlx.DB, res *entitlement.Resolver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		cf, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return weberr.NotFound(err, weberr.WithField("case_file_id", id))
			}
			return weberr.Unavailable(fmt.Errorf("fetching case file[%s]: %w", id, err))
		}

		if err := res.Gate(ctx, cf.Item(), r.URL.RequestURI()); err != nil {
			return err
		}

		return web.Respond(ctx, w, Content{ID: cf.ID, Title: cf.Title, DocumentURL: cf.DocumentURL}, http.StatusOK)
	}
}
