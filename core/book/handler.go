package book

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

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		paging, err := catalog.ParsePaging(r)
		if err != nil {
			return weberr.InvalidInput(err)
		}

		f := Filter{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Search:   strings.TrimSpace(r.URL.Query().Get("search")),
			Paging:   paging,
		}
		if f.IsPremium, err = web.QueryBool(r, "isPremium"); err != nil {
			return weberr.InvalidInput(err)
		}
		if err := validate.Check(f); err != nil {
			return weberr.InvalidInput(err)
		}

		books, total, err := List(ctx, db, f)
		if err != nil {
			return weberr.Unavailable(fmt.Errorf("listing books: %w", err))
		}

		resp := struct {
			Books      []Book             `json:"books"`
			Pagination catalog.Pagination `json:"pagination"`
		}{books, catalog.NewPagination(f.Paging, total)}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		b, err := FetchPublished(ctx, db, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return weberr.NotFound(err, weberr.WithField("book_id", id))
			}
			return weberr.Unavailable(fmt.Errorf("fetching book[%s]: %w", id, err))
		}

		resp := struct {
			Book Book `json:"book"`
		}{b}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

func HandleContent(db *sqlx.DB, res *entitlement.Resolver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		b, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return weberr.NotFound(err, weberr.WithField("book_id", id))
			}
			return weberr.Unavailable(fmt.Errorf("fetching book[%s]: %w", id, err))
		}

		if err := res.Gate(ctx, b.Item(), r.URL.RequestURI()); err != nil {
			return err
		}

		return web.Respond(ctx, w, Content{ID: b.ID, Title: b.Title, ContentURL: b.ContentURL}, http.StatusOK)
	}
}
