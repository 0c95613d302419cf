package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/book"
	"github.com/irsalhamdi/lexvault/core/casefile"
	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/irsalhamdi/lexvault/core/claims"
	"github.com/irsalhamdi/lexvault/core/purchase"
	"github.com/irsalhamdi/lexvault/validate"
	"github.com/jmoiron/sqlx"
)

type ItemNew struct {
	ID   string `json:"id" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=book case_file"`
}

func findItem(ctx context.Context, db sqlx.QueryerContext, kind catalog.Kind, id string) (catalog.Item, error) {
	switch kind {
	case catalog.KindBook:
		b, err := book.FetchPublished(ctx, db, id)
		return b.Item(), err
	case catalog.KindCaseFile:
		cf, err := casefile.FetchPublished(ctx, db, id)
		return cf.Item(), err
	}
	return catalog.Item{}, catalog.ErrNotFound
}

func HandleShow(carts *Carts) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c := carts.Load(ctx)
		return web.Respond(ctx, w, c.Snapshot(), http.StatusOK)
	}
}

// HandleCreateItem adds a catalog item to the session cart. Free items and items the
// signed-in user already owns are refused: there is nothing to buy.
func HandleCreateItem(db *sqlx.DB, carts *Carts) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.InvalidInput(err)
		}
		kind := catalog.Kind(in.Kind)

		it, err := findItem(ctx, db, kind, in.ID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return weberr.NotFound(err, weberr.WithField("item_id", in.ID))
			}
			return weberr.Unavailable(fmt.Errorf("fetching %s[%s]: %w", kind, in.ID, err))
		}

		if !it.IsPremium || it.Price == 0 {
			err := fmt.Errorf("%s[%s] is free", kind, it.ID)
			return weberr.Conflict(err, "this item is free, no purchase needed")
		}

		if clm, err := claims.Get(ctx); err == nil {
			owned, err := purchase.HasCompleted(ctx, db, clm.UserID, it.ID, kind)
			if err != nil {
				return weberr.Unavailable(err)
			}
			if owned {
				err := fmt.Errorf("%s[%s] already owned by user[%s]", kind, it.ID, clm.UserID)
				return weberr.Conflict(err, "you already own this item")
			}
		}

		c := carts.Load(ctx)
		added, err := c.AddItem(EntryFor(it))
		if err != nil {
			return fmt.Errorf("adding %s[%s] to cart: %w", kind, it.ID, err)
		}

		resp := struct {
			Added bool     `json:"added"`
			Cart  Snapshot `json:"cart"`
		}{added, c.Snapshot()}

		status := http.StatusCreated
		if !added {
			status = http.StatusOK
		}
		return web.Respond(ctx, w, resp, status)
	}
}

func HandleDeleteItem(carts *Carts) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c := carts.Load(ctx)
		c.RemoveItem(web.Param(r, "id"))
		return web.Respond(ctx, w, c.Snapshot(), http.StatusOK)
	}
}

func HandleDelete(carts *Carts) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		carts.Load(ctx).Clear()
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
