package purchase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/claims"
	"github.com/jmoiron/sqlx"
)

func HandleListOwned(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		recs, err := ListCompleted(ctx, db, clm.UserID)
		if err != nil {
			return weberr.Unavailable(fmt.Errorf("listing owned items: %w", err))
		}

		resp := struct {
			Purchases []Record `json:"purchases"`
		}{recs}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}
