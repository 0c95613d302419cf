package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/user"
	"github.com/irsalhamdi/lexvault/validate"
	"github.com/jmoiron/sqlx"
)

func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su user.UserSignup
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.InvalidInput(err)
		}

		usr, err := user.Register(ctx, db, su, time.Now().UTC())
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				return weberr.Conflict(err, err.Error())
			}
			return fmt.Errorf("registering user: %w", err)
		}

		if err := login(ctx, session, usr); err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ul user.UserLogin
		if err := web.Decode(w, r, &ul); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ul); err != nil {
			return weberr.InvalidInput(err)
		}

		usr, err := user.Authenticate(ctx, db, ul.Email, ul.Password)
		switch {
		case errors.Is(err, user.ErrBadCredentials), errors.Is(err, user.ErrPasswordMissing):
			return weberr.NewError(err, err.Error(), http.StatusUnauthorized)
		case err != nil:
			return fmt.Errorf("authenticating user: %w", err)
		}

		if err := login(ctx, session, usr); err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(identity Identity) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := identity.SignOut(ctx); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
