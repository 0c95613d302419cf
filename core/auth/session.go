package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/claims"
	"github.com/irsalhamdi/lexvault/core/user"
	"github.com/jmoiron/sqlx"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
	stateKey  = "oauth_state"
	nonceKey  = "oauth_nonce"
)

func login(ctx context.Context, session *scs.SessionManager, usr user.User) error {
	if err := session.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	session.Put(ctx, userIDKey, usr.ID)
	session.Put(ctx, roleKey, usr.Role)
	return nil
}

func sessionClaims(ctx context.Context, session *scs.SessionManager) (claims.Claims, bool) {
	id := session.GetString(ctx, userIDKey)
	if id == "" {
		return claims.Claims{}, false
	}
	return claims.Claims{UserID: id, Role: session.GetString(ctx, roleKey)}, true
}

// Authenticate rejects anonymous requests, pointing them at the login flow that
// brings them back to the requested path.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, ok := sessionClaims(ctx, session)
			if !ok {
				return weberr.LoginRequired(fmt.Errorf("anonymous request to %s", r.URL.Path), r.URL.RequestURI())
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Optional attaches claims when the session is signed in and lets anonymous
// requests through untouched.
func Optional(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if clm, ok := sessionClaims(ctx, session); ok {
				ctx = claims.Set(ctx, clm)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Identity answers "who is signed in right now" from the session, re-reading the
// account so a deleted user is no longer treated as authenticated.
type Identity struct {
	DB      *sqlx.DB
	Session *scs.SessionManager
}

func (i Identity) Current(ctx context.Context) (*claims.Claims, error) {
	clm, ok := sessionClaims(ctx, i.Session)
	if !ok {
		return nil, nil
	}

	usr, err := user.Fetch(ctx, i.DB, clm.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving identity[%s]: %w", clm.UserID, err)
	}

	return &claims.Claims{UserID: usr.ID, Role: usr.Role}, nil
}

// SignOut drops the identity and everything else stored in the session.
func (i Identity) SignOut(ctx context.Context) error {
	if err := i.Session.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}
