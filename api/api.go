package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/lexvault/api/middleware"
	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/auth"
	"github.com/irsalhamdi/lexvault/core/book"
	"github.com/irsalhamdi/lexvault/core/cart"
	"github.com/irsalhamdi/lexvault/core/casefile"
	"github.com/irsalhamdi/lexvault/core/checkout"
	"github.com/irsalhamdi/lexvault/core/entitlement"
	"github.com/irsalhamdi/lexvault/core/purchase"
	"github.com/irsalhamdi/lexvault/core/user"
	"github.com/irsalhamdi/lexvault/database"
	"github.com/irsalhamdi/lexvault/rate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Limiter          *rate.Limiter
	Carts            *cart.Carts
	Resolver         *entitlement.Resolver
	Checkout         *checkout.Orchestrator
	Identity         auth.Identity
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	optional := auth.Optional(cfg.Session)
	limit := middleware.RateLimit(cfg.Limiter)

	health := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := database.StatusCheck(ctx, cfg.DB); err != nil {
			return weberr.Unavailable(fmt.Errorf("database not ready: %w", err))
		}
		return web.Respond(ctx, w, struct {
			Status string `json:"status"`
		}{"ok"}, http.StatusOK)
	}
	a.Handle(http.MethodGet, "/healthz", health)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session), limit)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limit)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Identity))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/case-files/{id}/content", casefile.HandleContent(cfg.DB, cfg.Resolver), optional)
	a.Handle(http.MethodGet, "/case-files/{id}", casefile.HandleShow(cfg.DB), limit)
	a.Handle(http.MethodGet, "/case-files", casefile.HandleList(cfg.DB), limit)

	a.Handle(http.MethodGet, "/books/{id}/content", book.HandleContent(cfg.DB, cfg.Resolver), optional)
	a.Handle(http.MethodGet, "/books/{id}", book.HandleShow(cfg.DB), limit)
	a.Handle(http.MethodGet, "/books", book.HandleList(cfg.DB), limit)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts))
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Carts))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB, cfg.Carts), optional)
	a.Handle(http.MethodDelete, "/cart/items/{id}", cart.HandleDeleteItem(cfg.Carts))

	a.Handle(http.MethodPost, "/checkout", checkout.HandleCheckout(cfg.Checkout, cfg.Carts))
	a.Handle(http.MethodGet, "/purchases", purchase.HandleListOwned(cfg.DB), authen)

	// anonymous visitors get a session too, it carries their cart key
	return cfg.Session.LoadAndSave(a.Router)
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
