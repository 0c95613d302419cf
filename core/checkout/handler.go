package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/cart"
)

func HandleCheckout(orch *Orchestrator, carts *cart.Carts) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c := carts.Load(ctx)

		res, err := orch.Checkout(ctx, c)
		switch {
		case errors.Is(err, ErrInProgress):
			return weberr.Conflict(err, err.Error(), weberr.WithField("cart_id", c.ID()))
		case errors.Is(err, ErrEmptyCart):
			return weberr.Unprocessable(err, err.Error())
		case err != nil:
			return weberr.Unavailable(fmt.Errorf("checking out cart[%s]: %w", c.ID(), err))
		}

		resp := struct {
			Result
			Cart cart.Snapshot `json:"cart"`
		}{res, c.Snapshot()}

		switch res.Status {
		case AuthenticationRequired:
			return weberr.LoginRequired(errors.New("checkout without a signed-in user"), "/cart")
		case PartialFailure:
			return web.Respond(ctx, w, resp, http.StatusMultiStatus)
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}
