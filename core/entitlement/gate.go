package entitlement

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/irsalhamdi/lexvault/core/claims"
)

// Gate resolves access for the caller on ctx and converts any outcome other than
// Granted into the matching client error. next is where login should return to.
func (r *Resolver) Gate(ctx context.Context, item catalog.Item, next string) error {
	dec, err := r.Resolve(ctx, claims.Optional(ctx), item)
	if err != nil {
		return weberr.Unavailable(err, weberr.WithField("item_id", item.ID))
	}

	switch dec {
	case Granted:
		return nil
	case NotFound:
		return weberr.NotFound(fmt.Errorf("%s[%s] is not published", item.Kind, item.ID))
	case RequiresAuthentication:
		return weberr.LoginRequired(fmt.Errorf("anonymous access to premium %s[%s]", item.Kind, item.ID), next)
	default:
		return weberr.PurchaseRequired(fmt.Errorf("no completed purchase of %s[%s]", item.Kind, item.ID), item.PurchaseURL())
	}
}
