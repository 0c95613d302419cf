// Package entitlement decides whether protected catalog content may be shown to a
// caller. Every decision asks the purchase records again; nothing is cached, since
// a purchase made on another device must be visible immediately.
package entitlement

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/irsalhamdi/lexvault/core/claims"
	"github.com/sirupsen/logrus"
)

type Decision int

const (
	// NotFound is returned for unpublished items; callers answer it like a missing row.
	NotFound Decision = iota
	Granted
	RequiresAuthentication
	RequiresPurchase
)

func (d Decision) String() string {
	switch d {
	case NotFound:
		return "not_found"
	case Granted:
		return "granted"
	case RequiresAuthentication:
		return "requires_authentication"
	case RequiresPurchase:
		return "requires_purchase"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Purchases is the purchase-record lookup the resolver depends on.
type Purchases interface {
	HasCompleted(ctx context.Context, userID, itemID string, kind catalog.Kind) (bool, error)
}

type Resolver struct {
	purchases Purchases
	log       logrus.FieldLogger
}

func NewResolver(purchases Purchases, log logrus.FieldLogger) *Resolver {
	return &Resolver{purchases: purchases, log: log}
}

// Resolve applies the access rules in order: unpublished, free, anonymous, owned.
// A failed lookup denies access with RequiresPurchase and returns the error so the
// caller can offer a retry instead of a purchase.
func (r *Resolver) Resolve(ctx context.Context, user *claims.Claims, item catalog.Item) (Decision, error) {
	if !item.IsPublished {
		return NotFound, nil
	}
	if !item.IsPremium {
		return Granted, nil
	}
	if user == nil {
		return RequiresAuthentication, nil
	}

	owned, err := r.purchases.HasCompleted(ctx, user.UserID, item.ID, item.Kind)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id":   user.UserID,
			"item_id":   item.ID,
			"item_type": item.Kind,
			"message":   err,
		}).Warn("entitlement lookup failed, denying access")
		return RequiresPurchase, fmt.Errorf("looking up purchase of %s[%s]: %w", item.Kind, item.ID, err)
	}

	if owned {
		return Granted, nil
	}
	return RequiresPurchase, nil
}
