package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type paymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe confirms a PaymentIntent per charge against a stored payment method.
type Stripe struct {
	intents       paymentIntents
	paymentMethod string
}

func NewStripe(api *stripecl.API, paymentMethod string) *Stripe {
	return &Stripe{intents: api.PaymentIntents, paymentMethod: paymentMethod}
}

func (s *Stripe) Capture(ctx context.Context, ch Charge) (Receipt, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(ch.Amount) * 100),
		Currency:           stripe.String(strings.ToLower(ch.Currency)),
		Description:        stripe.String(ch.Description),
		PaymentMethod:      stripe.String(s.paymentMethod),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	params.SetIdempotencyKey(ch.IdempotencyKey)
	params.AddMetadata("user_id", ch.UserID)
	params.AddMetadata("item_id", ch.ItemID)
	params.AddMetadata("item_type", string(ch.ItemType))

	pi, err := s.intents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
			return Receipt{}, declined("stripe: %s", se.Msg)
		}
		return Receipt{}, fmt.Errorf("stripe: creating payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Receipt{}, declined("stripe: payment intent[%s] ended in status[%s]", pi.ID, pi.Status)
	}

	return Receipt{Provider: "stripe", Reference: pi.ID}, nil
}
