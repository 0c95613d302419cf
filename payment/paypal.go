package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/plutov/paypal/v4"
)

// Paypal creates and immediately captures an order per charge. The idempotency key
// travels as the invoice id, which PayPal refuses to bill twice.
type Paypal struct {
	client *paypal.Client
}

func NewPaypal(client *paypal.Client) *Paypal {
	return &Paypal{client: client}
}

func (p *Paypal) Capture(ctx context.Context, ch Charge) (Receipt, error) {
	value := strconv.Itoa(ch.Amount)
	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: ch.ItemID,
		Description: ch.Description,
		CustomID:    ch.UserID,
		InvoiceID:   ch.IdempotencyKey,

		Amount: &paypal.PurchaseUnitAmount{
			Currency: ch.Currency,
			Value:    value,
		},
	}}

	ord, err := p.client.CreateOrder(ctx, "CAPTURE", units, nil, nil)
	if err != nil {
		return Receipt{}, paypalError("creating order", err)
	}

	resp, err := p.client.CaptureOrder(ctx, ord.ID, paypal.CaptureOrderRequest{})
	if err != nil {
		return Receipt{}, paypalError(fmt.Sprintf("capturing order[%s]", ord.ID), err)
	}

	if resp.Status != "COMPLETED" {
		return Receipt{}, declined("paypal: order[%s] captured with status[%s]", ord.ID, resp.Status)
	}

	return Receipt{Provider: "paypal", Reference: ord.ID}, nil
}

func paypalError(op string, err error) error {
	var perr *paypal.ErrorResponse
	if errors.As(err, &perr) && perr.Response != nil && perr.Response.StatusCode == http.StatusUnprocessableEntity {
		return declined("paypal: %s: %s", op, perr.Message)
	}
	return fmt.Errorf("paypal: %s: %w", op, err)
}
