// Package payment captures the money for a single cart entry. Providers return
// ErrDeclined when the payer's instrument was refused; any other error means the
// outcome is unknown and the capture may be retried with the same idempotency key.
package payment

import (
	"errors"
	"fmt"

	"github.com/irsalhamdi/lexvault/core/catalog"
)

var ErrDeclined = errors.New("payment declined")

type Charge struct {
	IdempotencyKey string
	UserID         string
	ItemID         string
	ItemType       catalog.Kind
	Description    string
	Amount         int
	Currency       string
}

type Receipt struct {
	Provider  string
	Reference string
}

func declined(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDeclined, fmt.Sprintf(format, args...))
}
