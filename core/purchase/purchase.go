package purchase

import (
	"time"

	"github.com/irsalhamdi/lexvault/core/catalog"
)

type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Failed    Status = "failed"
	Refunded  Status = "refunded"
)

// Record is one purchase of one catalog item. At most one completed record exists
// per (user, item, type); the database enforces it.
type Record struct {
	ID            string       `json:"id" db:"purchase_id"`
	UserID        string       `json:"userId" db:"user_id"`
	ItemID        string       `json:"itemId" db:"item_id"`
	ItemType      catalog.Kind `json:"itemType" db:"item_type"`
	Amount        int          `json:"amount" db:"amount"`
	PaymentStatus Status       `json:"paymentStatus" db:"payment_status"`
	PaymentID     string       `json:"paymentId" db:"payment_id"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`
}
