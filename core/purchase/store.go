package purchase

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/jmoiron/sqlx"
)

// Create inserts rec. A second completed record for the same (user, item, type) is
// dropped and reported with created == false.
func Create(ctx context.Context, db sqlx.ExtContext, rec Record) (created bool, err error) {
	const q = `
	INSERT INTO purchases
		(purchase_id, user_id, item_id, item_type, amount, payment_status, payment_id, created_at)
	VALUES
		(:purchase_id, :user_id, :item_id, :item_type, :amount, :payment_status, :payment_id, :created_at)
	ON CONFLICT (user_id, item_id, item_type) WHERE payment_status = 'completed' DO NOTHING`

	res, err := sqlx.NamedExecContext(ctx, db, q, rec)
	if err != nil {
		return false, fmt.Errorf("inserting purchase of %s[%s]: %w", rec.ItemType, rec.ItemID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading inserted rows: %w", err)
	}
	return n == 1, nil
}

func HasCompleted(ctx context.Context, db sqlx.QueryerContext, userID, itemID string, kind catalog.Kind) (bool, error) {
	const q = `
	SELECT EXISTS (
		SELECT 1 FROM purchases
		WHERE user_id = $1 AND item_id = $2 AND item_type = $3 AND payment_status = 'completed'
	)`

	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, userID, itemID, kind); err != nil {
		return false, fmt.Errorf("checking purchase of %s[%s]: %w", kind, itemID, err)
	}
	return ok, nil
}

func ListCompleted(ctx context.Context, db sqlx.QueryerContext, userID string) ([]Record, error) {
	const q = `
	SELECT * FROM purchases
	WHERE user_id = $1 AND payment_status = 'completed'
	ORDER BY created_at DESC`

	recs := []Record{}
	if err := sqlx.SelectContext(ctx, db, &recs, q, userID); err != nil {
		return nil, fmt.Errorf("selecting purchases of user[%s]: %w", userID, err)
	}
	return recs, nil
}

// Store binds the purchase queries to a database for callers that take interfaces.
type Store struct {
	DB *sqlx.DB
}

func (s Store) HasCompleted(ctx context.Context, userID, itemID string, kind catalog.Kind) (bool, error) {
	return HasCompleted(ctx, s.DB, userID, itemID, kind)
}

func (s Store) Create(ctx context.Context, rec Record) (bool, error) {
	return Create(ctx, s.DB, rec)
}
