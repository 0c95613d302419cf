// Package checkout turns the entries of a cart into completed purchases.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/irsalhamdi/lexvault/core/cart"
	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/irsalhamdi/lexvault/core/claims"
	"github.com/irsalhamdi/lexvault/core/purchase"
	"github.com/irsalhamdi/lexvault/payment"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	Success                Status = "success"
	PartialFailure         Status = "partial_failure"
	AuthenticationRequired Status = "authentication_required"
)

var (
	ErrInProgress = errors.New("checkout already in progress")
	ErrEmptyCart  = errors.New("no items to checkout")
)

type Identity interface {
	Current(ctx context.Context) (*claims.Claims, error)
}

type Purchases interface {
	HasCompleted(ctx context.Context, userID, itemID string, kind catalog.Kind) (bool, error)
	Create(ctx context.Context, rec purchase.Record) (bool, error)
}

type Payments interface {
	Capture(ctx context.Context, ch payment.Charge) (payment.Receipt, error)
}

// Failure describes one cart entry that could not be purchased.
type Failure struct {
	ID       string       `json:"id"`
	Kind     catalog.Kind `json:"kind"`
	Title    string       `json:"title"`
	Reason   string       `json:"reason"`
	Declined bool         `json:"declined"`
}

type Result struct {
	Status    Status       `json:"status"`
	Purchased []cart.Entry `json:"purchased,omitempty"`
	Failed    []Failure    `json:"failed,omitempty"`
}

// FailedIDs lists the ids of the failed entries in cart order.
func (r Result) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}

type Config struct {
	Timeout     time.Duration
	Concurrency int
	Currency    string
}

type outcome struct {
	purchaseID string
	paymentID  string
	owned      bool
	err        error
}

type Orchestrator struct {
	identity  Identity
	purchases Purchases
	payments  Payments
	log       logrus.FieldLogger
	cfg       Config
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(identity Identity, purchases Purchases, payments Payments, log logrus.FieldLogger, cfg Config) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}

	return &Orchestrator{
		identity:  identity,
		purchases: purchases,
		payments:  payments,
		log:       log,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		inflight:  make(map[string]struct{}),
	}
}

func (o *Orchestrator) acquire(cartID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inflight[cartID]; busy {
		return false
	}
	o.inflight[cartID] = struct{}{}
	return true
}

func (o *Orchestrator) release(cartID string) {
	o.mu.Lock()
	delete(o.inflight, cartID)
	o.mu.Unlock()
}

// Checkout purchases every entry c holds when the call starts. Entries are
// submitted concurrently and each outcome is tracked on its own: purchased entries
// leave the cart, failed ones stay so the user can retry them. Entries added or
// removed by other requests meanwhile are left as they are. Only one checkout
// per cart runs at a time; others get ErrInProgress without submitting anything.
//
// Submissions do not stop when ctx is cancelled, so a purchase whose payment was
// taken is still recorded if the caller goes away.
func (o *Orchestrator) Checkout(ctx context.Context, c *cart.Manager) (Result, error) {
	if !o.acquire(c.ID()) {
		return Result{}, ErrInProgress
	}
	defer o.release(c.ID())

	user, err := o.identity.Current(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resolving identity: %w", err)
	}
	if user == nil {
		return Result{Status: AuthenticationRequired}, nil
	}

	entries := c.Entries()
	if len(entries) == 0 {
		return Result{}, ErrEmptyCart
	}

	log := o.log.WithFields(logrus.Fields{"user_id": user.UserID, "cart_id": c.ID()})
	log.WithField("items", len(entries)).Info("checkout started")

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.Timeout)
	defer cancel()

	var mu sync.Mutex
	outcomes := make(map[string]outcome, len(entries))

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for _, e := range entries {
		e := e
		g.Go(func() error {
			out := o.submit(sctx, user.UserID, e)

			mu.Lock()
			outcomes[e.ID] = out
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	res := Result{Status: Success}
	var done []string
	for _, e := range entries {
		out := outcomes[e.ID]
		elog := log.WithFields(logrus.Fields{"item_id": e.ID, "item_type": e.Kind})

		if out.err != nil {
			declined := errors.Is(out.err, payment.ErrDeclined)
			reason := "temporarily unavailable, please retry"
			if declined {
				reason = "payment declined"
			}
			res.Failed = append(res.Failed, Failure{ID: e.ID, Kind: e.Kind, Title: e.Title, Reason: reason, Declined: declined})
			elog.WithField("message", out.err).Warn("checkout item failed")
			continue
		}

		res.Purchased = append(res.Purchased, e)
		done = append(done, e.ID)
		elog.WithFields(logrus.Fields{
			"purchase_id": out.purchaseID,
			"payment_id":  out.paymentID,
			"owned":       out.owned,
		}).Info("checkout item completed")
	}

	if len(res.Failed) > 0 {
		res.Status = PartialFailure
	}
	// only purchased entries leave the cart; it may have changed since the snapshot
	c.RemoveItems(done...)

	log.WithFields(logrus.Fields{
		"status":    res.Status,
		"purchased": len(res.Purchased),
		"failed":    len(res.Failed),
	}).Info("checkout finished")

	return res, nil
}

// submit buys one entry. An entry the user already owns is reported as done without
// charging again, which keeps a retried checkout from paying twice.
func (o *Orchestrator) submit(ctx context.Context, userID string, e cart.Entry) outcome {
	owned, err := o.purchases.HasCompleted(ctx, userID, e.ID, e.Kind)
	if err != nil {
		return outcome{err: err}
	}
	if owned {
		return outcome{owned: true}
	}

	var rcpt payment.Receipt
	if e.UnitPrice > 0 {
		rcpt, err = o.payments.Capture(ctx, payment.Charge{
			IdempotencyKey: uuid.NewString(),
			UserID:         userID,
			ItemID:         e.ID,
			ItemType:       e.Kind,
			Description:    e.Title,
			Amount:         e.UnitPrice,
			Currency:       o.cfg.Currency,
		})
		if err != nil {
			return outcome{err: err}
		}
	}

	rec := purchase.Record{
		ID:            uuid.NewString(),
		UserID:        userID,
		ItemID:        e.ID,
		ItemType:      e.Kind,
		Amount:        e.UnitPrice,
		PaymentStatus: purchase.Completed,
		PaymentID:     rcpt.Reference,
		CreatedAt:     o.now(),
	}

	created, err := o.purchases.Create(ctx, rec)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"user_id":    userID,
			"item_id":    e.ID,
			"payment_id": rcpt.Reference,
			"message":    err,
		}).Error("payment captured but purchase not recorded")
		return outcome{paymentID: rcpt.Reference, err: fmt.Errorf("recording purchase: %w", err)}
	}
	if !created {
		o.log.WithFields(logrus.Fields{
			"user_id":    userID,
			"item_id":    e.ID,
			"payment_id": rcpt.Reference,
		}).Warn("item purchased concurrently elsewhere, payment needs a refund")
		return outcome{paymentID: rcpt.Reference, owned: true}
	}

	return outcome{purchaseID: rec.ID, paymentID: rcpt.Reference}
}
